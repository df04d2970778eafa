//go:build integration

package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a local Chrome/Chromium.
func TestChromeRendererWaitsForScriptContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div id="app"></div>
<script>
setTimeout(function () {
  document.getElementById("app").innerHTML = '<article class="card"><h2>Carta d\'Identità</h2></article>';
}, 100);
</script></body></html>`))
	}))
	defer srv.Close()

	r := NewChromeRenderer("civickb-test", "")

	page, err := r.Render(context.Background(), srv.URL, Options{WaitSelector: ".card", Timeout: 20 * time.Second})
	require.NoError(t, err)
	assert.Contains(t, page.HTML, "Carta d'Identità")

	_, err = r.Render(context.Background(), srv.URL, Options{WaitSelector: ".never", Timeout: 2 * time.Second})
	assert.ErrorIs(t, err, ErrContentTimeout)
}
