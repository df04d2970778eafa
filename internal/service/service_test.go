package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/raphaelgruber/civickb/internal/client"
	"github.com/raphaelgruber/civickb/internal/config"
	"github.com/raphaelgruber/civickb/internal/db"
	"github.com/raphaelgruber/civickb/internal/harvest"
	"github.com/raphaelgruber/civickb/internal/models"
)

const testListingURL = "https://www.comune.example.it/it/servizi"

// fakeLister parses fixed HTML as the listing page.
type fakeLister struct {
	html string
	err  error
}

func (f *fakeLister) Harvest(_ context.Context, listingURL string) (*harvest.Listing, error) {
	if f.err != nil {
		return nil, f.err
	}
	p := config.DefaultProfile()
	h := harvest.New(nil, harvest.Options{
		Selectors:     p.Selectors,
		BaseURL:       "https://www.comune.example.it",
		Organization:  "Comune di Esempio",
		DefaultHours:  p.DefaultHours,
		Placeholder:   p.Placeholder,
		MaxCandidates: 10,
		Timeout:       time.Second,
	}, nil)
	return h.Parse(listingURL, f.html)
}

// listingHTML builds n article cards; every card links to /it/servizi/<i>.
func listingHTML(names ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i, n := range names {
		fmt.Fprintf(&b, `<article><h2>%s</h2><p>Descrizione del servizio %s per i cittadini</p><a href="/it/servizi/%d">Dettagli</a></article>`, n, n, i+1)
	}
	b.WriteString("</body></html>")
	return b.String()
}

type fakeClassifier struct {
	mu      sync.Mutex
	bundles map[string]models.DetailBundle
	errs    map[string]error
	calls   []string
}

func (f *fakeClassifier) Classify(_ context.Context, pageURL string) (models.DetailBundle, error) {
	f.mu.Lock()
	f.calls = append(f.calls, pageURL)
	f.mu.Unlock()
	b := f.bundles[pageURL]
	if b.Requirements == nil {
		b.Requirements = []string{}
	}
	return b, f.errs[pageURL]
}

type fakeStore struct {
	mu        sync.Mutex
	uploaded  []string
	failNames map[string]bool
	linkedTo  string
	linkedIDs []string
	linkErr   error
}

func (f *fakeStore) UploadFile(_ context.Context, name string, content []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNames[name] {
		return "", errors.New("HTTP 500")
	}
	if len(content) == 0 {
		return "", errors.New("empty upload")
	}
	f.uploaded = append(f.uploaded, name)
	return "id-" + strings.TrimSuffix(name, ".md"), nil
}

func (f *fakeStore) UpdateKnowledgeBase(_ context.Context, assistantID string, fileIDs []string) (*client.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.linkErr != nil {
		return nil, f.linkErr
	}
	f.linkedTo = assistantID
	f.linkedIDs = append([]string{}, fileIDs...)
	return &client.Assistant{ID: assistantID}, nil
}

type fakeArchive struct {
	mu    sync.Mutex
	saved []db.RunRecord
}

func (f *fakeArchive) SaveRun(_ context.Context, r db.RunRecord) (*models.CorpusRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, r)
	return &models.CorpusRun{Status: r.Status}, nil
}
