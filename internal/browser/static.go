package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMaxContentSize caps the body read by StaticRenderer.
const DefaultMaxContentSize = 5 << 20

// StaticRenderer fetches server-rendered HTML over plain HTTP. The wait
// selector is checked once against the fetched document.
type StaticRenderer struct {
	client         *http.Client
	userAgent      string
	maxContentSize int64
}

// NewStaticRenderer creates a static renderer. A nil client uses
// http.DefaultClient; timeouts come from the render options.
func NewStaticRenderer(client *http.Client, userAgent string) *StaticRenderer {
	if client == nil {
		client = http.DefaultClient
	}
	return &StaticRenderer{
		client:         client,
		userAgent:      userAgent,
		maxContentSize: DefaultMaxContentSize,
	}
}

// Render fetches pageURL and verifies the wait selector is present.
func (r *StaticRenderer) Render(ctx context.Context, pageURL string, opts Options) (*Page, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "it-IT,it;q=0.9,en;q=0.5")

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("render %s: %w (timeout %s)", pageURL, ErrContentTimeout, opts.Timeout)
		}
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d: %s", pageURL, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxContentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > r.maxContentSize {
		return nil, fmt.Errorf("fetch %s: content too large (exceeds %d bytes)", pageURL, r.maxContentSize)
	}

	html := string(body)
	if opts.WaitSelector != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", pageURL, err)
		}
		if doc.Find(opts.WaitSelector).Length() == 0 {
			return nil, fmt.Errorf("render %s: %w (selector %q absent)", pageURL, ErrContentTimeout, opts.WaitSelector)
		}
	}

	return &Page{URL: pageURL, HTML: html}, nil
}
