// Package browser renders web pages to HTML for the harvester and the field
// classifier. Each render acquires its own browsing context and releases it
// before returning.
package browser

import (
	"context"
	"errors"
	"time"
)

// ErrContentTimeout is returned when the content-bearing selector was not
// observed before the render timeout.
var ErrContentTimeout = errors.New("content selector not observed before timeout")

// Page is a rendered page.
type Page struct {
	URL  string
	HTML string
}

// Options control a single render.
type Options struct {
	// WaitSelector must match a visible element before the page is captured.
	WaitSelector string
	// Timeout bounds the whole render, including the selector wait.
	Timeout time.Duration
	// Settle is an extra delay after the selector appeared, for late scripts.
	Settle time.Duration
}

// Renderer renders a page and returns its HTML.
type Renderer interface {
	Render(ctx context.Context, pageURL string, opts Options) (*Page, error)
}
