package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/chromedp"
)

// ChromeRenderer renders pages in headless Chrome so client-side rendered
// content is present in the captured HTML.
type ChromeRenderer struct {
	userAgent string
	execPath  string
}

// NewChromeRenderer creates a renderer. execPath may be empty to let
// chromedp locate Chrome.
func NewChromeRenderer(userAgent, execPath string) *ChromeRenderer {
	return &ChromeRenderer{userAgent: userAgent, execPath: execPath}
}

// Render starts a browser for this page only; it is shut down on every
// return path.
func (r *ChromeRenderer) Render(ctx context.Context, pageURL string, opts Options) (*Page, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if r.userAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(r.userAgent))
	}
	if r.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	runCtx := tabCtx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(tabCtx, opts.Timeout)
		defer cancel()
	}

	actions := []chromedp.Action{chromedp.Navigate(pageURL)}
	if opts.WaitSelector != "" {
		actions = append(actions, chromedp.WaitVisible(opts.WaitSelector, chromedp.ByQuery))
	}
	if opts.Settle > 0 {
		actions = append(actions, chromedp.Sleep(opts.Settle))
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("render %s: %w (selector %q, timeout %s)", pageURL, ErrContentTimeout, opts.WaitSelector, opts.Timeout)
		}
		return nil, fmt.Errorf("render %s: %w", pageURL, err)
	}

	return &Page{URL: pageURL, HTML: html}, nil
}
