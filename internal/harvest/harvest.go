// Package harvest extracts candidate service records from a rendered
// listing page.
package harvest

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/raphaelgruber/civickb/internal/browser"
	"github.com/raphaelgruber/civickb/internal/config"
	"github.com/raphaelgruber/civickb/internal/models"
)

// MaxDescriptionLength caps harvested descriptions, in characters.
const MaxDescriptionLength = 500

// MinTitleLength is the acceptance gate: titles must be longer than this.
const MinTitleLength = 3

// Options configure a Harvester.
type Options struct {
	Selectors     config.Selectors
	BaseURL       string
	Organization  string
	DefaultHours  string
	Placeholder   string
	MaxCandidates int
	Timeout       time.Duration
}

// OptionsFromConfig builds harvester options from the loaded configuration.
func OptionsFromConfig(cfg config.Config) Options {
	p := cfg.Profile
	return Options{
		Selectors:     p.Selectors,
		BaseURL:       p.BaseURL,
		Organization:  p.Organization.Name,
		DefaultHours:  p.DefaultHours,
		Placeholder:   p.Placeholder,
		MaxCandidates: cfg.MaxCandidates,
		Timeout:       cfg.ListingTimeout,
	}
}

// Stats counts what happened to the examined elements.
type Stats struct {
	Matched  int // elements matched by the winning container selector
	Examined int
	Accepted int
	Rejected int // failed the title gate
	Errored  int // extraction failed; element skipped
}

// Harvester renders listing pages and extracts candidate records.
type Harvester struct {
	renderer browser.Renderer
	opts     Options
	logger   *slog.Logger
}

// New creates a harvester.
func New(renderer browser.Renderer, opts Options, logger *slog.Logger) *Harvester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Harvester{renderer: renderer, opts: opts, logger: logger}
}

// Harvest renders the listing page and returns its candidates. Failing to
// observe content within the timeout aborts the harvest with no output.
func (h *Harvester) Harvest(ctx context.Context, listingURL string) (*Listing, error) {
	page, err := h.renderer.Render(ctx, listingURL, browser.Options{
		WaitSelector: h.opts.Selectors.ListingWait,
		Timeout:      h.opts.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("harvest listing: %w", err)
	}
	return h.Parse(listingURL, page.HTML)
}

// Parse builds a listing from already rendered HTML.
func (h *Harvester) Parse(listingURL, html string) (*Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	base, err := h.baseURL(listingURL)
	if err != nil {
		return nil, err
	}

	l := &Listing{h: h, base: base}
	sel, elements := firstMatch(doc.Selection, h.opts.Selectors.Containers)
	if elements == nil {
		h.logger.Warn("no container selector matched", "url", listingURL, "selectors", h.opts.Selectors.Containers)
		return l, nil
	}

	l.elements = elements
	l.stats.Matched = elements.Length()
	h.logger.Debug("container selector matched", "selector", sel, "count", l.stats.Matched)
	return l, nil
}

// Collect drains the listing into a slice.
func (h *Harvester) Collect(ctx context.Context, listingURL string) ([]models.ServiceRecord, Stats, error) {
	l, err := h.Harvest(ctx, listingURL)
	if err != nil {
		return nil, Stats{}, err
	}
	var out []models.ServiceRecord
	for rec := range l.Candidates() {
		out = append(out, rec)
	}
	return out, l.Stats(), nil
}

func (h *Harvester) baseURL(listingURL string) (*url.URL, error) {
	raw := h.opts.BaseURL
	if raw == "" {
		raw = listingURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("base url %q is not absolute", raw)
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}, nil
}

// Listing is a parsed listing page.
type Listing struct {
	h        *Harvester
	base     *url.URL
	elements *goquery.Selection
	stats    Stats
}

// Candidates yields accepted records one element at a time, examining at
// most MaxCandidates elements.
func (l *Listing) Candidates() iter.Seq[models.ServiceRecord] {
	return func(yield func(models.ServiceRecord) bool) {
		if l.elements == nil {
			return
		}
		n := l.elements.Length()
		if limit := l.h.opts.MaxCandidates; limit > 0 && n > limit {
			n = limit
		}
		for i := 0; i < n; i++ {
			idx := i + 1
			l.stats.Examined++

			rec, err := l.extract(idx, l.elements.Eq(i))
			if err != nil {
				l.stats.Errored++
				l.h.logger.Warn("skipping candidate element", "index", idx, "error", err)
				continue
			}
			if utf8.RuneCountInString(rec.Name) <= MinTitleLength {
				l.stats.Rejected++
				l.h.logger.Debug("candidate rejected by title gate", "index", idx, "title", rec.Name)
				continue
			}

			l.stats.Accepted++
			if !yield(rec) {
				return
			}
		}
	}
}

// Stats returns the counters accumulated so far.
func (l *Listing) Stats() Stats {
	return l.stats
}

func (l *Listing) extract(idx int, el *goquery.Selection) (models.ServiceRecord, error) {
	opts := l.h.opts

	title, ok := firstText(el, opts.Selectors.Titles)
	if !ok {
		title = fmt.Sprintf("%s %d", opts.Placeholder, idx)
	}

	desc, _ := firstText(el, opts.Selectors.Descriptions)
	if desc != "" {
		desc = models.Truncate(desc, MaxDescriptionLength)
	} else {
		desc = fmt.Sprintf("Servizio %s del %s", title, opts.Organization)
	}

	link, err := l.resolveLink(el)
	if err != nil {
		return models.ServiceRecord{}, err
	}

	return models.ServiceRecord{
		Name:         title,
		Description:  desc,
		URL:          link,
		OfficeHours:  opts.DefaultHours,
		Requirements: []string{},
		QAPairs:      []models.QAPair{},
	}, nil
}

func (l *Listing) resolveLink(el *goquery.Selection) (string, error) {
	a := el.Find(l.h.opts.Selectors.Link).First()
	if a.Length() == 0 {
		return "", nil
	}
	href := strings.TrimSpace(a.AttrOr("href", ""))
	if href == "" || strings.HasPrefix(href, "#") {
		return "", nil
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse link %q: %w", href, err)
	}
	abs := l.base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", nil
	}
	return abs.String(), nil
}

// firstMatch returns the first selector in the cascade that matches at
// least one element, with its matches.
func firstMatch(root *goquery.Selection, selectors []string) (string, *goquery.Selection) {
	for _, s := range selectors {
		if m := root.Find(s); m.Length() > 0 {
			return s, m
		}
	}
	return "", nil
}

// firstText returns the normalized text of the first element matched by
// the cascade. ok is false when no selector matched.
func firstText(root *goquery.Selection, selectors []string) (string, bool) {
	_, m := firstMatch(root, selectors)
	if m == nil {
		return "", false
	}
	return models.NormalizeSpace(m.First().Text()), true
}
