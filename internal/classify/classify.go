// Package classify extracts requirements, office hours and cost from a
// service detail page using keyword heuristics.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/raphaelgruber/civickb/internal/browser"
	"github.com/raphaelgruber/civickb/internal/config"
	"github.com/raphaelgruber/civickb/internal/models"
)

// Rules are the keyword tables. Triggers gate a category on the whole page
// text; the per-item markers select the fragment.
type Rules struct {
	RequirementTriggers []string
	RequirementKeywords []string
	HoursTriggers       []string
	Weekdays            []string
	CostTriggers        []string
	CostMarkers         []string

	// MaxScanned bounds the items scanned for requirements.
	MaxScanned int
	// Requirement text must be strictly between these lengths.
	MinItemLength int
	MaxItemLength int
}

// DefaultRules returns the Italian keyword tables.
func DefaultRules() Rules {
	return Rules{
		RequirementTriggers: []string{"documenti necessari", "requisiti"},
		RequirementKeywords: []string{"documento", "carta", "codice", "certificato", "identità"},
		HoursTriggers:       []string{"orari", "apertura"},
		Weekdays:            []string{"lunedì", "martedì", "mercoledì", "giovedì", "venerdì"},
		CostTriggers:        []string{"€", "euro", "costo"},
		CostMarkers:         []string{"€", "euro", "costo"},
		MaxScanned:          20,
		MinItemLength:       10,
		MaxItemLength:       200,
	}
}

// Options configure a Classifier.
type Options struct {
	Rules         Rules
	WaitSelector  string
	ItemSelector  string
	HoursSelector string
	Timeout       time.Duration
	Settle        time.Duration
}

// OptionsFromConfig builds classifier options from the loaded configuration.
func OptionsFromConfig(cfg config.Config) Options {
	s := cfg.Profile.Selectors
	return Options{
		Rules:         DefaultRules(),
		WaitSelector:  s.DetailWait,
		ItemSelector:  s.DetailItems,
		HoursSelector: s.HoursItems,
		Timeout:       cfg.DetailTimeout,
		Settle:        cfg.SettleDelay,
	}
}

// Classifier builds detail bundles from detail pages.
type Classifier struct {
	renderer browser.Renderer
	opts     Options
	logger   *slog.Logger
}

// New creates a classifier.
func New(renderer browser.Renderer, opts Options, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{renderer: renderer, opts: opts, logger: logger}
}

// Classify renders pageURL and classifies it. The returned bundle is never
// nil-valued: on error it holds whatever was extracted before the failure.
func (c *Classifier) Classify(ctx context.Context, pageURL string) (models.DetailBundle, error) {
	page, err := c.renderer.Render(ctx, pageURL, browser.Options{
		WaitSelector: c.opts.WaitSelector,
		Timeout:      c.opts.Timeout,
		Settle:       c.opts.Settle,
	})
	if err != nil {
		return emptyBundle(), fmt.Errorf("classify %s: %w", pageURL, err)
	}
	return c.ClassifyHTML(page.HTML)
}

// ClassifyHTML classifies an already rendered page.
func (c *Classifier) ClassifyHTML(html string) (models.DetailBundle, error) {
	b := emptyBundle()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return b, fmt.Errorf("parse detail page: %w", err)
	}
	doc.Find("script, style, noscript").Remove()
	text := strings.ToLower(doc.Find("body").Text())

	steps := []struct {
		name string
		run  func(*goquery.Document, string, *models.DetailBundle) error
	}{
		{"requirements", c.requirements},
		{"office_hours", c.officeHours},
		{"cost", c.cost},
	}
	for _, s := range steps {
		if err := s.run(doc, text, &b); err != nil {
			return b, fmt.Errorf("classify %s: %w", s.name, err)
		}
	}
	return b, nil
}

func (c *Classifier) requirements(doc *goquery.Document, text string, b *models.DetailBundle) error {
	r := c.opts.Rules
	if !containsAny(text, r.RequirementTriggers) {
		return nil
	}

	items, err := find(doc, c.opts.ItemSelector)
	if err != nil {
		return err
	}
	items.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if r.MaxScanned > 0 && i >= r.MaxScanned {
			return false
		}
		item := models.NormalizeSpace(s.Text())
		n := utf8.RuneCountInString(item)
		if n > r.MinItemLength && n < r.MaxItemLength && containsAny(strings.ToLower(item), r.RequirementKeywords) {
			b.Requirements = append(b.Requirements, item)
		}
		return true
	})
	return nil
}

func (c *Classifier) officeHours(doc *goquery.Document, text string, b *models.DetailBundle) error {
	r := c.opts.Rules
	if !containsAny(text, r.HoursTriggers) {
		return nil
	}

	items, err := find(doc, c.opts.HoursSelector)
	if err != nil {
		return err
	}
	b.OfficeHours = firstContaining(items, r.Weekdays)
	return nil
}

func (c *Classifier) cost(doc *goquery.Document, text string, b *models.DetailBundle) error {
	r := c.opts.Rules
	if !containsAny(text, r.CostTriggers) {
		return nil
	}

	items, err := find(doc, c.opts.ItemSelector)
	if err != nil {
		return err
	}
	b.Cost = firstContaining(items, r.CostMarkers)
	return nil
}

func find(doc *goquery.Document, selector string) (*goquery.Selection, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return doc.FindMatcher(m), nil
}

func firstContaining(items *goquery.Selection, markers []string) string {
	var found string
	items.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		item := models.NormalizeSpace(s.Text())
		if containsAny(strings.ToLower(item), markers) {
			found = item
			return false
		}
		return true
	})
	return found
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func emptyBundle() models.DetailBundle {
	return models.DetailBundle{Requirements: []string{}}
}
