package cli

import (
	"fmt"

	"github.com/raphaelgruber/civickb/internal/browser"
	"github.com/raphaelgruber/civickb/internal/classify"
	"github.com/raphaelgruber/civickb/internal/client"
	"github.com/raphaelgruber/civickb/internal/config"
	"github.com/raphaelgruber/civickb/internal/harvest"
	"github.com/raphaelgruber/civickb/internal/render"
	"github.com/raphaelgruber/civickb/internal/service"
	"github.com/raphaelgruber/civickb/internal/state"
	"github.com/raphaelgruber/civickb/internal/synth"
)

// pageRenderer returns the configured rendering backend.
func pageRenderer() (browser.Renderer, error) {
	switch cfg.Renderer {
	case config.RendererChrome:
		return browser.NewChromeRenderer(cfg.UserAgent, ""), nil
	case config.RendererHTTP:
		return browser.NewStaticRenderer(nil, cfg.UserAgent), nil
	default:
		return nil, fmt.Errorf("unknown renderer %q (want %s or %s)", cfg.Renderer, config.RendererChrome, config.RendererHTTP)
	}
}

// newHarvestService wires the harvester and the throttled classifier.
func newHarvestService() (*service.HarvestService, error) {
	r, err := pageRenderer()
	if err != nil {
		return nil, err
	}
	lister := harvest.New(r, harvest.OptionsFromConfig(cfg), logger)
	classifier := classify.New(browser.NewThrottled(r, cfg.RequestsPerSecond, 1), classify.OptionsFromConfig(cfg), logger)
	opts := service.EnrichOptions{
		MaxDetails:      cfg.MaxDetails,
		MaxRequirements: cfg.MaxRequirements,
		Concurrency:     cfg.DetailConcurrency,
	}
	return service.NewHarvestService(lister, classifier, synth.New(cfg.Profile.Organization.Phone), opts, collector, logger), nil
}

func newDocumentRenderer() *render.Renderer {
	return render.New(cfg.Profile.Organization)
}

func newStateStore() *state.Store {
	return state.New(cfg.StateDir)
}

func newPublishService() *service.PublishService {
	store := client.New(cfg.VapiBaseURL, cfg.VapiAPIKey, nil)
	return service.NewPublishService(store, newStateStore(), collector, logger)
}

// listingURL returns the flag value or the profile's listing page.
func listingURL(flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.Profile.ListingURL
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
