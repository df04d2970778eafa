package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Organization holds the contact constants reproduced verbatim in rendered
// documents and synthesized answers.
type Organization struct {
	Name       string `yaml:"name"`
	Phone      string `yaml:"phone"`
	Email      string `yaml:"email"`
	Website    string `yaml:"website"`
	WebsiteURL string `yaml:"website_url"`
}

// Selectors holds the ordered selector cascades used by the harvester and
// the field classifier. Each slice is tried in order; the first entry that
// matches anything wins.
type Selectors struct {
	ListingWait  string   `yaml:"listing_wait"`
	Containers   []string `yaml:"containers"`
	Titles       []string `yaml:"titles"`
	Descriptions []string `yaml:"descriptions"`
	Link         string   `yaml:"link"`
	DetailWait   string   `yaml:"detail_wait"`
	DetailItems  string   `yaml:"detail_items"`
	HoursItems   string   `yaml:"hours_items"`
}

// Profile describes one target site.
type Profile struct {
	Organization Organization `yaml:"organization"`
	BaseURL      string       `yaml:"base_url"`
	ListingURL   string       `yaml:"listing_url"`
	DefaultHours string       `yaml:"default_office_hours"`
	Placeholder  string       `yaml:"placeholder_title"`
	Selectors    Selectors    `yaml:"selectors"`
}

// DefaultProfile returns the Comune di Codroipo profile.
func DefaultProfile() Profile {
	return Profile{
		Organization: Organization{
			Name:       "Comune di Codroipo",
			Phone:      "0432 905511",
			Email:      "protocollo@comune.codroipo.ud.it",
			Website:    "www.comune.codroipo.ud.it",
			WebsiteURL: "https://www.comune.codroipo.ud.it",
		},
		BaseURL:      "https://www.comune.codroipo.ud.it",
		ListingURL:   "https://www.comune.codroipo.ud.it/it/servizi-224003",
		DefaultHours: "Lunedì-Venerdì: 8:30-12:30",
		Placeholder:  "Servizio",
		Selectors: Selectors{
			ListingWait:  ".service-card, .servizio, article, .card",
			Containers:   []string{".service-card", ".servizio", "article", ".card"},
			Titles:       []string{"h1, h2, h3", ".title, .titolo"},
			Descriptions: []string{"p", ".description, .descrizione"},
			Link:         "a",
			DetailWait:   "body",
			DetailItems:  "p, li",
			HoursItems:   "p, li, .orari, .hours",
		},
	}
}

// LoadProfile reads a YAML profile. Fields left empty in the file keep
// their default values.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}

	p := DefaultProfile()
	var override Profile
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	p.merge(override)
	return p, nil
}

func (p *Profile) merge(o Profile) {
	setStr(&p.Organization.Name, o.Organization.Name)
	setStr(&p.Organization.Phone, o.Organization.Phone)
	setStr(&p.Organization.Email, o.Organization.Email)
	setStr(&p.Organization.Website, o.Organization.Website)
	setStr(&p.Organization.WebsiteURL, o.Organization.WebsiteURL)
	setStr(&p.BaseURL, o.BaseURL)
	setStr(&p.ListingURL, o.ListingURL)
	setStr(&p.DefaultHours, o.DefaultHours)
	setStr(&p.Placeholder, o.Placeholder)

	s := o.Selectors
	setStr(&p.Selectors.ListingWait, s.ListingWait)
	setStr(&p.Selectors.Link, s.Link)
	setStr(&p.Selectors.DetailWait, s.DetailWait)
	setStr(&p.Selectors.DetailItems, s.DetailItems)
	setStr(&p.Selectors.HoursItems, s.HoursItems)
	if len(s.Containers) > 0 {
		p.Selectors.Containers = s.Containers
	}
	if len(s.Titles) > 0 {
		p.Selectors.Titles = s.Titles
	}
	if len(s.Descriptions) > 0 {
		p.Selectors.Descriptions = s.Descriptions
	}
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
