// Package render turns service records into fixed-structure markdown
// knowledge documents.
package render

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/raphaelgruber/civickb/internal/config"
	"github.com/raphaelgruber/civickb/internal/models"
)

// MaxRequirements caps the Documents Needed list.
const MaxRequirements = 10

// Section headings, reproduced verbatim in every document.
const (
	HeadingDescription  = "Descrizione"
	HeadingGeneralInfo  = "Informazioni Generali"
	HeadingRequirements = "Documenti Necessari"
	HeadingProcedure    = "Procedura"
	HeadingFAQ          = "Domande Frequenti (FAQ)"
)

// DefaultOfficeHours is written when a record has no office hours.
const DefaultOfficeHours = "Non specificato"

// ErrEmptySlug is returned for records whose name yields no slug.
var ErrEmptySlug = errors.New("name produces an empty slug")

// Renderer renders documents with an organization's contact constants.
type Renderer struct {
	org config.Organization
}

// New creates a renderer.
func New(org config.Organization) *Renderer {
	return &Renderer{org: org}
}

// Render is a pure function of the record: the same record always yields
// byte-identical content. No validation is performed.
func (r *Renderer) Render(rec models.ServiceRecord) models.RenderedDocument {
	var b strings.Builder

	hours := rec.OfficeHours
	if hours == "" {
		hours = DefaultOfficeHours
	}

	fmt.Fprintf(&b, "# %s\n\n", rec.Name)
	fmt.Fprintf(&b, "## %s\n\n%s\n\n", HeadingDescription, rec.Description)
	fmt.Fprintf(&b, "## %s\n\n**Orari di apertura**: %s\n\n", HeadingGeneralInfo, hours)
	if rec.Cost != "" {
		fmt.Fprintf(&b, "**Costo**: %s\n\n", rec.Cost)
	}
	if rec.URL != "" {
		fmt.Fprintf(&b, "**Link**: %s\n\n", rec.URL)
	}

	if len(rec.Requirements) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", HeadingRequirements)
		reqs := rec.Requirements
		if len(reqs) > MaxRequirements {
			reqs = reqs[:MaxRequirements]
		}
		for _, req := range reqs {
			fmt.Fprintf(&b, "- %s\n", req)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## %s\n\n", HeadingProcedure)
	fmt.Fprintf(&b, "1. Prenota un appuntamento chiamando il numero %s o tramite l'assistente virtuale\n", r.org.Phone)
	b.WriteString("2. Presenta i documenti necessari presso l'ufficio comunale\n")
	b.WriteString("3. Attendi l'erogazione del servizio secondo i tempi previsti\n\n")

	if len(rec.QAPairs) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", HeadingFAQ)
		for _, qa := range rec.QAPairs {
			fmt.Fprintf(&b, "### %s\n\n%s\n\n", qa.Question, qa.Answer)
		}
	}

	b.WriteString("---\n\n")
	b.WriteString("*Per maggiori informazioni o per prenotare un appuntamento, contatta:*\n")
	fmt.Fprintf(&b, "- **Telefono**: %s\n", r.org.Phone)
	fmt.Fprintf(&b, "- **Email**: [%s](mailto:%s)\n", r.org.Email, r.org.Email)
	fmt.Fprintf(&b, "- **Sito web**: [%s](%s)\n", r.org.Website, r.org.WebsiteURL)

	return models.RenderedDocument{
		Slug:    models.Slugify(rec.Name),
		Content: b.String(),
	}
}

// Collision records two records that map to the same document file.
type Collision struct {
	Slug   string
	First  int
	Second int
}

// WriteResult summarizes a WriteAll call.
type WriteResult struct {
	Written    int
	Skipped    int
	Removed    int
	Collisions []Collision
	Files      []string
}

// WriteOptions configure WriteAll.
type WriteOptions struct {
	// Clean removes existing *.md files in the directory first.
	Clean bool
}

// WriteAll renders every record into dir. A later record whose slug
// collides with an earlier one overwrites its file; the collision is
// reported. Records with an empty slug are skipped.
func (r *Renderer) WriteAll(dir string, records []models.ServiceRecord, opts WriteOptions, logger *slog.Logger) (*WriteResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	result := &WriteResult{}
	if opts.Clean {
		n, err := removeMarkdown(dir)
		if err != nil {
			return nil, err
		}
		result.Removed = n
	}

	seen := make(map[string]int, len(records))
	for i, rec := range records {
		doc := r.Render(rec)
		if doc.Slug == "" {
			result.Skipped++
			logger.Warn("skipping record", "index", i, "name", rec.Name, "error", ErrEmptySlug)
			continue
		}

		if first, ok := seen[doc.Slug]; ok {
			result.Collisions = append(result.Collisions, Collision{Slug: doc.Slug, First: first, Second: i})
			logger.Warn("slug collision, later record overwrites earlier document",
				"slug", doc.Slug, "first", first, "second", i)
		} else {
			seen[doc.Slug] = i
			result.Files = append(result.Files, doc.FileName())
		}

		path := filepath.Join(dir, doc.FileName())
		if err := os.WriteFile(path, []byte(doc.Content), 0644); err != nil {
			return result, fmt.Errorf("write %s: %w", path, err)
		}
		result.Written++
		logger.Debug("document written", "file", path, "bytes", doc.ByteSize())
	}

	return result, nil
}

// Collisions groups record indexes by shared slug, in corpus order. Only
// slugs shared by two or more records are returned.
func Collisions(records []models.ServiceRecord) []Collision {
	var out []Collision
	seen := make(map[string]int, len(records))
	for i, rec := range records {
		slug := models.Slugify(rec.Name)
		if slug == "" {
			continue
		}
		if first, ok := seen[slug]; ok {
			out = append(out, Collision{Slug: slug, First: first, Second: i})
			continue
		}
		seen[slug] = i
	}
	return out
}

func removeMarkdown(dir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return 0, fmt.Errorf("remove %s: %w", m, err)
		}
	}
	return len(matches), nil
}
