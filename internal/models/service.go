package models

// ServiceRecord is one municipal service in a corpus. JSON field names are
// the corpus interchange format.
type ServiceRecord struct {
	Name         string   `json:"service_name"`
	Description  string   `json:"description"`
	URL          string   `json:"url"`
	OfficeHours  string   `json:"office_hours"`
	Requirements []string `json:"requirements"`
	QAPairs      []QAPair `json:"qa_pairs"`
	Cost         string   `json:"cost,omitempty"`
}

// QAPair is a canonical question/answer pair.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// DetailBundle is the best-effort result of classifying a detail page.
// Every field may be empty.
type DetailBundle struct {
	Requirements []string `json:"requirements"`
	OfficeHours  string   `json:"office_hours"`
	Cost         string   `json:"cost"`
}

// Empty reports whether the bundle carries no extracted field.
func (b DetailBundle) Empty() bool {
	return len(b.Requirements) == 0 && b.OfficeHours == "" && b.Cost == ""
}

// Complete reports whether the record is safe to render: name, description
// and at least one QA pair are present.
func (r ServiceRecord) Complete() bool {
	return r.Name != "" && r.Description != "" && len(r.QAPairs) > 0
}

// Merge applies a detail bundle onto the record. Requirements are capped at
// maxRequirements (0 means no cap); hours and cost only replace the current
// values when the bundle carries them.
func (r *ServiceRecord) Merge(b DetailBundle, maxRequirements int) {
	reqs := b.Requirements
	if maxRequirements > 0 && len(reqs) > maxRequirements {
		reqs = reqs[:maxRequirements]
	}
	r.Requirements = append([]string{}, reqs...)
	if b.OfficeHours != "" {
		r.OfficeHours = b.OfficeHours
	}
	if b.Cost != "" {
		r.Cost = b.Cost
	}
}

// RenderedDocument is a record rendered as a knowledge document. It is
// derived from the record and never edited on its own.
type RenderedDocument struct {
	Slug    string
	Content string
}

// FileName returns the document file name, <slug>.md.
func (d RenderedDocument) FileName() string {
	return d.Slug + ".md"
}

// ByteSize returns the content size in bytes.
func (d RenderedDocument) ByteSize() int {
	return len(d.Content)
}
