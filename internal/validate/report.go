package validate

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/raphaelgruber/civickb/internal/models"
	"github.com/raphaelgruber/civickb/internal/render"
)

// Report is the result of one validation run. It is not persisted.
type Report struct {
	Source    string
	Dir       string
	Records   []RecordReport
	Documents []DocumentReport
	// Corpus-level findings not tied to one record or file.
	Errors   []string
	Warnings []string
}

// Corpus validates raw corpus entries and the documents expected in dir.
func Corpus(items []any, dir string) *Report {
	r := &Report{Dir: dir}

	if len(items) == 0 {
		r.Errors = append(r.Errors, "Nessun servizio nel corpus")
	}

	for i, item := range items {
		r.Records = append(r.Records, Record(i+1, item))
	}

	for _, c := range render.Collisions(namesOnly(items)) {
		r.Warnings = append(r.Warnings, fmt.Sprintf(
			"Slug duplicato %q: servizi %d e %d (l'ultimo sovrascrive il file)", c.Slug, c.First+1, c.Second+1))
	}

	files, invalid := ExpectedDocuments(items)
	for _, idx := range invalid {
		r.Errors = append(r.Errors, fmt.Sprintf("Servizio %d: impossibile derivare il nome del documento", idx))
	}

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		r.Errors = append(r.Errors, fmt.Sprintf("Directory knowledge base non trovata: %s", dir))
		return r
	}
	for _, f := range files {
		r.Documents = append(r.Documents, Document(dir, f))
	}

	return r
}

// File loads the corpus at path and validates it against dir. Only an
// unreadable or structurally invalid corpus file returns an error.
func File(path, dir string) (*Report, error) {
	items, err := models.LoadRawCorpus(path)
	if err != nil {
		return nil, err
	}
	r := Corpus(items, dir)
	r.Source = path
	return r, nil
}

// ErrorCount totals errors across records, documents and the corpus.
func (r *Report) ErrorCount() int {
	n := len(r.Errors)
	for _, rec := range r.Records {
		n += len(rec.Errors)
	}
	for _, d := range r.Documents {
		n += len(d.Errors)
	}
	return n
}

// WarningCount totals warnings across records, documents and the corpus.
func (r *Report) WarningCount() int {
	n := len(r.Warnings)
	for _, rec := range r.Records {
		n += len(rec.Warnings)
	}
	for _, d := range r.Documents {
		n += len(d.Warnings)
	}
	return n
}

// Status is FAIL on any error, else PASS_WITH_WARNINGS on any warning.
func (r *Report) Status() Status {
	switch {
	case r.ErrorCount() > 0:
		return StatusFail
	case r.WarningCount() > 0:
		return StatusPassWithWarnings
	default:
		return StatusPass
	}
}

// Err returns ErrCorpusInvalid when the status is FAIL.
func (r *Report) Err() error {
	if r.Status() == StatusFail {
		return fmt.Errorf("%w: %d errors", ErrCorpusInvalid, r.ErrorCount())
	}
	return nil
}

// Print writes the per-record, document and summary sections.
func (r *Report) Print(w io.Writer) {
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(w, rule)
	if r.Source != "" {
		fmt.Fprintf(w, "VALIDAZIONE: %s\n", r.Source)
	} else {
		fmt.Fprintln(w, "VALIDAZIONE")
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Trovati %d servizi\n\n", len(r.Records))

	for _, rec := range r.Records {
		mark := "OK  "
		if len(rec.Errors) > 0 {
			mark = "FAIL"
		} else if len(rec.Warnings) > 0 {
			mark = "WARN"
		}
		fmt.Fprintf(w, "[%s] Servizio %d (%s)\n", mark, rec.Index, rec.Name)
		for _, e := range rec.Errors {
			fmt.Fprintf(w, "   ERROR: %s\n", e)
		}
		for _, wn := range rec.Warnings {
			fmt.Fprintf(w, "   WARN: %s\n", wn)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "VERIFICA FILE KNOWLEDGE BASE: %s\n", r.Dir)
	fmt.Fprintln(w, rule)
	var total int64
	for _, d := range r.Documents {
		total += d.Size
		mark := "OK  "
		if len(d.Errors) > 0 {
			mark = "FAIL"
		} else if len(d.Warnings) > 0 {
			mark = "WARN"
		}
		fmt.Fprintf(w, "[%s] %s (%d bytes)\n", mark, d.File, d.Size)
		for _, e := range d.Errors {
			fmt.Fprintf(w, "   ERROR: %s\n", e)
		}
		for _, wn := range d.Warnings {
			fmt.Fprintf(w, "   WARN: %s\n", wn)
		}
	}
	fmt.Fprintf(w, "Dimensione totale: %d KB\n", total/1024)

	if len(r.Errors)+len(r.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "ERROR: %s\n", e)
		}
		for _, wn := range r.Warnings {
			fmt.Fprintf(w, "WARN: %s\n", wn)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "RIEPILOGO")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "records=%d documents=%d errors=%d warnings=%d status=%s\n",
		len(r.Records), len(r.Documents), r.ErrorCount(), r.WarningCount(), r.Status())
}

func namesOnly(items []any) []models.ServiceRecord {
	out := make([]models.ServiceRecord, len(items))
	for i, item := range items {
		if rec, ok := item.(models.RawRecord); ok {
			out[i].Name, _ = rec["service_name"].(string)
		}
	}
	return out
}
