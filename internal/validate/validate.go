// Package validate checks a corpus and its rendered documents for
// completeness and quality. Validation never modifies its input.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/raphaelgruber/civickb/internal/models"
)

// ErrCorpusInvalid is returned by callers that turn a FAIL status into an
// error, such as the CLI and the upload gate.
var ErrCorpusInvalid = errors.New("corpus validation failed")

// Status is the overall outcome of a validation run.
type Status string

const (
	StatusPass             Status = "PASS"
	StatusPassWithWarnings Status = "PASS_WITH_WARNINGS"
	StatusFail             Status = "FAIL"
)

// Record rule thresholds.
const (
	MinNameLength        = 3
	MaxNameLength        = 200
	MinDescriptionLength = 10
	MinQAPairs           = 3
	RecommendedQAPairs   = 5
	MinAnswerLength      = 20
)

var (
	requiredFields    = []string{"service_name", "description", "qa_pairs"}
	recommendedFields = []string{"url", "office_hours", "requirements"}
)

// RecordReport holds the findings for one corpus entry.
type RecordReport struct {
	Index    int // 1-based position in the corpus
	Name     string
	Errors   []string
	Warnings []string
}

// Record applies the rule table to a single raw corpus entry.
func Record(index int, item any) RecordReport {
	rep := RecordReport{Index: index, Name: "Unknown"}

	rec, ok := item.(models.RawRecord)
	if !ok {
		rep.Errors = append(rep.Errors, fmt.Sprintf("Servizio non è un oggetto (%s)", typeName(item)))
		return rep
	}
	if name, ok := rec["service_name"].(string); ok {
		rep.Name = name
	}

	for _, f := range requiredFields {
		v, present := rec[f]
		switch {
		case !present:
			rep.Errors = append(rep.Errors, "Campo mancante: "+f)
		case isEmpty(v):
			rep.Errors = append(rep.Errors, "Campo vuoto: "+f)
		}
	}

	for _, f := range recommendedFields {
		if v, present := rec[f]; !present || isFalsy(v) {
			rep.Warnings = append(rep.Warnings, "Campo raccomandato mancante: "+f)
		}
	}

	if v, present := rec["service_name"]; present {
		if s, ok := v.(string); ok {
			n := utf8.RuneCountInString(s)
			if n < MinNameLength {
				rep.Errors = append(rep.Errors, "service_name troppo corto")
			}
			if n > MaxNameLength {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("service_name molto lungo (>%d caratteri)", MaxNameLength))
			}
		} else if v != nil {
			rep.Errors = append(rep.Errors, "service_name deve essere una stringa")
		}
	}

	if v, present := rec["description"]; present {
		if s, ok := v.(string); ok {
			if utf8.RuneCountInString(s) < MinDescriptionLength {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("description troppo corta (<%d caratteri)", MinDescriptionLength))
			}
		} else if v != nil {
			rep.Errors = append(rep.Errors, "description deve essere una stringa")
		}
	}

	if v, present := rec["qa_pairs"]; present && v != nil {
		checkQAPairs(&rep, v)
	}

	if v, present := rec["requirements"]; present {
		if list, ok := v.([]any); ok {
			if len(list) == 0 {
				rep.Warnings = append(rep.Warnings, "Nessun requisito specificato")
			}
		} else {
			rep.Errors = append(rep.Errors, "requirements deve essere una lista")
		}
	}

	return rep
}

func checkQAPairs(rep *RecordReport, v any) {
	pairs, ok := v.([]any)
	if !ok {
		rep.Errors = append(rep.Errors, "qa_pairs deve essere una lista")
		return
	}

	switch n := len(pairs); {
	case n < MinQAPairs:
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("Poche Q&A (< %d): trovate %d", MinQAPairs, n))
	case n < RecommendedQAPairs:
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("Q&A sotto raccomandazione (< %d): trovate %d", RecommendedQAPairs, n))
	}

	for i, item := range pairs {
		idx := i + 1
		qa, ok := item.(models.RawRecord)
		if !ok {
			rep.Errors = append(rep.Errors, fmt.Sprintf("Q&A %d: formato non valido", idx))
			continue
		}
		if q, present := qa["question"]; !present || isFalsy(q) {
			rep.Errors = append(rep.Errors, fmt.Sprintf("Q&A %d: domanda mancante", idx))
		}
		a, present := qa["answer"]
		if !present || isFalsy(a) {
			rep.Errors = append(rep.Errors, fmt.Sprintf("Q&A %d: risposta mancante", idx))
		}
		if s, ok := a.(string); ok && utf8.RuneCountInString(s) < MinAnswerLength {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("Q&A %d: risposta troppo corta", idx))
		}
	}
}

// isEmpty reports a null value or an empty string, list or object.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// isFalsy extends isEmpty with false and zero numbers.
func isFalsy(v any) bool {
	if isEmpty(v) {
		return true
	}
	switch t := v.(type) {
	case bool:
		return !t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case float64:
		return t == 0
	}
	return false
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "stringa"
	case []any:
		return "lista"
	case bool:
		return "booleano"
	default:
		return "numero"
	}
}
