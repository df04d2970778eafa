package validate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/raphaelgruber/civickb/internal/models"
	"github.com/raphaelgruber/civickb/internal/parser"
	"github.com/raphaelgruber/civickb/internal/render"
)

// MinDocumentBytes is the size below which a document is suspect.
const MinDocumentBytes = 500

// DocumentReport holds the findings for one expected document file.
type DocumentReport struct {
	File     string
	Size     int64
	Errors   []string
	Warnings []string
}

// ExpectedDocuments returns the document file names the corpus should
// produce, in corpus order, without duplicates. Entries whose name cannot
// produce a file are returned in invalid as 1-based indexes.
func ExpectedDocuments(items []any) (files []string, invalid []int) {
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		rec, ok := item.(models.RawRecord)
		if !ok {
			invalid = append(invalid, i+1)
			continue
		}
		name, _ := rec["service_name"].(string)
		doc := models.RenderedDocument{Slug: models.Slugify(name)}
		if doc.Slug == "" {
			invalid = append(invalid, i+1)
			continue
		}
		if seen[doc.Slug] {
			continue
		}
		seen[doc.Slug] = true
		files = append(files, doc.FileName())
	}
	return files, invalid
}

// Document checks one document file on disk. A missing or empty file is an
// error; a file under MinDocumentBytes is a warning. Non-empty files are
// also parsed to check the fixed section structure.
func Document(dir, file string) DocumentReport {
	rep := DocumentReport{File: file}
	path := filepath.Join(dir, file)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			rep.Errors = append(rep.Errors, "File mancante")
		} else {
			rep.Errors = append(rep.Errors, fmt.Sprintf("File non leggibile: %v", err))
		}
		return rep
	}

	rep.Size = info.Size()
	switch {
	case rep.Size == 0:
		rep.Errors = append(rep.Errors, "File vuoto (0 byte)")
		return rep
	case rep.Size < MinDocumentBytes:
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("File molto piccolo (%d byte)", rep.Size))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		rep.Errors = append(rep.Errors, fmt.Sprintf("File non leggibile: %v", err))
		return rep
	}
	rep.Warnings = append(rep.Warnings, structureWarnings(string(content))...)
	return rep
}

func structureWarnings(content string) []string {
	doc := parser.ParseMarkdown(content)

	var warnings []string
	if doc.Title == "" {
		warnings = append(warnings, "Titolo mancante")
	}
	for _, heading := range []string{render.HeadingProcedure, render.HeadingFAQ} {
		if !doc.HasSection(heading) {
			warnings = append(warnings, "Sezione mancante: "+heading)
		}
	}
	return warnings
}
