package validate

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raphaelgruber/civickb/internal/config"
	"github.com/raphaelgruber/civickb/internal/models"
	"github.com/raphaelgruber/civickb/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCorpus(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "services_data_real.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func renderAll(t *testing.T, dir string, corpusPath string) {
	t.Helper()
	records, err := models.LoadCorpus(corpusPath)
	require.NoError(t, err)
	_, err = render.New(config.DefaultProfile().Organization).WriteAll(dir, records, render.WriteOptions{}, nil)
	require.NoError(t, err)
}

func TestCorpusPassWithWarnings(t *testing.T) {
	dir := t.TempDir()
	kb := filepath.Join(dir, "kb")
	path := writeCorpus(t, dir, `[{
		"service_name": "Carta d'Identità",
		"description": "Rilascio carta d'identità",
		"qa_pairs": [
			{"question": "Come?", "answer": "Prenota un appuntamento allo sportello."},
			{"question": "Quando?", "answer": "Dal lunedì al venerdì in mattinata."}
		]
	}]`)
	renderAll(t, kb, path)

	rep, err := File(path, kb)
	require.NoError(t, err)

	assert.Equal(t, 0, rep.ErrorCount())
	require.Len(t, rep.Records, 1)
	assert.ElementsMatch(t, []string{
		"Campo raccomandato mancante: url",
		"Campo raccomandato mancante: office_hours",
		"Campo raccomandato mancante: requirements",
		"Poche Q&A (< 3): trovate 2",
	}, rep.Records[0].Warnings)

	require.Len(t, rep.Documents, 1)
	assert.Equal(t, "carta-didentita.md", rep.Documents[0].File)
	assert.Empty(t, rep.Documents[0].Errors)
	assert.Empty(t, rep.Documents[0].Warnings, "rendered document is over the size threshold")

	assert.Equal(t, 4, rep.WarningCount())
	assert.Equal(t, StatusPassWithWarnings, rep.Status())
	assert.NoError(t, rep.Err())
}

func TestCorpusEmptyDocumentIsError(t *testing.T) {
	dir := t.TempDir()
	kb := filepath.Join(dir, "kb")
	path := writeCorpus(t, dir, `[{
		"service_name": "Anagrafe",
		"description": "Certificati anagrafici",
		"url": "https://example.org",
		"office_hours": "Lunedì 9-12",
		"requirements": ["Documento di identità"],
		"qa_pairs": [
			{"question": "Q1?", "answer": "Risposta sufficientemente lunga."},
			{"question": "Q2?", "answer": "Risposta sufficientemente lunga."},
			{"question": "Q3?", "answer": "Risposta sufficientemente lunga."},
			{"question": "Q4?", "answer": "Risposta sufficientemente lunga."},
			{"question": "Q5?", "answer": "Risposta sufficientemente lunga."}
		]
	}]`)
	require.NoError(t, os.MkdirAll(kb, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(kb, "anagrafe.md"), nil, 0o644))

	rep, err := File(path, kb)
	require.NoError(t, err)

	assert.Empty(t, rep.Records[0].Errors)
	assert.Empty(t, rep.Records[0].Warnings)
	require.Len(t, rep.Documents, 1)
	assert.Equal(t, []string{"File vuoto (0 byte)"}, rep.Documents[0].Errors)
	assert.Equal(t, StatusFail, rep.Status())
	assert.ErrorIs(t, rep.Err(), ErrCorpusInvalid)
}

func TestDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "piccolo.md"), []byte("# Piccolo\n\n## Procedura\n\n## Domande Frequenti (FAQ)\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "senza-titolo.md"), []byte(strings.Repeat("testo ", 100)), 0o644))

	missing := Document(dir, "assente.md")
	assert.Equal(t, []string{"File mancante"}, missing.Errors)

	small := Document(dir, "piccolo.md")
	assert.Empty(t, small.Errors)
	require.Len(t, small.Warnings, 1)
	assert.Contains(t, small.Warnings[0], "File molto piccolo")

	untitled := Document(dir, "senza-titolo.md")
	assert.Empty(t, untitled.Errors)
	assert.ElementsMatch(t, []string{
		"Titolo mancante",
		"Sezione mancante: Procedura",
		"Sezione mancante: Domande Frequenti (FAQ)",
	}, untitled.Warnings)
}

func TestCorpusLevelFindings(t *testing.T) {
	t.Run("empty corpus", func(t *testing.T) {
		rep := Corpus(nil, t.TempDir())
		assert.Contains(t, rep.Errors, "Nessun servizio nel corpus")
		assert.Equal(t, StatusFail, rep.Status())
	})

	t.Run("missing directory", func(t *testing.T) {
		items, err := decodeItems(`[{"service_name": "Anagrafe"}]`)
		require.NoError(t, err)
		rep := Corpus(items, filepath.Join(t.TempDir(), "nope"))
		assert.Contains(t, rep.Errors[0], "Directory knowledge base non trovata")
		assert.Empty(t, rep.Documents)
	})

	t.Run("collisions and unnamed records", func(t *testing.T) {
		items, err := decodeItems(`[{"service_name": "TARI"}, {"service_name": "tari"}, {"service_name": "!!!"}]`)
		require.NoError(t, err)
		rep := Corpus(items, t.TempDir())

		require.Len(t, rep.Warnings, 1)
		assert.Contains(t, rep.Warnings[0], `"tari": servizi 1 e 2`)
		assert.Contains(t, rep.Errors, "Servizio 3: impossibile derivare il nome del documento")
		require.Len(t, rep.Documents, 1, "duplicate slugs expect one file")
		assert.Equal(t, "tari.md", rep.Documents[0].File)
	})
}

func TestFileErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := File(filepath.Join(dir, "missing.json"), dir)
	assert.Error(t, err)

	bad := writeCorpus(t, dir, `{"not": "an array"}`)
	_, err = File(bad, dir)
	assert.Error(t, err)
}

func TestReportPrint(t *testing.T) {
	items, err := decodeItems(`[{"service_name": "Anagrafe", "description": "Certificati anagrafici", "qa_pairs": []}]`)
	require.NoError(t, err)
	rep := Corpus(items, t.TempDir())
	rep.Source = "corpus.json"

	var buf bytes.Buffer
	rep.Print(&buf)
	out := buf.String()

	assert.Contains(t, out, "VALIDAZIONE: corpus.json")
	assert.Contains(t, out, "[FAIL] Servizio 1 (Anagrafe)")
	assert.Contains(t, out, "ERROR: Campo vuoto: qa_pairs")
	assert.Contains(t, out, "[FAIL] anagrafe.md (0 bytes)")
	assert.Contains(t, out, "status=FAIL")
}
