package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `# Carta d'Identità

## Descrizione

Rilascio della carta d'identità elettronica ai cittadini residenti nel comune.

## Procedura

1. Prenota un appuntamento
2. Presenta i documenti
3. Attendi

## Domande Frequenti (FAQ)

### Come posso richiedere Carta d'Identità?

Per richiedere Carta d'Identità devi prenotare un appuntamento presso l'ufficio comunale competente.

### Quanto costa Carta d'Identità?

€22,21
`

func TestParseMarkdown(t *testing.T) {
	doc := ParseMarkdown(sampleDoc)

	assert.Equal(t, "Carta d'Identità", doc.Title)
	require.Len(t, doc.Sections, 6)

	faq, ok := doc.Section("Domande Frequenti (FAQ)")
	require.True(t, ok)
	assert.Equal(t, 2, faq.Level)
	assert.Equal(t, "", faq.Content)

	q := doc.Sections[4]
	assert.Equal(t, "# Carta d'Identità > ## Domande Frequenti (FAQ) > ### Come posso richiedere Carta d'Identità?", q.Path)
	assert.Equal(t, 3, q.Level)

	assert.True(t, doc.HasSection("Procedura"))
	assert.False(t, doc.HasSection("Documenti Necessari"))
}

func TestParseMarkdownNoHeadings(t *testing.T) {
	doc := ParseMarkdown("solo testo\n\nsenza titoli")
	assert.Empty(t, doc.Title)
	assert.Empty(t, doc.Sections)
}

func TestParseMarkdownSectionLines(t *testing.T) {
	doc := ParseMarkdown("# A\ntext\n## B\nmore\nlines")
	require.Len(t, doc.Sections, 2)
	assert.Equal(t, 1, doc.Sections[0].Start)
	assert.Equal(t, 2, doc.Sections[0].End)
	assert.Equal(t, 3, doc.Sections[1].Start)
	assert.Equal(t, 5, doc.Sections[1].End)
	assert.Equal(t, "more\nlines", doc.Sections[1].Content)
}

func TestChunkMarkdown(t *testing.T) {
	chunks := ChunkMarkdown(ParseMarkdown(sampleDoc), DefaultChunkConfig())

	// Title and FAQ heading have no text; the short cost answer merges into
	// the previous chunk.
	require.Len(t, chunks, 3)
	assert.True(t, strings.HasPrefix(chunks[0].Content, "Descrizione\n\n"))
	assert.True(t, strings.HasPrefix(chunks[1].Content, "Procedura\n\n"))
	assert.Contains(t, chunks[2].Content, "Come posso richiedere")
	assert.Contains(t, chunks[2].Content, "€22,21")
	for i, c := range chunks {
		assert.Equal(t, i, c.Position)
		assert.NotEmpty(t, c.HeadingPath)
	}
}

func TestChunkMarkdownEmpty(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"completely empty", ""},
		{"whitespace only", "   \n\n\t  "},
		{"headings only", "# Title\n\n## Section"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, ChunkMarkdown(ParseMarkdown(tt.content), DefaultChunkConfig()))
		})
	}
}

func TestChunkMarkdownSplitsLargeSections(t *testing.T) {
	sentence := "Il servizio viene erogato entro pochi giorni dalla richiesta. "
	content := "# Titolo\n\n## Lungo\n\n" + strings.Repeat(sentence, 40)

	chunks := ChunkMarkdown(ParseMarkdown(content), ChunkConfig{MinSize: 10, MaxSize: 300})

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), 300)
		assert.Equal(t, "# Titolo > ## Lungo", c.HeadingPath)
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("Prima frase. Seconda? Dott. Rossi firma il modulo A. Fine!")
	assert.Equal(t, []string{"Prima frase.", " Seconda?", " Dott.", " Rossi firma il modulo A. Fine!"}, got)
}
