package parser

import (
	"strings"
	"unicode"
)

// Chunk is a retrievable piece of a document.
type Chunk struct {
	Content     string
	Position    int
	HeadingPath string
}

// ChunkConfig defines chunking parameters, in bytes.
type ChunkConfig struct {
	// MinSize: smaller sections merge into the previous chunk
	MinSize int
	// MaxSize: larger sections split at paragraphs, then sentences
	MaxSize int
}

// DefaultChunkConfig returns defaults sized for one FAQ entry per chunk.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MinSize: 60,
		MaxSize: 1000,
	}
}

// ChunkMarkdown splits a document at section boundaries. Each chunk starts
// with its heading so FAQ questions stay with their answers. Sections with
// no text are skipped.
func ChunkMarkdown(doc *Document, config ChunkConfig) []Chunk {
	if len(doc.Sections) == 0 {
		var chunks []Chunk
		for i, p := range splitParagraphs(doc.Content, config) {
			chunks = append(chunks, Chunk{Content: p, Position: i})
		}
		return chunks
	}

	var chunks []Chunk
	for _, s := range doc.Sections {
		if s.Content == "" {
			continue
		}
		text := s.Heading + "\n\n" + s.Content

		if len(text) < config.MinSize && len(chunks) > 0 {
			last := &chunks[len(chunks)-1]
			last.Content += "\n\n" + text
			continue
		}

		for _, p := range splitParagraphs(text, config) {
			chunks = append(chunks, Chunk{
				Content:     p,
				Position:    len(chunks),
				HeadingPath: s.Path,
			})
		}
	}
	return chunks
}

// splitParagraphs packs paragraphs into pieces of at most MaxSize bytes.
// A single paragraph over MaxSize is split at sentence ends.
func splitParagraphs(content string, config ChunkConfig) []string {
	var out []string
	var cur strings.Builder

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if len(para) > config.MaxSize {
			flush()
			for _, s := range packSentences(para, config.MaxSize) {
				out = append(out, s)
			}
			continue
		}

		if cur.Len() > 0 && cur.Len()+len(para)+2 > config.MaxSize {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(para)
	}
	flush()
	return out
}

func packSentences(text string, maxSize int) []string {
	var out []string
	var cur strings.Builder
	for _, s := range splitSentences(text) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if cur.Len() > 0 && cur.Len()+len(s)+1 > maxSize {
			out = append(out, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(s)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// splitSentences splits after '.', '!' or '?' followed by a space or the
// end of text. A terminator right after an uppercase letter is taken as an
// abbreviation.
func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		cur.WriteRune(r)
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if i > 0 && unicode.IsUpper(runes[i-1]) {
			continue
		}
		sentences = append(sentences, cur.String())
		cur.Reset()
	}
	if cur.Len() > 0 {
		sentences = append(sentences, cur.String())
	}
	return sentences
}
