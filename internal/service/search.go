package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/raphaelgruber/civickb/internal/models"
	"github.com/raphaelgruber/civickb/internal/parser"
)

// DefaultPassages is how many chunks back an answer.
const DefaultPassages = 5

// minTermLength drops articles and prepositions from queries.
const minTermLength = 3

// Answerer answers a question from excerpts. *llm.Model satisfies it.
type Answerer interface {
	AnswerFromContext(ctx context.Context, question string, excerpts []string) (string, error)
}

// Passage is a scored chunk of a rendered document.
type Passage struct {
	File        string
	HeadingPath string
	Content     string
	Score       float64
}

// SearchService answers questions from the rendered knowledge base.
type SearchService struct {
	dir    string
	model  Answerer
	config parser.ChunkConfig
}

// NewSearchService creates a search service over dir. model may be nil for
// retrieval only.
func NewSearchService(dir string, model Answerer) *SearchService {
	return &SearchService{dir: dir, model: model, config: parser.DefaultChunkConfig()}
}

// Retrieve returns up to limit chunks ranked by the share of query terms
// found in the chunk or its heading path. Chunks with no matching term are
// dropped.
func (s *SearchService) Retrieve(question string, limit int) ([]Passage, error) {
	if limit <= 0 {
		limit = DefaultPassages
	}
	terms := queryTerms(question)
	if len(terms) == 0 {
		return nil, fmt.Errorf("question has no searchable terms")
	}

	files, err := filepath.Glob(filepath.Join(s.dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no documents in %s", s.dir)
	}
	slices.Sort(files)

	var passages []Passage
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		doc := parser.ParseMarkdown(string(content))
		for _, c := range parser.ChunkMarkdown(doc, s.config) {
			score := overlap(terms, c.HeadingPath+"\n"+c.Content)
			if score == 0 {
				continue
			}
			passages = append(passages, Passage{
				File:        filepath.Base(path),
				HeadingPath: c.HeadingPath,
				Content:     c.Content,
				Score:       score,
			})
		}
	}

	// Stable keeps file and chunk order among equal scores.
	slices.SortStableFunc(passages, func(a, b Passage) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(passages) > limit {
		passages = passages[:limit]
	}
	return passages, nil
}

// Ask retrieves passages and has the model answer from them.
func (s *SearchService) Ask(ctx context.Context, question string) (string, []Passage, error) {
	passages, err := s.Retrieve(question, DefaultPassages)
	if err != nil {
		return "", nil, err
	}
	if len(passages) == 0 {
		return "", nil, nil
	}
	if s.model == nil {
		return "", passages, fmt.Errorf("no language model configured")
	}

	excerpts := make([]string, len(passages))
	for i, p := range passages {
		excerpts[i] = fmt.Sprintf("(%s)\n%s", p.File, p.Content)
	}
	answer, err := s.model.AnswerFromContext(ctx, question, excerpts)
	if err != nil {
		return "", passages, err
	}
	return answer, passages, nil
}

func tokenize(s string) []string {
	s = models.FoldDiacritics(strings.ToLower(s))
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func queryTerms(q string) []string {
	var terms []string
	for _, t := range tokenize(q) {
		if len([]rune(t)) < minTermLength || slices.Contains(terms, t) {
			continue
		}
		terms = append(terms, t)
	}
	return terms
}

func overlap(terms []string, text string) float64 {
	words := make(map[string]struct{})
	for _, w := range tokenize(text) {
		words[w] = struct{}{}
	}
	hits := 0
	for _, t := range terms {
		if _, ok := words[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}
