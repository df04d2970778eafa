// Package parser splits markdown knowledge documents into heading sections.
package parser

import (
	"bufio"
	"regexp"
	"strings"
)

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// Document is a parsed markdown document.
type Document struct {
	// Title is the text of the first h1, if any.
	Title    string
	Content  string
	Sections []Section
}

// Section is a heading and the text under it, up to the next heading.
type Section struct {
	Level   int    // 1-6 for h1-h6
	Heading string // heading text without markers
	Path    string // e.g. "# Anagrafe > ## Procedura"
	Content string
	Start   int // line of the heading
	End     int // last line of the content
}

// ParseMarkdown parses content into sections. It never fails; text before
// the first heading is kept only in Content.
func ParseMarkdown(content string) *Document {
	doc := &Document{Content: content}
	doc.Sections = parseSections(content)
	for _, s := range doc.Sections {
		if s.Level == 1 {
			doc.Title = s.Heading
			break
		}
	}
	return doc
}

// HasSection reports whether a heading with this exact text exists.
func (d *Document) HasSection(heading string) bool {
	_, ok := d.Section(heading)
	return ok
}

// Section returns the first section with this heading text.
func (d *Document) Section(heading string) (Section, bool) {
	for _, s := range d.Sections {
		if s.Heading == heading {
			return s, true
		}
	}
	return Section{}, false
}

func parseSections(content string) []Section {
	var sections []Section

	scanner := bufio.NewScanner(strings.NewReader(content))
	lineNum := 0
	var path []string
	var levels []int

	var current *Section
	var body strings.Builder

	flush := func(endLine int) {
		if current != nil {
			current.Content = strings.TrimSpace(body.String())
			current.End = endLine
			sections = append(sections, *current)
			body.Reset()
		}
	}

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		match := headingRe.FindStringSubmatch(line)
		if match == nil {
			if current != nil {
				body.WriteString(line)
				body.WriteString("\n")
			}
			continue
		}

		flush(lineNum - 1)

		level := len(match[1])
		heading := strings.TrimSpace(match[2])

		for len(levels) > 0 && levels[len(levels)-1] >= level {
			path = path[:len(path)-1]
			levels = levels[:len(levels)-1]
		}
		path = append(path, match[1]+" "+heading)
		levels = append(levels, level)

		current = &Section{
			Level:   level,
			Heading: heading,
			Path:    strings.Join(path, " > "),
			Start:   lineNum,
		}
	}

	flush(lineNum)
	return sections
}
