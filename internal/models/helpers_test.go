package models

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "hello", "hello"},
		{"uppercase", "Hello World", "hello-world"},
		{"apostrophe and accent", "Carta d'Identità", "carta-didentita"},
		{"underscores kept", "my_doc_name", "my_doc_name"},
		{"special chars stripped", "Hello, World!", "hello-world"},
		{"dots stripped", "doc-v2.1", "doc-v21"},
		{"consecutive spaces", "hello   world", "hello-world"},
		{"mixed hyphens and spaces", "Servizi - Anagrafe -- Certificati", "servizi-anagrafe-certificati"},
		{"outer hyphens trimmed", "  -Tributi- ", "tributi"},
		{"accents folded", "Età è già più", "eta-e-gia-piu"},
		{"empty string", "", ""},
		{"only special chars", "!@#$%", ""},
		{"tabs and newlines", "Residenza\t\nCambio", "residenza-cambio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	inputs := []string{
		"Carta d'Identità",
		"  Iscrizione -- servizio mensa  ",
		"TARI: tassa sui rifiuti (2024)",
		"Ünïcödé__mix--ed",
		"",
		"---",
	}
	for _, in := range inputs {
		once := Slugify(in)
		assert.Equal(t, once, Slugify(once), "slugify must be idempotent for %q", in)
	}
}

func TestSlugifyIdempotentGenerated(t *testing.T) {
	// Letters, combining marks, conjoining Hangul jamo, punctuation and spaces.
	alphabet := []rune("aZèÉ'’-_ .,!\t\u0301\u0308\u1100\u1161\u11a8가İß1٣")
	rng := rand.New(rand.NewPCG(1, 2))

	for range 5000 {
		var b strings.Builder
		for range rng.IntN(12) {
			b.WriteRune(alphabet[rng.IntN(len(alphabet))])
		}
		in := b.String()
		once := Slugify(in)
		assert.Equal(t, once, Slugify(once), "slugify must be idempotent for %+q", in)
	}
}

func TestSlugifyComposesAfterStripping(t *testing.T) {
	once := Slugify("\u1100'\u1161")
	assert.Equal(t, "가", once)
	assert.Equal(t, once, Slugify(once))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "àèì", Truncate("àèìòù", 3), "counts characters, not bytes")
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "unbounded", Truncate("unbounded", 0))
}

func TestNormalizeSpace(t *testing.T) {
	assert.Equal(t, "a b", NormalizeSpace("  a \t  b "))
	assert.Equal(t, "Lunedì 9-12 Martedì 9-12", NormalizeSpace("\n Lunedì   9-12 \n\n  Martedì 9-12\n"))
	assert.Equal(t, "", NormalizeSpace("   "))
}
