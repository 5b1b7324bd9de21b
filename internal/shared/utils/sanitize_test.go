package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"empty", "", 10, ""},
		{"plain text untouched", "The Hobbit", 200, "The Hobbit"},
		{"trims whitespace", "   dune  ", 200, "dune"},
		{"strips tags", "<b>Dune</b> <i>Messiah</i>", 200, "Dune Messiah"},
		{"drops script body", "hello<script>alert(1)</script> world", 200, "hello world"},
		{"drops style body", "<style>p{}</style>text", 200, "text"},
		{"decodes entities", "Tom &amp; Jerry", 200, "Tom & Jerry"},
		{"keeps lone angle bracket", "a < b", 200, "a < b"},
		{"removes control chars", "ti\x00tle\x1f\x7f", 200, "title"},
		{"removes newlines and tabs", "line1\nline2\tend", 200, "line1line2end"},
		{"truncates by rune", "ééééé", 3, "ééé"},
		{"no truncation when max is zero", "abcdef", 0, "abcdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeText(tt.in, tt.max))
		})
	}
}

func TestSanitizeQuery_Limit(t *testing.T) {
	got := SanitizeQuery(strings.Repeat("x", 500))
	assert.Equal(t, MaxQueryLength, utf8.RuneCountInString(got))
}
