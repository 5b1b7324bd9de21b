package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// MaxQueryLength là độ dài tối đa (rune) của search query và post title sau khi sanitize
const MaxQueryLength = 200

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// SanitizeText strip markup tags, xóa control characters, trim whitespace và truncate về max rune.
// Text bên trong <script>/<style> bị bỏ luôn, entity được decode ("&amp;" → "&").
// max <= 0 nghĩa là không truncate
func SanitizeText(s string, max int) string {
	if s == "" {
		return ""
	}

	text := stripTags(s)
	text = controlChars.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	if max > 0 && utf8.RuneCountInString(text) > max {
		runes := []rune(text)
		text = strings.TrimSpace(string(runes[:max]))
	}
	return text
}

// SanitizeQuery là SanitizeText với giới hạn MaxQueryLength, dùng cho search params
func SanitizeQuery(s string) string {
	return SanitizeText(s, MaxQueryLength)
}

func stripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF hoặc input hỏng: trả về phần đã đọc được
			return b.String()
		case html.StartTagToken:
			if isRawTextTag(z) {
				skip++
			}
		case html.EndTagToken:
			if isRawTextTag(z) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawTextTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}
