package shopping

import (
	"strings"

	"golang.org/x/net/html"
)

// stripMarkup оставляет только текст: теги, комментарии и содержимое
// script/style выбрасываются, пробелы схлопываются.
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var sb strings.Builder
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapseSpaces(sb.String())
		case html.StartTagToken:
			if isOneOf(tagName(z), "script", "style") {
				skip++
			}
		case html.EndTagToken:
			if isOneOf(tagName(z), "script", "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
				sb.WriteByte(' ')
			}
		}
	}
}

func tagName(z *html.Tokenizer) string {
	name, _ := z.TagName()
	return string(name)
}

// collapseSpaces сжимает любые пробельные последовательности до одного пробела
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// isOneOf проверяет, что s совпадает с одним из candidates
func isOneOf(s string, candidates ...string) bool {
	for _, c := range candidates {
		if s == c {
			return true
		}
	}
	return false
}
