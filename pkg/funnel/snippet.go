package funnel

import (
	"bytes"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const maxSnippetLen = 512

// responseSnippet condenses a response body for error messages. HTML error
// pages are reduced to their title and visible text.
func responseSnippet(header http.Header, body []byte) string {
	s := strings.TrimSpace(string(body))
	if looksLikeHTML(header, s) {
		if text := htmlText(body); text != "" {
			s = text
		}
	}
	if len(s) > maxSnippetLen {
		return truncateUTF8(s, maxSnippetLen) + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func looksLikeHTML(header http.Header, trimmed string) bool {
	if strings.Contains(strings.ToLower(header.Get("Content-Type")), "text/html") {
		return true
	}
	lower := strings.ToLower(trimmed)
	return strings.HasPrefix(lower, "<!doctype html") || strings.HasPrefix(lower, "<html")
}

func htmlText(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	doc.Find("script, style").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")

	switch {
	case title != "" && text != "":
		return title + ": " + text
	case title != "":
		return title
	default:
		return text
	}
}
