// Package news cleans backend news articles for terminal display.
package news

import (
	"html"
	"regexp"
	"strings"

	"wavecap/pkg/wavecap"
)

// Headline is an article ready for display. Summary is plain text.
type Headline struct {
	Title     string
	Link      string
	Summary   string
	Source    string
	Published string
}

// Normalize strips markup from articles. Every article is kept, in server
// order, with its whole description.
func Normalize(articles []wavecap.Article) []Headline {
	out := make([]Headline, 0, len(articles))
	for _, a := range articles {
		out = append(out, Headline{
			Title:     StripHTML(a.Title),
			Link:      strings.TrimSpace(a.Link),
			Summary:   StripHTML(a.Description),
			Source:    StripHTML(a.Source),
			Published: strings.TrimSpace(a.Published),
		})
	}
	return out
}

// --- HTML helpers ---

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes HTML tags and normalizes whitespace.
func StripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
