package yt

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// htmlToText turns an html textDisplay into plain text. Line breaks become
// newlines, tags are dropped and entities decoded.
func htmlToText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}

	doc.Find("br").Each(func(_ int, sel *goquery.Selection) {
		sel.ReplaceWithHtml("\n")
	})

	return doc.Text()
}
