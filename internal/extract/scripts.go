package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var scriptTagPattern = regexp.MustCompile(`(?is)<script[^>]*>(.*?)</script>`)

// scriptBodies returns the text of every inline script in document order.
// Regex scanning is the fallback when the HTML cannot be parsed.
func scriptBodies(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return scanScripts(html)
	}
	var bodies []string
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if _, external := s.Attr("src"); external {
			return
		}
		if text := s.Text(); strings.TrimSpace(text) != "" {
			bodies = append(bodies, text)
		}
	})
	return bodies
}

func scanScripts(html string) []string {
	matches := scriptTagPattern.FindAllStringSubmatch(html, -1)
	bodies := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.TrimSpace(m[1]) != "" {
			bodies = append(bodies, m[1])
		}
	}
	return bodies
}
