package discovery

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractAnchors parses a list-page HTML body, resolves every <a href>
// against base, and returns the ordered, deduplicated subset that passes
// the asset and allow-list filters.
func ExtractAnchors(base string, htmlBytes []byte, allow AllowList) []string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBytes))
	if err != nil {
		return nil
	}

	var out []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}
		resolved, err := baseURL.Parse(href)
		if err != nil {
			return
		}
		resolvedStr := resolved.String()
		if !IsDocumentURL(resolvedStr) {
			return
		}
		if !allow.Allows(resolved.Hostname()) {
			return
		}
		out = append(out, resolvedStr)
	})

	return dedupePreservingOrder(out)
}
