package discovery

import "regexp"

var urlShapedRe = regexp.MustCompile(`https?://[^\s"'<>)\]]+`)

// RegexHarvest scans raw body text for URL-shaped substrings, keeping only
// those whose host is on the allow-list and whose path looks like a
// document (not a static asset). Order is first-seen, deduplicated.
func RegexHarvest(body []byte, allow AllowList) []string {
	matches := urlShapedRe.FindAllString(string(body), -1)

	var out []string
	for _, m := range matches {
		if !IsDocumentURL(m) {
			continue
		}
		if !allow.AllowsURL(m) {
			continue
		}
		out = append(out, m)
	}
	return dedupePreservingOrder(out)
}
