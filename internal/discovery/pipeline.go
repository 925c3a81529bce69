package discovery

import (
	"context"
	"net/url"
)

// BuildCandidates concatenates anchor extraction, regex harvest and the
// optional external provider's output (in that order), dedupes, caps per
// host at maxPerDomain, then truncates to maxNew. Per spec.md §4.6.
func BuildCandidates(ctx context.Context, listURL string, body []byte, allow AllowList, provider Provider, query string, maxPerDomain, maxNew int) []string {
	var all []string
	all = append(all, ExtractAnchors(listURL, body, allow)...)
	all = append(all, RegexHarvest(body, allow)...)
	if provider != nil && query != "" {
		all = append(all, provider.Discover(ctx, query, allow)...)
	}

	deduped := dedupePreservingOrder(all)
	capped := capPerHost(deduped, maxPerDomain)
	return truncate(capped, maxNew)
}

func capPerHost(urls []string, maxPerDomain int) []string {
	if maxPerDomain <= 0 {
		return urls
	}
	counts := make(map[string]int)
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		host := hostname(u)
		if counts[host] >= maxPerDomain {
			continue
		}
		counts[host]++
		out = append(out, u)
	}
	return out
}

func truncate(urls []string, maxNew int) []string {
	if maxNew <= 0 || len(urls) <= maxNew {
		return urls
	}
	return urls[:maxNew]
}

func hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
