// Package extract implements the structured-field extractors (C4):
// pure functions from a fetched document to a entity.Page. Extractors
// never return an error — malformed input degrades to a defaulted,
// mostly-null record rather than aborting the caller.
package extract

import (
	"bytes"
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/normalize"

	"github.com/PuerkitoBio/goquery"
)

var (
	fiscalYearRe = regexp.MustCompile(`令和\s*[0-9０-９]+年度|20[0-9]{2}年度`)
	callNoRe     = regexp.MustCompile(`第\s*([0-9０-９]+)\s*回`)
	rateRe       = regexp.MustCompile(`補助率[\s:：]*([0-9０-９/／]+ ?%?)`)
	capRe        = regexp.MustCompile(`上限[\s:：]*([0-9０-９,，]+ ?(?:円|万円|億円)?)`)
)

// targetCostLabel pairs a label with the field it feeds: cost_items when
// the label itself contains "経費", target otherwise.
type targetCostLabel struct {
	re     *regexp.Regexp
	isCost bool
}

var targetCostLabels = buildTargetCostLabels([]string{"対象経費", "対象者", "対象"})

func buildTargetCostLabels(labels []string) []targetCostLabel {
	out := make([]targetCostLabel, 0, len(labels))
	for _, label := range labels {
		out = append(out, targetCostLabel{
			re:     regexp.MustCompile(regexp.QuoteMeta(label) + `[\s:：]*(.+?)\n`),
			isCost: strings.Contains(label, "経費"),
		})
	}
	return out
}

// ExtractFromHTML parses htmlBytes and derives a Page record. Malformed
// HTML degrades to a defaulted record, never an error.
func ExtractFromHTML(urlStr string, htmlBytes []byte) *entity.Page {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBytes))
	if err != nil {
		return &entity.Page{URL: urlStr, Title: entity.UntitledSentinel}
	}

	rawText := doc.Text()
	summary := firstNonEmpty(
		metaContent(doc, `meta[name="description"]`),
		metaContent(doc, `meta[property="og:description"]`),
		strings.TrimSpace(doc.Find("p").First().Text()),
	)
	summary = normalize.Clip(normalize.NormWS(summary), 800)

	title := firstNonEmpty(
		strings.TrimSpace(doc.Find("title").First().Text()),
		metaContent(doc, `meta[property="og:title"]`),
		metaContent(doc, `meta[name="twitter:title"]`),
	)
	if title != "" {
		title = normalize.NormWS(title)
	} else if summary != "" {
		title = normalize.Clip(summary, 40)
	} else {
		title = entity.UntitledSentinel
	}

	fiscalYear, callNo, rate, cap, target, costItems := extractCommonFields(rawText)

	return &entity.Page{
		URL:        urlStr,
		Title:      title,
		Summary:    summary,
		Rate:       rate,
		Cap:        cap,
		Target:     target,
		CostItems:  costItems,
		FiscalYear: fiscalYear,
		CallNo:     callNo,
	}
}

// ExtractFromText derives a Page record from already-fetched plain text
// (e.g. the deep-research fallback's readable-text result).
func ExtractFromText(urlStr string, text string) *entity.Page {
	title := ""
	for _, line := range strings.Split(text, "\n") {
		candidate := normalize.NormWS(line)
		n := utf8.RuneCountInString(candidate)
		if n >= 8 && n <= 80 {
			title = candidate
			break
		}
	}
	if title == "" {
		title = entity.UntitledSentinel
	}

	summary := normalize.Clip(normalize.NormWS(text), 800)
	fiscalYear, callNo, rate, cap, target, costItems := extractCommonFields(text)

	return &entity.Page{
		URL:        urlStr,
		Title:      title,
		Summary:    summary,
		Rate:       rate,
		Cap:        cap,
		Target:     target,
		CostItems:  costItems,
		FiscalYear: fiscalYear,
		CallNo:     callNo,
	}
}

// PDFRow builds the PDF-name fallback record: no network fetch is needed,
// the filename alone seeds title and summary is a fixed placeholder.
func PDFRow(urlStr string) *entity.Page {
	name := entity.UntitledSentinel
	if u, err := url.Parse(urlStr); err == nil {
		base := path.Base(u.Path)
		if ext := path.Ext(base); ext != "" {
			base = strings.TrimSuffix(base, ext)
		}
		if base != "" && base != "." && base != "/" {
			name = base
		}
	}
	return &entity.Page{
		URL:     urlStr,
		Title:   name + " (PDF)",
		Summary: "PDF（本文未解析）",
	}
}

func extractCommonFields(text string) (fiscalYear, callNo, rate, cap, target, costItems *string) {
	if m := fiscalYearRe.FindString(text); m != "" {
		fiscalYear = strPtr(normalize.NormWS(m))
	}
	if m := callNoRe.FindStringSubmatch(text); len(m) > 1 {
		callNo = strPtr(normalize.NormWS(m[1]))
	}
	if m := rateRe.FindStringSubmatch(text); len(m) > 1 {
		rate = strPtr(normalize.NormWS(m[1]))
	}
	if m := capRe.FindStringSubmatch(text); len(m) > 1 {
		cap = strPtr(normalize.NormWS(m[1]))
	}

	for _, tc := range targetCostLabels {
		m := tc.re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		val := strPtr(normalize.NormWS(m[1]))
		if tc.isCost {
			if costItems == nil {
				costItems = val
			}
		} else if target == nil {
			target = val
		}
	}
	return
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(v)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func strPtr(s string) *string { return &s }
