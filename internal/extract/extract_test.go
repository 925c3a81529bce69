package extract_test

import (
	"testing"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/extract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFromHTML_S2(t *testing.T) {
	html := `<html><head><title>令和6年度 第3回 ○○補助金</title></head>
<body>補助率: 2/3 上限: 1,000万円</body></html>`

	p := extract.ExtractFromHTML("https://allowed.example/a", []byte(html))

	assert.Equal(t, "令和6年度 第3回 ○○補助金", p.Title)
	require.NotNil(t, p.FiscalYear)
	assert.Equal(t, "令和6年度", *p.FiscalYear)
	require.NotNil(t, p.CallNo)
	assert.Equal(t, "3", *p.CallNo)
	require.NotNil(t, p.Rate)
	assert.Equal(t, "2/3", *p.Rate)
	require.NotNil(t, p.Cap)
	assert.Equal(t, "1,000万円", *p.Cap)
}

func TestExtractFromHTML_MalformedNeverErrors(t *testing.T) {
	p := extract.ExtractFromHTML("https://allowed.example/broken", []byte("<html><body><<<>>"))
	require.NotNil(t, p)
	assert.NotEmpty(t, p.Title)
}

func TestExtractFromHTML_EmptyFallsBackToSentinel(t *testing.T) {
	p := extract.ExtractFromHTML("https://allowed.example/empty", []byte("<html><head></head><body></body></html>"))
	assert.Equal(t, entity.UntitledSentinel, p.Title)
}

func TestPDFRow_S3(t *testing.T) {
	p := extract.PDFRow("https://h/x/abc-def.pdf")
	assert.Equal(t, "abc-def (PDF)", p.Title)
	assert.Equal(t, "PDF（本文未解析）", p.Summary)
}

func TestPDFRow_NoExtension(t *testing.T) {
	p := extract.PDFRow("https://h/x/noext")
	assert.Equal(t, "noext (PDF)", p.Title)
}

func TestExtractFromText_TitleFromFirstEligibleLine(t *testing.T) {
	text := "短\n概要\n本文本文が続きます。対象経費：人件費\n"
	p := extract.ExtractFromText("https://allowed.example/t", text)
	assert.NotEqual(t, entity.UntitledSentinel, p.Title)
	require.NotNil(t, p.CostItems)
}

func TestExtractFromText_TargetCostPriorityFirstNonNilWins(t *testing.T) {
	text := "対象経費：備品費\n対象者：中小企業\n"
	p := extract.ExtractFromText("https://allowed.example/t2", text)
	require.NotNil(t, p.CostItems)
	assert.Equal(t, "備品費", *p.CostItems)
	require.NotNil(t, p.Target)
	assert.Equal(t, "中小企業", *p.Target)
}
