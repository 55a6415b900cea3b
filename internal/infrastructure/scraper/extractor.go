package scraper

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"referent/internal/domain/entity"
)

// minContentLength is the trimmed length a container must exceed to be taken
// as the article body.
const minContentLength = 100

// noiseSelector matches descendants stripped before reading container text.
const noiseSelector = "script, style, nav, header, footer, aside, .ad, .advertisement, .sidebar"

// rule reads one candidate value from a document. An empty result means the
// rule did not match and the cascade moves on.
type rule struct {
	selector string
	read     func(sel *goquery.Selection) string
}

var titleRules = []rule{
	{"h1", elementText},
	{"article h1", elementText},
	{".post-title", elementText},
	{".article-title", elementText},
	{`[class*="title"]`, elementText},
	{`meta[property="og:title"]`, metaContent},
	{`meta[name="twitter:title"]`, metaContent},
}

var dateRules = []rule{
	{"time[datetime]", elementDate},
	{"time", elementDate},
	{`[class*="date"]`, elementDate},
	{`[class*="published"]`, elementDate},
	{`[class*="time"]`, elementDate},
	{`meta[property="article:published_time"]`, metaContent},
	{`meta[name="publish-date"]`, metaContent},
	{`meta[name="date"]`, metaContent},
}

var contentRules = []rule{
	{"article", containerText},
	{".post", containerText},
	{".content", containerText},
	{".article-content", containerText},
	{".post-content", containerText},
	{`[class*="article"]`, containerText},
	{`[class*="post"]`, containerText},
	{`[class*="content"]`, containerText},
	{"main article", containerText},
	{"main .content", containerText},
}

// Extractor locates the title, date and body of an article in raw HTML.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract never fails: fields that cannot be located are set to
// entity.NotFound.
func (e *Extractor) Extract(html string) *entity.Article {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return entity.NewArticle("", "", "")
	}

	title := firstMatch(doc, titleRules)
	date := firstMatch(doc, dateRules)

	content := firstMatch(doc, contentRules)
	if content == "" {
		content = strippedText(doc.Find("body").First())
	}

	return entity.NewArticle(title, date, collapseWhitespace(content))
}

// firstMatch evaluates rules in order and returns the first non-empty value.
// Each rule only looks at the first element its selector matches.
func firstMatch(doc *goquery.Document, rules []rule) string {
	for _, r := range rules {
		sel := doc.Find(r.selector).First()
		if sel.Length() == 0 {
			continue
		}
		if v := r.read(sel); v != "" {
			return v
		}
	}
	return ""
}

func elementText(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}

func metaContent(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.AttrOr("content", ""))
}

// elementDate prefers the machine-readable datetime attribute.
func elementDate(sel *goquery.Selection) string {
	if v := strings.TrimSpace(sel.AttrOr("datetime", "")); v != "" {
		return v
	}
	return strings.TrimSpace(sel.Text())
}

func containerText(sel *goquery.Selection) string {
	text := strippedText(sel)
	if utf8.RuneCountInString(text) <= minContentLength {
		return ""
	}
	return text
}

// strippedText returns the trimmed text of sel without noise descendants.
// It works on a clone so the shared document stays intact for later rules.
func strippedText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	clone := sel.Clone()
	clone.Find(noiseSelector).Remove()
	return strings.TrimSpace(clone.Text())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
