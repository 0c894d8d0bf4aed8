package scrape

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/regextract/internal/extract"
	"github.com/hyperifyio/regextract/internal/source"
)

// Tier names recorded in Result.Detail.
const (
	TierTables     = "tables"
	TierAnnexLinks = "annex_links"
	TierKeywords   = "keywords"
)

// Keywords scanned by the last tier, in priority order.
var Keywords = []string{
	"annex",
	"prohibited",
	"restricted",
	"cmr",
	"carcinogenic",
	"mutagenic",
	"toxic for reproduction",
	"preservative",
	"colorant",
	"uv filter",
}

// parsedTable is one <table> with its header and body rows.
type parsedTable struct {
	header []string
	rows   [][]string
}

// tablesTier reads every <table> in the document. The output columns are
// table_index followed by the union of all headers in first-seen order.
func tablesTier(doc *goquery.Document) source.Table {
	var tables []parsedTable
	doc.Find("table").Each(func(_ int, tbl *goquery.Selection) {
		if pt, ok := parseTable(tbl); ok {
			tables = append(tables, pt)
		}
	})

	columns := []string{"table_index"}
	index := map[string]int{}
	for _, pt := range tables {
		for _, h := range pt.header {
			if _, seen := index[h]; !seen {
				index[h] = len(columns)
				columns = append(columns, h)
			}
		}
	}

	out := source.NewTable(columns...)
	for i, pt := range tables {
		for _, cells := range pt.rows {
			row := make([]string, len(columns))
			row[0] = strconv.Itoa(i)
			for j, h := range pt.header {
				if j < len(cells) {
					row[index[h]] = cells[j]
				}
			}
			out.Append(row)
		}
	}
	return out
}

func parseTable(tbl *goquery.Selection) (parsedTable, bool) {
	var pt parsedTable
	tbl.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		// Rows of nested tables are read with their own table.
		if tr.Closest("table").Get(0) != tbl.Get(0) {
			return
		}
		ths := tr.ChildrenFiltered("th")
		tds := tr.ChildrenFiltered("td")
		if pt.header == nil && ths.Length() > 0 && tds.Length() == 0 {
			pt.header = cellTexts(ths)
			return
		}
		cells := cellTexts(tr.ChildrenFiltered("th, td"))
		if allBlank(cells) {
			return
		}
		if pt.header == nil {
			pt.header = cells
			return
		}
		pt.rows = append(pt.rows, cells)
	})
	if len(pt.rows) == 0 {
		return pt, false
	}
	pt.header = uniqueHeaders(pt.header)
	return pt, true
}

func cellTexts(sel *goquery.Selection) []string {
	out := make([]string, 0, sel.Length())
	sel.Each(func(_ int, c *goquery.Selection) {
		out = append(out, cleanText(c.Text()))
	})
	return out
}

// uniqueHeaders names blank headers and suffixes repeats until every name is
// distinct, including names that already end in a suffix.
func uniqueHeaders(in []string) []string {
	out := make([]string, len(in))
	used := make(map[string]bool, len(in))
	for _, h := range in {
		if h != "" {
			used[h] = true
		}
	}
	taken := make(map[string]bool, len(in))
	for i, h := range in {
		if h == "" {
			h = "column_" + strconv.Itoa(i+1)
		}
		name := h
		for n := 2; taken[name] || (name != h && used[name]); n++ {
			name = h + "_" + strconv.Itoa(n)
		}
		taken[name] = true
		out[i] = name
	}
	return out
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

var (
	annexMention = regexp.MustCompile(`(?i)annex`)
	annexNumeral = regexp.MustCompile(`(?i)annex(?:es)?(?:[\s_-]|%20)*(VI|IV|V|I{1,3})(?:[^a-z]|$)`)
)

// annexLinksTier collects hyperlinks whose target or text mentions an annex.
// Relative links are resolved against base and duplicates are dropped.
func annexLinksTier(doc *goquery.Document, base *url.URL) source.Table {
	out := source.NewTable("annex", "title", "url")
	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		title := cleanText(a.Text())
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		if !annexMention.MatchString(href) && !annexMention.MatchString(title) {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := ref
		if base != nil {
			abs = base.ResolveReference(ref)
		}
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		abs.Fragment = ""
		link := abs.String()
		if seen[link] {
			return
		}
		seen[link] = true
		out.Append([]string{annexID(title, href), title, link})
	})
	return out
}

// annexID returns the Roman numeral of the annex named by the link text or
// target, or "" when none is given.
func annexID(title, href string) string {
	for _, s := range []string{title, href} {
		if m := annexNumeral.FindStringSubmatch(s); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}

// keywordsTier emits one row per readable text block that mentions a
// regulatory keyword. Identical passages are reported once.
func keywordsTier(body []byte) source.Table {
	out := source.NewTable("keyword", "passage")
	seen := map[string]bool{}
	doc := extract.FromHTML(body)
	log.Debug().Str("title", doc.Title).Int("blocks", len(doc.Blocks)).Msg("scanning page text")
	for _, block := range doc.Blocks {
		kw := firstKeyword(block)
		if kw == "" || seen[block] {
			continue
		}
		seen[block] = true
		out.Append([]string{kw, block})
	}
	return out
}

func firstKeyword(passage string) string {
	lower := strings.ToLower(passage)
	for _, kw := range Keywords {
		if strings.Contains(lower, kw) {
			return kw
		}
	}
	return ""
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
