// Package receipt turns raw OCR text into a candidate transaction.
//
// OCR output is one recognized text fragment per line, top to bottom. Vendor
// layouts differ and the engine merges or splits lines unpredictably, so
// extraction is layered: each stage (date, place, items, total) has its own
// fallback chain and a parse always produces a usable candidate. A poor
// parse is corrected by the user on the confirmation screen, never retried.
package receipt

import (
	"regexp"
	"strings"
	"time"

	"gagyebu/internal/core"
)

// PlaceholderPlace is used when no place can be extracted.
const PlaceholderPlace = "영수증 업로드"

var (
	dateRe = regexp.MustCompile(`(\d{4})[-./](\d{1,2})[-./](\d{1,2})`)

	// Known retail chains, optionally followed by a branch name ending in
	// the store marker 점.
	storeRes = []*regexp.Regexp{
		regexp.MustCompile(`이마트\s*([^\n]*점)?`),
		regexp.MustCompile(`롯데마트\s*([^\n]*점)?`),
		regexp.MustCompile(`홈플러스\s*([^\n]*점)?`),
		regexp.MustCompile(`(?i)GS25`),
		regexp.MustCompile(`(?i)CU`),
		regexp.MustCompile(`세븐일레븐`),
		regexp.MustCompile(`올리브영`),
		regexp.MustCompile(`다이소`),
		regexp.MustCompile(`스타벅스`),
		regexp.MustCompile(`맥도날드`),
	}

	hangulRe  = regexp.MustCompile(`[가-힣]`)
	nameRe    = regexp.MustCompile(`[가-힣a-zA-Z]`)
	productRe = regexp.MustCompile(`^(\d{3})\s+(.+)$`)

	// Optional long barcode prefix, then unit price, quantity and line
	// total as grouped-thousands integers.
	priceRe = regexp.MustCompile(`(?:\d{8,}\s*\.?\s*)?(\d{1,3}(?:,\d{3})*)\s+(\d+)\s+(\d{1,3}(?:,\d{3})*)`)
	phoneRe = regexp.MustCompile(`\d{2,3}-\d{3,4}-\d{4}`)
	totalRe = regexp.MustCompile(`(?i)(?:합계|총액|total)[:\s]*(\d{1,3}(?:,\d{3})*)`)
)

// boilerplate keywords that disqualify a line from price matching.
var excludeKeywords = []string{
	"http", "www", "주소", "전화", "사업자", "대표", "교환", "환불", "영수증",
}

// Parse extracts a candidate transaction from OCR text. It never fails:
// missing fields degrade to defaults (placeholder place, today's date, one
// empty item, item-sum total).
func Parse(text string) core.CandidateTransaction {
	return parseAt(text, core.Today())
}

func parseAt(text string, today core.Date) core.CandidateTransaction {
	lines := splitLines(text)

	date, ok := extractDate(text)
	if !ok {
		date = today
	}

	place := extractPlace(text, lines)
	items := extractItems(lines)

	total, ok := extractTotal(text)
	if !ok {
		var sum int64
		for _, it := range items {
			sum += it.Quantity * it.PricePerUnit
		}
		total = sum
	}

	if len(items) == 0 {
		items = []core.CandidateItem{{ProductName: "", Quantity: 1, PricePerUnit: 0}}
	}

	return core.CandidateTransaction{
		Place:       place,
		Date:        date,
		Items:       items,
		TotalAmount: total,
	}
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// extractDate returns the first syntactic date match that is also a real
// calendar date. Matches like month 13 are skipped and the search continues.
func extractDate(text string) (core.Date, bool) {
	for _, m := range dateRe.FindAllStringSubmatch(text, -1) {
		normalized := m[1] + "-" + m[2] + "-" + m[3]
		if t, err := time.Parse("2006-1-2", normalized); err == nil {
			return core.DateOf(t), true
		}
	}
	return core.Date{}, false
}

// extractPlace tries, in priority order: a known chain pattern, a line
// ending in the store marker, then any short Hangul line that is neither a
// date nor boilerplate. First hit wins.
func extractPlace(text string, lines []string) string {
	for _, re := range storeRes {
		if m := re.FindString(text); m != "" {
			return strings.TrimSpace(m)
		}
	}

	for _, line := range lines {
		if strings.HasSuffix(line, "점") && hangulRe.MatchString(line) {
			return strings.TrimSpace(line)
		}
	}

	for _, line := range lines {
		n := len([]rune(line))
		if n >= 30 || n <= 2 {
			continue
		}
		if !hangulRe.MatchString(line) {
			continue
		}
		if dateRe.MatchString(line) {
			continue
		}
		if strings.Contains(line, "주소") || strings.Contains(line, "전화") || strings.Contains(line, "영수증") {
			continue
		}
		return strings.TrimSpace(line)
	}

	return PlaceholderPlace
}

type productLine struct {
	name  string
	index int
}

// extractItems implements the look-ahead strategy: collect lines shaped
// like a 3-digit product code plus a name, then scan up to 3 following
// lines for a price line. The first price line wins; boilerplate lines are
// skipped, not counted as failures.
func extractItems(lines []string) []core.CandidateItem {
	var products []productLine
	for i, line := range lines {
		m := productRe.FindStringSubmatch(line)
		if m != nil && nameRe.MatchString(m[2]) {
			products = append(products, productLine{name: strings.TrimSpace(m[2]), index: i})
		}
	}

	var items []core.CandidateItem
	for _, p := range products {
		for offset := 1; offset <= 3; offset++ {
			idx := p.index + offset
			if idx >= len(lines) {
				break
			}
			priceLine := lines[idx]
			if isBoilerplate(priceLine) {
				continue
			}
			m := priceRe.FindStringSubmatch(priceLine)
			if m == nil {
				continue
			}
			unitPrice := parseGrouped(m[1])
			quantity := parseGrouped(m[2])
			if unitPrice > 0 && quantity > 0 {
				items = append(items, core.CandidateItem{
					ProductName:  p.name,
					Quantity:     quantity,
					PricePerUnit: unitPrice,
				})
				break
			}
		}
	}
	return items
}

func isBoilerplate(line string) bool {
	for _, kw := range excludeKeywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return phoneRe.MatchString(line)
}

func extractTotal(text string) (int64, bool) {
	m := totalRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return parseGrouped(m[1]), true
}

func parseGrouped(s string) int64 {
	s = strings.ReplaceAll(s, ",", "")
	var v int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		v = v*10 + int64(r-'0')
	}
	return v
}
