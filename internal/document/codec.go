package document

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the only date form that appears in documents.
const DateLayout = "02.01.2006"

var (
	buyerLineRe = regexp.MustCompile(`^Покупатель:\s*(.+?)\s+ИНН\s+(\d{14})\s*$`)
	bankLineRe  = regexp.MustCompile(`^р/с\s+(\d{16})\s+в\s+(.+?)\s*$`)
	siteLineRe  = regexp.MustCompile(`^Объект:\s*(.*?)\s*$`)
	dateRe      = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)
)

// EncodeBuyerLine renders the buyer header line.
func EncodeBuyerLine(buyer, taxID string) string {
	return fmt.Sprintf("Покупатель: %s ИНН %s", buyer, taxID)
}

// EncodeBankLine renders the bank header line.
func EncodeBankLine(account, bank string) string {
	return fmt.Sprintf("р/с %s в %s", account, bank)
}

// EncodeSiteLine renders the construction-site header line.
func EncodeSiteLine(site string) string {
	return fmt.Sprintf("Объект: %s", site)
}

// DecodeBuyerLine parses a buyer header line back into its fields.
func DecodeBuyerLine(line string) (buyer, taxID string, err error) {
	m := buyerLineRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", "", fmt.Errorf("DecodeBuyerLine: malformed buyer line %q", line)
	}
	return m[1], m[2], nil
}

// DecodeBankLine parses a bank header line back into its fields.
func DecodeBankLine(line string) (account, bank string, err error) {
	m := bankLineRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", "", fmt.Errorf("DecodeBankLine: malformed bank line %q", line)
	}
	return m[1], m[2], nil
}

// DecodeSiteLine parses a site header line. An empty site is valid for
// invoices.
func DecodeSiteLine(line string) (string, error) {
	m := siteLineRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", fmt.Errorf("DecodeSiteLine: malformed site line %q", line)
	}
	return m[1], nil
}

// ParseNumber converts a sheet cell to a float. Embedded whitespace
// (thousand separators) is stripped and a decimal comma is accepted.
// Unparseable input yields zero, matching how blank cells are summed.
func ParseNumber(v interface{}) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	s := strings.Map(func(r rune) rune {
		if r == ' ' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, fmt.Sprintf("%v", v))
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// CellString renders a cell value as a trimmed string.
func CellString(v interface{}) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}

// FormatDate renders a date in document form.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a document-form date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("ParseDate: %w", err)
	}
	return t, nil
}

// SheetTitle is the tab name of a document: "№<number> от <date> г.".
func SheetTitle(number string, date time.Time) string {
	return fmt.Sprintf("№%s от %s г.", number, FormatDate(date))
}

// TitleDate extracts the date embedded at rune offset 8 of a document
// tab title. Titles shorter than 18 runes carry no date.
func TitleDate(title string) (time.Time, bool) {
	runes := []rune(title)
	if len(runes) < 18 {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, string(runes[8:18]))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ExtractDate finds the first document-form date anywhere in s.
func ExtractDate(s string) (time.Time, bool) {
	m := dateRe.FindString(s)
	if m == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, m)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

var nameTrimRe = regexp.MustCompile(`[.,;]+$`)

// NormalizeItemName canonicalizes an item name for matching between the
// document and the cost ledger: case-folded, quotes stripped, interior
// whitespace collapsed, trailing punctuation dropped.
func NormalizeItemName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\'', '"', '«', '»':
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	return nameTrimRe.ReplaceAllString(s, "")
}

// MergeKey identifies a mergeable line during aggregation: same
// normalized name at the same price.
func MergeKey(name string, price float64) string {
	return fmt.Sprintf("%s|%v", strings.ToLower(strings.TrimSpace(name)), price)
}
