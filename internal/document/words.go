package document

import (
	"fmt"
	"strings"
)

// Russian cardinal spelling for the amount-in-words line. Only whole
// amounts occur: line totals are rounded before summing.

var wordsUnits = []string{
	"", "один", "два", "три", "четыре", "пять", "шесть", "семь", "восемь", "девять",
}

var wordsUnitsFem = []string{
	"", "одна", "две", "три", "четыре", "пять", "шесть", "семь", "восемь", "девять",
}

var wordsTeens = []string{
	"десять", "одиннадцать", "двенадцать", "тринадцать", "четырнадцать",
	"пятнадцать", "шестнадцать", "семнадцать", "восемнадцать", "девятнадцать",
}

var wordsTens = []string{
	"", "", "двадцать", "тридцать", "сорок", "пятьдесят",
	"шестьдесят", "семьдесят", "восемьдесят", "девяносто",
}

var wordsHundreds = []string{
	"", "сто", "двести", "триста", "четыреста", "пятьсот",
	"шестьсот", "семьсот", "восемьсот", "девятьсот",
}

// scale holds the three plural forms of a thousand-group name and
// whether the group counts in the feminine.
type scale struct {
	one, few, many string
	feminine       bool
}

var wordsScales = []scale{
	{},
	{one: "тысяча", few: "тысячи", many: "тысяч", feminine: true},
	{one: "миллион", few: "миллиона", many: "миллионов"},
	{one: "миллиард", few: "миллиарда", many: "миллиардов"},
	{one: "триллион", few: "триллиона", many: "триллионов"},
	{one: "квадриллион", few: "квадриллиона", many: "квадриллионов"},
	{one: "квинтиллион", few: "квинтиллиона", many: "квинтиллионов"},
}

// pluralForm picks the Russian plural form for n: one (1, 21, ...),
// few (2-4, 22-24, ...) or many (everything else).
func pluralForm(n int64, one, few, many string) string {
	n = n % 100
	if n >= 11 && n <= 14 {
		return many
	}
	switch n % 10 {
	case 1:
		return one
	case 2, 3, 4:
		return few
	}
	return many
}

// tripleWords spells a group of up to three digits.
func tripleWords(n int64, feminine bool) []string {
	var out []string
	if h := n / 100; h > 0 {
		out = append(out, wordsHundreds[h])
	}
	rest := n % 100
	switch {
	case rest >= 10 && rest <= 19:
		out = append(out, wordsTeens[rest-10])
	default:
		if t := rest / 10; t > 0 {
			out = append(out, wordsTens[t])
		}
		if u := rest % 10; u > 0 {
			if feminine {
				out = append(out, wordsUnitsFem[u])
			} else {
				out = append(out, wordsUnits[u])
			}
		}
	}
	return out
}

// AmountInWords spells a whole amount in Russian with the currency
// appended, first letter capitalized: 1700 becomes
// "Одна тысяча семьсот сом".
func AmountInWords(amount int64) string {
	if amount == 0 {
		return "Ноль сом"
	}
	var negative bool
	if amount < 0 {
		negative = true
		amount = -amount
	}

	// split into thousand groups, most significant last
	var groups []int64
	for amount > 0 {
		groups = append(groups, amount%1000)
		amount /= 1000
	}

	var parts []string
	for i := len(groups) - 1; i >= 0; i-- {
		n := groups[i]
		if n == 0 {
			continue
		}
		sc := wordsScales[i]
		parts = append(parts, tripleWords(n, sc.feminine)...)
		if i > 0 {
			parts = append(parts, pluralForm(n, sc.one, sc.few, sc.many))
		}
	}
	if negative {
		parts = append([]string{"минус"}, parts...)
	}

	s := strings.Join(parts, " ") + " сом"
	r := []rune(s)
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	return string(r)
}

// WordsLine is the full amount-in-words cell content.
func WordsLine(total int64) string {
	return fmt.Sprintf("Итого к оплате: %s", AmountInWords(total))
}
