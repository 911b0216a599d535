// Package document implements the multi-ledger document engine: it
// renders structured orders into the canonical spreadsheet layout,
// parses rendered documents back, aggregates line items across a
// billing period, and keeps the registry, accounting and cost ledgers
// consistent with the primary document.
package document

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// DeliveryName is the reserved line-item name. A line with this name is
// billed as a flat amount instead of price times quantity, and its cost
// basis never enters the cost ledger.
const DeliveryName = "Доставка"

// DocumentKind selects between the two document variants.
type DocumentKind string

const (
	// KindDeliveryNote is a dated delivery note ("Накладная").
	KindDeliveryNote DocumentKind = "Накладная"
	// KindInvoice is a period-billed payment invoice ("Счет на оплату").
	KindInvoice DocumentKind = "Счет на оплату"
)

// OrderHeader describes one commercial document. Exactly one of Date or
// the period pair is populated, selected by Kind.
type OrderHeader struct {
	Kind   DocumentKind
	Number string

	Date        time.Time // delivery notes
	PeriodStart time.Time // invoices
	PeriodEnd   time.Time

	Buyer       string
	TaxID       string // ИНН, 14 digits
	BankAccount string // р/с, 16 digits
	BankName    string
	Site        string // Объект, delivery notes

	// PreviousTotal is the totals value the document carried before an
	// edit. The accounting accumulator is adjusted by the difference, so
	// this must survive the parse-edit round trip.
	PreviousTotal float64
}

// EffectiveDate is the date stamped into titles and the registry: the
// document date, or the period end for period-billed invoices.
func (h OrderHeader) EffectiveDate() time.Time {
	if !h.Date.IsZero() {
		return h.Date
	}
	return h.PeriodEnd
}

// LineItem is one row of a document's item table.
type LineItem struct {
	Name     string
	Measure  string
	Quantity float64
	Price    float64
	UnitCost float64 // себестоимость за единицу; zero for the Delivery sentinel
}

// IsDelivery reports whether the item is the reserved Delivery sentinel.
func (i LineItem) IsDelivery() bool {
	return strings.TrimSpace(i.Name) == DeliveryName
}

// Contribution is the billed amount of the line, rounded to the nearest
// integer. Totals are the sum of per-line contributions; the rounding
// happens per item, never on the sum.
func (i LineItem) Contribution() int64 {
	if i.IsDelivery() {
		return int64(math.Round(i.Price))
	}
	return int64(math.Round(i.Price * i.Quantity))
}

// CostAmount is the item's extended cost basis. The Delivery sentinel
// has none.
func (i LineItem) CostAmount() float64 {
	if i.IsDelivery() {
		return 0
	}
	return i.UnitCost * i.Quantity
}

// TotalSum sums per-line contributions.
func TotalSum(items []LineItem) int64 {
	var sum int64
	for _, item := range items {
		sum += item.Contribution()
	}
	return sum
}

// CostSum sums the extended cost basis over all non-sentinel items.
func CostSum(items []LineItem) float64 {
	var sum float64
	for _, item := range items {
		sum += item.CostAmount()
	}
	return sum
}

// AggregatedItem is a line item merged across the source documents of a
// billing period. CostTotal accumulates the consumed rows' amounts for
// the registry's cost column.
type AggregatedItem struct {
	Name      string
	Measure   string
	Quantity  float64
	Price     float64
	CostTotal float64
}

// LineItem converts the merged row back into renderable form.
func (a AggregatedItem) LineItem() LineItem {
	return LineItem{
		Name:     a.Name,
		Measure:  a.Measure,
		Quantity: a.Quantity,
		Price:    a.Price,
	}
}

var (
	taxIDRe       = regexp.MustCompile(`^\d{14}$`)
	bankAccountRe = regexp.MustCompile(`^\d{16}$`)
)

// Validate checks the header and items before any remote call is made.
func (h OrderHeader) Validate(items []LineItem) error {
	switch h.Kind {
	case KindDeliveryNote, KindInvoice:
	default:
		return NewValidationError("kind", string(h.Kind), "неизвестный тип документа")
	}
	if strings.TrimSpace(h.Number) == "" {
		return NewValidationError("number", h.Number, "номер документа обязателен")
	}
	if strings.TrimSpace(h.Buyer) == "" {
		return NewValidationError("buyer", h.Buyer, "покупатель обязателен")
	}
	if !taxIDRe.MatchString(h.TaxID) {
		return NewValidationError("tax_id", h.TaxID, "ИНН — ровно 14 цифр")
	}
	if !bankAccountRe.MatchString(h.BankAccount) {
		return NewValidationError("bank_account", h.BankAccount, "р/с — ровно 16 цифр")
	}
	if strings.TrimSpace(h.BankName) == "" {
		return NewValidationError("bank_name", h.BankName, "банк обязателен")
	}

	switch h.Kind {
	case KindDeliveryNote:
		if h.Date.IsZero() {
			return NewValidationError("date", "", "дата накладной обязательна")
		}
		if !h.PeriodStart.IsZero() || !h.PeriodEnd.IsZero() {
			return NewValidationError("period", "", "период не задается для накладной")
		}
		if strings.TrimSpace(h.Site) == "" {
			return NewValidationError("site", h.Site, "объект обязателен")
		}
		if len(items) == 0 {
			return NewValidationError("items", "", "нет позиций")
		}
	case KindInvoice:
		if h.PeriodStart.IsZero() || h.PeriodEnd.IsZero() {
			return NewValidationError("period", "", "период счета обязателен")
		}
		if !h.Date.IsZero() {
			return NewValidationError("date", "", "дата не задается для счета по периоду")
		}
	}

	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return NewValidationError("items", item.Name, "позиция без наименования")
		}
		if !item.IsDelivery() && item.Quantity <= 0 {
			return NewValidationError("items", item.Name, "количество должно быть больше нуля")
		}
	}
	return nil
}
