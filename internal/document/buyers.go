package document

import "time"

// Buyer couples a customer name with its fixed row slot in the
// accounting ledger.
type Buyer struct {
	ID   int
	Name string
	// PreProforma buyers receive the invoice title caption on their
	// delivery notes until the document is explicitly converted.
	PreProforma bool
}

// Known customers. The ID orders the accounting ledger rows; new buyers
// are appended, never reordered.
var buyers = []Buyer{
	{ID: 0, Name: "ОсОО 'Стройком'"},
	{ID: 1, Name: "ЗАО 'Браво Плюс'", PreProforma: true},
	{ID: 2, Name: "Артис Строй Констракшн", PreProforma: true},
	{ID: 3, Name: "ОсОО 'Жылдыз Курулуш'"},
	{ID: 4, Name: "ИП Абдыкадыров"},
}

// FindBuyer resolves a buyer by exact name.
func FindBuyer(name string) (Buyer, bool) {
	for _, b := range buyers {
		if b.Name == name {
			return b, true
		}
	}
	return Buyer{}, false
}

// IsPreProforma reports whether the buyer's delivery notes carry the
// invoice caption by default.
func IsPreProforma(name string) bool {
	b, ok := FindBuyer(name)
	return ok && b.PreProforma
}

// AccountingRow is the 1-based accounting-ledger row for the buyer.
// Buyers the ledger does not know get no row.
func AccountingRow(name string) (int, bool) {
	b, ok := FindBuyer(name)
	if !ok {
		return 0, false
	}
	return 7 + b.ID, true
}

// monthColumns maps a calendar month to its accounting-ledger column.
var monthColumns = [...]string{
	time.January:   "B",
	time.February:  "C",
	time.March:     "D",
	time.April:     "E",
	time.May:       "F",
	time.June:      "G",
	time.July:      "H",
	time.August:    "I",
	time.September: "J",
	time.October:   "K",
	time.November:  "L",
	time.December:  "M",
}

// MonthColumn is the accounting-ledger column for the month of t.
func MonthColumn(t time.Time) string {
	return monthColumns[t.Month()]
}
