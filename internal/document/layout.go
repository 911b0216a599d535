package document

// Supplier identity rendered into every document. The first line carries
// bold runs starting at offset 10 to highlight the name.
const (
	supplierLine1 = "Поставщик: ИП Женишбек у.Ж. ИНН 22712200100929 р/с 1240040001978972"
	supplierLine2 = `в ОАО "Бакай Банк", БИК 124029`
	// PrincipalName signs invoices next to the "Руководитель" label.
	PrincipalName = "Женишбек у. Ж"
)

// Zero-based row offsets of the canonical sheet layout. Everything from
// the totals row down floats with the item count.
const (
	rowTitle      = 0
	rowSupplier1  = 1
	rowSupplier2  = 2
	rowBuyer      = 4
	rowBank       = 5
	rowSite       = 7
	rowTableHead  = 9
	rowFirstItem  = 10
	docColumns    = 6
	docRows       = 300 // grid size of a freshly created document sheet
	costSheetRows = 1000
	costSheetCols = 3
)

// totalsRow is the zero-based row of the "Итого" line for n items; the
// amount-in-words and signature rows hang off it.
func totalsRow(n int) int    { return rowFirstItem + n }
func wordsRow(n int) int     { return totalsRow(n) + 2 }
func signatureRow(n int) int { return totalsRow(n) + 4 }

// Bold-run offsets inside the header lines: the label prefix stays
// regular, the value is bold.
const (
	boldOffsetSupplier = 10 // len("Поставщик: ") in runes
	boldOffsetBuyer    = 11 // len("Покупатель: ")
	boldOffsetSite     = 7  // len("Объект: ")
)

// columnWidths are the pixel widths of the six document columns.
var columnWidths = []int64{30, 330, 100, 60, 100, 120}

// Number formats applied to the money cells.
const (
	numberFormatAmount = `# ##0`
	numberFormatTotal  = `# ##0" сом"`
)

// tableHeader is the item-table caption row.
var tableHeader = []string{"№", "Наименование", "Ед. изм.", "Кол-во", "Цена", "Сумма"}

// Signature labels by document kind.
const (
	signDeliveryLeft  = "Сдал:"
	signDeliveryRight = "Принял:"
	signInvoiceLeft   = "Руководитель"
)
