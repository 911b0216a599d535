package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/sheets/v4"
)

func deliveryNoteHeader() OrderHeader {
	return OrderHeader{
		Kind:        KindDeliveryNote,
		Number:      "103",
		Date:        time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC),
		Buyer:       "ОсОО 'Стройком'",
		TaxID:       "12345678901234",
		BankAccount: "1234567890123456",
		BankName:    `ОАО "Бакай Банк"`,
		Site:        "Космонавтов 12",
	}
}

func TestLineItemContribution(t *testing.T) {
	// rounding happens per line, never on the raw sum
	a := LineItem{Name: "Провод", Quantity: 1, Price: 2.4}
	b := LineItem{Name: "Кабель", Quantity: 1, Price: 2.4}
	assert.Equal(t, int64(2), a.Contribution())
	assert.Equal(t, int64(4), TotalSum([]LineItem{a, b}))

	half := LineItem{Name: "Щебень", Quantity: 3, Price: 16.5}
	assert.Equal(t, int64(50), half.Contribution())
}

func TestDeliveryContributionIsFlatAmount(t *testing.T) {
	d := LineItem{Name: "Доставка", Quantity: 3, Price: 200}
	assert.Equal(t, int64(200), d.Contribution())
	assert.Equal(t, float64(0), d.CostAmount())
}

func TestRenderTotals(t *testing.T) {
	items := []LineItem{
		{Name: "Цемент М400", Measure: "мешок", Quantity: 3, Price: 500, UnitCost: 400},
		{Name: "Доставка", Quantity: 1, Price: 200},
	}
	doc := Render(deliveryNoteHeader(), items, false)

	assert.Equal(t, int64(1700), doc.Total)
	assert.Equal(t, float64(1200), doc.CostTotal)
	assert.Equal(t, "№103 от 15.07.2026 г.", doc.Title)
	assert.Equal(t, "Накладная №103 от 15.07.2026 г.", doc.Caption)
}

func TestRenderOrdersDeliveryLast(t *testing.T) {
	items := []LineItem{
		{Name: "Доставка", Quantity: 1, Price: 200},
		{Name: "Цемент М400", Quantity: 3, Price: 500},
		{Name: "Песок", Quantity: 2, Price: 300},
	}
	doc := Render(deliveryNoteHeader(), items, false)

	require.Len(t, doc.Items, 3)
	assert.Equal(t, "Цемент М400", doc.Items[0].Name)
	assert.Equal(t, "Песок", doc.Items[1].Name)
	assert.Equal(t, "Доставка", doc.Items[2].Name)
}

func TestCaptionLabel(t *testing.T) {
	h := deliveryNoteHeader()

	assert.Equal(t, KindDeliveryNote, CaptionLabel(h, false))

	h.Buyer = "ЗАО 'Браво Плюс'"
	assert.Equal(t, KindInvoice, CaptionLabel(h, false))
	assert.Equal(t, KindDeliveryNote, CaptionLabel(h, true))

	h.Kind = KindInvoice
	assert.Equal(t, KindInvoice, CaptionLabel(h, false))
}

func TestValidate(t *testing.T) {
	items := []LineItem{{Name: "Цемент", Quantity: 1, Price: 500}}

	h := deliveryNoteHeader()
	require.NoError(t, h.Validate(items))

	tests := []struct {
		name   string
		mutate func(*OrderHeader)
		field  string
	}{
		{"missing number", func(h *OrderHeader) { h.Number = "" }, "number"},
		{"short tax id", func(h *OrderHeader) { h.TaxID = "123" }, "tax_id"},
		{"letters in account", func(h *OrderHeader) { h.BankAccount = "12345678901234ab" }, "bank_account"},
		{"missing date", func(h *OrderHeader) { h.Date = time.Time{} }, "date"},
		{"missing site", func(h *OrderHeader) { h.Site = "" }, "site"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := deliveryNoteHeader()
			tt.mutate(&bad)
			err := bad.Validate(items)
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidateInvoicePeriod(t *testing.T) {
	h := OrderHeader{
		Kind:        KindInvoice,
		Number:      "12",
		PeriodStart: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
		Buyer:       "ОсОО 'Стройком'",
		TaxID:       "12345678901234",
		BankAccount: "1234567890123456",
		BankName:    "Банк",
	}
	require.NoError(t, h.Validate(nil))

	h.PeriodEnd = time.Time{}
	assert.Error(t, h.Validate(nil))
}

func TestRequestsLayout(t *testing.T) {
	items := []LineItem{
		{Name: "Цемент М400", Measure: "мешок", Quantity: 3, Price: 500},
		{Name: "Доставка", Quantity: 1, Price: 200},
	}
	doc := Render(deliveryNoteHeader(), items, false)
	requests := doc.Requests(7)

	var (
		itemUpdate  *sheets.UpdateCellsRequest
		totalsValue *sheets.CellData
		wordsValue  *sheets.CellData
		widths      []int64
	)
	for _, req := range requests {
		if u := req.UpdateCells; u != nil {
			switch u.Range.StartRowIndex {
			case 10:
				if u.Range.EndRowIndex == 12 {
					itemUpdate = u
				}
			case 12:
				if u.Range.StartColumnIndex == 0 && len(u.Rows[0].Values) == 6 {
					totalsValue = u.Rows[0].Values[2]
				}
			case 14:
				wordsValue = u.Rows[0].Values[0]
			}
		}
		if d := req.UpdateDimensionProperties; d != nil {
			widths = append(widths, d.Properties.PixelSize)
		}
	}

	require.NotNil(t, itemUpdate, "item rows start at row index 10")
	require.Len(t, itemUpdate.Rows, 2)

	// delivery row keeps its price cell blank; the billed amount sits in
	// the total column
	deliveryRow := itemUpdate.Rows[1].Values
	assert.Nil(t, deliveryRow[4].UserEnteredValue)
	require.NotNil(t, deliveryRow[5].UserEnteredValue)
	assert.Equal(t, float64(200), *deliveryRow[5].UserEnteredValue.NumberValue)

	require.NotNil(t, totalsValue, "totals row sits right under the items")
	assert.Equal(t, float64(1700), *totalsValue.UserEnteredValue.NumberValue)
	assert.Equal(t, `# ##0" сом"`, totalsValue.UserEnteredFormat.NumberFormat.Pattern)

	require.NotNil(t, wordsValue, "amount in words two rows below the totals")
	assert.Equal(t, "Итого к оплате: Одна тысяча семьсот сом", *wordsValue.UserEnteredValue.StringValue)

	assert.Equal(t, []int64{30, 330, 100, 60, 100, 120}, widths)
}

func TestRequestsSignatures(t *testing.T) {
	items := []LineItem{{Name: "Цемент", Quantity: 1, Price: 500}}

	find := func(requests []*sheets.Request, row, col int64) string {
		for _, req := range requests {
			u := req.UpdateCells
			if u == nil || u.Range.StartRowIndex != row || u.Range.StartColumnIndex != col {
				continue
			}
			v := u.Rows[0].Values[0].UserEnteredValue
			if v != nil && v.StringValue != nil {
				return *v.StringValue
			}
		}
		return ""
	}

	note := Render(deliveryNoteHeader(), items, false)
	noteReqs := note.Requests(1)
	assert.Equal(t, "Сдал:", find(noteReqs, 15, 0))
	assert.Equal(t, "Принял:", find(noteReqs, 15, 4))

	h := deliveryNoteHeader()
	h.Kind = KindInvoice
	h.Date = time.Time{}
	h.PeriodStart = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	h.PeriodEnd = time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	invoice := Render(h, items, false)
	invReqs := invoice.Requests(1)
	assert.Equal(t, "Руководитель", find(invReqs, 15, 0))
	assert.Equal(t, "Женишбек у. Ж", find(invReqs, 15, 4))
}

func TestRequestsInvoiceSiteRowStaysBlank(t *testing.T) {
	items := []LineItem{{Name: "Цемент", Quantity: 1, Price: 500}}

	siteValue := func(requests []*sheets.Request) string {
		for _, req := range requests {
			u := req.UpdateCells
			if u == nil || u.Range.StartRowIndex != 7 || u.Range.EndRowIndex != 8 {
				continue
			}
			v := u.Rows[0].Values[0].UserEnteredValue
			if v != nil && v.StringValue != nil {
				return *v.StringValue
			}
		}
		return ""
	}

	note := Render(deliveryNoteHeader(), items, false)
	assert.Equal(t, "Объект: Космонавтов 12", siteValue(note.Requests(1)))

	h := deliveryNoteHeader()
	h.Kind = KindInvoice
	h.Date = time.Time{}
	h.PeriodStart = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	h.PeriodEnd = time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	invoice := Render(h, items, false)
	assert.Equal(t, "", siteValue(invoice.Requests(1)))
}
