package document

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vedomost/internal/sheetstore"
)

func testLedgers() Ledgers {
	return Ledgers{
		WaybillSpreadsheetID:        "waybills",
		InvoiceSpreadsheetID:        "invoices",
		RegistrySpreadsheetID:       "registry",
		PeriodRegistrySpreadsheetID: "period-registry",
		CostSpreadsheetID:           "costs",
	}
}

// newTestStore seeds the fixed tabs the ledgers are expected to carry.
func newTestStore(t *testing.T) *sheetstore.Memory {
	t.Helper()
	ctx := context.Background()
	mem := sheetstore.NewMemory()
	_, err := mem.AddSheet(ctx, "registry", "Реестр", 200, 10)
	require.NoError(t, err)
	_, err = mem.AddSheet(ctx, "registry", "Бухгалтерия", 50, 15)
	require.NoError(t, err)
	_, err = mem.AddSheet(ctx, "period-registry", "Реестр", 200, 10)
	require.NoError(t, err)
	return mem
}

func newTestReconciler(mem *sheetstore.Memory) *Reconciler {
	return NewReconciler(mem, testLedgers(), zerolog.Nop())
}

func noteItems() []LineItem {
	return []LineItem{
		{Name: "Цемент М400", Measure: "мешок", Quantity: 3, Price: 500, UnitCost: 400},
		{Name: "Доставка", Quantity: 1, Price: 200},
	}
}

func TestSaveCreatesDocument(t *testing.T) {
	ctx := context.Background()
	mem := newTestStore(t)
	rec := newTestReconciler(mem)

	result, err := rec.Save(ctx, deliveryNoteHeader(), noteItems(), SaveOptions{})
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.Equal(t, "№103 от 15.07.2026 г.", result.SheetTitle)
	assert.Equal(t, int64(1700), result.Total)
	assert.Equal(t, float64(1200), result.CostTotal)
	assert.Contains(t, result.DownloadURL, "format=xlsx")
	assert.Contains(t, result.DownloadURL, "waybills")

	values, err := mem.ReadRange(ctx, "waybills", sheetstore.RangeRef(result.SheetTitle, "A1:G300"))
	require.NoError(t, err)
	require.Greater(t, len(values), 14)

	assert.Equal(t, "Накладная №103 от 15.07.2026 г.", values[0][0])
	assert.Equal(t, "Покупатель: ОсОО 'Стройком' ИНН 12345678901234", values[4][0])
	assert.Equal(t, `р/с 1234567890123456 в ОАО "Бакай Банк"`, values[5][0])
	assert.Equal(t, "Объект: Космонавтов 12", values[7][0])
	assert.Equal(t, "Наименование", values[9][1])

	assert.Equal(t, "Цемент М400", values[10][1])
	assert.Equal(t, float64(500), values[10][4])
	assert.Equal(t, float64(1500), values[10][5])

	// delivery renders last with a blank price cell and its flat amount
	// in the total column
	assert.Equal(t, "Доставка", values[11][1])
	assert.Equal(t, "", values[11][4])
	assert.Equal(t, float64(200), values[11][5])

	assert.Equal(t, "Итого", values[12][1])
	assert.Equal(t, float64(1700), values[12][2])
	assert.Equal(t, "Итого к оплате: Одна тысяча семьсот сом", values[14][0])
}

func TestSaveRejectsDuplicateNumber(t *testing.T) {
	ctx := context.Background()
	mem := newTestStore(t)
	rec := newTestReconciler(mem)

	_, err := rec.Save(ctx, deliveryNoteHeader(), noteItems(), SaveOptions{})
	require.NoError(t, err)

	_, err = rec.Save(ctx, deliveryNoteHeader(), noteItems(), SaveOptions{})
	assert.ErrorIs(t, err, ErrDuplicateDocument)
}

func TestSaveEditRequiresExistingSheet(t *testing.T) {
	ctx := context.Background()
	rec := newTestReconciler(newTestStore(t))

	_, err := rec.Save(ctx, deliveryNoteHeader(), noteItems(), SaveOptions{Edit: true})
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestSaveWritesRegistryRow(t *testing.T) {
	ctx := context.Background()
	mem := newTestStore(t)
	rec := newTestReconciler(mem)

	_, err := rec.Save(ctx, deliveryNoteHeader(), noteItems(), SaveOptions{})
	require.NoError(t, err)

	rows, err := mem.ReadRange(ctx, "registry", "Реестр!A:G")
	require.NoError(t, err)
	require.Len(t, rows, 6, "first data row of the delivery-note registry is row 6")

	row := rows[5]
	assert.Equal(t, 4, row[0])
	assert.Equal(t, "№103", row[1])
	assert.Equal(t, "15.07.2026", row[2])
	assert.Equal(t, int64(1700), row[3])
	assert.Equal(t, float64(1200), row[4])
	assert.Equal(t, float64(500), row[5])
	assert.Equal(t, "ОсОО 'Стройком' (Космонавтов 12)", row[6])
}

func TestRegistryUpsertIsKeyedByNumber(t *testing.T) {
	ctx := context.Background()
	mem := newTestStore(t)
	rec := newTestReconciler(mem)

	first := deliveryNoteHeader()
	_, err := rec.Save(ctx, first, noteItems(), SaveOptions{})
	require.NoError(t, err)

	second := deliveryNoteHeader()
	second.Number = "104"
	second.Date = time.Date(2026, 7, 16, 0, 0, 0, 0, time.UTC)
	_, err = rec.Save(ctx, second, noteItems(), SaveOptions{})
	require.NoError(t, err)

	// re-saving №103 rewrites its original row instead of appending
	first.PreviousTotal = 1700
	_, err = rec.Save(ctx, first, []LineItem{
		{Name: "Цемент М400", Measure: "мешок", Quantity: 4, Price: 500, UnitCost: 400},
	}, SaveOptions{Edit: true})
	require.NoError(t, err)

	rows, err := mem.ReadRange(ctx, "registry", "Реестр!A:G")
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, "№103", rows[5][1])
	assert.Equal(t, int64(2000), rows[5][3])
	assert.Equal(t, "№104", rows[6][1])
}

func TestSaveAccumulatesAccounting(t *testing.T) {
	ctx := context.Background()
	mem := newTestStore(t)
	rec := newTestReconciler(mem)

	_, err := rec.Save(ctx, deliveryNoteHeader(), noteItems(), SaveOptions{})
	require.NoError(t, err)

	// buyer id 0, July: cell H7
	cell, err := mem.ReadRange(ctx, "registry", "Бухгалтерия!H7")
	require.NoError(t, err)
	require.Len(t, cell, 1)
	assert.Equal(t, float64(1700), cell[0][0])

	second := deliveryNoteHeader()
	second.Number = "104"
	_, err = rec.Save(ctx, second, noteItems(), SaveOptions{})
	require.NoError(t, err)

	cell, err = mem.ReadRange(ctx, "registry", "Бухгалтерия!H7")
	require.NoError(t, err)
	assert.Equal(t, float64(3400), cell[0][0])
}

func TestSaveEditCompensatesAccounting(t *testing.T) {
	ctx := context.Background()
	mem := newTestStore(t)
	rec := newTestReconciler(mem)

	h := deliveryNoteHeader()
	_, err := rec.Save(ctx, h, noteItems(), SaveOptions{})
	require.NoError(t, err)

	// the edit takes back the previous total before adding the new one
	h.PreviousTotal = 1700
	_, err = rec.Save(ctx, h, []LineItem{
		{Name: "Цемент М400", Measure: "мешок", Quantity: 4, Price: 500, UnitCost: 400},
	}, SaveOptions{Edit: true})
	require.NoError(t, err)

	cell, err := mem.ReadRange(ctx, "registry", "Бухгалтерия!H7")
	require.NoError(t, err)
	assert.Equal(t, float64(2000), cell[0][0])
}

func TestSaveWritesCostSheet(t *testing.T) {
	ctx := context.Background()
	mem := newTestStore(t)
	rec := newTestReconciler(mem)

	items := []LineItem{
		{Name: "Цемент М400", Measure: "мешок", Quantity: 3, Price: 500, UnitCost: 400},
		{Name: "Песок", Measure: "тонна", Quantity: 2, Price: 300}, // no unit cost
		{Name: "Доставка", Quantity: 1, Price: 200},
	}
	_, err := rec.Save(ctx, deliveryNoteHeader(), items, SaveOptions{})
	require.NoError(t, err)

	rows, err := mem.ReadRange(ctx, "costs", sheetstore.RangeRef("№103", "A:C"))
	require.NoError(t, err)
	require.Len(t, rows, 3, "header, one costed item, totals")

	assert.Equal(t, "Наименование", rows[0][0])
	assert.Equal(t, []interface{}{"Цемент М400", float64(400), float64(1200)}, rows[1])
	assert.Equal(t, "Итого", rows[2][0])
	assert.Equal(t, float64(1200), rows[2][2])
}

func TestSaveEditRewritesCostSheet(t *testing.T) {
	ctx := context.Background()
	mem := newTestStore(t)
	rec := newTestReconciler(mem)

	h := deliveryNoteHeader()
	_, err := rec.Save(ctx, h, noteItems(), SaveOptions{})
	require.NoError(t, err)

	h.PreviousTotal = 1700
	_, err = rec.Save(ctx, h, []LineItem{
		{Name: "Песок", Measure: "тонна", Quantity: 2, Price: 300, UnitCost: 250},
	}, SaveOptions{Edit: true})
	require.NoError(t, err)

	rows, err := mem.ReadRange(ctx, "costs", sheetstore.RangeRef("№103", "A:C"))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Песок", rows[1][0], "the removed item is gone")
	assert.Equal(t, float64(500), rows[2][2])
}

func TestSaveInvoiceAggregatesPeriod(t *testing.T) {
	ctx := context.Background()
	mem := newTestStore(t)
	rec := newTestReconciler(mem)

	// two July delivery notes feed the invoice
	first := deliveryNoteHeader()
	first.Number = "101"
	first.Date = time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)
	_, err := rec.Save(ctx, first, []LineItem{
		{Name: "Цемент М400", Measure: "мешок", Quantity: 2, Price: 500, UnitCost: 400},
	}, SaveOptions{})
	require.NoError(t, err)

	second := deliveryNoteHeader()
	second.Number = "102"
	second.Date = time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)
	_, err = rec.Save(ctx, second, []LineItem{
		{Name: "Цемент М400", Measure: "мешок", Quantity: 3, Price: 500, UnitCost: 400},
		{Name: "Доставка", Quantity: 1, Price: 200},
	}, SaveOptions{})
	require.NoError(t, err)

	invoice := OrderHeader{
		Kind:        KindInvoice,
		Number:      "900",
		PeriodStart: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
		Buyer:       first.Buyer,
		TaxID:       first.TaxID,
		BankAccount: first.BankAccount,
		BankName:    first.BankName,
		Site:        first.Site,
	}
	result, err := rec.Save(ctx, invoice, nil, SaveOptions{})
	require.NoError(t, err)

	assert.Equal(t, "№900 от 31.07.2026 г.", result.SheetTitle)
	assert.Equal(t, int64(2700), result.Total)
	// the carried-over amounts come from the source total column
	assert.Equal(t, float64(2500), result.CostTotal)

	values, err := mem.ReadRange(ctx, "invoices", sheetstore.RangeRef(result.SheetTitle, "A1:G300"))
	require.NoError(t, err)
	assert.Equal(t, "Счет на оплату №900 от 31.07.2026 г.", values[0][0])
	assert.Equal(t, "Цемент М400", values[10][1])
	assert.Equal(t, float64(5), values[10][3])
	assert.Equal(t, "Доставка", values[11][1])

	rows, err := mem.ReadRange(ctx, "period-registry", "Реестр!A:G")
	require.NoError(t, err)
	require.Len(t, rows, 4, "first data row of the invoice registry is row 4")
	assert.Equal(t, "№900", rows[3][1])
	assert.Equal(t, int64(2700), rows[3][3])
	assert.Equal(t, float64(2500), rows[3][4])
}

func TestSaveInvoiceEmptyPeriodFails(t *testing.T) {
	ctx := context.Background()
	rec := newTestReconciler(newTestStore(t))

	invoice := OrderHeader{
		Kind:        KindInvoice,
		Number:      "900",
		PeriodStart: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
		Buyer:       "ОсОО 'Стройком'",
		TaxID:       "12345678901234",
		BankAccount: "1234567890123456",
		BankName:    "Банк",
		Site:        "Космонавтов 12",
	}
	_, err := rec.Save(ctx, invoice, nil, SaveOptions{})
	assert.Error(t, err)
}

func TestCostSheetRequestsEmphasizeHeaderAndTotal(t *testing.T) {
	requests := costSheetRequests(7, 5)
	require.Len(t, requests, 4)

	reset := requests[0].RepeatCell
	require.NotNil(t, reset)
	assert.Equal(t, []string{"Bold", "Italic"}, reset.Cell.UserEnteredFormat.TextFormat.ForceSendFields)

	borders := requests[1].UpdateBorders
	require.NotNil(t, borders)
	assert.Equal(t, int64(5), borders.Range.EndRowIndex)

	header := requests[2].UpdateCells
	require.NotNil(t, header)
	assert.Equal(t, int64(0), header.Range.StartRowIndex)
	require.Len(t, header.Rows[0].Values, 3)
	for _, cell := range header.Rows[0].Values {
		assert.True(t, cell.UserEnteredFormat.TextFormat.Bold)
		assert.True(t, cell.UserEnteredFormat.TextFormat.Italic)
	}

	// total row: label and sum bold italic, the spacer cell untouched
	total := requests[3].UpdateCells
	require.NotNil(t, total)
	assert.Equal(t, int64(4), total.Range.StartRowIndex)
	cells := total.Rows[0].Values
	require.Len(t, cells, 3)
	assert.True(t, cells[0].UserEnteredFormat.TextFormat.Italic)
	assert.Nil(t, cells[1].UserEnteredFormat)
	assert.True(t, cells[2].UserEnteredFormat.TextFormat.Bold)
}

func TestRegistryBorderRequest(t *testing.T) {
	req := registryBorderRequest(3, 6)
	borders := req.UpdateBorders
	require.NotNil(t, borders)
	assert.Equal(t, int64(5), borders.Range.StartRowIndex)
	assert.Equal(t, int64(6), borders.Range.EndRowIndex)
	assert.Equal(t, int64(0), borders.Range.StartColumnIndex)
	assert.Equal(t, int64(7), borders.Range.EndColumnIndex)
	assert.Equal(t, "SOLID", borders.Bottom.Style)
	assert.Nil(t, borders.Top)
}
