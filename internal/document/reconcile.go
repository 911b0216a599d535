package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/api/sheets/v4"

	"vedomost/internal/sheetstore"
)

// Ledgers names every spreadsheet file the engine touches. The two
// registry files mirror the two document stores; the cost file is
// optional.
type Ledgers struct {
	WaybillSpreadsheetID        string
	InvoiceSpreadsheetID        string
	RegistrySpreadsheetID       string
	PeriodRegistrySpreadsheetID string
	CostSpreadsheetID           string
}

// documentStore picks the file a document of the given kind lives in.
func (l Ledgers) documentStore(kind DocumentKind) string {
	if kind == KindInvoice {
		return l.InvoiceSpreadsheetID
	}
	return l.WaybillSpreadsheetID
}

// registryStore picks the registry file for the given kind.
func (l Ledgers) registryStore(kind DocumentKind) string {
	if kind == KindInvoice {
		return l.PeriodRegistrySpreadsheetID
	}
	return l.RegistrySpreadsheetID
}

// SaveOptions control the save path.
type SaveOptions struct {
	// Edit overwrites an existing document instead of creating one.
	Edit bool
	// ConvertToInvoice forces the delivery-note caption for a
	// pre-proforma buyer.
	ConvertToInvoice bool
}

// SaveResult reports a completed save.
type SaveResult struct {
	SheetID     int64
	SheetTitle  string
	Total       int64
	CostTotal   float64
	Created     bool
	DownloadURL string
	EditURL     string
}

// Reconciler writes a document and brings the dependent ledgers in line
// with it. The document write is atomic and mandatory; the ledger
// writes run afterwards and a failure there is logged, never fatal.
type Reconciler struct {
	store   sheetstore.Store
	ledgers Ledgers
	log     zerolog.Logger
}

// NewReconciler creates a Reconciler over the given store and files.
func NewReconciler(store sheetstore.Store, ledgers Ledgers, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:   store,
		ledgers: ledgers,
		log:     log.With().Str("component", "reconciler").Logger(),
	}
}

// Save renders the document, resolves its sheet, writes it in one batch
// and then updates the registry, the accounting accumulator and the
// cost ledger. For invoices the items are aggregated from the waybill
// store over the header's period and the items argument only feeds the
// cost ledger, which invoices do not use.
func (r *Reconciler) Save(ctx context.Context, h OrderHeader, items []LineItem, opts SaveOptions) (*SaveResult, error) {
	const op = "Reconciler.Save"

	if err := h.Validate(items); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	renderItems := items
	var aggregatedCost float64
	if h.Kind == KindInvoice {
		agg := NewAggregator(r.store, r.log)
		merged, costTotal, err := agg.Collect(ctx, r.ledgers.WaybillSpreadsheetID, h.PeriodStart, h.PeriodEnd, h.Buyer, h.Site)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if len(merged) == 0 {
			return nil, fmt.Errorf("%s: за период %s — %s нет накладных для %s (%s)",
				op, FormatDate(h.PeriodStart), FormatDate(h.PeriodEnd), h.Buyer, h.Site)
		}
		renderItems = make([]LineItem, 0, len(merged))
		for _, item := range merged {
			renderItems = append(renderItems, item.LineItem())
		}
		aggregatedCost = costTotal
	}

	doc := Render(h, renderItems, opts.ConvertToInvoice)
	if h.Kind == KindInvoice {
		doc.AggregatedCostTotal(aggregatedCost)
	}

	spreadsheetID := r.ledgers.documentStore(h.Kind)
	sheet, created, err := r.resolveSheet(ctx, spreadsheetID, h.Number, doc.Title, opts.Edit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := r.store.BatchUpdate(ctx, spreadsheetID, doc.Requests(sheet.ID)); err != nil {
		return nil, fmt.Errorf("%s: writing document: %w", op, sheetstore.Translate(err))
	}
	r.log.Info().
		Str("number", h.Number).
		Str("sheet", sheet.Title).
		Int64("total", doc.Total).
		Bool("created", created).
		Msg("document written")

	// ledger steps: the document is already durable, so a failure here
	// only degrades bookkeeping and must not undo the save
	if err := r.updateRegistry(ctx, h, doc, opts.Edit); err != nil {
		r.log.Error().Err(&LedgerError{Op: "registry", Number: h.Number, Err: err}).Msg("ledger update failed")
	}
	if h.Kind == KindDeliveryNote {
		if err := r.updateAccounting(ctx, h, doc, opts.Edit); err != nil {
			r.log.Error().Err(&LedgerError{Op: "accounting", Number: h.Number, Err: err}).Msg("ledger update failed")
		}
		if err := r.writeCostSheet(ctx, h, items); err != nil {
			r.log.Error().Err(&LedgerError{Op: "cost", Number: h.Number, Err: err}).Msg("ledger update failed")
		}
	}

	return &SaveResult{
		SheetID:     sheet.ID,
		SheetTitle:  sheet.Title,
		Total:       doc.Total,
		CostTotal:   doc.CostTotal,
		Created:     created,
		DownloadURL: fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=xlsx&gid=%d", spreadsheetID, sheet.ID),
		EditURL:     fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit#gid=%d", spreadsheetID, sheet.ID),
	}, nil
}

// resolveSheet finds the sheet holding document number, or creates it.
// Creating over an existing number and editing a missing one are both
// rejected before anything is written.
func (r *Reconciler) resolveSheet(ctx context.Context, spreadsheetID, number, title string, edit bool) (sheetstore.SheetInfo, bool, error) {
	infos, err := r.store.Sheets(ctx, spreadsheetID)
	if err != nil {
		return sheetstore.SheetInfo{}, false, sheetstore.Translate(err)
	}

	marker := "№" + number
	for _, info := range infos {
		if !strings.Contains(info.Title, marker) {
			continue
		}
		if !edit {
			return sheetstore.SheetInfo{}, false, fmt.Errorf("%w: %s", ErrDuplicateDocument, marker)
		}
		if err := r.store.ClearRange(ctx, spreadsheetID, sheetstore.RangeRef(info.Title, "A1:G300")); err != nil {
			return sheetstore.SheetInfo{}, false, sheetstore.Translate(err)
		}
		return info, false, nil
	}

	if edit {
		return sheetstore.SheetInfo{}, false, fmt.Errorf("%w: %s", ErrDocumentNotFound, marker)
	}

	info, err := r.store.AddSheet(ctx, spreadsheetID, title, docRows, docColumns)
	if err != nil {
		return sheetstore.SheetInfo{}, false, sheetstore.Translate(err)
	}
	return info, true, nil
}

// updateRegistry upserts the document's summary row. The row is keyed
// by the №-number in column B, so re-saving a document rewrites its
// existing row instead of appending a duplicate.
func (r *Reconciler) updateRegistry(ctx context.Context, h OrderHeader, doc *RenderedDocument, edit bool) error {
	registryID := r.ledgers.registryStore(h.Kind)
	if registryID == "" {
		return nil
	}

	rows, err := r.store.ReadRange(ctx, registryID, "Реестр!A:G")
	if err != nil {
		return err
	}

	// the two registries carry different header blocks
	firstDataRow := 6
	if h.Kind == KindInvoice {
		firstDataRow = 4
	}
	targetRow := len(rows) + 1
	if targetRow < firstDataRow {
		targetRow = firstDataRow
	}

	marker := "№" + h.Number
	for i, row := range rows {
		if len(row) > 1 && CellString(row[1]) == marker {
			targetRow = i + 1
			break
		}
	}

	rowData := []interface{}{
		targetRow - 2,
		marker,
		FormatDate(h.EffectiveDate()),
		doc.Total,
		doc.CostTotal,
		float64(doc.Total) - doc.CostTotal,
		fmt.Sprintf("%s (%s)", h.Buyer, h.Site),
	}
	ref := fmt.Sprintf("Реестр!A%d:G%d", targetRow, targetRow)
	if err := r.store.UpdateRange(ctx, registryID, ref, [][]interface{}{rowData}); err != nil {
		return err
	}
	if err := r.borderRegistryRow(ctx, registryID, targetRow); err != nil {
		r.log.Warn().Err(err).Int("row", targetRow).Msg("registry row border not applied")
	}
	r.log.Debug().Str("number", h.Number).Int("row", targetRow).Bool("edit", edit).Msg("registry row written")
	return nil
}

// borderRegistryRow underlines the written row so the next entry is
// visually separated from it. The row stays usable without it, so the
// caller treats a failure as a warning.
func (r *Reconciler) borderRegistryRow(ctx context.Context, registryID string, row int) error {
	infos, err := r.store.Sheets(ctx, registryID)
	if err != nil {
		return err
	}
	for _, info := range infos {
		if info.Title == "Реестр" {
			return r.store.BatchUpdate(ctx, registryID, []*sheets.Request{registryBorderRequest(info.ID, row)})
		}
	}
	return fmt.Errorf("лист %q не найден", "Реестр")
}

// registryBorderRequest draws a bottom border under the 1-based row
// across columns A:G.
func registryBorderRequest(sheetID int64, row int) *sheets.Request {
	return &sheets.Request{UpdateBorders: &sheets.UpdateBordersRequest{
		Range:  gridRange(sheetID, row-1, row, 0, 7),
		Bottom: solidBorder(),
	}}
}

// updateAccounting adjusts the buyer's monthly accumulator. An edit
// first takes back the document's previous total so the cell always
// reflects the sum of current document totals.
func (r *Reconciler) updateAccounting(ctx context.Context, h OrderHeader, doc *RenderedDocument, edit bool) error {
	row, ok := AccountingRow(h.Buyer)
	if !ok {
		r.log.Debug().Str("buyer", h.Buyer).Msg("buyer has no accounting row, skipping")
		return nil
	}

	ref := fmt.Sprintf("Бухгалтерия!%s%d", MonthColumn(h.Date), row)
	var current float64
	if values, err := r.store.ReadRange(ctx, r.ledgers.RegistrySpreadsheetID, ref); err == nil {
		if len(values) > 0 && len(values[0]) > 0 {
			current = ParseNumber(values[0][0])
		}
	}

	next := current + float64(doc.Total)
	if edit {
		next = current - h.PreviousTotal + float64(doc.Total)
	}
	if err := r.store.UpdateRange(ctx, r.ledgers.RegistrySpreadsheetID, ref, [][]interface{}{{next}}); err != nil {
		return err
	}
	r.log.Debug().Str("cell", ref).Float64("value", next).Msg("accounting cell written")
	return nil
}

// writeCostSheet replaces the document's cost breakdown: one row per
// costed item plus a totals row. The whole tab is rewritten on every
// save so removed items disappear.
func (r *Reconciler) writeCostSheet(ctx context.Context, h OrderHeader, items []LineItem) error {
	costID := r.ledgers.CostSpreadsheetID
	if costID == "" || len(items) == 0 {
		return nil
	}

	title := "№" + h.Number
	infos, err := r.store.Sheets(ctx, costID)
	if err != nil {
		return err
	}

	var sheet *sheetstore.SheetInfo
	for i := range infos {
		if infos[i].Title == title {
			sheet = &infos[i]
			break
		}
	}
	if sheet != nil {
		if err := r.store.ClearRange(ctx, costID, sheetstore.RangeRef(title, "A1:Z1000")); err != nil {
			return err
		}
	} else {
		info, err := r.store.AddSheet(ctx, costID, title, costSheetRows, costSheetCols)
		if err != nil {
			return err
		}
		sheet = &info
	}

	values := [][]interface{}{
		{"Наименование", "Себестоимость за единицу", "Общая себестоимость"},
	}
	var totalCost float64
	for _, item := range items {
		if item.IsDelivery() || item.UnitCost <= 0 {
			continue
		}
		amount := item.UnitCost * item.Quantity
		totalCost += amount
		values = append(values, []interface{}{item.Name, item.UnitCost, amount})
	}
	values = append(values, []interface{}{"Итого", "", totalCost})

	if err := r.store.UpdateRange(ctx, costID, sheetstore.RangeRef(title, "A1"), values); err != nil {
		return err
	}

	if err := r.store.BatchUpdate(ctx, costID, costSheetRequests(sheet.ID, len(values))); err != nil {
		return err
	}
	r.log.Debug().Str("sheet", title).Int("rows", len(values)).Msg("cost sheet rewritten")
	return nil
}

// costSheetRequests rebuilds the tab's formatting: wipe text styling
// across the whole grid, border the written block and set the header
// and total rows bold italic. The middle cell of the total row stays
// plain, it only carries the spacer between the label and the sum.
func costSheetRequests(sheetID int64, rows int) []*sheets.Request {
	emphasis := func() *sheets.CellData {
		return &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
			TextFormat: &sheets.TextFormat{Bold: true, Italic: true},
		}}
	}
	return []*sheets.Request{
		{RepeatCell: &sheets.RepeatCellRequest{
			Range: gridRange(sheetID, 0, costSheetRows, 0, costSheetCols),
			Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
				TextFormat: &sheets.TextFormat{ForceSendFields: []string{"Bold", "Italic"}},
			}},
			Fields: "userEnteredFormat.textFormat",
		}},
		{UpdateBorders: &sheets.UpdateBordersRequest{
			Range:           gridRange(sheetID, 0, rows, 0, costSheetCols),
			Top:             solidBorder(),
			Bottom:          solidBorder(),
			Left:            solidBorder(),
			Right:           solidBorder(),
			InnerHorizontal: solidBorder(),
			InnerVertical:   solidBorder(),
		}},
		updateRow(sheetID, 0, 0, costSheetCols,
			[]*sheets.CellData{emphasis(), emphasis(), emphasis()},
			"userEnteredFormat.textFormat"),
		updateRow(sheetID, rows-1, 0, costSheetCols,
			[]*sheets.CellData{emphasis(), {}, emphasis()},
			"userEnteredFormat.textFormat"),
	}
}
