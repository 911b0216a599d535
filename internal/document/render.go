package document

import (
	"math"

	"google.golang.org/api/sheets/v4"
)

const docFontFamily = "Times New Roman"

// RenderedDocument holds everything derived from a header and its items
// that the save path needs: the tab title, the caption, the item order
// as it appears on the sheet, and the totals for the ledgers.
type RenderedDocument struct {
	Header  OrderHeader
	Title   string // sheet tab title, "№<number> от <date> г."
	Caption string // title cell, "<label> №<number> от <date> г."
	Items   []LineItem
	Total   int64
	// CostTotal is the registry's cost column: the extended cost basis
	// for delivery notes, the carried-over source amounts for invoices.
	CostTotal float64
}

// CaptionLabel picks the title caption. Pre-proforma buyers receive the
// invoice caption on their delivery notes until converted.
func CaptionLabel(h OrderHeader, convertToInvoice bool) DocumentKind {
	if h.Kind == KindInvoice {
		return KindInvoice
	}
	if IsPreProforma(h.Buyer) && !convertToInvoice {
		return KindInvoice
	}
	return KindDeliveryNote
}

// Render orders the items (Delivery sentinel last), computes totals and
// builds the sheet identity for a document.
func Render(h OrderHeader, items []LineItem, convertToInvoice bool) *RenderedDocument {
	ordered := make([]LineItem, 0, len(items))
	var delivery []LineItem
	for _, item := range items {
		if item.IsDelivery() {
			delivery = append(delivery, item)
			continue
		}
		ordered = append(ordered, item)
	}
	ordered = append(ordered, delivery...)

	costTotal := CostSum(ordered)
	date := h.EffectiveDate()

	return &RenderedDocument{
		Header:    h,
		Title:     SheetTitle(h.Number, date),
		Caption:   string(CaptionLabel(h, convertToInvoice)) + " " + SheetTitle(h.Number, date),
		Items:     ordered,
		Total:     TotalSum(ordered),
		CostTotal: costTotal,
	}
}

// AggregatedCostTotal substitutes the registry cost column for invoices,
// whose cost is carried over from the source documents rather than
// derived from unit costs.
func (d *RenderedDocument) AggregatedCostTotal(total float64) {
	d.CostTotal = total
}

func docTextFormat(bold bool, size int64) *sheets.TextFormat {
	return &sheets.TextFormat{
		Bold:            bold,
		FontFamily:      docFontFamily,
		FontSize:        size,
		ForceSendFields: []string{"Bold"},
	}
}

func docCellFormat(bold bool, size int64, align string) *sheets.CellFormat {
	return &sheets.CellFormat{
		TextFormat:          docTextFormat(bold, size),
		HorizontalAlignment: align,
	}
}

func stringCell(s string, format *sheets.CellFormat) *sheets.CellData {
	return &sheets.CellData{
		UserEnteredValue:  &sheets.ExtendedValue{StringValue: &s},
		UserEnteredFormat: format,
	}
}

func numberCell(n float64, format *sheets.CellFormat) *sheets.CellData {
	return &sheets.CellData{
		UserEnteredValue:  &sheets.ExtendedValue{NumberValue: &n},
		UserEnteredFormat: format,
	}
}

// headerLineCell renders a header line whose value part is bold: the
// run before boldFrom stays regular, the rest switches to bold.
func headerLineCell(s string, boldFrom int64) *sheets.CellData {
	cell := stringCell(s, docCellFormat(false, 12, "LEFT"))
	cell.TextFormatRuns = []*sheets.TextFormatRun{
		{Format: &sheets.TextFormat{Bold: false, ForceSendFields: []string{"Bold"}}},
		{StartIndex: boldFrom, Format: &sheets.TextFormat{Bold: true}},
	}
	return cell
}

func gridRange(sheetID int64, r1, r2, c1, c2 int) *sheets.GridRange {
	return &sheets.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    int64(r1),
		EndRowIndex:      int64(r2),
		StartColumnIndex: int64(c1),
		EndColumnIndex:   int64(c2),
	}
}

func mergeRow(sheetID int64, row, c1, c2 int) *sheets.Request {
	return &sheets.Request{MergeCells: &sheets.MergeCellsRequest{
		Range:     gridRange(sheetID, row, row+1, c1, c2),
		MergeType: "MERGE_ALL",
	}}
}

func updateRow(sheetID int64, row, c1, c2 int, cells []*sheets.CellData, fields string) *sheets.Request {
	return &sheets.Request{UpdateCells: &sheets.UpdateCellsRequest{
		Range:  gridRange(sheetID, row, row+1, c1, c2),
		Rows:   []*sheets.RowData{{Values: cells}},
		Fields: fields,
	}}
}

func solidBorder() *sheets.Border {
	return &sheets.Border{Style: "SOLID", Width: 1}
}

// Requests builds the single batch that lays the document onto its
// sheet: values, text runs, merges, number formats, column widths and
// table borders. The whole document is written in one atomic call.
func (d *RenderedDocument) Requests(sheetID int64) []*sheets.Request {
	n := len(d.Items)
	totals := totalsRow(n)

	requests := []*sheets.Request{
		// drop merges left over from a previous revision of the sheet
		{UnmergeCells: &sheets.UnmergeCellsRequest{
			Range: gridRange(sheetID, 0, 100, 0, docColumns),
		}},
	}
	for _, row := range []int{rowTitle, rowSupplier1, rowSupplier2, rowBuyer, rowBank, rowSite} {
		requests = append(requests, mergeRow(sheetID, row, 0, docColumns))
	}

	// only delivery notes name a construction site; invoices leave the
	// row blank
	siteCell := headerLineCell(EncodeSiteLine(d.Header.Site), boldOffsetSite)
	if d.Header.Kind == KindInvoice {
		siteCell = stringCell("", docCellFormat(true, 12, "LEFT"))
	}

	requests = append(requests,
		updateRow(sheetID, rowTitle, 0, 1,
			[]*sheets.CellData{stringCell(d.Caption, docCellFormat(true, 14, "LEFT"))},
			"userEnteredValue,userEnteredFormat"),
		&sheets.Request{UpdateCells: &sheets.UpdateCellsRequest{
			Range: gridRange(sheetID, rowSupplier1, rowSupplier2+1, 0, docColumns),
			Rows: []*sheets.RowData{
				{Values: []*sheets.CellData{headerLineCell(supplierLine1, boldOffsetSupplier)}},
				{Values: []*sheets.CellData{stringCell(supplierLine2, docCellFormat(true, 12, "LEFT"))}},
			},
			Fields: "userEnteredValue,userEnteredFormat,textFormatRuns",
		}},
		&sheets.Request{UpdateCells: &sheets.UpdateCellsRequest{
			Range: gridRange(sheetID, rowBuyer, rowBank+1, 0, docColumns),
			Rows: []*sheets.RowData{
				{Values: []*sheets.CellData{headerLineCell(EncodeBuyerLine(d.Header.Buyer, d.Header.TaxID), boldOffsetBuyer)}},
				{Values: []*sheets.CellData{stringCell(EncodeBankLine(d.Header.BankAccount, d.Header.BankName), docCellFormat(true, 12, "LEFT"))}},
			},
			Fields: "userEnteredValue,userEnteredFormat,textFormatRuns",
		}},
		&sheets.Request{UpdateCells: &sheets.UpdateCellsRequest{
			Range: gridRange(sheetID, rowSite, rowSite+1, 0, docColumns),
			Rows: []*sheets.RowData{
				{Values: []*sheets.CellData{siteCell}},
			},
			Fields: "userEnteredValue,userEnteredFormat,textFormatRuns",
		}},
	)

	headerCells := make([]*sheets.CellData, 0, docColumns)
	for _, caption := range tableHeader {
		headerCells = append(headerCells, stringCell(caption, docCellFormat(true, 12, "CENTER")))
	}
	requests = append(requests,
		updateRow(sheetID, rowTableHead, 0, docColumns, headerCells, "userEnteredValue,userEnteredFormat"))

	itemRows := make([]*sheets.RowData, 0, n)
	for i, item := range d.Items {
		regular := docCellFormat(false, 12, "CENTER")
		priceCell := numberCell(item.Price, regular)
		if item.IsDelivery() {
			// flat-amount line: the unit price cell stays blank
			priceCell = &sheets.CellData{UserEnteredFormat: regular}
		}
		totalCell := numberCell(float64(item.Contribution()), &sheets.CellFormat{
			TextFormat:          docTextFormat(false, 12),
			HorizontalAlignment: "CENTER",
			NumberFormat:        &sheets.NumberFormat{Type: "NUMBER", Pattern: numberFormatAmount},
		})
		itemRows = append(itemRows, &sheets.RowData{Values: []*sheets.CellData{
			numberCell(float64(i+1), regular),
			stringCell(item.Name, docCellFormat(false, 12, "LEFT")),
			stringCell(item.Measure, regular),
			numberCell(item.Quantity, regular),
			priceCell,
			totalCell,
		}})
	}
	requests = append(requests, &sheets.Request{UpdateCells: &sheets.UpdateCellsRequest{
		Range:  gridRange(sheetID, rowFirstItem, rowFirstItem+n, 0, docColumns),
		Rows:   itemRows,
		Fields: "userEnteredValue,userEnteredFormat",
	}})

	totalsCell := numberCell(float64(d.Total), &sheets.CellFormat{
		TextFormat:          docTextFormat(true, 12),
		HorizontalAlignment: "RIGHT",
		NumberFormat:        &sheets.NumberFormat{Type: "NUMBER", Pattern: numberFormatTotal},
	})
	requests = append(requests,
		mergeRow(sheetID, totals, 2, docColumns),
		updateRow(sheetID, totals, 0, docColumns, []*sheets.CellData{
			{},
			stringCell("Итого", docCellFormat(true, 12, "LEFT")),
			totalsCell,
			{}, {}, {},
		}, "userEnteredValue,userEnteredFormat"),
		mergeRow(sheetID, wordsRow(n), 0, docColumns),
		updateRow(sheetID, wordsRow(n), 0, docColumns, []*sheets.CellData{
			stringCell(WordsLine(d.Total), docCellFormat(true, 12, "LEFT")),
		}, "userEnteredValue,userEnteredFormat(textFormat,horizontalAlignment)"),
	)

	signLeft, signRight := signDeliveryLeft, signDeliveryRight
	if d.Header.Kind == KindInvoice {
		signLeft, signRight = signInvoiceLeft, PrincipalName
	}
	sign := signatureRow(n)
	requests = append(requests,
		mergeRow(sheetID, sign, 0, 4),
		mergeRow(sheetID, sign, 4, docColumns),
		updateRow(sheetID, sign, 0, 4, []*sheets.CellData{
			stringCell(signLeft, docCellFormat(true, 12, "LEFT")),
		}, "userEnteredValue,userEnteredFormat"),
		updateRow(sheetID, sign, 4, docColumns, []*sheets.CellData{
			stringCell(signRight, docCellFormat(true, 12, "LEFT")),
		}, "userEnteredValue,userEnteredFormat"),
	)

	for col, width := range columnWidths {
		requests = append(requests, &sheets.Request{
			UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: int64(col),
					EndIndex:   int64(col + 1),
				},
				Properties: &sheets.DimensionProperties{PixelSize: width},
				Fields:     "pixelSize",
			},
		})
	}

	requests = append(requests, &sheets.Request{UpdateBorders: &sheets.UpdateBordersRequest{
		Range:           gridRange(sheetID, rowTableHead, totals+1, 0, docColumns),
		Top:             solidBorder(),
		Bottom:          solidBorder(),
		Left:            solidBorder(),
		Right:           solidBorder(),
		InnerHorizontal: solidBorder(),
		InnerVertical:   solidBorder(),
	}})

	return requests
}

// RoundAmount rounds a billed amount the way line totals are rounded.
func RoundAmount(v float64) int64 {
	return int64(math.Round(v))
}
