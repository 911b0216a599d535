package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"vedomost/internal/sheetstore"
)

// Parser re-hydrates a saved delivery note back into its structured
// form so it can be edited and saved again.
type Parser struct {
	store   sheetstore.Store
	ledgers Ledgers
	log     zerolog.Logger
}

// NewParser creates a Parser over the given store and files.
func NewParser(store sheetstore.Store, ledgers Ledgers, log zerolog.Logger) *Parser {
	return &Parser{
		store:   store,
		ledgers: ledgers,
		log:     log.With().Str("component", "parser").Logger(),
	}
}

// LoadForEdit reads the delivery note with the given number and decodes
// its header and items. Unit costs are restored from the cost ledger
// when a matching tab exists; a missing or unreadable cost tab leaves
// them at zero and never fails the load. The totals row is captured as
// PreviousTotal so a later edit can compensate the accounting cell.
func (p *Parser) LoadForEdit(ctx context.Context, number string) (OrderHeader, []LineItem, error) {
	const op = "Parser.LoadForEdit"

	spreadsheetID := p.ledgers.WaybillSpreadsheetID
	infos, err := p.store.Sheets(ctx, spreadsheetID)
	if err != nil {
		return OrderHeader{}, nil, fmt.Errorf("%s: %w", op, sheetstore.Translate(err))
	}

	marker := "№" + number
	var title string
	for _, info := range infos {
		if strings.Contains(info.Title, marker) {
			title = info.Title
			break
		}
	}
	if title == "" {
		return OrderHeader{}, nil, fmt.Errorf("%s: %w: %s", op, ErrDocumentNotFound, marker)
	}

	values, err := p.store.ReadRange(ctx, spreadsheetID, sheetstore.RangeRef(title, "A1:G300"))
	if err != nil {
		return OrderHeader{}, nil, fmt.Errorf("%s: %w", op, sheetstore.Translate(err))
	}
	if len(values) <= rowFirstItem {
		return OrderHeader{}, nil, fmt.Errorf("%s: sheet %q has no document content", op, title)
	}

	cell := func(r, c int) interface{} {
		if r < len(values) && c < len(values[r]) {
			return values[r][c]
		}
		return nil
	}

	header := OrderHeader{Kind: KindDeliveryNote, Number: number}
	if date, ok := ExtractDate(CellString(cell(rowTitle, 0))); ok {
		header.Date = date
	}
	buyer, taxID, err := DecodeBuyerLine(CellString(cell(rowBuyer, 0)))
	if err != nil {
		return OrderHeader{}, nil, fmt.Errorf("%s: sheet %q: %w", op, title, err)
	}
	header.Buyer = buyer
	header.TaxID = taxID
	account, bank, err := DecodeBankLine(CellString(cell(rowBank, 0)))
	if err != nil {
		return OrderHeader{}, nil, fmt.Errorf("%s: sheet %q: %w", op, title, err)
	}
	header.BankAccount = account
	header.BankName = bank
	site, err := DecodeSiteLine(CellString(cell(rowSite, 0)))
	if err != nil {
		return OrderHeader{}, nil, fmt.Errorf("%s: sheet %q: %w", op, title, err)
	}
	header.Site = site

	for _, row := range values {
		if len(row) > 2 && CellString(row[1]) == "Итого" {
			header.PreviousTotal = ParseNumber(row[2])
			break
		}
	}

	costs := p.loadUnitCosts(ctx, number)

	var items []LineItem
	for r := rowFirstItem; r < len(values); r++ {
		name := CellString(cell(r, 1))
		if name == "Итого" {
			break
		}
		// hand-edited sheets sometimes leave gap rows inside the table
		if name == "" {
			continue
		}
		item := LineItem{
			Name:     name,
			Measure:  CellString(cell(r, 2)),
			Quantity: ParseNumber(cell(r, 3)),
		}
		if item.IsDelivery() {
			item.Price = ParseNumber(cell(r, 6))
			if item.Price == 0 {
				item.Price = ParseNumber(cell(r, 5))
			}
		} else {
			item.Price = ParseNumber(cell(r, 4))
			item.UnitCost = costs[NormalizeItemName(name)]
		}
		items = append(items, item)
	}

	p.log.Info().
		Str("number", number).
		Str("sheet", title).
		Int("items", len(items)).
		Msg("document loaded for editing")
	return header, items, nil
}

// loadUnitCosts reads the document's cost tab into a map keyed by
// normalized item name. Any failure yields an empty map.
func (p *Parser) loadUnitCosts(ctx context.Context, number string) map[string]float64 {
	costs := make(map[string]float64)
	if p.ledgers.CostSpreadsheetID == "" {
		return costs
	}

	rows, err := p.store.ReadRange(ctx, p.ledgers.CostSpreadsheetID, sheetstore.RangeRef("№"+number, "A:C"))
	if err != nil {
		p.log.Warn().Err(err).Str("number", number).Msg("cost data not found")
		return costs
	}
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		name := CellString(row[0])
		if name == "" || name == "Итого" || name == "Наименование" {
			continue
		}
		costs[NormalizeItemName(name)] = ParseNumber(row[1])
	}
	return costs
}
