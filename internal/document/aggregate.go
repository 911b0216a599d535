package document

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"vedomost/internal/sheetstore"
)

// itemsRange covers the item table of a document sheet starting at the
// name column, leaving the row-number column out.
const itemsRange = "B11:G1000"

// Aggregator collects the line items a buyer consumed on one site over
// a billing period by scanning every dated document sheet in the
// spreadsheet.
type Aggregator struct {
	store sheetstore.Store
	log   zerolog.Logger
}

// NewAggregator creates an Aggregator over the given store.
func NewAggregator(store sheetstore.Store, log zerolog.Logger) *Aggregator {
	return &Aggregator{store: store, log: log.With().Str("component", "aggregator").Logger()}
}

// Collect returns the merged items for the buyer and site over
// [start, end] inclusive, plus the summed carried-over amounts for the
// registry's cost column. Sheets are matched by the date embedded in
// their title, then by their buyer and site header lines.
func (a *Aggregator) Collect(ctx context.Context, spreadsheetID string, start, end time.Time, buyer, site string) ([]AggregatedItem, float64, error) {
	const op = "Aggregator.Collect"

	infos, err := a.store.Sheets(ctx, spreadsheetID)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: listing sheets: %w", op, err)
	}

	var candidates []sheetstore.SheetInfo
	for _, info := range infos {
		date, ok := TitleDate(info.Title)
		if !ok {
			continue
		}
		if date.Before(start) || date.After(end) {
			continue
		}
		candidates = append(candidates, info)
	}
	a.log.Debug().
		Int("sheets", len(infos)).
		Int("in_period", len(candidates)).
		Msg("filtered sheets by title date")

	matching, err := a.matchHeaders(ctx, spreadsheetID, candidates, buyer, site)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	tables, err := a.readTables(ctx, spreadsheetID, matching)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var all []AggregatedItem
	for _, rows := range tables {
		all = append(all, decodeItemRows(rows)...)
	}

	merged, costTotal := MergeItems(all)
	a.log.Info().
		Str("buyer", buyer).
		Str("site", site).
		Int("documents", len(matching)).
		Int("items", len(merged)).
		Msg("aggregated period items")
	return merged, costTotal, nil
}

// matchHeaders reads the buyer and site header lines of each candidate
// sheet concurrently and keeps the sheets belonging to the requested
// buyer and site. Order of the input is preserved.
func (a *Aggregator) matchHeaders(ctx context.Context, spreadsheetID string, candidates []sheetstore.SheetInfo, buyer, site string) ([]sheetstore.SheetInfo, error) {
	type headers struct {
		buyer string
		site  string
	}
	results := make([]*headers, len(candidates))
	errs := make([]error, len(candidates))

	var wg sync.WaitGroup
	for i, info := range candidates {
		wg.Add(1)
		go func(i int, info sheetstore.SheetInfo) {
			defer wg.Done()
			values, err := a.store.ReadRange(ctx, spreadsheetID, sheetstore.RangeRef(info.Title, "A5:A8"))
			if err != nil {
				errs[i] = fmt.Errorf("sheet %q: %w", info.Title, err)
				return
			}
			if len(values) < 4 || len(values[0]) == 0 || len(values[3]) == 0 {
				return
			}
			b, _, err := DecodeBuyerLine(CellString(values[0][0]))
			if err != nil {
				return
			}
			s, err := DecodeSiteLine(CellString(values[3][0]))
			if err != nil {
				return
			}
			results[i] = &headers{buyer: b, site: s}
		}(i, info)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var matching []sheetstore.SheetInfo
	for i, h := range results {
		if h != nil && h.buyer == buyer && h.site == site {
			matching = append(matching, candidates[i])
		}
	}
	return matching, nil
}

// readTables fetches the item tables of the matching sheets
// concurrently, preserving sheet order.
func (a *Aggregator) readTables(ctx context.Context, spreadsheetID string, infos []sheetstore.SheetInfo) ([][][]interface{}, error) {
	tables := make([][][]interface{}, len(infos))
	errs := make([]error, len(infos))

	var wg sync.WaitGroup
	for i, info := range infos {
		wg.Add(1)
		go func(i int, info sheetstore.SheetInfo) {
			defer wg.Done()
			rows, err := a.store.ReadRange(ctx, spreadsheetID, sheetstore.RangeRef(info.Title, itemsRange))
			if err != nil {
				errs[i] = fmt.Errorf("sheet %q: %w", info.Title, err)
				return
			}
			tables[i] = rows
		}(i, info)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return tables, nil
}

// decodeItemRows converts raw item-table rows into aggregatable items.
// Reading stops at the totals row; blank names are skipped. The row is
// name-relative: name, measure, quantity, unit price, line total.
func decodeItemRows(rows [][]interface{}) []AggregatedItem {
	cell := func(row []interface{}, i int) interface{} {
		if i < len(row) {
			return row[i]
		}
		return nil
	}

	var items []AggregatedItem
	for _, row := range rows {
		name := CellString(cell(row, 0))
		if name == "Итого" {
			break
		}
		if name == "" {
			continue
		}

		item := AggregatedItem{
			Name:     name,
			Measure:  CellString(cell(row, 1)),
			Quantity: ParseNumber(cell(row, 2)),
		}
		if name == DeliveryName {
			// flat-amount line: the billed amount sits in the total
			// column, the price column is blank
			amount := cell(row, 4)
			if CellString(amount) == "" {
				amount = cell(row, 5)
			}
			item.Price = ParseNumber(amount)
		} else {
			item.Price = ParseNumber(cell(row, 3))
			item.CostTotal = ParseNumber(cell(row, 4))
		}
		items = append(items, item)
	}
	return items
}

// MergeItems folds duplicate lines together: same name (case-folded)
// at the same price merge by summing quantities; Delivery lines merge
// by name alone, summing both quantity and amount, and always sort
// last. The second return is the sum of every consumed row's
// carried-over amount.
func MergeItems(items []AggregatedItem) ([]AggregatedItem, float64) {
	var (
		merged   []AggregatedItem
		index    = make(map[string]int)
		delivery *AggregatedItem
		total    float64
	)

	for _, item := range items {
		total += item.CostTotal

		if item.Name == DeliveryName {
			if delivery == nil {
				d := item
				delivery = &d
			} else {
				delivery.Quantity += item.Quantity
				delivery.Price += item.Price
				delivery.CostTotal += item.CostTotal
			}
			continue
		}

		key := MergeKey(item.Name, item.Price)
		if i, ok := index[key]; ok {
			merged[i].Quantity += item.Quantity
			merged[i].CostTotal += item.CostTotal
			continue
		}
		index[key] = len(merged)
		merged = append(merged, item)
	}

	if delivery != nil {
		merged = append(merged, *delivery)
	}
	return merged, total
}
