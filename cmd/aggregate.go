package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vedomost/internal/config"
	"vedomost/internal/document"
	"vedomost/internal/logger"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Collect a buyer's items from the delivery notes of a period",
	Long: `Aggregate scans every delivery-note sheet whose title date falls into
the given period, keeps the ones belonging to the buyer and site, and
merges their item tables: lines with the same name and price merge by
summing quantities, delivery lines merge into a single flat-amount line
ordered last.

This is the same collection step "save" runs for a "Счет на оплату";
running it standalone previews the invoice lines before billing.`,
	Example: `  # Preview July billing for a buyer
  vedomost aggregate --from 01.07.2026 --to 31.07.2026 \
    --buyer "ОсОО 'Стройком'" --site "Космонавтов 12"`,
	RunE: runAggregate,
}

// aggregateOutput is the JSON result of a standalone aggregation.
type aggregateOutput struct {
	Buyer     string          `json:"buyer"`
	Site      string          `json:"site"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Items     []orderFileItem `json:"items"`
	Total     int64           `json:"total"`
	CostTotal float64         `json:"cost_total"`
}

func init() {
	rootCmd.AddCommand(aggregateCmd)

	aggregateCmd.Flags().String("from", "", "Period start, DD.MM.YYYY (required)")
	aggregateCmd.Flags().String("to", "", "Period end, DD.MM.YYYY (required)")
	aggregateCmd.Flags().String("buyer", "", "Buyer name as it appears on documents (required)")
	aggregateCmd.Flags().String("site", "", "Construction site name (required)")
	aggregateCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	aggregateCmd.Flags().Int("timeout", 120, "Operation timeout in seconds")

	for _, flag := range []string{"from", "to", "buyer", "site"} {
		if err := aggregateCmd.MarkFlagRequired(flag); err != nil {
			panic(err)
		}
	}
}

func runAggregate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("aggregate")

	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	buyer, _ := cmd.Flags().GetString("buyer")
	site, _ := cmd.Flags().GetString("site")
	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	from, err := document.ParseDate(fromStr)
	if err != nil {
		return fmt.Errorf("flag --from: %w", err)
	}
	to, err := document.ParseDate(toStr)
	if err != nil {
		return fmt.Errorf("flag --to: %w", err)
	}
	if to.Before(from) {
		return fmt.Errorf("period end %s is before period start %s", toStr, fromStr)
	}

	log.Info().
		Str("buyer", buyer).
		Str("site", site).
		Time("from", from).
		Time("to", to).
		Msg("Starting period aggregation")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(timeoutSecs, log)
	defer cancel()

	store, err := newStore(ctx, cfg, false, log)
	if err != nil {
		return err
	}

	aggregator := document.NewAggregator(store, logger.GetLogger())
	merged, costTotal, err := aggregator.Collect(ctx, cfg.WaybillSpreadsheetID, from, to, buyer, site)
	if err != nil {
		return err
	}

	items := make([]document.LineItem, 0, len(merged))
	out := aggregateOutput{
		Buyer:     buyer,
		Site:      site,
		From:      fromStr,
		To:        toStr,
		CostTotal: costTotal,
	}
	for _, item := range merged {
		items = append(items, item.LineItem())
		out.Items = append(out.Items, orderFileItem{
			Name:     item.Name,
			Measure:  item.Measure,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}
	out.Total = document.TotalSum(items)

	log.Info().
		Int("items", len(merged)).
		Int64("total", out.Total).
		Msg("Aggregation completed")

	return writeJSON(out, outputPath, log)
}
