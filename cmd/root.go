package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"vedomost/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "vedomost",
	Short: "Vedomost CLI - delivery notes and invoices backed by Google Sheets",
	Long: `Vedomost renders delivery notes ("Накладная") and payment invoices
("Счет на оплату") into Google Sheets, keeps the registry, accounting and
cost ledgers in line with every document, and reads saved documents back
for editing.

Google Sheets is the only datastore: every document is one sheet tab in
a spreadsheet file, named "№<номер> от <дата> г.".`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Vedomost CLI executed")

		fmt.Println("Vedomost — документы и реестры в Google Sheets.")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
