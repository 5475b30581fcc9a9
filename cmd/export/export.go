// Package export handles the transaction export command
package export

import (
	"fmt"

	"fjacquet/merchant-resolver/cmd/root"
	"fjacquet/merchant-resolver/internal/common"
	"fjacquet/merchant-resolver/internal/store"

	"github.com/spf13/cobra"
)

var (
	outputFile    string
	account       string
	uncategorized bool
	limit         int
)

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored transactions to CSV",
	Long:  `Export writes stored transactions to CSV, or to stdout when --output is "-".`,
	RunE:  exportFunc,
}

func init() {
	Cmd.Flags().StringVarP(&outputFile, "output", "o", "-", "Output CSV file")
	Cmd.Flags().StringVarP(&account, "account", "a", "", "Only rows of this account")
	Cmd.Flags().BoolVar(&uncategorized, "uncategorized", false, "Only rows without a final category")
	Cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of rows (0 = all)")
}

func exportFunc(cmd *cobra.Command, args []string) error {
	c, err := root.OpenContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	filter := store.TransactionFilter{Uncategorized: uncategorized, Limit: limit}
	if account != "" {
		id, err := c.GetDB().GetAccountID(cmd.Context(), account)
		if err != nil {
			return fmt.Errorf("account %q: %w", account, err)
		}
		filter.AccountID = id
	}

	records, err := c.GetDB().ListTransactions(cmd.Context(), filter)
	if err != nil {
		return err
	}
	csv := common.NewCSV(c.GetConfig().DelimiterRune(), c.GetLogger())
	rows := common.ToExportRows(records)
	if outputFile == "-" {
		return common.WriteCSV(csv, cmd.OutOrStdout(), rows)
	}
	if err := common.WriteCSVFile(csv, outputFile, rows); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d transactions to %s\n", len(rows), outputFile)
	return nil
}
