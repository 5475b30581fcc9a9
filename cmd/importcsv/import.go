// Package importcsv handles the import command
package importcsv

import (
	"errors"
	"fmt"

	"fjacquet/merchant-resolver/cmd/root"
	"fjacquet/merchant-resolver/internal/batch"
	"fjacquet/merchant-resolver/internal/common"
	"fjacquet/merchant-resolver/internal/container"
	"fjacquet/merchant-resolver/internal/logging"
	"fjacquet/merchant-resolver/internal/models"

	"github.com/spf13/cobra"
)

var (
	inputFile string
	inputDir  string
	account   string
)

// DirResult reports one account group of a directory import.
type DirResult struct {
	Account string               `json:"account"`
	Files   []string             `json:"files"`
	Failed  []string             `json:"failed,omitempty"`
	Summary models.ImportSummary `json:"summary"`
}

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import",
	Short: "Import transaction CSVs, resolving merchants and skipping duplicates",
	Long: `Import reads a CSV with date, description and amount columns (plus optional
transaction_id, merchant, category and subcategory), resolves a merchant for
every row and stores the rows. Rows whose fingerprint already exists are
skipped, so importing the same export twice is a no-op.

With --dir every CSV in the directory is imported; files are grouped by the
account in their name and each account is imported as one batch.`,
	RunE: importFunc,
}

func init() {
	Cmd.Flags().StringVarP(&inputFile, "file", "f", "", "CSV file to import")
	Cmd.Flags().StringVarP(&inputDir, "dir", "d", "", "Directory of CSV files to import")
	Cmd.Flags().StringVarP(&account, "account", "a", "", "Account name (default: derived from the file name)")
	Cmd.MarkFlagsMutuallyExclusive("file", "dir")
}

func importFunc(cmd *cobra.Command, args []string) error {
	if inputFile == "" && inputDir == "" {
		return errors.New("one of --file or --dir is required")
	}
	c, err := root.OpenContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if inputDir != "" {
		results, err := importDir(cmd, c)
		if err != nil {
			return err
		}
		return root.PrintJSON(cmd.OutOrStdout(), results)
	}

	rows, err := loader(c)(inputFile)
	if err != nil {
		return err
	}
	acct := common.ResolveAccount(account, inputFile)
	c.GetLogger().Debug("Resolved account",
		logging.F(logging.FieldFile, inputFile),
		logging.F(logging.FieldAccount, acct.ID),
		logging.F(logging.FieldSource, acct.Source))

	summary, err := c.GetImporter().Import(cmd.Context(), acct.ID, rows)
	if err != nil {
		return fmt.Errorf("import %s: %w", inputFile, err)
	}
	return root.PrintJSON(cmd.OutOrStdout(), summary)
}

func importDir(cmd *cobra.Command, c *container.Container) ([]DirResult, error) {
	files, err := batch.ListImportFiles(inputDir)
	if err != nil {
		return nil, err
	}
	agg := batch.NewAggregator(c.GetLogger())
	load := loader(c)

	results := []DirResult{}
	for _, group := range agg.GroupFilesByAccount(files) {
		acct := group.AccountID
		if account != "" {
			acct = account
		}
		rows, failed := agg.AggregateRows(group, load)
		summary, err := c.GetImporter().Import(cmd.Context(), acct, rows)
		if err != nil {
			return results, fmt.Errorf("import account %s: %w", acct, err)
		}
		results = append(results, DirResult{Account: acct, Files: group.Files, Failed: failed, Summary: summary})
	}
	return results, nil
}

func loader(c *container.Container) batch.LoadFunc {
	csv := common.NewCSV(c.GetConfig().DelimiterRune(), c.GetLogger())
	dates := c.GetDateParser()
	return func(path string) ([]models.ImportRow, error) {
		if err := common.CheckHeader(csv, path, common.ImportColumns...); err != nil {
			return nil, err
		}
		raw, err := common.ReadCSVFile[common.ImportCSVRow](csv, path)
		if err != nil {
			return nil, err
		}
		return common.ToImportRows(raw, dates)
	}
}
