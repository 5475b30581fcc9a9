// Package correct handles the correction import command
package correct

import (
	"fjacquet/merchant-resolver/cmd/root"
	"fjacquet/merchant-resolver/internal/common"

	"github.com/spf13/cobra"
)

var inputFile string

// Cmd represents the correct command
var Cmd = &cobra.Command{
	Use:   "correct",
	Short: "Apply reviewed corrections and learn rules from them",
	Long: `Correct reads a CSV with transaction_id, merchant, category and subcategory
columns and overwrites the final fields of the matching stored rows. A
correction carrying both a merchant and a category also teaches a rule.`,
	RunE: correctFunc,
}

func init() {
	Cmd.Flags().StringVarP(&inputFile, "file", "f", "", "Corrections CSV file")
	_ = Cmd.MarkFlagRequired("file")
}

func correctFunc(cmd *cobra.Command, args []string) error {
	c, err := root.OpenContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	csv := common.NewCSV(c.GetConfig().DelimiterRune(), c.GetLogger())
	if err := common.CheckHeader(csv, inputFile, common.CorrectionColumns...); err != nil {
		return err
	}
	raw, err := common.ReadCSVFile[common.CorrectionCSVRow](csv, inputFile)
	if err != nil {
		return err
	}
	updated, skipped, err := c.GetCorrector().Apply(cmd.Context(), common.ToCorrections(raw))
	if err != nil {
		return err
	}
	return root.PrintJSON(cmd.OutOrStdout(), map[string]int{"updated": updated, "skipped": skipped})
}
