// Package rules handles rule store commands
package rules

import (
	"fmt"
	"text/tabwriter"

	"fjacquet/merchant-resolver/cmd/root"
	"fjacquet/merchant-resolver/internal/models"
	"fjacquet/merchant-resolver/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	addPattern     string
	addCategory    string
	addSubcategory string
	addMerchant    string
	applyTarget    string
	exportPath     string
	loadPath       string
)

// Cmd represents the rules command group
var Cmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and maintain merchant/category rules",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in match order (longest pattern first)",
	RunE:  listFunc,
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Insert or update a rule",
	RunE:  addFunc,
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Fill empty category fields of stored transactions from the rules",
	Long: `Apply matches every stored transaction against the rules. With --target
suggested the ai_* fields are filled; with --target final the final
category fields of uncategorized rows are filled. Existing values are never
overwritten.`,
	RunE: applyFunc,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all rules to a YAML file",
	RunE:  exportFunc,
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Upsert rules from a YAML file",
	RunE:  loadFunc,
}

func init() {
	addCmd.Flags().StringVarP(&addPattern, "pattern", "p", "", "Substring to match (case-insensitive)")
	addCmd.Flags().StringVar(&addCategory, "category", "", "Category (empty keeps the existing one)")
	addCmd.Flags().StringVar(&addSubcategory, "subcategory", "", "Subcategory")
	addCmd.Flags().StringVarP(&addMerchant, "merchant", "m", "", "Canonical merchant name")
	_ = addCmd.MarkFlagRequired("pattern")

	applyCmd.Flags().StringVarP(&applyTarget, "target", "t", pipeline.TargetSuggested, "Fields to fill: suggested or final")
	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "rules.yaml", "Output YAML file")
	loadCmd.Flags().StringVarP(&loadPath, "file", "f", "", "Rules YAML file")
	_ = loadCmd.MarkFlagRequired("file")

	Cmd.AddCommand(listCmd, addCmd, applyCmd, exportCmd, loadCmd)
}

func listFunc(cmd *cobra.Command, args []string) error {
	c, err := root.OpenContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATTERN\tCATEGORY\tSUBCATEGORY\tMERCHANT")
	for _, r := range c.GetRuleBook().Rules() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Pattern, r.Category, r.Subcategory, r.MerchantCanonical)
	}
	return w.Flush()
}

func addFunc(cmd *cobra.Command, args []string) error {
	if models.NormalizePattern(addPattern) == "" {
		return fmt.Errorf("pattern must not be blank")
	}
	c, err := root.OpenContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	rule := models.Rule{
		Pattern:           addPattern,
		Category:          addCategory,
		Subcategory:       addSubcategory,
		MerchantCanonical: addMerchant,
	}
	if err := c.GetRuleBook().Upsert(cmd.Context(), rule); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved rule %q\n", models.NormalizePattern(addPattern))
	return nil
}

func applyFunc(cmd *cobra.Command, args []string) error {
	c, err := root.OpenContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	n, err := c.GetImporter().ApplyRules(cmd.Context(), applyTarget)
	if err != nil {
		return err
	}
	return root.PrintJSON(cmd.OutOrStdout(), map[string]any{"target": applyTarget, "updated": n})
}

func exportFunc(cmd *cobra.Command, args []string) error {
	c, err := root.OpenContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.GetRuleBook().ExportFile(exportPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rules to %s\n", len(c.GetRuleBook().Rules()), exportPath)
	return nil
}

func loadFunc(cmd *cobra.Command, args []string) error {
	c, err := root.OpenContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	n, err := c.GetRuleBook().LoadFile(cmd.Context(), loadPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d rules from %s\n", n, loadPath)
	return nil
}
