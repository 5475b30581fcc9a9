// Package resolve handles the resolve (debug-parse) command
package resolve

import (
	"bufio"
	"io"
	"strings"

	"fjacquet/merchant-resolver/cmd/root"
	"fjacquet/merchant-resolver/internal/inspect"

	"github.com/spf13/cobra"
)

// Cmd represents the resolve command
var Cmd = &cobra.Command{
	Use:     "resolve [description...]",
	Aliases: []string{"debug-parse"},
	Short:   "Show how descriptions are normalized, detected and resolved",
	Long: `Resolve runs each description through the normalizer, the provider detector,
the merchant resolver and the rule matcher, and prints every intermediate
result as JSON. Nothing is written to the database. Without arguments one
description per line is read from stdin.`,
	RunE: resolveFunc,
}

func resolveFunc(cmd *cobra.Command, args []string) error {
	lines := args
	if len(lines) == 0 {
		var err error
		if lines, err = readLines(cmd.InOrStdin()); err != nil {
			return err
		}
	}

	c, err := root.OpenContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	reports := c.GetInspector().Inspect(cmd.Context(), lines)
	return root.PrintJSON(cmd.OutOrStdout(), struct {
		Results []inspect.Report `json:"results"`
		Count   int              `json:"count"`
	}{reports, len(reports)})
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
