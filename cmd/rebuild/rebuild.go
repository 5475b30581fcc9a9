// Package rebuild handles fingerprint maintenance commands
package rebuild

import (
	"fjacquet/merchant-resolver/cmd/root"

	"github.com/spf13/cobra"
)

var dryRun bool

// Cmd represents the rebuild-fingerprints command
var Cmd = &cobra.Command{
	Use:   "rebuild-fingerprints",
	Short: "Recompute every stored fingerprint and collapse duplicates",
	Long: `Rebuild-fingerprints recomputes the fingerprint of every stored transaction
with the current normalizer, keeps the lowest-id row of each duplicate group,
deletes the rest and recreates the unique index, all in one transaction.
With --dry-run the counts are reported and nothing changes.`,
	RunE: rebuildFunc,
}

// EnsureIndexCmd represents the ensure-index command
var EnsureIndexCmd = &cobra.Command{
	Use:   "ensure-index",
	Short: "Create the partial unique fingerprint index if it is missing",
	RunE:  ensureIndexFunc,
}

func init() {
	Cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing")
}

func rebuildFunc(cmd *cobra.Command, args []string) error {
	c, err := root.OpenContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	stats, err := c.GetDB().RebuildFingerprints(cmd.Context(), c.GetImporter().FingerprintRecord, dryRun)
	if err != nil {
		return err
	}
	return root.PrintJSON(cmd.OutOrStdout(), stats)
}

func ensureIndexFunc(cmd *cobra.Command, args []string) error {
	c, err := root.OpenContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	present, err := c.GetDB().EnsureFingerprintIndex(cmd.Context())
	if err != nil {
		return err
	}
	return root.PrintJSON(cmd.OutOrStdout(), map[string]bool{"index_present": present})
}
