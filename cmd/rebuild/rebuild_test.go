package rebuild

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/merchant-resolver/cmd/root"
	"fjacquet/merchant-resolver/internal/models"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempDatabase(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MERCHANT_AI_ENABLED", "false")
	prev := root.Flags
	root.Flags = root.GlobalFlags{Database: filepath.Join(t.TempDir(), "merchants.db"), Quiet: true}
	t.Cleanup(func() { root.Flags = prev })
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.Bytes()
}

func seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	c, err := root.OpenContainer(ctx)
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Close()) }()

	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	_, err = c.GetImporter().Import(ctx, "Checking", []models.ImportRow{
		{Date: day, Description: "AMZN MKTP US*2K4 SEATTLE WA", Amount: decimal.RequireFromString("-19.99")},
		{Date: day, Description: "MYSTERY CHARGE 991", Amount: decimal.RequireFromString("-3.00")},
	})
	require.NoError(t, err)
}

func TestRebuildCommand_DryRun(t *testing.T) {
	useTempDatabase(t)
	seed(t)

	var stats models.RebuildStats
	require.NoError(t, json.Unmarshal(execute(t, Cmd, "--dry-run"), &stats))
	assert.True(t, stats.DryRun)
	assert.Equal(t, 2, stats.RowsScanned)
	assert.Zero(t, stats.RowsToDelete)
	assert.NotEmpty(t, stats.RunID)
}

func TestRebuildCommand_Apply(t *testing.T) {
	useTempDatabase(t)
	seed(t)

	var stats models.RebuildStats
	require.NoError(t, json.Unmarshal(execute(t, Cmd, "--dry-run=false"), &stats))
	assert.False(t, stats.DryRun)
	assert.Zero(t, stats.RowsDeleted)
	assert.True(t, stats.IndexPresent)
}

func TestEnsureIndexCommand(t *testing.T) {
	useTempDatabase(t)

	var got map[string]bool
	require.NoError(t, json.Unmarshal(execute(t, EnsureIndexCmd), &got))
	assert.True(t, got["index_present"])
}
