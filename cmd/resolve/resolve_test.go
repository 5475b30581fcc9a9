package resolve

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"fjacquet/merchant-resolver/cmd/root"
	"fjacquet/merchant-resolver/internal/inspect"
	"fjacquet/merchant-resolver/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type output struct {
	Results []inspect.Report `json:"results"`
	Count   int              `json:"count"`
}

func useTempDatabase(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MERCHANT_AI_ENABLED", "false")
	prev := root.Flags
	root.Flags = root.GlobalFlags{Database: filepath.Join(t.TempDir(), "merchants.db"), Quiet: true}
	t.Cleanup(func() { root.Flags = prev })
}

func run(t *testing.T, stdin string, args ...string) output {
	t.Helper()
	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetIn(strings.NewReader(stdin))
	Cmd.SetArgs(args)
	require.NoError(t, Cmd.ExecuteContext(context.Background()))
	var got output
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	return got
}

func TestResolveCommand_Args(t *testing.T) {
	useTempDatabase(t)
	got := run(t, "", "VENMO PAYMENT FROM JOHN SMITH", "AMZN MKTP US*2K4 SEATTLE WA")

	require.Equal(t, 2, got.Count)
	assert.Equal(t, models.ProviderVenmo, got.Results[0].Provider)
	// no external model configured
	assert.Equal(t, models.UnresolvedSentinel, got.Results[1].Resolved)
}

func TestResolveCommand_Stdin(t *testing.T) {
	useTempDatabase(t)
	got := run(t, "ZELLE PAYMENT TO JANE DOE\n\n  \nMYSTERY CHARGE 991\n")

	require.Equal(t, 2, got.Count)
	assert.Equal(t, "ZELLE PAYMENT TO JANE DOE", got.Results[0].Input)
	assert.Equal(t, models.ProviderZelle, got.Results[0].Provider)
	assert.NotEqual(t, models.UnresolvedSentinel, got.Results[0].Resolved)
}

func TestReadLines(t *testing.T) {
	lines, err := readLines(strings.NewReader(" a \n\nb\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lines)
}

func TestResolveCommand_Alias(t *testing.T) {
	assert.Contains(t, Cmd.Aliases, "debug-parse")
}
