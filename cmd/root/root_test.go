package root_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"fjacquet/merchant-resolver/cmd/root"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "merchant-resolver", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "Resolve merchants")
	assert.NotNil(t, root.Cmd.RunE)
	assert.NotNil(t, root.Cmd.PersistentPreRunE)
}

func TestRootCommand_Flags(t *testing.T) {
	if root.Cmd.PersistentFlags().Lookup("db") == nil {
		root.Init()
	}
	for _, name := range []string{"config", "db", "log-level", "quiet"} {
		assert.NotNil(t, root.Cmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "q", root.Cmd.PersistentFlags().Lookup("quiet").Shorthand)
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	prev := root.Flags
	t.Cleanup(func() { root.Flags = prev })

	root.Flags = root.GlobalFlags{Database: filepath.Join(t.TempDir(), "x.db"), LogLevel: "debug"}
	cfg, err := root.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, root.Flags.Database, cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, root.PrintJSON(&buf, map[string]int{"added": 2}))
	assert.Equal(t, "{\n  \"added\": 2\n}\n", buf.String())
}
