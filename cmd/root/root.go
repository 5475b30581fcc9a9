// Package root contains the root command for the application
package root

import (
	"context"
	"encoding/json"
	"io"

	"fjacquet/merchant-resolver/internal/config"
	"fjacquet/merchant-resolver/internal/container"
	"fjacquet/merchant-resolver/internal/logging"

	"github.com/spf13/cobra"
)

// GlobalFlags are the persistent flags shared by every command.
type GlobalFlags struct {
	ConfigFile string
	Database   string
	LogLevel   string
	Quiet      bool
}

var (
	// Flags holds the parsed persistent flags.
	Flags = GlobalFlags{}

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "merchant-resolver",
		Short: "Resolve merchants in bank transactions and import them without duplicates.",
		Long: `merchant-resolver turns noisy bank transaction descriptions into canonical
merchant names, learns category rules from accepted results, and stores
transactions in SQLite with fingerprint-based deduplication.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.LoadEnv()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Init registers the persistent flags on the root command.
func Init() {
	Cmd.PersistentFlags().StringVarP(&Flags.ConfigFile, "config", "c", "", "Config file (default: config.yaml in ., .merchant-resolver or ~/.merchant-resolver)")
	Cmd.PersistentFlags().StringVar(&Flags.Database, "db", "", "SQLite database path (overrides database.path)")
	Cmd.PersistentFlags().StringVar(&Flags.LogLevel, "log-level", "", "Log level (overrides log.level)")
	Cmd.PersistentFlags().BoolVarP(&Flags.Quiet, "quiet", "q", false, "Suppress log output")
}

// LoadConfig reads the configuration and applies flag overrides.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(Flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	if Flags.Database != "" {
		cfg.Database.Path = Flags.Database
	}
	if Flags.LogLevel != "" {
		cfg.Log.Level = Flags.LogLevel
	}
	return cfg, nil
}

// OpenContainer builds the dependency container for a command run. The
// caller must Close it.
func OpenContainer(ctx context.Context, opts ...container.Option) (*container.Container, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if Flags.Quiet {
		opts = append([]container.Option{container.WithLogger(logging.NewDiscardLogger())}, opts...)
	}
	return container.NewContainer(ctx, cfg, opts...)
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
