// Package main provides the entry point for the merchant-resolver CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/merchant-resolver/cmd/correct"
	"fjacquet/merchant-resolver/cmd/export"
	"fjacquet/merchant-resolver/cmd/importcsv"
	"fjacquet/merchant-resolver/cmd/rebuild"
	"fjacquet/merchant-resolver/cmd/resolve"
	"fjacquet/merchant-resolver/cmd/root"
	"fjacquet/merchant-resolver/cmd/rules"
	"fjacquet/merchant-resolver/cmd/serve"
	"fjacquet/merchant-resolver/internal/config"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func init() {
	// .env must be loaded before the log level is read
	loadEnvSilently()
	configureLogLevel()

	root.Init()
	root.Cmd.AddCommand(importcsv.Cmd)
	root.Cmd.AddCommand(resolve.Cmd)
	root.Cmd.AddCommand(rules.Cmd)
	root.Cmd.AddCommand(correct.Cmd)
	root.Cmd.AddCommand(export.Cmd)
	root.Cmd.AddCommand(rebuild.Cmd)
	root.Cmd.AddCommand(rebuild.EnsureIndexCmd)
	root.Cmd.AddCommand(serve.Cmd)
}

// loadEnvSilently loads .env from the working directory or its parent
// without logging anything.
func loadEnvSilently() {
	envFile := ".env"
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		envFile = filepath.Join("..", ".env")
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			return
		}
	}
	_ = godotenv.Load(envFile)
}

// configureLogLevel sets the global logrus level for anything logged before
// the configuration is read.
func configureLogLevel() {
	level, err := logrus.ParseLevel(strings.ToLower(config.GetEnv("MERCHANT_LOG_LEVEL", "info")))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func main() {
	if err := root.Cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
