/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/valpere/booktran/internal/config"
	"github.com/valpere/booktran/internal/logging"
)

var version = "0.1.0"

var (
	cfgFile   string
	dbPath    string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "booktran",
	Short: "Book translator for PDF and text files",
	Long: `A CLI application that translates whole books with an LLM or machine
translation service.

The book is split into chapters, long chapters into overlapping chunks that
fit the service, and the translated chunks are stitched back together with
the duplicated overlap removed. Every chunk carries the end of the previous
translation as context so the style stays consistent across the book.

Supported services: openrouter, openai, claude, ollama, google, systran

Use "booktran translate --help" for translation options.`,
	Version:       version,
	SilenceUsage:  true,
}

// Execute runs the root command. Ctrl-C cancels the running translation;
// chapters finished so far are kept.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $HOME/.booktran.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "./data/booktran.db", "Database path for translation memory, glossary and jobs")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text, json")
}

// rootBindings maps the persistent flags onto config keys.
var rootBindings = map[string]string{
	"storage.db": "db",
	"log.level":  "log-level",
	"log.format": "log-format",
}

// loadConfig builds the configuration for cmd. Only flags the user set
// override the config file and environment; bindings maps config keys to
// flag names of cmd.
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, *slog.Logger, error) {
	v := viper.New()
	bind := func(flags *pflag.FlagSet, m map[string]string) error {
		for key, name := range m {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := bind(cmd.Flags(), rootBindings); err != nil {
		return nil, nil, err
	}
	if err := bind(cmd.Flags(), bindings); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, nil, err
	}

	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})
	if used := config.ConfigFileUsed(v); used != "" {
		logger.Debug("config file loaded", "path", used)
	}
	return cfg, logger, nil
}
