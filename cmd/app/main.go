package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"FinCast/pkg/config"
)

var (
	configPath string
	envFile    string
	cfg        *config.Config

	rootCmd = &cobra.Command{
		Use:           "fincast",
		Short:         "Per-bank closing price models and date-range predictions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvFile(envFile); err != nil {
				return err
			}
			c, err := config.LoadWithEnv(configPath)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			cfg = c
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path (empty for defaults only)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file applied before config overrides")
	rootCmd.AddCommand(serveCmd, trainCmd, predictCmd)
}

// loadEnvFile sets variables from path without overriding the environment.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
