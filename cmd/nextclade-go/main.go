// Package main provides the nextclade-go command-line tool.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "nextclade-go",
		Short: "Viral genome clade assignment, mutation calling and sequence QC",
		Long: `nextclade-go analyzes viral genome sequences against a reference dataset:
it aligns each query to the reference, translates every CDS, calls
nucleotide and amino-acid mutations, places the sample on the reference
tree, and reports a quality-control verdict.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newRunCmd(&verbose))
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// initConfig wires viper to ~/.nextclade-go.yaml and NEXTCLADE_GO_*
// environment variables for the runtime settings (job count, ordering,
// cache path). Domain data (pathogen config) is deliberately not loaded
// through viper.
func initConfig() {
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}
	viper.SetConfigName(".nextclade-go")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("NEXTCLADE_GO")
	viper.AutomaticEnv()

	viper.SetDefault("jobs", 0)
	viper.SetDefault("in_order", true)
	viper.SetDefault("cache", "")

	// Missing config file is fine; defaults apply.
	_ = viper.ReadInConfig()
}

func configFilePath() string {
	if f := viper.ConfigFileUsed(); f != "" {
		return f
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nextclade-go.yaml"
	}
	return filepath.Join(home, ".nextclade-go.yaml")
}

// newLogger builds the process-wide structured logger.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}
