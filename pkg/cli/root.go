package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/yorozuya-cybersecurity/csafcheck/internal/logging"
)

var (
	Version = "0.1.0"
	rootCmd *cobra.Command
)

func init() {
	rootCmd = newRootCmd()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csafcheck",
		Short: "CSAF advisory conformance checker",
		Long:  "csafcheck validates CSAF 2.0 and 2.1 security advisories against the mandatory semantic tests and renders the findings as text, JSON, YAML, HTML or PDF.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfigFile()
		},
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringP("output", "o", "./reports", "Output directory for saved results")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default warn)")
	cmd.PersistentFlags().String("config", "", "Config file (YAML)")
	_ = viper.BindPFlag("output", cmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("log-level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))

	// Environment variable support (CSAFCHECK_OUTPUT, CSAFCHECK_VALIDATE_CONCURRENCY, etc.)
	viper.SetEnvPrefix("CSAFCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Subcommands
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newRulesCmd())
	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func loadConfigFile() error {
	path := viper.GetString("config")
	if path == "" {
		return nil
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

func newLogger() (*zap.Logger, error) {
	return logging.New(viper.GetString("log-level"))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the csafcheck version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "csafcheck %s\n", Version)
		},
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
