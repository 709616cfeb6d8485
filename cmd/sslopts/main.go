// Package main is the entry point for the sslopts binary.
// It resolves declarative TLS option files into canonical records and
// checks how they translate to crypto/tls.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/polisai/sslopts/pkg/config"
	"github.com/polisai/sslopts/pkg/logging"
	"github.com/polisai/sslopts/pkg/ssl"
)

const (
	defaultLogLevel = "info"
	defaultOutput   = outputYAML
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	ConfigPath string
	LogLevel   string
	Pretty     bool
	Output     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newRootCmd creates the root command and its subcommands.
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "sslopts",
		Short: "Typed TLS client options",
		Long: `Resolve declarative TLS client option files into canonical records.

The set of legal options depends on the build profile (see "sslopts capabilities").

Example:
  sslopts resolve -c ssl.yaml
  sslopts check -c ssl.yaml --server-name api.example.com
  sslopts watch -c ssl.yaml --metrics-addr :9464`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := logging.ParseLevel(opts.LogLevel); err != nil {
				return err
			}
			if _, err := parseOutput(opts.Output); err != nil {
				return err
			}
			logging.SetupLogger(logging.Config{
				Level:  opts.LogLevel,
				Pretty: opts.Pretty,
				Output: cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "Path to the TLS option file (YAML or JSON)")
	flags.StringVarP(&opts.LogLevel, "log-level", "l", defaultLogLevel, "Log level (debug, info, warn, error)")
	flags.BoolVar(&opts.Pretty, "pretty", true, "Write logs as text instead of JSON")
	flags.StringVarP(&opts.Output, "output", "o", string(defaultOutput), "Output format (yaml, json)")

	rootCmd.AddCommand(
		newResolveCmd(opts),
		newCapabilitiesCmd(opts),
		newCheckCmd(opts),
		newProbeCmd(opts),
		newWatchCmd(opts),
		newCertgenCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// loadRecord reads the option file and folds it into a record.
func loadRecord(opts *globalOptions) (ssl.Config, error) {
	if opts.ConfigPath == "" {
		return ssl.Config{}, fmt.Errorf("no configuration file specified, use --config")
	}

	declared, err := config.Load(opts.ConfigPath)
	if err != nil {
		return ssl.Config{}, err
	}

	record, err := declared.Resolve(config.NewEnvFileResolver())
	if err != nil {
		return ssl.Config{}, fmt.Errorf("failed to resolve %s: %w", opts.ConfigPath, err)
	}

	slog.Debug("Resolved TLS options", "path", opts.ConfigPath, "profile", ssl.Current().Profile)
	return record, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the sslopts version and build profile",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			caps := ssl.Current()
			fmt.Fprintf(cmd.OutOrStdout(), "sslopts %s (profile %s, backend %s)\n", version, caps.Profile, caps.Version)
		},
	}
}
