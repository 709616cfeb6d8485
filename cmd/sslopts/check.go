package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	tlsclient "github.com/polisai/sslopts/internal/tls"
)

type checkOptions struct {
	ServerName           string
	AllowInsecureCiphers bool
	Strict               bool
}

// clientOptions turns the shared translation flags into client options.
func (o checkOptions) clientOptions() []tlsclient.ClientOption {
	opts := []tlsclient.ClientOption{tlsclient.WithLogger(slog.Default())}
	if o.ServerName != "" {
		opts = append(opts, tlsclient.WithServerName(o.ServerName))
	}
	if o.AllowInsecureCiphers {
		opts = append(opts, tlsclient.WithInsecureCiphers())
	}
	return opts
}

func (o *checkOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.ServerName, "server-name", "", "Server name used for SNI and hostname checks")
	cmd.Flags().BoolVar(&o.AllowInsecureCiphers, "allow-insecure-ciphers", false, "Accept cipher suites crypto/tls marks insecure")
}

func newCheckCmd(opts *globalOptions) *cobra.Command {
	check := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Translate an option file to crypto/tls and print the report",
		Long: `Resolve the option file, read every certificate, key and CA it names and
build a crypto/tls client configuration. The report lists the applied kinds
and the settings crypto/tls cannot honour.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			record, err := loadRecord(opts)
			if err != nil {
				return err
			}

			_, report, err := tlsclient.BuildClient(cmd.Context(), record, check.clientOptions()...)
			if err != nil {
				return err
			}
			if err := render(cmd.OutOrStdout(), opts.Output, report); err != nil {
				return err
			}

			if check.Strict && len(report.Ignored) > 0 {
				return fmt.Errorf("%d option(s) not applied", len(report.Ignored))
			}
			return nil
		},
	}

	check.bind(cmd)
	cmd.Flags().BoolVar(&check.Strict, "strict", false, "Fail when any option could not be applied")
	return cmd
}
