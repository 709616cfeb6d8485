package main

import (
	"github.com/spf13/cobra"
)

func newResolveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Print the record an option file resolves to",
		Long: `Load the option file, apply SSLOPTS_* environment overrides and print the
resulting record. Key passwords and key blobs are redacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			record, err := loadRecord(opts)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.Output, record)
		},
	}
}
