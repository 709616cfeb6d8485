package main

import (
	"github.com/spf13/cobra"

	"github.com/polisai/sslopts/pkg/ssl"
)

// capabilityView is the printable form of a capability table.
type capabilityView struct {
	Profile     ssl.Profile        `json:"profile" yaml:"profile"`
	Backend     ssl.BackendVersion `json:"backend" yaml:"backend"`
	Supported   []ssl.Kind         `json:"supported" yaml:"supported"`
	Unsupported []ssl.Kind         `json:"unsupported" yaml:"unsupported"`
}

func newCapabilityView(caps ssl.Capabilities) capabilityView {
	return capabilityView{
		Profile:     caps.Profile,
		Backend:     caps.Version,
		Supported:   caps.Kinds(),
		Unsupported: caps.Unsupported(),
	}
}

func newCapabilitiesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "Print the option kinds this build supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return render(cmd.OutOrStdout(), opts.Output, newCapabilityView(ssl.Current()))
		},
	}
}
