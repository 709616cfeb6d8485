package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type outputFormat string

const (
	outputYAML outputFormat = "yaml"
	outputJSON outputFormat = "json"
)

func parseOutput(name string) (outputFormat, error) {
	switch outputFormat(name) {
	case outputYAML, outputJSON:
		return outputFormat(name), nil
	default:
		return "", fmt.Errorf("unknown output format %q (use yaml or json)", name)
	}
}

// render writes v to w in the requested format.
func render(w io.Writer, format string, v any) error {
	f, err := parseOutput(format)
	if err != nil {
		return err
	}

	switch f {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
}
