// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"
)

// ErrInvalidOutput is returned for an unknown output format
var ErrInvalidOutput = errors.New("invalid output format")

// output is the format command results are written in
type output string

const (
	outputText output = "text"
	outputJSON output = "json"
	outputYAML output = "yaml"
)

func parseOutput(s string) (output, error) {
	o := output(s)
	if !slices.Contains([]output{outputText, outputJSON, outputYAML}, o) {
		return "", fmt.Errorf("%w: %q, must be one of text, json or yaml", ErrInvalidOutput, s)
	}
	return o, nil
}

// encode writes v as json or yaml
func (o output) encode(w io.Writer, v any) error {
	switch o {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q cannot be encoded", ErrInvalidOutput, string(o))
	}
}
