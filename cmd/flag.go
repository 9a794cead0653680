// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// annotationConfigKey holds the config key of a flag
const annotationConfigKey = "netdiag_config_key"

// Flag binds a command line flag to a viper config key
type Flag struct {
	config string
	flag   string
}

// NewFlag returns a flag named flag that is bound to the config key cfg
func NewFlag(cfg, flag string) *Flag {
	return &Flag{config: cfg, flag: flag}
}

type StringFlag struct{ *Flag }

type IntFlag struct{ *Flag }

type BoolFlag struct{ *Flag }

type DurationFlag struct{ *Flag }

func (f *Flag) String() *StringFlag { return &StringFlag{f} }

func (f *Flag) Int() *IntFlag { return &IntFlag{f} }

func (f *Flag) Bool() *BoolFlag { return &BoolFlag{f} }

func (f *Flag) Duration() *DurationFlag { return &DurationFlag{f} }

// Bind registers the flag on the command
func (f *StringFlag) Bind(cmd *cobra.Command, value, usage string) {
	cmd.Flags().String(f.flag, value, usage)
	f.bind(cmd)
}

// Bind registers the flag on the command
func (f *IntFlag) Bind(cmd *cobra.Command, value int, usage string) {
	cmd.Flags().Int(f.flag, value, usage)
	f.bind(cmd)
}

// Bind registers the flag on the command
func (f *BoolFlag) Bind(cmd *cobra.Command, value bool, usage string) {
	cmd.Flags().Bool(f.flag, value, usage)
	f.bind(cmd)
}

// Bind registers the flag on the command
func (f *DurationFlag) Bind(cmd *cobra.Command, value time.Duration, usage string) {
	cmd.Flags().Duration(f.flag, value, usage)
	f.bind(cmd)
}

func (f *Flag) bind(cmd *cobra.Command) {
	_ = cmd.Flags().SetAnnotation(f.flag, annotationConfigKey, []string{f.config})
}

// bindFlags binds the flags of the command to their config keys.
// Commands share keys like history.path, so binding happens once the
// command to execute is known.
func bindFlags(cmd *cobra.Command, _ []string) error {
	var err error
	cmd.Flags().VisitAll(func(fl *pflag.Flag) {
		if keys, ok := fl.Annotations[annotationConfigKey]; ok && err == nil {
			err = viper.BindPFlag(keys[0], fl)
		}
	})
	return err
}
