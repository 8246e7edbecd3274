// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jontk/bb-agent/pkg/logging"
)

// globalFlags holds flags shared by every subcommand.
type globalFlags struct {
	confDir    string
	pluginType string
	jsonLogs   bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "bbagentd",
		Short: "Burst buffer state engine and parallel RPC agent daemon",
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.confDir, "conf-dir", "/etc/slurm", "directory to search for burst_buffer.conf")
	pf.StringVar(&flags.pluginType, "type", "generic", "burst buffer plugin type (burst_buffer_<type>.conf)")
	pf.BoolVar(&flags.jsonLogs, "json-logs", false, "emit structured JSON logs instead of text")
	pflag.CommandLine = pf

	color.NoColor = !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())

	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newBroadcastCmd(flags))
	root.AddCommand(newConfigCmd(flags))

	return root
}

func (f *globalFlags) newLogger() logging.Logger {
	cfg := logging.DefaultConfig()
	if f.jsonLogs {
		cfg.Format = logging.FormatJSON
	}
	return logging.NewLogger(cfg)
}
