// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jontk/bb-agent/internal/bbstate"
	"github.com/jontk/bb-agent/pkg/uidresolve"
)

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Config file tooling",
	}
	cmd.AddCommand(newConfigCheckCmd(flags))
	return cmd
}

func newConfigCheckCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load and validate a burst buffer config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := flags.newLogger()

			cfg, err := bbstate.LoadConfig(flags.confDir, flags.pluginType, uidresolve.OSResolver{}, logger)
			if err != nil {
				color.Red("config load failed: %v", err)
				return err
			}

			color.Green("loaded %s", cfg.SourcePath)
			fmt.Fprintf(cmd.OutOrStdout(), "Granularity:      %d\n", cfg.Granularity)
			fmt.Fprintf(cmd.OutOrStdout(), "UserSizeLimit:    %d\n", cfg.UserSizeLimit)
			fmt.Fprintf(cmd.OutOrStdout(), "JobSizeLimit:     %d\n", cfg.JobSizeLimit)
			fmt.Fprintf(cmd.OutOrStdout(), "PrioBoostAlloc:   %d\n", cfg.PrioBoostAlloc)
			fmt.Fprintf(cmd.OutOrStdout(), "PrioBoostUse:     %d\n", cfg.PrioBoostUse)
			fmt.Fprintf(cmd.OutOrStdout(), "StageInTimeout:   %d\n", cfg.StageInTimeout)
			fmt.Fprintf(cmd.OutOrStdout(), "StageOutTimeout:  %d\n", cfg.StageOutTimeout)
			fmt.Fprintf(cmd.OutOrStdout(), "PrivateData:      %t\n", cfg.PrivateData)
			fmt.Fprintf(cmd.OutOrStdout(), "AllowUsers:       %s\n", cfg.AllowUsersStr)
			fmt.Fprintf(cmd.OutOrStdout(), "DenyUsers:        %s\n", cfg.DenyUsersStr)
			for _, g := range cfg.Gres {
				fmt.Fprintf(cmd.OutOrStdout(), "Gres:             %s avail=%d used=%d\n", g.Name, g.AvailCnt, g.UsedCnt)
			}
			return nil
		},
	}
}
