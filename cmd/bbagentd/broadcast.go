// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jontk/bb-agent/internal/rpcagent"
	"github.com/jontk/bb-agent/pkg/transport"
)

func secondsToDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}

func newBroadcastCmd(flags *globalFlags) *cobra.Command {
	var targets string
	var msgTypeName string
	var timeoutSec int
	var concurrency int

	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Send one message to a set of targets and report per-target outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			msgType, ok := parseMsgType(msgTypeName)
			if !ok {
				return fmt.Errorf("unknown msg-type %q", msgTypeName)
			}

			addrs := splitNonEmpty(targets)
			if len(addrs) == 0 {
				return fmt.Errorf("--targets must name at least one address")
			}
			names := make([]string, len(addrs))
			copy(names, addrs)

			logger := flags.newLogger()
			dispatcher := &rpcagent.Dispatcher{
				Transport:      &transport.TCP{},
				Logger:         logger,
				Concurrency:    concurrency,
				CommandTimeout: secondsToDuration(timeoutSec),
			}

			bar := progressbar.Default(int64(len(addrs)), "dispatching")

			results, err := dispatcher.Dispatch(cmd.Context(), rpcagent.TaskDescriptor{
				TargetAddresses: addrs,
				TargetNames:     names,
				MsgType:         msgType,
			})
			bar.Finish()
			if err != nil {
				return err
			}

			for _, r := range results {
				line := fmt.Sprintf("%-24s %-10s %s", r.Name, r.State, r.Elapsed)
				if r.State == rpcagent.StateDone {
					color.Green(line)
				} else {
					color.Red(line)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&targets, "targets", "", "comma-separated list of target addresses")
	cmd.Flags().StringVar(&msgTypeName, "msg-type", "PING", "REVOKE_JOB_CREDENTIAL | NODE_REGISTRATION_STATUS | PING")
	cmd.Flags().IntVar(&timeoutSec, "timeout", 10, "per-target timeout in seconds")
	cmd.Flags().IntVar(&concurrency, "concurrency", rpcagent.DefaultConcurrency, "maximum in-flight targets")
	return cmd
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
