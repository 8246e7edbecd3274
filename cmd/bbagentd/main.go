// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Command bbagentd serves burst buffer state engine snapshots, accepts
// parallel RPC agent dispatch requests, and offers operator tooling for
// config validation and ad hoc broadcasts.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
