// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package rpcagent

import (
	"context"
	"time"

	"github.com/jontk/bb-agent/pkg/transport"
)

// runWorker delivers task to the single target at targets[idx]. It
// transitions the target NEW->ACTIVE, issues the transport call under a
// per-target cancelable context (so the watchdog can cut it off on
// timeout), classifies the outcome, and transitions to a terminal state
// before releasing its concurrency slot.
func (d *Dispatcher) runWorker(ctx context.Context, idx int, task TaskDescriptor) {
	target := d.targets[idx]

	// Always carry a deadline, not just a cancel signal: Transport
	// implementations (pkg/transport.TCP in particular) only interrupt a
	// blocked connect/send/receive via conn.SetDeadline or conn.Close,
	// neither of which net.Conn derives from context cancellation on its
	// own. WithTimeout guarantees ctx.Deadline() always reports ok, so
	// TCP.Send can always arm a real deadline. The watchdog's explicit
	// cancel (below) still fires independently as a backstop.
	workerCtx, cancel := context.WithTimeout(ctx, d.CommandTimeout)

	d.mu.Lock()
	target.State = StateActive
	target.ActiveSince = time.Now()
	target.cancel = cancel
	address, name := target.Address, target.Name
	d.mu.Unlock()

	resp, err := d.Transport.Send(workerCtx, address, transport.Message{
		Type: task.MsgType,
		Args: task.MsgArgs,
	})

	final := classify(resp, err)

	d.mu.Lock()
	target.State = final
	target.Elapsed = time.Since(target.ActiveSince)
	target.cancel = nil
	d.active--
	d.cond.Signal()
	d.mu.Unlock()

	cancel()
	d.Metrics.ObserveRPCTarget(final.String())

	if final == StateDone {
		d.Logger.Debug("rpcagent: target responded", "name", name, "address", address)
	} else {
		d.Logger.Warn("rpcagent: target failed", "name", name, "address", address)
	}
}

// classify turns a transport outcome into a terminal TargetState. Only a
// ResponseRC with ReturnCode == 0 counts as success; any transport error,
// context cancellation, or nonzero return code is a failure.
func classify(resp transport.Response, err error) TargetState {
	if err != nil {
		return StateFailed
	}
	rc, ok := resp.Args.(ResponseRC)
	if !ok {
		return StateFailed
	}
	if rc.ReturnCode != 0 {
		return StateFailed
	}
	return StateDone
}
