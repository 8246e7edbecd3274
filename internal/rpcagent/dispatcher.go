// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package rpcagent

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	bberrors "github.com/jontk/bb-agent/pkg/errors"
	"github.com/jontk/bb-agent/pkg/logging"
	"github.com/jontk/bb-agent/pkg/metrics"
	"github.com/jontk/bb-agent/pkg/transport"
)

// DefaultConcurrency is the default worker ceiling W (AGENT_THREAD_COUNT
// in the original source).
const DefaultConcurrency = 10

// DefaultCommandTimeout is the default per-target wall-clock deadline
// (COMMAND_TIMEOUT).
const DefaultCommandTimeout = 10 * time.Second

// Dispatcher is a bounded-concurrency fan-out engine: it spawns up to
// Concurrency workers at a time, each delivering Task to one target, and
// runs a watchdog that enforces CommandTimeout per target and reports
// terminal liveness through Report.
type Dispatcher struct {
	Transport      transport.Transport
	Report         Report
	Logger         logging.Logger
	Metrics        *metrics.Collector
	Concurrency    int
	CommandTimeout time.Duration

	mu      sync.Mutex
	targets []*targetRecord
	active  int
	cond    *sync.Cond
}

func (d *Dispatcher) init() {
	if d.Concurrency <= 0 {
		d.Concurrency = DefaultConcurrency
	}
	if d.CommandTimeout <= 0 {
		d.CommandTimeout = DefaultCommandTimeout
	}
	if d.Logger == nil {
		d.Logger = logging.NoOpLogger{}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.NoOp()
	}
	if d.Report == nil {
		d.Report = NoOpReport{}
	}
	d.cond = sync.NewCond(&d.mu)
}

// wdogPoll returns the watchdog's poll interval: 1s when CommandTimeout
// is exactly 1s, else 2s, matching the original source's WDOG_POLL
// selection.
func (d *Dispatcher) wdogPoll() time.Duration {
	if d.CommandTimeout == time.Second {
		return time.Second
	}
	return 2 * time.Second
}

// Dispatch delivers task to every target in parallel, bounded by
// Concurrency, enforces CommandTimeout per target via the watchdog, and
// returns once every target has reached a terminal state and the
// watchdog has reported liveness. addr_count == 0 returns a clean empty
// result without spawning any worker.
func (d *Dispatcher) Dispatch(ctx context.Context, task TaskDescriptor) ([]Result, error) {
	d.init()

	if !task.MsgType.IsAdmissible() {
		return nil, bberrors.Protocol("rpcagent.Dispatch", "unsupported message type: "+task.MsgType.String())
	}

	n, ok := task.AddrCount()
	if !ok {
		return nil, bberrors.Invariant("rpcagent.Dispatch", "target address/name count mismatch")
	}
	if n == 0 {
		return nil, nil
	}

	start := time.Now()
	correlationID := uuid.NewString()
	d.Logger.Info("rpcagent: dispatching", "correlation_id", correlationID, "msg_type", task.MsgType.String(), "targets", n)

	d.targets = make([]*targetRecord, n)
	for i := 0; i < n; i++ {
		d.targets[i] = &targetRecord{
			Address: task.TargetAddresses[i],
			Name:    task.TargetNames[i],
			State:   StateNew,
		}
	}

	watchdogDone := make(chan struct{})
	go func() {
		defer close(watchdogDone)
		d.runWatchdog(ctx)
	}()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		d.mu.Lock()
		for d.active >= d.Concurrency {
			d.cond.Wait()
		}
		d.active++
		d.mu.Unlock()

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			d.runWorker(ctx, idx, task)
		}(i)
	}
	wg.Wait()

	<-watchdogDone
	d.Metrics.RPCDispatchSeconds.Observe(time.Since(start).Seconds())
	logging.LogDuration(d.Logger, start, "rpcagent.Dispatch")

	results := make([]Result, n)
	d.mu.Lock()
	for i, t := range d.targets {
		results[i] = Result{Name: t.Name, Address: t.Address, State: t.State, Elapsed: t.Elapsed}
	}
	d.mu.Unlock()
	return results, nil
}
