// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package rpcagent

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jontk/bb-agent/pkg/transport"
)

type recordingReport struct {
	mu       sync.Mutex
	notResp  []string
	didResp  []string
}

func (r *recordingReport) NodeNotResponding(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notResp = append(r.notResp, name)
}

func (r *recordingReport) NodeDidRespond(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.didResp = append(r.didResp, name)
}

func TestDispatchZeroTargetsReturnsCleanEmptyResult(t *testing.T) {
	d := &Dispatcher{Transport: transport.NewFake()}
	results, err := d.Dispatch(context.Background(), TaskDescriptor{MsgType: Ping})
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestDispatchRejectsNonAdmissibleMsgType(t *testing.T) {
	d := &Dispatcher{Transport: transport.NewFake()}
	_, err := d.Dispatch(context.Background(), TaskDescriptor{
		MsgType:         MsgType(99),
		TargetAddresses: []string{"a"},
		TargetNames:     []string{"node-a"},
	})
	assert.Error(t, err)
}

func TestDispatchRejectsMismatchedAddressAndNameCounts(t *testing.T) {
	d := &Dispatcher{Transport: transport.NewFake()}
	_, err := d.Dispatch(context.Background(), TaskDescriptor{
		MsgType:         Ping,
		TargetAddresses: []string{"a", "b"},
		TargetNames:     []string{"node-a"},
	})
	assert.Error(t, err)
}

func TestDispatchClassifiesSuccessAndFailureAndReports(t *testing.T) {
	fake := transport.NewFake()
	fake.Set("ok", func(ctx context.Context, address string, msg transport.Message) (transport.Response, error) {
		return transport.Response{Args: ResponseRC{ReturnCode: 0}}, nil
	})
	fake.Set("bad-rc", func(ctx context.Context, address string, msg transport.Message) (transport.Response, error) {
		return transport.Response{Args: ResponseRC{ReturnCode: 1}}, nil
	})

	report := &recordingReport{}
	d := &Dispatcher{Transport: fake, Report: report}

	results, err := d.Dispatch(context.Background(), TaskDescriptor{
		MsgType:         Ping,
		TargetAddresses: []string{"ok", "bad-rc"},
		TargetNames:     []string{"node-ok", "node-bad"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Name] = r
	}
	assert.Equal(t, StateDone, byName["node-ok"].State)
	assert.Equal(t, StateFailed, byName["node-bad"].State)

	assert.ElementsMatch(t, []string{"node-ok"}, report.didResp)
	assert.ElementsMatch(t, []string{"node-bad"}, report.notResp)
}

func TestDispatchRespectsConcurrencyCeiling(t *testing.T) {
	var inFlight int32
	var maxSeen int32
	release := make(chan struct{})

	fake := transport.NewFake()
	fake.Default = func(ctx context.Context, address string, msg transport.Message) (transport.Response, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			prev := atomic.LoadInt32(&maxSeen)
			if cur <= prev || atomic.CompareAndSwapInt32(&maxSeen, prev, cur) {
				break
			}
		}
		<-release
		atomic.AddInt32(&inFlight, -1)
		return transport.Response{Args: ResponseRC{ReturnCode: 0}}, nil
	}

	addrs := make([]string, 6)
	names := make([]string, 6)
	for i := range addrs {
		addrs[i] = "addr"
		names[i] = "node"
	}

	d := &Dispatcher{Transport: fake, Concurrency: 2}

	done := make(chan struct{})
	go func() {
		d.Dispatch(context.Background(), TaskDescriptor{
			MsgType:         Ping,
			TargetAddresses: addrs,
			TargetNames:     names,
		})
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	close(release)
	<-done

	assert.LessOrEqual(t, atomic.LoadInt32(&maxSeen), int32(2))
}

func TestDispatchFailsTargetPastCommandTimeout(t *testing.T) {
	fake := transport.NewFake()
	fake.Default = func(ctx context.Context, address string, msg transport.Message) (transport.Response, error) {
		<-ctx.Done()
		return transport.Response{}, ctx.Err()
	}

	d := &Dispatcher{
		Transport:      fake,
		CommandTimeout: 30 * time.Millisecond,
	}

	results, err := d.Dispatch(context.Background(), TaskDescriptor{
		MsgType:         Ping,
		TargetAddresses: []string{"hung"},
		TargetNames:     []string{"node-hung"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, StateFailed, results[0].State)
	assert.GreaterOrEqual(t, results[0].Elapsed, 30*time.Millisecond)
}
