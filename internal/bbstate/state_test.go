// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package bbstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddAndRemoveUserLoadKeepsInvariant(t *testing.T) {
	s := NewState(nil, nil)
	now := time.Now()

	job1 := JobRef{JobID: 1, UserID: 1000}
	a1, _ := s.AllocJob(job1, 10, now)

	job2 := JobRef{JobID: 2, UserID: 1001}
	s.AllocJob(job2, 10, now)

	s.RemoveUserLoad(a1)

	assert.Equal(t, uint32(10), s.UsedSpace)
	u1000 := s.Tables.FindOrCreateUser(1000)
	u1001 := s.Tables.FindOrCreateUser(1001)
	assert.Equal(t, uint32(0), u1000.TotalSize)
	assert.Equal(t, uint32(10), u1001.TotalSize)
}

func TestRemoveUserLoadClampsUnderflow(t *testing.T) {
	s := NewState(nil, nil)
	alloc := &Alloc{UserID: 42, Size: 100}

	s.RemoveUserLoad(alloc)

	assert.Equal(t, uint32(0), s.UsedSpace)
	u := s.Tables.FindOrCreateUser(42)
	assert.Equal(t, uint32(0), u.TotalSize)
}

func TestClearCacheIsIdempotent(t *testing.T) {
	s := NewState(nil, nil)
	s.AllocJob(JobRef{JobID: 1, UserID: 1}, 5, time.Now())

	s.ClearCache()
	s.ClearCache()

	assert.Equal(t, uint32(0), s.UsedSpace)
	count := 0
	s.Tables.ForEachAlloc(func(*Alloc) { count++ })
	assert.Equal(t, 0, count)
}

func TestAllocJobBoostsPriorityWhenSmallerNice(t *testing.T) {
	s := NewState(nil, nil)
	s.Config.PrioBoostUse = 10

	job := JobRef{JobID: 1, UserID: 1, Nice: NiceOffset, Priority: 100}
	_, updated := s.AllocJob(job, 5, time.Now())

	assert.Equal(t, uint32(NiceOffset-10), updated.Nice)
	assert.Equal(t, uint32(110), updated.Priority)
}

func TestAllocJobLeavesPriorityWhenNiceAlreadySmaller(t *testing.T) {
	s := NewState(nil, nil)
	s.Config.PrioBoostUse = 10

	job := JobRef{JobID: 1, UserID: 1, Nice: NiceOffset - 20, Priority: 100}
	_, updated := s.AllocJob(job, 5, time.Now())

	assert.Equal(t, job.Nice, updated.Nice)
	assert.Equal(t, job.Priority, updated.Priority)
}

func TestSleepInterruptibleReturnsOnShutdown(t *testing.T) {
	s := NewState(nil, nil)
	done := make(chan struct{})
	go func() {
		s.SleepInterruptible(time.Hour)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	s.Shutdown()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SleepInterruptible did not wake on Shutdown")
	}
}

func TestSleepInterruptibleReturnsAfterTermination(t *testing.T) {
	s := NewState(nil, nil)
	s.Shutdown()
	start := time.Now()
	s.SleepInterruptible(time.Hour)
	assert.Less(t, time.Since(start), time.Second)
}
