// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package bbstate

import (
	"sync"
	"time"

	"github.com/jontk/bb-agent/pkg/logging"
	"github.com/jontk/bb-agent/pkg/metrics"
)

// State is a plugin-instance-wide owned value: the Config, both tables,
// space accounting, and the termination flag/condition used for
// cooperative sleep. There are no process-wide singletons; callers own
// and pass a *State explicitly instead of reaching for package globals.
type State struct {
	mu sync.Mutex

	Config Config
	Tables Tables

	TotalSpace  uint32
	UsedSpace   uint32
	NextEndTime time.Time

	Pool []PoolEntry

	termOnce sync.Once
	termCh   chan struct{}

	logger  logging.Logger
	metrics *metrics.Collector
}

// NewState creates an empty State. logger and collector may be nil, in
// which case a no-op logger and an unregistered metrics collector are
// used.
func NewState(logger logging.Logger, collector *metrics.Collector) *State {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	if collector == nil {
		collector = metrics.NoOp()
	}
	return &State{logger: logger, metrics: collector, termCh: make(chan struct{})}
}

// Lock/Unlock expose the State mutex directly: every public BBSE
// operation that reads or writes the tables or space counters is expected
// to take this lock around the call.
func (s *State) Lock()   { s.mu.Lock() }
func (s *State) Unlock() { s.mu.Unlock() }

// AddUserLoad accounts alloc.Size against both State.UsedSpace and the
// owning User's TotalSize. Caller must hold the State mutex.
func (s *State) AddUserLoad(alloc *Alloc) {
	s.UsedSpace += alloc.Size
	user := s.Tables.FindOrCreateUser(alloc.UserID)
	user.TotalSize += alloc.Size
	s.refreshGauges()
}

// RemoveUserLoad reverses AddUserLoad. An underflow on either counter is
// clamped to zero and logged rather than allowed to wrap, since that
// indicates an accounting bug but must not crash the caller. Caller must
// hold the State mutex.
func (s *State) RemoveUserLoad(alloc *Alloc) {
	if s.UsedSpace >= alloc.Size {
		s.UsedSpace -= alloc.Size
	} else {
		s.logger.Warn("used space underflow releasing buffer", "job_id", alloc.JobID)
		s.UsedSpace = 0
		s.metrics.AccountingUnderflows.Inc()
	}

	user := s.Tables.FindOrCreateUser(alloc.UserID)
	if user.TotalSize >= alloc.Size {
		user.TotalSize -= alloc.Size
	} else {
		s.logger.Warn("user table underflow", "user_id", user.UserID)
		user.TotalSize = 0
		s.metrics.AccountingUnderflows.Inc()
	}
	s.refreshGauges()
}

// AllocJob combines AllocJobRec and AddUserLoad, and, when
// Config.PrioBoostUse is non-zero, boosts the job's priority: new_nice =
// NiceOffset - PrioBoostUse, applied only when that is smaller than the
// job's current nice, with priority adjusted by the same delta. Caller
// must hold the State mutex. Returns the updated JobRef (the caller is
// expected to persist Nice/Priority back to the real job table).
func (s *State) AllocJob(job JobRef, size uint32, now time.Time) (*Alloc, JobRef) {
	if s.Config.PrioBoostUse > 0 {
		newNice := NiceOffset - s.Config.PrioBoostUse
		if newNice < job.Nice {
			job.Priority = job.Priority + job.Nice - newNice
			job.Nice = newNice
			s.logger.Info("uses burst buffer, reset priority", "job_id", job.JobID, "priority", job.Priority)
		}
	}

	alloc := s.Tables.AllocJobRec(&job, size, now)
	s.AddUserLoad(alloc)
	return alloc, job
}

// ClearCache empties both tables and zeroes space accounting. Idempotent.
func (s *State) ClearCache() {
	s.Tables.Clear()
	s.UsedSpace = 0
	s.refreshGauges()
}

func (s *State) refreshGauges() {
	s.metrics.UsedSpace.Set(float64(s.UsedSpace))
	s.metrics.TotalSpace.Set(float64(s.TotalSpace))
	count := 0
	s.Tables.ForEachAlloc(func(*Alloc) { count++ })
	s.metrics.Allocations.Set(float64(count))
	userCount := 0
	s.Tables.ForEachUser(func(*User) { userCount++ })
	s.metrics.Users.Set(float64(userCount))
}

// SleepInterruptible blocks for d, or until Shutdown is called, whichever
// comes first. This is the channel-based equivalent of the original
// mutex/condition pair: termCh is closed exactly once by Shutdown, so any
// number of sleepers wake immediately and every later SleepInterruptible
// call returns right away too.
func (s *State) SleepInterruptible(d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-s.termCh:
	}
}

// Shutdown sets the termination flag and wakes any goroutine blocked in
// SleepInterruptible.
func (s *State) Shutdown() {
	s.termOnce.Do(func() { close(s.termCh) })
}

// Terminating reports whether Shutdown has been called.
func (s *State) Terminating() bool {
	select {
	case <-s.termCh:
		return true
	default:
		return false
	}
}
