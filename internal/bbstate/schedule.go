// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package bbstate

import (
	"sort"
	"time"

	"github.com/jontk/bb-agent/pkg/jobtable"
)

// QueueEntry pairs a job identifier with its expected start time, the
// minimal view the job queue sort needs.
type QueueEntry struct {
	JobID     uint32
	StartTime time.Time
}

// SortJobQueue orders entries ascending by start time.
func SortJobQueue(entries []QueueEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].StartTime.Before(entries[j].StartTime)
	})
}

// PreemptEntry pairs an Alloc with the use_time driving preemption order.
type PreemptEntry struct {
	Alloc   *Alloc
	UseTime time.Time
}

// SortPreemptQueue orders entries descending by use_time (latest-use
// first), so the job expected to run soonest is preempted last.
func SortPreemptQueue(entries []PreemptEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UseTime.After(entries[j].UseTime)
	})
}

// SetUseTime recomputes UseTime (and, for job-bound allocations, EndTime)
// across every Alloc in the table, and maintains State.NextEndTime: it
// starts at now+1h, any alloc with a non-zero Size and a non-zero EndTime
// at or before now drives it down to now, otherwise it tracks the minimum
// positive EndTime seen among allocs with a non-zero Size. Caller must
// hold the State mutex.
func SetUseTime(s *State, jobs jobtable.Lookup, now time.Time) {
	s.NextEndTime = now.Add(time.Hour)

	s.Tables.ForEachAlloc(func(a *Alloc) {
		switch {
		case a.JobID != 0 && (a.State == StateStagingIn || a.State == StateStagedIn):
			job, ok := jobs.Find(a.JobID)
			switch {
			case !ok:
				s.logger.Warn("job with allocated burst buffers not found", "job_id", a.JobID)
				a.UseTime = now.Add(24 * time.Hour)
			case !job.StartTime.IsZero():
				a.EndTime = job.EndTime
				a.UseTime = job.StartTime
			default:
				a.UseTime = now.Add(time.Hour)
			}
		case a.JobID != 0:
			if job, ok := jobs.Find(a.JobID); ok {
				a.EndTime = job.EndTime
			}
		default:
			a.UseTime = now
		}

		if !a.EndTime.IsZero() && a.Size > 0 {
			if !a.EndTime.After(now) {
				s.NextEndTime = now
			} else if a.EndTime.Before(s.NextEndTime) {
				s.NextEndTime = a.EndTime
			}
		}
	})
}
