// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/jontk/bb-agent/internal/bbstate"
	"github.com/jontk/bb-agent/pkg/jobtable"
)

// jobStore is the minimal controller job-table stand-in: a mutex-guarded
// jobtable.Static kept current by the admin alloc/release handlers, and
// read by the periodic SetUseTime pass so NextEndTime and preemption
// ordering reflect jobs this daemon actually knows about.
type jobStore struct {
	mu   sync.Mutex
	jobs jobtable.Static
}

func newJobStore() *jobStore {
	return &jobStore{jobs: make(jobtable.Static)}
}

func (j *jobStore) Find(jobID uint32) (jobtable.Job, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jobs.Find(jobID)
}

func (j *jobStore) put(job jobtable.Job) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jobs[job.JobID] = job
}

func (j *jobStore) delete(jobID uint32) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.jobs, jobID)
}

type allocRequest struct {
	JobID       uint32 `json:"job_id"`
	UserID      uint32 `json:"user_id"`
	ArrayJobID  uint32 `json:"array_job_id"`
	ArrayTaskID uint32 `json:"array_task_id"`
	Size        uint32 `json:"size"`
	Nice        uint32 `json:"nice"`
	Priority    uint32 `json:"priority"`
}

type allocResponse struct {
	JobID    uint32 `json:"job_id"`
	Size     uint32 `json:"size"`
	Nice     uint32 `json:"nice"`
	Priority uint32 `json:"priority"`
}

// allocHandler is C7's entry point for "a job arrives from the external
// controller": it runs AllocJob under the State mutex, which both records
// the Alloc in the allocation table and accounts the size against the
// owning user via AddUserLoad, then remembers the job in store so the
// periodic SetUseTime pass can resolve it.
func allocHandler(state *bbstate.State, store *jobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req allocRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Size == 0 {
			http.Error(w, "size must be non-zero", http.StatusBadRequest)
			return
		}

		job := bbstate.JobRef{
			JobID:       req.JobID,
			UserID:      req.UserID,
			ArrayJobID:  req.ArrayJobID,
			ArrayTaskID: req.ArrayTaskID,
			Nice:        req.Nice,
			Priority:    req.Priority,
		}

		state.Lock()
		_, job = state.AllocJob(job, req.Size, time.Now())
		state.Unlock()

		store.put(jobtable.Job{JobID: job.JobID, UserID: job.UserID})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(allocResponse{
			JobID:    job.JobID,
			Size:     req.Size,
			Nice:     job.Nice,
			Priority: job.Priority,
		})
	}
}

type releaseRequest struct {
	JobID  uint32 `json:"job_id"`
	UserID uint32 `json:"user_id"`
}

// releaseHandler is C7's counterpart to allocHandler: it finds the job's
// Alloc in the allocation table and reverses its accounting via
// RemoveUserLoad, then forgets the job so a stale entry can't drive
// SetUseTime afterward. It leaves the Alloc record itself in the table
// (only State.ClearCache removes records), so a released job's record
// stays visible in snapshots but no longer counts against its user.
func releaseHandler(state *bbstate.State, store *jobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req releaseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		job := bbstate.JobRef{JobID: req.JobID, UserID: req.UserID}

		state.Lock()
		alloc := state.Tables.FindJobAlloc(&job, nil)
		if alloc != nil {
			state.RemoveUserLoad(alloc)
		}
		state.Unlock()

		store.delete(req.JobID)

		if alloc == nil {
			http.Error(w, "no allocation for job", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
