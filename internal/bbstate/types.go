// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package bbstate implements the burst buffer state engine: per-plugin
// in-memory accounting of burst buffer allocations across jobs and
// users, import of the underlying pool topology, packed snapshots, and
// the scheduling hooks the controller calls into.
package bbstate

import "time"

// AllocState is the lifecycle state of an Alloc.
type AllocState uint16

const (
	StateAllocated AllocState = iota
	StateStagingIn
	StateStagedIn
	StateRunning
	StateStagingOut
	StateStagedOut
	StateComplete
)

func (s AllocState) String() string {
	switch s {
	case StateAllocated:
		return "ALLOCATED"
	case StateStagingIn:
		return "STAGING_IN"
	case StateStagedIn:
		return "STAGED_IN"
	case StateRunning:
		return "RUNNING"
	case StateStagingOut:
		return "STAGING_OUT"
	case StateStagedOut:
		return "STAGED_OUT"
	case StateComplete:
		return "COMPLETE"
	default:
		return "UNKNOWN"
	}
}

// GresCounter is a named resource class with an available and used count.
type GresCounter struct {
	Name      string
	AvailCnt  uint32
	UsedCnt   uint32
}

// Alloc is one burst-buffer allocation.
type Alloc struct {
	UserID       uint32
	JobID        uint32 // 0 if the allocation is "named", not job-bound
	Name         string
	ArrayJobID   uint32
	ArrayTaskID  uint32
	Size         uint32
	State        AllocState
	StateTime    time.Time
	SeenTime     time.Time
	UseTime      time.Time
	EndTime      time.Time
	Gres         []GresCounter

	next *Alloc // collision chain within the allocation table bucket
}

// User aggregates the total allocated size for one user.
type User struct {
	UserID    uint32
	TotalSize uint32

	next *User // collision chain within the user table bucket
}

// PoolEntry is one entry from the pool importer's inventory (C5).
type PoolEntry struct {
	ID            string
	Units         string
	Granularity   int64
	Quantity      int64
	Free          int64
	GBGranularity int64
	GBQuantity    int64
	GBFree        int64
}

// deriveGB fills the GB* fields per spec: scale by 1/1024^3 when Units is
// "bytes", otherwise copy verbatim.
func (p *PoolEntry) deriveGB() {
	const gib = 1024 * 1024 * 1024
	if p.Units == "bytes" {
		p.GBGranularity = p.Granularity / gib
		p.GBQuantity = p.Quantity / gib
		p.GBFree = p.Free / gib
		return
	}
	p.GBGranularity = p.Granularity
	p.GBQuantity = p.Quantity
	p.GBFree = p.Free
}

// JobRef is the minimal view of a controller job record the scheduling
// hooks and allocation table operations need. The real job table lives
// outside this package (pkg/jobtable); this is its read surface.
type JobRef struct {
	JobID      uint32
	UserID     uint32
	ArrayJobID uint32
	ArrayTaskID uint32
	StartTime  time.Time
	EndTime    time.Time
	Nice       uint32
	Priority   uint32
}
