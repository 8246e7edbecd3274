// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package bbstate

import "time"

// HashSize is the fixed bucket count for both the allocation table and
// the user table, both keyed by user_id mod HashSize.
const HashSize = 64

// Tables holds the allocation table and the user table. Every exported
// method assumes the caller already holds the owning State's mutex: these
// are the bucket-level primitives C7 and the public State API build on.
type Tables struct {
	allocs [HashSize]*Alloc
	users  [HashSize]*User
}

func bucket(userID uint32) uint32 {
	return userID % HashSize
}

// FindJobAlloc finds the Alloc for job in the allocation table. If a
// bucket collision is found whose JobID matches but UserID does not, that
// is logged as an inconsistency by the caller and the walk continues
// rather than returning the mismatched record.
func (t *Tables) FindJobAlloc(job *JobRef, onMismatch func(bbUserID, jobUserID uint32)) *Alloc {
	for ptr := t.allocs[bucket(job.UserID)]; ptr != nil; ptr = ptr.next {
		if ptr.JobID != job.JobID {
			continue
		}
		if ptr.UserID == job.UserID {
			return ptr
		}
		if onMismatch != nil {
			onMismatch(ptr.UserID, job.UserID)
		}
	}
	return nil
}

// FindOrCreateUser returns the existing User record for userID, or
// allocates and links a new zeroed one at the head of its bucket.
func (t *Tables) FindOrCreateUser(userID uint32) *User {
	idx := bucket(userID)
	for u := t.users[idx]; u != nil; u = u.next {
		if u.UserID == userID {
			return u
		}
	}
	u := &User{UserID: userID, next: t.users[idx]}
	t.users[idx] = u
	return u
}

// AllocNameRec allocates a named (non-job-bound) Alloc for userID, linked
// at the head of its bucket.
func (t *Tables) AllocNameRec(name string, userID uint32, now time.Time) *Alloc {
	idx := bucket(userID)
	a := &Alloc{
		Name:      name,
		UserID:    userID,
		State:     StateAllocated,
		StateTime: now,
		SeenTime:  now,
		next:      t.allocs[idx],
	}
	t.allocs[idx] = a
	return a
}

// AllocJobRec allocates a per-job Alloc of size, linked at the head of
// its bucket.
func (t *Tables) AllocJobRec(job *JobRef, size uint32, now time.Time) *Alloc {
	idx := bucket(job.UserID)
	a := &Alloc{
		ArrayJobID:  job.ArrayJobID,
		ArrayTaskID: job.ArrayTaskID,
		JobID:       job.JobID,
		UserID:      job.UserID,
		Size:        size,
		State:       StateAllocated,
		StateTime:   now,
		SeenTime:    now,
		next:        t.allocs[idx],
	}
	t.allocs[idx] = a
	return a
}

// Clear empties both tables. Calling it twice is idempotent: the second
// call observes already-empty buckets.
func (t *Tables) Clear() {
	for i := range t.allocs {
		t.allocs[i] = nil
	}
	for i := range t.users {
		t.users[i] = nil
	}
}

// ForEachAlloc calls fn for every Alloc across all buckets. fn must not
// mutate the table's bucket links.
func (t *Tables) ForEachAlloc(fn func(*Alloc)) {
	for _, head := range t.allocs {
		for a := head; a != nil; a = a.next {
			fn(a)
		}
	}
}

// ForEachUser calls fn for every User across all buckets.
func (t *Tables) ForEachUser(fn func(*User)) {
	for _, head := range t.users {
		for u := head; u != nil; u = u.next {
			fn(u)
		}
	}
}
