// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package bbstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFindJobAllocMatchesOnJobAndUser(t *testing.T) {
	var tbl Tables
	job := &JobRef{JobID: 5, UserID: 1000}
	a := tbl.AllocJobRec(job, 10, time.Now())

	found := tbl.FindJobAlloc(job, nil)
	assert.Same(t, a, found)
}

func TestFindJobAllocLogsAndSkipsOnUserMismatch(t *testing.T) {
	var tbl Tables
	// Same job_id recorded under a different user_id than the query,
	// landing in the same bucket (user ids differing by HashSize collide).
	tbl.AllocJobRec(&JobRef{JobID: 5, UserID: 1000}, 10, time.Now())

	var mismatches int
	found := tbl.FindJobAlloc(&JobRef{JobID: 5, UserID: 1000 + HashSize}, func(bbUID, jobUID uint32) {
		mismatches++
	})

	assert.Nil(t, found)
	assert.Equal(t, 1, mismatches)
}

func TestFindJobAllocKeepsWalkingPastMismatchToFindRealMatch(t *testing.T) {
	var tbl Tables
	// Prepend order: matching record pushed first, stale (mismatched)
	// record pushed second so it sits at the bucket head; the walk must
	// tolerate the mismatch rather than return early, and go on to reach
	// and return the genuinely matching record behind it.
	match := tbl.AllocJobRec(&JobRef{JobID: 5, UserID: 1000 + HashSize}, 20, time.Now())
	tbl.AllocJobRec(&JobRef{JobID: 5, UserID: 1000}, 10, time.Now())

	found := tbl.FindJobAlloc(&JobRef{JobID: 5, UserID: 1000 + HashSize}, nil)
	assert.Same(t, match, found)
}

func TestFindJobAllocReturnsNilWhenNotFound(t *testing.T) {
	var tbl Tables
	found := tbl.FindJobAlloc(&JobRef{JobID: 1, UserID: 1}, nil)
	assert.Nil(t, found)
}

func TestFindOrCreateUserReusesExistingRecord(t *testing.T) {
	var tbl Tables
	u1 := tbl.FindOrCreateUser(1000)
	u1.TotalSize = 5
	u2 := tbl.FindOrCreateUser(1000)
	assert.Same(t, u1, u2)
	assert.Equal(t, uint32(5), u2.TotalSize)
}

func TestClearEmptiesBothTables(t *testing.T) {
	var tbl Tables
	tbl.AllocJobRec(&JobRef{JobID: 1, UserID: 1}, 5, time.Now())
	tbl.FindOrCreateUser(1)

	tbl.Clear()
	tbl.Clear()

	allocCount, userCount := 0, 0
	tbl.ForEachAlloc(func(*Alloc) { allocCount++ })
	tbl.ForEachUser(func(*User) { userCount++ })
	assert.Zero(t, allocCount)
	assert.Zero(t, userCount)
}
