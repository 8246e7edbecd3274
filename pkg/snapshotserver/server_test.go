// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package snapshotserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jontk/bb-agent/internal/bbstate"
)

func TestHandleSnapshotStateReturnsOctetStream(t *testing.T) {
	state := bbstate.NewState(nil, nil)
	srv := New(state, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/snapshot/state", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestHandleSnapshotBufsRejectsInvalidUID(t *testing.T) {
	state := bbstate.NewState(nil, nil)
	srv := New(state, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/snapshot/bufs?uid=not-a-number", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSnapshotPoolReturnsJSONArray(t *testing.T) {
	state := bbstate.NewState(nil, nil)
	state.Lock()
	state.Pool = []bbstate.PoolEntry{{ID: "pool0", Units: "bytes", Quantity: 10, Free: 5}}
	state.Unlock()

	srv := New(state, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/snapshot/pool", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "pool0")
}

func TestLiveFeedImplementsReportAndBroadcastsWithoutSubscribers(t *testing.T) {
	feed := NewLiveFeed(nil)
	assert.NotPanics(t, func() {
		feed.NodeDidRespond("node-a")
		feed.NodeNotResponding("node-b")
	})
}
