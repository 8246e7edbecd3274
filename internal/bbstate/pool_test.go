// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package bbstate

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jontk/bb-agent/pkg/logging"
	"github.com/jontk/bb-agent/pkg/metrics"
	"github.com/stretchr/testify/assert"
)

func TestGetPoolEntriesReturnsEmptyOnNonJSONOutput(t *testing.T) {
	cfg := &Config{GetSysState: "echo"}
	// "echo" just prints its argv back, which is not valid JSON, so this
	// exercises the failure path: empty inventory, no panic.
	entries := GetPoolEntries(context.Background(), cfg, logging.NoOpLogger{}, metrics.NoOp())
	assert.Empty(t, entries)
}

func TestPoolEntryDeriveGBScalesBytesUnits(t *testing.T) {
	e := PoolEntry{Units: "bytes", Granularity: 1 << 30, Quantity: 10 << 30, Free: 5 << 30}
	e.deriveGB()
	assert.Equal(t, int64(1), e.GBGranularity)
	assert.Equal(t, int64(10), e.GBQuantity)
	assert.Equal(t, int64(5), e.GBFree)
}

func TestPoolEntryDeriveGBCopiesNonByteUnits(t *testing.T) {
	e := PoolEntry{Units: "GiB", Granularity: 1, Quantity: 10, Free: 5}
	e.deriveGB()
	assert.Equal(t, int64(1), e.GBGranularity)
	assert.Equal(t, int64(10), e.GBQuantity)
	assert.Equal(t, int64(5), e.GBFree)
}

func TestPoolDocumentRoundTripsSingleKeyArray(t *testing.T) {
	doc := poolDocument{
		"pools": json.RawMessage(`[{"id":"ssd","units":"bytes","granularity":1073741824,"quantity":10,"free":5}]`),
	}
	raw, err := json.Marshal(doc)
	assert.NoError(t, err)

	var decoded poolDocument
	assert.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "pools")
}
