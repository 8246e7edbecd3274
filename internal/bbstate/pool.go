// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package bbstate

import (
	"context"
	"encoding/json"
	"time"

	bberrors "github.com/jontk/bb-agent/pkg/errors"
	"github.com/jontk/bb-agent/pkg/logging"
	"github.com/jontk/bb-agent/pkg/metrics"
	"github.com/jontk/bb-agent/pkg/procexec"
)

// HelperTimeout is the wall-clock ceiling on the pool-importer helper
// program, matching the original run_script(..., 3600) call.
const HelperTimeout = 1 * time.Hour

// poolDocument is the shape of the helper program's JSON output: a
// single top-level object whose sole key's value is an array of pool
// objects. The key name itself is not meaningful, so it is decoded as a
// generic map and the first array value found is used.
type poolDocument map[string]json.RawMessage

type poolObject struct {
	ID          string `json:"id"`
	Units       string `json:"units"`
	Granularity int64  `json:"granularity"`
	Quantity    int64  `json:"quantity"`
	Free        int64  `json:"free"`
}

// GetPoolEntries runs Config.GetSysState with the fixed argument vector
// ["jsonpools", "pools"], parses its stdout as a single-key JSON object
// whose value is an array of pool objects, and returns the decoded
// PoolEntry list with derived gb_* fields filled in. On any failure
// (empty output, parse error, non-zero exit, timeout) it logs a warning
// and returns an empty inventory rather than propagating the Helper-kind
// error; the raw output is included in the log when it is not valid JSON.
func GetPoolEntries(ctx context.Context, cfg *Config, logger logging.Logger, collector *metrics.Collector) []PoolEntry {
	start := time.Now()
	entries, err := getPoolEntries(ctx, cfg, logger)
	collector.ObserveHelper(time.Since(start), err == nil)
	if err != nil {
		logger.Warn("pool import failed, using empty inventory", "error", err)
		return nil
	}
	if collector != nil {
		collector.PoolEntries.Set(float64(len(entries)))
	}
	logging.LogDuration(logger, start, "bbstate.GetPoolEntries")
	return entries
}

func getPoolEntries(ctx context.Context, cfg *Config, logger logging.Logger) ([]PoolEntry, error) {
	if cfg.GetSysState == "" {
		return nil, bberrors.Helper("bbstate.GetPoolEntries", "no GetSysState helper configured", nil)
	}

	result, err := procexec.Run(ctx, cfg.GetSysState, []string{"jsonpools", "pools"}, HelperTimeout)
	if err != nil {
		return nil, bberrors.Helper("bbstate.GetPoolEntries", "helper invocation failed", err)
	}
	if len(result.Stdout) == 0 {
		return nil, bberrors.Helper("bbstate.GetPoolEntries", "helper returned no output", nil)
	}

	var doc poolDocument
	if err := json.Unmarshal(result.Stdout, &doc); err != nil {
		logger.Warn("pool importer output was not valid JSON", "raw", string(result.Stdout))
		return nil, bberrors.Helper("bbstate.GetPoolEntries", "json parse failed", err)
	}

	for _, raw := range doc {
		var objs []poolObject
		if err := json.Unmarshal(raw, &objs); err != nil {
			continue // not the array-valued key; unknown fields are ignored
		}
		entries := make([]PoolEntry, 0, len(objs))
		for _, o := range objs {
			e := PoolEntry{
				ID:          o.ID,
				Units:       o.Units,
				Granularity: o.Granularity,
				Quantity:    o.Quantity,
				Free:        o.Free,
			}
			e.deriveGB()
			entries = append(entries, e)
		}
		return entries, nil
	}

	return nil, bberrors.Helper("bbstate.GetPoolEntries", "no array-valued key found in helper output", nil)
}
