// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestObserveHelperRecordsFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, "generic")

	c.ObserveHelper(50*time.Millisecond, true)
	c.ObserveHelper(10*time.Millisecond, false)

	m := &dto.Metric{}
	require.NoError(t, c.HelperFailures.Write(m))
	require.Equal(t, float64(1), m.Counter.GetValue())
}

func TestObserveRPCTargetLabelsByState(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, "generic")

	c.ObserveRPCTarget("done")
	c.ObserveRPCTarget("done")
	c.ObserveRPCTarget("failed")

	m := &dto.Metric{}
	require.NoError(t, c.RPCTargetsTotal.WithLabelValues("done").Write(m))
	require.Equal(t, float64(2), m.Counter.GetValue())
}

func TestNilCollectorMethodsAreNoOps(t *testing.T) {
	var c *Collector
	c.ObserveHelper(time.Second, false)
	c.ObserveRPCTarget("failed")
}
