// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CollectorsObserveLabeledValues(t *testing.T) {
	r := New()

	r.PacketInTotal.WithLabelValues("0000000000000001", "arp").Inc()
	r.FlowInstallTotal.WithLabelValues("0000000000000001", "route").Add(3)
	r.SuspendedQueue.WithLabelValues("0000000000000001", "0").Set(2)

	m := &dto.Metric{}
	require.NoError(t, r.PacketInTotal.WithLabelValues("0000000000000001", "arp").Write(m))
	assert.Equal(t, float64(1), m.GetCounter().GetValue())

	m = &dto.Metric{}
	require.NoError(t, r.FlowInstallTotal.WithLabelValues("0000000000000001", "route").Write(m))
	assert.Equal(t, float64(3), m.GetCounter().GetValue())

	m = &dto.Metric{}
	require.NoError(t, r.SuspendedQueue.WithLabelValues("0000000000000001", "0").Write(m))
	assert.Equal(t, float64(2), m.GetGauge().GetValue())
}

func TestMustRegister_RegistersAllFiveCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New()
	reg.MustRegister(r.PacketInTotal, r.FlowInstallTotal, r.FlowDeleteTotal, r.SuspendedQueue, r.ARPSweepTotal)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Empty(t, families, "no samples have been recorded yet, only collectors registered")
}
