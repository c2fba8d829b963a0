package metrics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Counters(t *testing.T) {
	registry := NewRegistry()
	labels := map[string]string{"endpoint": "messages", "result": "ok"}

	registry.IncrementCounter("upstream_calls_total", nil, "calls")
	registry.IncrementCounter("upstream_calls_total", labels, "calls")
	registry.IncrementCounter("upstream_calls_total", labels, "calls")
	registry.AddToCounter("sightings_recorded_total", 2.5, nil, "sightings")
	registry.AddToCounter("sightings_recorded_total", 1.5, nil, "sightings")

	snap := registry.GetAllMetrics()
	require.Contains(t, snap.Counters, "upstream_calls_total")
	assert.Equal(t, 1.0, snap.Counters["upstream_calls_total"].Value)

	labeled := snap.Counters["upstream_calls_total_endpoint:messages_result:ok"]
	assert.Equal(t, 2.0, labeled.Value)
	assert.Equal(t, Counter, labeled.Type)
	assert.Equal(t, labels, labeled.Labels)

	assert.Equal(t, 4.0, snap.Counters["sightings_recorded_total"].Value)
}

func TestRegistry_RecordTimer(t *testing.T) {
	registry := NewRegistry()

	registry.RecordTimer("upstream_call_duration", 100*time.Millisecond, nil, "duration")
	registry.RecordTimer("upstream_call_duration", 200*time.Millisecond, nil, "duration")

	timer, ok := registry.GetAllMetrics().Timers["upstream_call_duration"]
	require.True(t, ok)
	assert.Equal(t, int64(2), timer.Count)
	assert.InDelta(t, 300.0, timer.Sum, 0.001)
	assert.InDelta(t, 150.0, timer.Average, 0.001)
	assert.InDelta(t, 100.0, timer.Min, 0.001)
	assert.InDelta(t, 200.0, timer.Max, 0.001)
	assert.Zero(t, timer.P95, "percentiles need at least ten samples")
}

func TestRegistry_Percentiles(t *testing.T) {
	registry := NewRegistry()

	// Recorded out of order on purpose.
	for _, ms := range []int{50, 10, 100, 30, 90, 20, 80, 40, 70, 60} {
		registry.RecordTimer("scan", time.Duration(ms)*time.Millisecond, nil, "scan")
	}

	timer := registry.GetAllMetrics().Timers["scan"]
	assert.Equal(t, int64(10), timer.Count)
	assert.InDelta(t, 100.0, timer.P95, 0.001)
	assert.InDelta(t, 100.0, timer.P99, 0.001)
	assert.GreaterOrEqual(t, timer.P99, timer.P95)
}

func TestRegistry_SetGauge(t *testing.T) {
	registry := NewRegistry()

	registry.SetGauge("pending_messages", 3, nil, "pending")
	registry.SetGauge("pending_messages", 0, nil, "pending")

	gauge, ok := registry.GetAllMetrics().Gauges["pending_messages"]
	require.True(t, ok)
	assert.Equal(t, 0.0, gauge.Value)
	assert.Equal(t, Gauge, gauge.Type)
}

func TestRegistry_MetricKeyIsDeterministic(t *testing.T) {
	registry := NewRegistry()
	labels := map[string]string{"type": "webhook", "status": "success", "a": "1"}

	assert.Equal(t, "m", registry.metricKey("m", nil))
	for i := 0; i < 20; i++ {
		assert.Equal(t, "m_a:1_status:success_type:webhook", registry.metricKey("m", labels))
	}
}

func TestRegistry_SnapshotIsDetached(t *testing.T) {
	registry := NewRegistry()
	registry.IncrementCounter("c", map[string]string{"k": "v"}, "")

	snap := registry.GetAllMetrics()
	registry.IncrementCounter("c", map[string]string{"k": "v"}, "")

	assert.Equal(t, 1.0, snap.Counters["c_k:v"].Value)
	assert.Equal(t, 2.0, registry.GetAllMetrics().Counters["c_k:v"].Value)
}

func TestRegistry_SnapshotEncodesAsJSON(t *testing.T) {
	registry := NewRegistry()
	registry.IncrementCounter("c", nil, "")
	registry.RecordTimer("t", time.Millisecond, nil, "")

	data, err := json.Marshal(registry.GetAllMetrics())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "counters")
	assert.Contains(t, decoded, "timers")
	assert.Contains(t, decoded, "gauges")
	assert.Contains(t, decoded, "uptime_ms")
	assert.Contains(t, decoded, "timestamp")
}

func TestRegistry_Reset(t *testing.T) {
	registry := NewRegistry()
	registry.IncrementCounter("c", nil, "")
	registry.SetGauge("g", 1, nil, "")

	registry.Reset()

	snap := registry.GetAllMetrics()
	assert.Empty(t, snap.Counters)
	assert.Empty(t, snap.Gauges)
	assert.Empty(t, snap.Timers)
}

func TestGlobalRegistry(t *testing.T) {
	IncrementCounter("global_test", nil, "Global test")
	AddToCounter("global_add", 5.0, nil, "Global add test")
	RecordTimer("global_timer", 50*time.Millisecond, nil, "Global timer test")
	SetGauge("global_gauge", 123.45, nil, "Global gauge test")

	snap := GetAllMetrics()
	assert.Contains(t, snap.Counters, "global_test")
	assert.Contains(t, snap.Counters, "global_add")
	assert.Contains(t, snap.Timers, "global_timer")
	assert.Contains(t, snap.Gauges, "global_gauge")
	assert.GreaterOrEqual(t, snap.UptimeMs, int64(0))
	assert.NotZero(t, snap.Timestamp)
	assert.Same(t, globalRegistry, GetRegistry())
}

func TestCopyLabels(t *testing.T) {
	original := map[string]string{"key1": "value1"}

	dup := copyLabels(original)
	assert.Equal(t, original, dup)

	dup["key2"] = "value2"
	assert.NotContains(t, original, "key2")
	assert.Nil(t, copyLabels(nil))
}
