package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGiftMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewGiftMetrics(reg)

	m.GiftAdded(1)
	m.GiftAdded(1)
	m.GiftRemoved(1, "duplicate")
	m.Reconciled(ResultChanged, 250*time.Millisecond)
	m.Reconciled(ResultSkipped, 0)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.GiftsAddedTotal.WithLabelValues("1")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.GiftsRemovedTotal.WithLabelValues("1", "duplicate")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ReconciliationTotal.WithLabelValues(ResultChanged)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ReconciliationTotal.WithLabelValues(ResultSkipped)))

	count, err := testutil.GatherAndCount(reg, "gift_reconcile_duration_seconds")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	var pb dto.Metric
	require.NoError(t, m.ReconcileDuration.Write(&pb))
	assert.Equal(t, uint64(1), pb.GetHistogram().GetSampleCount())
	assert.InDelta(t, 0.25, pb.GetHistogram().GetSampleSum(), 1e-9)
}

func TestNilGiftMetrics(t *testing.T) {
	var m *GiftMetrics
	assert.NotPanics(t, func() {
		m.GiftAdded(1)
		m.GiftRemoved(1, "duplicate")
		m.Reconciled(ResultFailed, time.Second)
	})
}
