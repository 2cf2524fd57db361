package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 對帳結果
const (
	ResultChanged   = "changed"
	ResultUnchanged = "unchanged"
	ResultSkipped   = "skipped"
	ResultFailed    = "failed"
)

// GiftMetrics 贈品對帳相關指標，nil 時所有方法皆不動作
type GiftMetrics struct {
	GiftsAddedTotal     *prometheus.CounterVec
	GiftsRemovedTotal   *prometheus.CounterVec
	ReconciliationTotal *prometheus.CounterVec
	ReconcileDuration   prometheus.Histogram
}

func NewGiftMetrics(reg prometheus.Registerer) *GiftMetrics {
	factory := promauto.With(reg)
	return &GiftMetrics{
		GiftsAddedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gift_line_items_added_total",
				Help: "自動加入購物車的贈品明細數",
			},
			[]string{"rule_id"},
		),
		GiftsRemovedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gift_line_items_removed_total",
				Help: "對帳時移除的贈品明細數",
			},
			[]string{"rule_id", "reason"},
		),
		ReconciliationTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gift_reconciliations_total",
				Help: "贈品對帳次數",
			},
			[]string{"result"},
		),
		ReconcileDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gift_reconcile_duration_seconds",
				Help:    "贈品對帳耗時",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

func (m *GiftMetrics) GiftAdded(ruleID int64) {
	if m == nil {
		return
	}
	m.GiftsAddedTotal.WithLabelValues(strconv.FormatInt(ruleID, 10)).Inc()
}

func (m *GiftMetrics) GiftRemoved(ruleID int64, reason string) {
	if m == nil {
		return
	}
	m.GiftsRemovedTotal.WithLabelValues(strconv.FormatInt(ruleID, 10), reason).Inc()
}

// Reconciled elapsed 為 0 時不記錄耗時
func (m *GiftMetrics) Reconciled(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ReconciliationTotal.WithLabelValues(result).Inc()
	if elapsed > 0 {
		m.ReconcileDuration.Observe(elapsed.Seconds())
	}
}
