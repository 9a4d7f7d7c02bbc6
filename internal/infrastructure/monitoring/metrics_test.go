package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry())

	m.RecordRateLimit("allowed")
	m.RecordRateLimit("allowed")
	m.RecordRateLimit("denied")
	m.RecordUsageIncrement(false)
	m.RecordCacheAccess("local", true)
	m.RecordKeysCleared("usagelimit", 7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RateLimitDecisions.WithLabelValues("allowed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitDecisions.WithLabelValues("denied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UsageIncrements.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GalleryCache.WithLabelValues("local", "hit")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.KeysCleared.WithLabelValues("usagelimit")))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRateLimit("allowed")
		m.RecordStoreError("incr")
		m.RecordUsageCheck("error")
	})
}
