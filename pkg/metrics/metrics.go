package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// URLBuildTotal counts url_for calls by builder and outcome.
	URLBuildTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cdnurl_url_build_total",
		Help: "Total number of URL builds by builder and result",
	}, []string{"builder", "result"})

	// ModTimeLookupDuration tracks static file mtime lookups against the backing source.
	ModTimeLookupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cdnurl_modtime_lookup_duration_seconds",
		Help:    "Time taken to resolve a static file modification time",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"result"})

	// ModTimeCacheTotal counts cache hits and misses for mtime lookups.
	ModTimeCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cdnurl_modtime_cache_total",
		Help: "Static file mtime cache lookups by outcome",
	}, []string{"outcome"})
)

// RecordURLBuild increments the build counter.
func RecordURLBuild(builder string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	URLBuildTotal.WithLabelValues(builder, result).Inc()
}

// ObserveModTimeLookup records a source lookup.
func ObserveModTimeLookup(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ModTimeLookupDuration.WithLabelValues(result).Observe(d.Seconds())
}

// RecordCacheOutcome records a cache hit or miss.
func RecordCacheOutcome(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	ModTimeCacheTotal.WithLabelValues(outcome).Inc()
}
