package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordURLBuild(t *testing.T) {
	URLBuildTotal.Reset()

	RecordURLBuild("cdn", nil)
	RecordURLBuild("cdn", nil)
	RecordURLBuild("origin", errors.New("boom"))

	require.Equal(t, float64(2), testutil.ToFloat64(URLBuildTotal.WithLabelValues("cdn", "ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(URLBuildTotal.WithLabelValues("origin", "error")))
	require.Equal(t, 2, testutil.CollectAndCount(URLBuildTotal))
}

func TestObserveModTimeLookup(t *testing.T) {
	ModTimeLookupDuration.Reset()

	ObserveModTimeLookup(2*time.Millisecond, nil)
	ObserveModTimeLookup(time.Millisecond, errors.New("stat failed"))

	require.Equal(t, 2, testutil.CollectAndCount(ModTimeLookupDuration))
}

func TestRecordCacheOutcome(t *testing.T) {
	ModTimeCacheTotal.Reset()

	RecordCacheOutcome(true)
	RecordCacheOutcome(false)
	RecordCacheOutcome(false)

	require.Equal(t, float64(1), testutil.ToFloat64(ModTimeCacheTotal.WithLabelValues("hit")))
	require.Equal(t, float64(2), testutil.ToFloat64(ModTimeCacheTotal.WithLabelValues("miss")))
}
