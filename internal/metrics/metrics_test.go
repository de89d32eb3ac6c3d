package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/reel/internal/log"
)

func TestRecordAcquisition(t *testing.T) {
	acquisitionsTotal.Reset()

	RecordAcquisition(OutcomeSuccess)
	RecordAcquisition(OutcomeSuccess)
	RecordAcquisition(OutcomeDiscarded)

	assert.Equal(t, 2.0, testutil.ToFloat64(acquisitionsTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(acquisitionsTotal.WithLabelValues(OutcomeDiscarded)))
}

func TestRecordCommand(t *testing.T) {
	commandsTotal.Reset()

	RecordCommand("play", OutcomeSuccess)
	RecordCommand("seek", OutcomeRejected)

	assert.Equal(t, 1.0, testutil.ToFloat64(commandsTotal.WithLabelValues("play", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(commandsTotal.WithLabelValues("seek", OutcomeRejected)))
	assert.Equal(t, 2, testutil.CollectAndCount(commandsTotal))
}

func TestLiveResourcesGauge(t *testing.T) {
	start := testutil.ToFloat64(liveResources)

	ResourceAcquired()
	ResourceAcquired()
	ResourceReleased()

	assert.Equal(t, start+1, testutil.ToFloat64(liveResources))
	ResourceReleased()
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordStaleEvent()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "reel_stale_events_total"))
}

func TestServeStopsWithContext(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, ln, log.NullLogger()) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "reel_live_resources")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
