package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysPass(_ context.Context) error { return nil }

func alwaysFail(msg string) CheckFunc {
	return func(_ context.Context) error { return errors.New(msg) }
}

// tickN drives the i-th registered probe n times, as the background goroutine
// would on successive intervals.
func tickN(h *Health, i, n int) {
	for range n {
		h.probes[i].tick(context.Background())
	}
}

func getStatus(t *testing.T, endpoint http.HandlerFunc, path string) (int, statusBody) {
	t.Helper()
	w := httptest.NewRecorder()
	endpoint(w, httptest.NewRequest(http.MethodGet, path, nil))

	var body statusBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

func TestLiveEndpoint(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, alwaysPass)

	code, body := getStatus(t, h.LiveEndpoint, "/livez")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
}

func TestLiveEndpointFailureThreshold(t *testing.T) {
	h := New()
	h.AddLivenessCheck("postgres", time.Second, alwaysFail("connection refused"))

	// Below the threshold the probe stays healthy.
	tickN(h, 0, defaultFailureThreshold-1)
	code, _ := getStatus(t, h.LiveEndpoint, "/livez")
	assert.Equal(t, http.StatusOK, code)

	tickN(h, 0, 1)
	code, body := getStatus(t, h.LiveEndpoint, "/livez")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "connection refused", body.Checks["postgres"])
}

func TestProbeRecovers(t *testing.T) {
	down := true
	h := New()
	h.AddLivenessCheck("flaky", time.Second, func(_ context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	})

	tickN(h, 0, defaultFailureThreshold)
	assert.False(t, h.probes[0].healthy.Load())

	down = false
	tickN(h, 0, defaultSuccessThreshold)
	assert.True(t, h.probes[0].healthy.Load())
}

func TestReadyEndpointManualGate(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, alwaysPass)

	code, body := getStatus(t, h.ReadyEndpoint, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks, "_readiness")

	h.SetReady(true)
	code, body = getStatus(t, h.ReadyEndpoint, "/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)

	// Shutdown path: gate closes again.
	h.SetReady(false)
	code, _ = getStatus(t, h.ReadyEndpoint, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestReadyEndpointReportsOnlyFailing(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, alwaysPass)
	h.AddReadinessCheck("redis", time.Second, alwaysFail("no route to host"))
	h.SetReady(true)

	tickN(h, 1, defaultFailureThreshold)

	code, body := getStatus(t, h.ReadyEndpoint, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks, "redis")
	assert.NotContains(t, body.Checks, "postgres")
}

func TestIsReady(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, alwaysPass)

	assert.False(t, h.IsReady())
	h.SetReady(true)
	assert.True(t, h.IsReady())

	h.AddReadinessCheck("redis", time.Second, alwaysFail("down"))
	tickN(h, 1, defaultFailureThreshold)
	assert.False(t, h.IsReady())
}

func TestLivenessIgnoresReadinessProbes(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, alwaysFail("down"))
	tickN(h, 0, defaultFailureThreshold)

	code, _ := getStatus(t, h.LiveEndpoint, "/livez")
	assert.Equal(t, http.StatusOK, code)
}

func TestStopIsIdempotent(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, alwaysPass)

	h.Start(context.Background(), 50*time.Millisecond)
	h.Stop()
	h.Stop()
}

func TestConcurrentEndpointAccess(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, alwaysFail("err"))
	h.AddReadinessCheck("postgres", time.Second, alwaysPass)
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 10*time.Millisecond)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				h.IsReady()
				h.LiveEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", nil))
				h.ReadyEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))
			}
		}()
	}
	wg.Wait()
	h.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))

	err := GoroutineCountCheck(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds threshold")
}

func TestGCMaxPauseCheck(t *testing.T) {
	assert.NoError(t, GCMaxPauseCheck(time.Hour)(context.Background()))
}
