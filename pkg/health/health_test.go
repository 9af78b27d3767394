package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passingCheck() CheckFunc {
	return func(_ context.Context) error {
		return nil
	}
}

func failingCheck(msg string) CheckFunc {
	return func(_ context.Context) error {
		return errors.New(msg)
	}
}

func TestRun_AllPassing(t *testing.T) {
	h := New()
	h.Add("storage", time.Second, passingCheck())
	h.Add("api", time.Second, passingCheck())

	report := h.Run(context.Background())
	require.Len(t, report.Results, 2)
	assert.True(t, report.Healthy())
	assert.Empty(t, report.Failures())
	assert.Equal(t, "storage", report.Results[0].Name)
	assert.Equal(t, "api", report.Results[1].Name)
}

func TestRun_Failing(t *testing.T) {
	h := New()
	h.Add("storage", time.Second, passingCheck())
	h.Add("api", time.Second, failingCheck("connection refused"))

	report := h.Run(context.Background())
	assert.False(t, report.Healthy())
	assert.Equal(t, map[string]string{"api": "connection refused"}, report.Failures())
}

func TestRun_Concurrent(t *testing.T) {
	h := New()
	var started sync.WaitGroup
	started.Add(2)
	release := make(chan struct{})
	block := func(context.Context) error {
		started.Done()
		<-release
		return nil
	}
	h.Add("a", time.Second, block)
	h.Add("b", time.Second, block)

	done := make(chan Report)
	go func() { done <- h.Run(context.Background()) }()

	// Both checks must be in flight at once.
	started.Wait()
	close(release)
	assert.True(t, (<-done).Healthy())
}

func TestRun_Timeout(t *testing.T) {
	h := New()
	h.Add("slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	report := h.Run(context.Background())
	require.ErrorIs(t, report.Results[0].Err, context.DeadlineExceeded)
}

func TestThresholds(t *testing.T) {
	failing := true
	h := New()
	h.Add("flaky", time.Second, func(_ context.Context) error {
		if failing {
			return errors.New("down")
		}
		return nil
	})
	ctx := context.Background()

	// Two failures stay below the threshold of 3.
	h.Run(ctx)
	h.Run(ctx)
	assert.True(t, h.Healthy())

	h.Run(ctx)
	assert.False(t, h.Healthy())
	assert.Equal(t, map[string]string{"flaky": "down"}, h.Unhealthy())

	failing = false
	h.Run(ctx)
	assert.True(t, h.Healthy(), "one success recovers")
	assert.Empty(t, h.Unhealthy())
}

func TestCheckLastErrorStored(t *testing.T) {
	h := New()
	h.AddWithThresholds("db", time.Second, failingCheck("timeout"), 1, 1)
	c := h.checks[0]

	assert.Nil(t, c.lastError())
	c.run(context.Background())
	assert.EqualError(t, c.lastError(), "timeout")
	assert.False(t, c.isHealthy())
}

func TestReport_Encode(t *testing.T) {
	report := Report{Results: []Result{
		{Name: "storage", Duration: 3 * time.Millisecond},
		{Name: "api", Err: errors.New("refused"), Duration: time.Second},
	}}
	e := &jx.Encoder{}
	report.Encode(e)

	assert.JSONEq(t, `{
		"status": "unhealthy",
		"checks": {
			"storage": {"ok": true, "duration_ms": 3},
			"api": {"ok": false, "error": "refused", "duration_ms": 1000}
		}
	}`, string(e.Bytes()))
}

func TestWatch(t *testing.T) {
	var calls atomic.Int32
	h := New()
	h.AddWithThresholds("api", time.Second, func(context.Context) error {
		if calls.Add(1) >= 3 {
			return errors.New("down")
		}
		return nil
	}, 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan bool, 4)
	errs := make(chan error, 1)
	go func() {
		errs <- h.Watch(ctx, 5*time.Millisecond, func(healthy bool, _ Report) {
			changes <- healthy
		})
	}()

	assert.True(t, <-changes, "first round reports")
	assert.False(t, <-changes, "flip to unhealthy reports")
	cancel()
	require.ErrorIs(t, <-errs, context.Canceled)
}

func TestHTTPCheck(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusNotFound)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	check := HTTPCheck(srv.Client(), srv.URL)
	require.NoError(t, check(context.Background()), "4xx means the server is up")

	status.Store(http.StatusBadGateway)
	require.ErrorContains(t, check(context.Background()), "502")

	srv.Close()
	require.Error(t, check(context.Background()))
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestPingCheck(t *testing.T) {
	require.NoError(t, PingCheck(pinger{})(context.Background()))
	require.Error(t, PingCheck(pinger{err: errors.New("closed")})(context.Background()))
}
