// Package health runs dependency checks for the storefront client.
//
// Run executes every registered check once, concurrently, and returns a
// Report. Watch repeats the checks on an interval and applies failure and
// success thresholds so that a single slow answer does not flip the overall
// state: a check must fail failureThreshold times in a row before it counts
// as unhealthy, and pass successThreshold times before it recovers.
package health

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"
)

// CheckFunc returns nil if the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// Default thresholds used by Watch.
const (
	DefaultFailureThreshold = 3
	DefaultSuccessThreshold = 1
)

// check holds the configuration and threshold state for one check.
//
// The counters are only touched by run, which is never called concurrently
// for the same check. healthy and lastErr are read from any goroutine.
type check struct {
	name             string
	timeout          time.Duration
	fn               CheckFunc
	failureThreshold int
	successThreshold int

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	consecutiveFails int
	consecutiveOK    int
}

func (c *check) isHealthy() bool {
	return c.healthy.Load()
}

func (c *check) lastError() error {
	if p := c.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// run executes the check once, updates thresholds and returns the raw result.
func (c *check) run(ctx context.Context) Result {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := c.fn(checkCtx)
	c.lastErr.Store(&err)

	if err != nil {
		c.consecutiveOK = 0
		c.consecutiveFails++
		if c.consecutiveFails >= c.failureThreshold {
			c.healthy.Store(false)
		}
	} else {
		c.consecutiveFails = 0
		c.consecutiveOK++
		if c.consecutiveOK >= c.successThreshold {
			c.healthy.Store(true)
		}
	}
	return Result{Name: c.name, Err: err, Duration: time.Since(start)}
}

// Result is the outcome of one check execution.
type Result struct {
	Name     string
	Err      error
	Duration time.Duration
}

// OK reports whether the check passed.
func (r Result) OK() bool {
	return r.Err == nil
}

// Report is the outcome of a Run, in registration order.
type Report struct {
	Results []Result
}

// Healthy reports whether every check passed.
func (r Report) Healthy() bool {
	for _, res := range r.Results {
		if !res.OK() {
			return false
		}
	}
	return true
}

// Failures maps failing check names to their errors.
func (r Report) Failures() map[string]string {
	out := make(map[string]string)
	for _, res := range r.Results {
		if !res.OK() {
			out[res.Name] = res.Err.Error()
		}
	}
	return out
}

// Encode writes {"status":"ok"|"unhealthy","checks":{name:{ok,error,duration_ms}}}.
func (r Report) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("status")
	if r.Healthy() {
		e.Str("ok")
	} else {
		e.Str("unhealthy")
	}
	e.FieldStart("checks")
	e.ObjStart()
	for _, res := range r.Results {
		e.FieldStart(res.Name)
		e.ObjStart()
		e.FieldStart("ok")
		e.Bool(res.OK())
		if res.Err != nil {
			e.FieldStart("error")
			e.Str(res.Err.Error())
		}
		e.FieldStart("duration_ms")
		e.Int64(res.Duration.Milliseconds())
		e.ObjEnd()
	}
	e.ObjEnd()
	e.ObjEnd()
}

// Checker holds registered checks.
type Checker struct {
	mu     sync.RWMutex
	checks []*check
}

// New creates an empty Checker.
func New() *Checker {
	return &Checker{}
}

// Add registers a check with the default thresholds.
func (h *Checker) Add(name string, timeout time.Duration, fn CheckFunc) {
	h.AddWithThresholds(name, timeout, fn, DefaultFailureThreshold, DefaultSuccessThreshold)
}

// AddWithThresholds registers a check with explicit thresholds.
func (h *Checker) AddWithThresholds(name string, timeout time.Duration, fn CheckFunc, failures, successes int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &check{
		name:             name,
		timeout:          timeout,
		fn:               fn,
		failureThreshold: max(failures, 1),
		successThreshold: max(successes, 1),
	}
	c.healthy.Store(true) // assume healthy until proven otherwise
	h.checks = append(h.checks, c)
}

func (h *Checker) snapshot() []*check {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.checks)
}

// Run executes every check once, concurrently.
func (h *Checker) Run(ctx context.Context) Report {
	checks := h.snapshot()
	results := make([]Result, len(checks))

	var g errgroup.Group
	for i, c := range checks {
		g.Go(func() error {
			results[i] = c.run(ctx)
			return nil
		})
	}
	_ = g.Wait()

	return Report{Results: results}
}

// Healthy reports the threshold-smoothed state of all checks.
func (h *Checker) Healthy() bool {
	for _, c := range h.snapshot() {
		if !c.isHealthy() {
			return false
		}
	}
	return true
}

// Unhealthy maps checks past their failure threshold to their last error.
func (h *Checker) Unhealthy() map[string]string {
	out := make(map[string]string)
	for _, c := range h.snapshot() {
		if c.isHealthy() {
			continue
		}
		if err := c.lastError(); err != nil {
			out[c.name] = err.Error()
		} else {
			out[c.name] = "check is unhealthy"
		}
	}
	return out
}

// Watch runs the checks every interval until ctx is done, calling onChange
// whenever the smoothed overall state flips. The first round runs
// immediately and always reports.
func (h *Checker) Watch(ctx context.Context, interval time.Duration, onChange func(healthy bool, report Report)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	first := true
	prev := h.Healthy()
	for {
		report := h.Run(ctx)
		if cur := h.Healthy(); first || cur != prev {
			onChange(cur, report)
			prev = cur
		}
		first = false

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
