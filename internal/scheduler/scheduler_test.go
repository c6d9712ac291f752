package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comedorlabs/suministro/internal/models"
)

type fakeTimer struct {
	deadline time.Time
	ch       chan time.Time
}

// fakeClock drives scheduler loops with simulated time.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := &fakeTimer{deadline: c.now.Add(d), ch: make(chan time.Time, 1)}
	c.timers = append(c.timers, timer)
	return timer.ch
}

// Advance moves the clock and fires every timer whose deadline passed.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var pending []*fakeTimer
	var fired []*fakeTimer
	for _, timer := range c.timers {
		if timer.deadline.After(c.now) {
			pending = append(pending, timer)
			continue
		}
		fired = append(fired, timer)
	}
	c.timers = pending
	now := c.now
	c.mu.Unlock()

	for _, timer := range fired {
		timer.ch <- now
	}
}

// waitTimers blocks until n timers are armed, so advancing the clock cannot
// race the loop goroutines.
func (c *fakeClock) waitTimers(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		armed := len(c.timers)
		c.mu.Unlock()
		if armed >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d armed timers", n)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never met")
}

func intervalConfig(d time.Duration) map[string]models.JobConfig {
	return map[string]models.JobConfig{
		"poll": {Enabled: true, Interval: d},
	}
}

func TestParseTriggerVariants(t *testing.T) {
	weekly, err := ParseTrigger(models.JobConfig{Enabled: true, Day: "Monday", Time: "06:30"})
	require.NoError(t, err)
	assert.Equal(t, "Mondays at 06:30", weekly.String())

	daily, err := ParseTrigger(models.JobConfig{Enabled: true, Time: "23:15"})
	require.NoError(t, err)
	assert.Equal(t, "daily at 23:15", daily.String())

	interval, err := ParseTrigger(models.JobConfig{Enabled: true, Interval: 30 * time.Minute})
	require.NoError(t, err)
	assert.Equal(t, "every 30m0s", interval.String())
}

func TestParseTriggerRejectsBadConfig(t *testing.T) {
	_, err := ParseTrigger(models.JobConfig{Enabled: true, Time: "25:00"})
	assert.Error(t, err)

	_, err = ParseTrigger(models.JobConfig{Enabled: true, Day: "Lunesday", Time: "06:00"})
	assert.Error(t, err)

	_, err = ParseTrigger(models.JobConfig{Enabled: true, Interval: 50 * time.Millisecond})
	assert.Error(t, err)
}

func TestTriggerNext(t *testing.T) {
	// a Monday, 05:00
	now := time.Date(2026, 8, 31, 5, 0, 0, 0, time.UTC)

	weekly, _ := ParseTrigger(models.JobConfig{Day: "Monday", Time: "06:30"})
	assert.Equal(t, time.Date(2026, 8, 31, 6, 30, 0, 0, time.UTC), weekly.Next(now))

	// same weekday but the time already passed: next week
	afterFiring := time.Date(2026, 8, 31, 7, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 7, 6, 30, 0, 0, time.UTC), weekly.Next(afterFiring))

	daily, _ := ParseTrigger(models.JobConfig{Time: "04:00"})
	assert.Equal(t, time.Date(2026, 9, 1, 4, 0, 0, 0, time.UTC), daily.Next(now))

	interval, _ := ParseTrigger(models.JobConfig{Interval: 15 * time.Minute})
	assert.Equal(t, now.Add(15*time.Minute), interval.Next(now))
}

func TestSchedulerFiresIntervalJob(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 8, 31, 5, 0, 0, 0, time.UTC))
	sched := New(clock)

	var mu sync.Mutex
	runs := 0
	sched.Register("poll", func(ctx context.Context) error {
		mu.Lock()
		runs++
		mu.Unlock()
		return nil
	})
	sched.Reload(intervalConfig(time.Minute))
	sched.Start(context.Background())
	defer sched.Stop()

	clock.waitTimers(t, 1)
	clock.Advance(time.Minute)
	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return runs == 1 })

	clock.waitTimers(t, 1)
	clock.Advance(time.Minute)
	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return runs == 2 })
}

func TestSchedulerSingleFlight(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 8, 31, 5, 0, 0, 0, time.UTC))
	sched := New(clock)

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	sched.Register("poll", func(ctx context.Context) error {
		started <- struct{}{}
		<-release
		return nil
	})
	sched.Reload(intervalConfig(time.Minute))
	sched.Start(context.Background())

	clock.waitTimers(t, 1)
	clock.Advance(time.Minute)
	<-started

	// the next firing arrives while the first run is still executing
	clock.waitTimers(t, 1)
	clock.Advance(time.Minute)
	waitFor(t, func() bool { return sched.Status()[0].Skipped == 1 })

	// the in-flight run completes normally
	close(release)
	waitFor(t, func() bool { return sched.Status()[0].Runs == 1 })
	sched.Stop()

	status := sched.Status()[0]
	assert.Equal(t, 1, status.Runs)
	assert.Equal(t, 1, status.Skipped)
	assert.Empty(t, status.LastError)
}

func TestSchedulerJobFailureIsIsolated(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 8, 31, 5, 0, 0, 0, time.UTC))
	sched := New(clock)

	var mu sync.Mutex
	otherRuns := 0
	sched.Register("failing", func(ctx context.Context) error {
		return errors.New("boom")
	})
	sched.Register("healthy", func(ctx context.Context) error {
		mu.Lock()
		otherRuns++
		mu.Unlock()
		return nil
	})
	sched.Reload(map[string]models.JobConfig{
		"failing": {Enabled: true, Interval: time.Minute},
		"healthy": {Enabled: true, Interval: time.Minute},
	})
	sched.Start(context.Background())
	defer sched.Stop()

	clock.waitTimers(t, 2)
	clock.Advance(time.Minute)
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return otherRuns == 1 && sched.Status()[0].Runs == 1
	})

	// the failing job keeps rescheduling
	clock.waitTimers(t, 2)
	clock.Advance(time.Minute)
	waitFor(t, func() bool { return sched.Status()[0].Runs == 2 })
	assert.Equal(t, "boom", sched.Status()[0].LastError)
}

func TestSchedulerRecoversFromPanic(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 8, 31, 5, 0, 0, 0, time.UTC))
	sched := New(clock)

	sched.Register("poll", func(ctx context.Context) error {
		panic("unexpected")
	})
	sched.Reload(intervalConfig(time.Minute))
	sched.Start(context.Background())
	defer sched.Stop()

	clock.waitTimers(t, 1)
	clock.Advance(time.Minute)
	waitFor(t, func() bool { return sched.Status()[0].Runs == 1 })
	assert.Contains(t, sched.Status()[0].LastError, "panicked")
}

func TestSchedulerBadConfigLeavesOthersRunning(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 8, 31, 5, 0, 0, 0, time.UTC))
	sched := New(clock)

	sched.Register("broken", func(ctx context.Context) error { return nil })
	sched.Register("poll", func(ctx context.Context) error { return nil })
	sched.Reload(map[string]models.JobConfig{
		"broken": {Enabled: true, Time: "not-a-time"},
		"poll":   {Enabled: true, Interval: time.Minute},
	})
	sched.Start(context.Background())
	defer sched.Stop()

	statuses := sched.Status()
	require.Len(t, statuses, 2)
	assert.False(t, statuses[0].Scheduled)
	assert.NotEmpty(t, statuses[0].ConfigError)
	assert.True(t, statuses[1].Scheduled)

	clock.waitTimers(t, 1)
	clock.Advance(time.Minute)
	waitFor(t, func() bool { return sched.Status()[1].Runs == 1 })
}

func TestSchedulerHotReloadReplacesTriggers(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 8, 31, 5, 0, 0, 0, time.UTC))
	sched := New(clock)

	var mu sync.Mutex
	runs := 0
	sched.Register("poll", func(ctx context.Context) error {
		mu.Lock()
		runs++
		mu.Unlock()
		return nil
	})
	sched.Reload(intervalConfig(time.Hour))
	sched.Start(context.Background())
	defer sched.Stop()

	clock.waitTimers(t, 1)

	// tighten the interval without restarting; the cancelled loop's timer
	// stays armed in the fake clock but never fires first
	sched.Reload(intervalConfig(time.Minute))
	clock.waitTimers(t, 2)
	clock.Advance(time.Minute)
	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return runs == 1 })

	// disabling removes the trigger entirely
	sched.Reload(map[string]models.JobConfig{"poll": {Enabled: false}})
	assert.False(t, sched.Status()[0].Scheduled)
}
