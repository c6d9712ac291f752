// Package scheduler fires a small fixed set of named jobs on time-based
// triggers, with single-flight per job and hot-reloadable configuration.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/comedorlabs/suministro/internal/models"
)

// Job is one unit of scheduled work. Returned errors are logged and counted;
// they never abort the scheduler or other jobs' future firings.
type Job func(ctx context.Context) error

// JobStatus is a point-in-time snapshot of one named job.
type JobStatus struct {
	Name        string        `json:"name"`
	Scheduled   bool          `json:"scheduled"`
	Schedule    string        `json:"schedule,omitempty"`
	ConfigError string        `json:"config_error,omitempty"`
	NextRun     time.Time     `json:"next_run,omitempty"`
	LastRun     time.Time     `json:"last_run,omitempty"`
	LastError   string        `json:"last_error,omitempty"`
	Runs        int           `json:"runs"`
	Skipped     int           `json:"skipped"`
}

type managedJob struct {
	name string
	job  Job

	trigger   Trigger
	scheduled bool
	configErr string
	cancel    context.CancelFunc

	running  bool
	nextRun  time.Time
	lastRun  time.Time
	lastErr  string
	runs     int
	skipped  int
}

// Scheduler owns one timer loop per scheduled job. Reload cancels the loops
// and recreates them from fresh configuration without restarting the
// process.
type Scheduler struct {
	clock Clock

	mu      sync.Mutex
	jobs    map[string]*managedJob
	order   []string
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup
}

func New(clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}
	return &Scheduler{clock: clock, jobs: make(map[string]*managedJob)}
}

// Register binds a name to its job func. Registration alone schedules
// nothing; Reload decides which jobs actually run.
func (s *Scheduler) Register(name string, job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; !exists {
		s.order = append(s.order, name)
	}
	s.jobs[name] = &managedJob{name: name, job: job}
}

// Start begins firing jobs per the most recent Reload. It returns
// immediately; Stop blocks until in-flight runs finish.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true
	for _, name := range s.order {
		s.launchLocked(s.jobs[name])
	}
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.started = false
	s.mu.Unlock()
	s.wg.Wait()
}

// Reload applies fresh job configuration: every loop is cancelled and
// recreated from the new triggers. A job with unparsable configuration is
// left unscheduled and reported through Status; the others continue.
func (s *Scheduler) Reload(cfgs map[string]models.JobConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range s.order {
		j := s.jobs[name]
		if j.cancel != nil {
			j.cancel()
			j.cancel = nil
		}
		j.scheduled = false
		j.configErr = ""

		cfg, ok := cfgs[name]
		if !ok || !cfg.Enabled {
			log.Printf("Job %s disabled", name)
			continue
		}
		trigger, err := ParseTrigger(cfg)
		if err != nil {
			j.configErr = err.Error()
			log.Printf("Job %s not scheduled: %v", name, err)
			continue
		}
		j.trigger = trigger
		j.scheduled = true
		log.Printf("Job %s scheduled %s", name, trigger)
		if s.started {
			s.launchLocked(j)
		}
	}
}

func (s *Scheduler) launchLocked(j *managedJob) {
	if !j.scheduled {
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	j.cancel = cancel
	trigger := j.trigger

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			now := s.clock.Now()
			next := trigger.Next(now)
			s.mu.Lock()
			j.nextRun = next
			s.mu.Unlock()
			select {
			case <-ctx.Done():
				return
			case <-s.clock.After(next.Sub(now)):
				s.fire(ctx, j)
			}
		}
	}()
}

// fire runs the job unless its previous run is still in progress, in which
// case this firing is skipped and logged. The run itself happens on the
// loop goroutine's schedule but never overlaps itself.
func (s *Scheduler) fire(ctx context.Context, j *managedJob) {
	s.mu.Lock()
	if j.running {
		j.skipped++
		s.mu.Unlock()
		log.Printf("Job %s still running, skipping this firing", j.name)
		return
	}
	j.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.invoke(ctx, j)

		s.mu.Lock()
		j.running = false
		j.runs++
		j.lastRun = s.clock.Now()
		j.lastErr = ""
		if err != nil {
			j.lastErr = err.Error()
		}
		s.mu.Unlock()

		if err != nil {
			log.Printf("Job %s failed: %v", j.name, err)
		} else {
			log.Printf("Job %s completed", j.name)
		}
	}()
}

// invoke wraps the job so a panic becomes a logged, structured failure
// instead of taking the scheduler down.
func (s *Scheduler) invoke(ctx context.Context, j *managedJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.name, r)
		}
	}()
	return j.job(ctx)
}

// Status snapshots every registered job in registration order.
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]JobStatus, 0, len(s.order))
	for _, name := range s.order {
		j := s.jobs[name]
		status := JobStatus{
			Name:        name,
			Scheduled:   j.scheduled,
			ConfigError: j.configErr,
			LastRun:     j.lastRun,
			LastError:   j.lastErr,
			Runs:        j.runs,
			Skipped:     j.skipped,
		}
		if j.scheduled {
			status.Schedule = j.trigger.String()
			status.NextRun = j.nextRun
		}
		statuses = append(statuses, status)
	}
	return statuses
}
