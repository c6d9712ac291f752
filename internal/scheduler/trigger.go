package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/comedorlabs/suministro/internal/models"
)

type triggerKind int

const (
	triggerWeekly triggerKind = iota
	triggerDaily
	triggerInterval
)

// Trigger decides when a job fires next: a weekday plus time of day for
// weekly jobs, a time of day for daily jobs, or a fixed interval for polls.
type Trigger struct {
	kind     triggerKind
	weekday  time.Weekday
	hour     int
	minute   int
	interval time.Duration
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseTrigger builds a trigger from one job's configuration. An error here
// is a configuration fault: the job is left unscheduled while the rest of
// the scheduler keeps running.
func ParseTrigger(cfg models.JobConfig) (Trigger, error) {
	if cfg.Interval > 0 {
		if cfg.Interval < time.Second {
			return Trigger{}, fmt.Errorf("interval %s is below one second", cfg.Interval)
		}
		return Trigger{kind: triggerInterval, interval: cfg.Interval}, nil
	}

	hour, minute, err := parseTimeOfDay(cfg.Time)
	if err != nil {
		return Trigger{}, err
	}

	if cfg.Day == "" {
		return Trigger{kind: triggerDaily, hour: hour, minute: minute}, nil
	}

	weekday, ok := weekdays[strings.ToLower(cfg.Day)]
	if !ok {
		return Trigger{}, fmt.Errorf("unknown weekday %q", cfg.Day)
	}
	return Trigger{kind: triggerWeekly, weekday: weekday, hour: hour, minute: minute}, nil
}

// Next returns the first firing instant strictly after now.
func (t Trigger) Next(now time.Time) time.Time {
	switch t.kind {
	case triggerInterval:
		return now.Add(t.interval)
	case triggerDaily:
		next := time.Date(now.Year(), now.Month(), now.Day(), t.hour, t.minute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	default:
		next := time.Date(now.Year(), now.Month(), now.Day(), t.hour, t.minute, 0, 0, now.Location())
		days := (int(t.weekday) - int(now.Weekday()) + 7) % 7
		next = next.AddDate(0, 0, days)
		if !next.After(now) {
			next = next.AddDate(0, 0, 7)
		}
		return next
	}
}

func (t Trigger) String() string {
	switch t.kind {
	case triggerInterval:
		return fmt.Sprintf("every %s", t.interval)
	case triggerDaily:
		return fmt.Sprintf("daily at %02d:%02d", t.hour, t.minute)
	default:
		return fmt.Sprintf("%ss at %02d:%02d", t.weekday, t.hour, t.minute)
	}
}

func parseTimeOfDay(value string) (int, int, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q: %w", value, err)
	}
	return parsed.Hour(), parsed.Minute(), nil
}
