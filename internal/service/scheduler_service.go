package service

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerService runs the summary jobs on a cron clock. A job still running
// when its next tick comes is skipped, and a panicking job is logged.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	logger := cron.PrintfLogger(log.Default())
	return &SchedulerService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// ReportSchedule says when summaries go out: daily at Daily (HH:MM), and
// additionally every Every when it is positive.
type ReportSchedule struct {
	Daily string
	Every time.Duration
}

// ScheduleReports registers job for every time in sched.
func (s *SchedulerService) ScheduleReports(sched ReportSchedule, job func()) error {
	if sched.Daily != "" {
		if _, err := s.ScheduleDaily(sched.Daily, job); err != nil {
			return fmt.Errorf("daily report: %w", err)
		}
	}
	if sched.Every > 0 {
		if _, err := s.ScheduleInterval(sched.Every, job); err != nil {
			return fmt.Errorf("interval report: %w", err)
		}
	}
	return nil
}

// ScheduleDaily registers a daily job at the given HH:MM time string.
func (s *SchedulerService) ScheduleDaily(timeStr string, job func()) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, job)
}

// ScheduleInterval registers a job that runs every interval, rounded down to
// whole seconds.
func (s *SchedulerService) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := max(int(interval.Seconds()), 1)
	return s.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), job)
}

// Entries returns the number of registered jobs.
func (s *SchedulerService) Entries() int {
	return len(s.cron.Entries())
}

// Next returns when the earliest job fires next. It is zero before Start.
func (s *SchedulerService) Next() time.Time {
	var next time.Time
	for _, e := range s.cron.Entries() {
		if next.IsZero() || (!e.Next.IsZero() && e.Next.Before(next)) {
			next = e.Next
		}
	}
	return next
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	<-s.cron.Stop().Done()
}

// ParseClock validates an HH:MM time of day.
func ParseClock(timeStr string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(timeStr), ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", timeStr)
	}
	return hour, minute, nil
}

// buildDailySpec turns HH:MM into a six-field cron spec (seconds first).
func buildDailySpec(timeStr string) (string, error) {
	hour, minute, err := ParseClock(timeStr)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
