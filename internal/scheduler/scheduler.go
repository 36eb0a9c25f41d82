// Package scheduler keeps one recurring timer per distinct cron expression
// across the user base and rebuilds the set on demand.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/couchcryptid/hikecast-alerts/internal/domain"
	"github.com/couchcryptid/hikecast-alerts/internal/observability"
)

// UserLister returns the current subscribers.
type UserLister interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// Job runs one firing for the members of a group.
type Job func(ctx context.Context, runID string, users []domain.User)

// Plan describes one family of timers: which users take part, how each
// user's cron expression is derived, and what runs when a group fires.
type Plan struct {
	Kind    string
	Include func(domain.User) bool
	Spec    func(domain.User) string
	Job     Job
	// Timeout bounds a single firing.
	Timeout time.Duration
	// Location is the zone for expressions without a CRON_TZ prefix.
	Location *time.Location
}

// Scheduler owns a cron engine with one entry per distinct expression
// among the included users. Reschedule replaces the engine wholesale.
type Scheduler struct {
	plan    Plan
	users   UserLister
	metrics *observability.Metrics
	logger  *slog.Logger

	// base outlives individual firings and is cancelled by Stop.
	base   context.Context
	cancel context.CancelFunc

	// reload serializes Reschedule from the user read through the engine
	// swap, so the last reschedule to finish installs the freshest read.
	reload sync.Mutex

	mu      sync.Mutex
	engine  *cron.Cron
	groups  map[string][]string
	stopped bool
}

// New creates an idle Scheduler. Call Reschedule to install timers.
func New(plan Plan, users UserLister, metrics *observability.Metrics, logger *slog.Logger) *Scheduler {
	if plan.Include == nil {
		plan.Include = func(domain.User) bool { return true }
	}
	if plan.Location == nil {
		plan.Location = time.UTC
	}
	base, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		plan:    plan,
		users:   users,
		metrics: metrics,
		logger:  logger.With("scheduler", plan.Kind),
		base:    base,
		cancel:  cancel,
		groups:  map[string][]string{},
	}
}

// Reschedule reloads users and rebuilds the timer set. On a load failure
// the current timers stay in place. Invalid expressions are logged and
// skipped without affecting other groups. Running jobs are not interrupted.
// Concurrent calls run one at a time.
func (s *Scheduler) Reschedule(ctx context.Context) error {
	s.reload.Lock()
	defer s.reload.Unlock()

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("reschedule %s: list users: %w", s.plan.Kind, err)
	}
	groups := s.group(users)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return fmt.Errorf("reschedule %s: scheduler stopped", s.plan.Kind)
	}

	if s.engine != nil {
		// Stop prevents further firings; in-flight jobs finish on their own.
		s.engine.Stop()
	}

	engine := cron.New(
		cron.WithParser(domain.CronParser),
		cron.WithLocation(s.plan.Location),
		cron.WithLogger(cronLogger{s.logger}),
		cron.WithChain(cron.Recover(cronLogger{s.logger}), cron.SkipIfStillRunning(cronLogger{s.logger})),
	)
	installed := make(map[string][]string, len(groups))
	for _, spec := range slices.Sorted(maps.Keys(groups)) {
		members := groups[spec]
		if _, err := domain.ParseSchedule(spec); err != nil {
			s.logger.Warn("skipping group with invalid schedule", "spec", spec, "users", members, "error", err)
			continue
		}
		if _, err := engine.AddFunc(spec, func() { s.fire(spec) }); err != nil {
			s.logger.Warn("skipping group", "spec", spec, "users", members, "error", err)
			continue
		}
		installed[spec] = members
	}
	engine.Start()

	s.engine = engine
	s.groups = installed
	s.metrics.ScheduledGroups.WithLabelValues(s.plan.Kind).Set(float64(len(installed)))
	s.logger.Info("timers rescheduled", "groups", len(installed), "users", len(users))
	return nil
}

// ActiveTimers returns the number of installed cron entries.
func (s *Scheduler) ActiveTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return 0
	}
	return len(s.engine.Entries())
}

// Groups returns a copy of the installed expression -> user names mapping.
func (s *Scheduler) Groups() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]string, len(s.groups))
	for spec, names := range s.groups {
		out[spec] = slices.Clone(names)
	}
	return out
}

// Stop halts all timers and waits for running jobs until ctx expires, then
// cancels whatever is still running.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	s.stopped = true
	engine := s.engine
	s.engine = nil
	s.groups = map[string][]string{}
	s.mu.Unlock()

	defer s.cancel()
	if engine == nil {
		return
	}
	select {
	case <-engine.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("stop deadline reached with jobs running")
	}
}

// group buckets included users by their expression.
func (s *Scheduler) group(users []domain.User) map[string][]string {
	groups := make(map[string][]string)
	for _, u := range users {
		if !s.plan.Include(u) {
			continue
		}
		spec := s.plan.Spec(u)
		groups[spec] = append(groups[spec], u.Name)
	}
	return groups
}

// fire re-reads users so membership reflects the latest data, then runs
// the job for the group's current members.
func (s *Scheduler) fire(spec string) {
	runID := uuid.NewString()
	logger := s.logger.With("spec", spec, "run_id", runID)

	ctx := s.base
	if s.plan.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.plan.Timeout)
		defer cancel()
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		logger.Error("timer fired but users could not be loaded", "error", err)
		return
	}
	members := slices.DeleteFunc(users, func(u domain.User) bool {
		return !s.plan.Include(u) || s.plan.Spec(u) != spec
	})
	if len(members) == 0 {
		logger.Debug("timer fired with no members")
		return
	}

	logger.Info("timer fired", "users", len(members))
	s.plan.Job(ctx, runID, members)
}

// cronLogger routes cron's logging through slog. Cron's info messages are
// per-tick chatter, so they go to debug.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
