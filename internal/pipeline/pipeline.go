package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/hikecast-alerts/internal/domain"
	"github.com/couchcryptid/hikecast-alerts/internal/notify"
	"github.com/couchcryptid/hikecast-alerts/internal/observability"
)

// ErrUndelivered marks a unit whose message failed on every channel.
var ErrUndelivered = errors.New("message not delivered on any channel")

// WeatherFetcher resolves a location name to its current weather.
type WeatherFetcher interface {
	FetchWeather(ctx context.Context, location string) (domain.LocationWeather, error)
}

// UserLister returns the current subscribers.
type UserLister interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// Notifier composes and delivers user messages.
type Notifier interface {
	SendExtremeWeatherAlert(ctx context.Context, user domain.User, location string, geo domain.GeoLocation, alerts []domain.Alert) []notify.Delivery
	SendStatusUpdate(ctx context.Context, user domain.User, location string) []notify.Delivery
	SendForecast(ctx context.Context, user domain.User, lw domain.LocationWeather) []notify.Delivery
}

// AlertPublisher streams alert events to downstream consumers.
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, events []domain.AlertEvent) error
}

// Kind names a cycle type in logs, metrics, and summaries.
type Kind string

const (
	KindExtreme Kind = "extreme"
	KindRoutine Kind = "routine"
)

// Outcome is the result of one (user, location) unit.
type Outcome struct {
	User       string            `json:"user"`
	Location   string            `json:"location"`
	Alerts     int               `json:"alerts"`
	Deliveries []notify.Delivery `json:"-"`
	Err        error             `json:"-"`
}

// Status is "error", "alerts", or "ok".
func (o Outcome) Status() string {
	switch {
	case o.Err != nil:
		return "error"
	case o.Alerts > 0:
		return "alerts"
	default:
		return "ok"
	}
}

// Summary aggregates the outcomes of one cycle.
type Summary struct {
	RunID     string        `json:"run_id"`
	Kind      Kind          `json:"kind"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Outcomes  []Outcome     `json:"outcomes"`
}

// Failed counts units that ended in error.
func (s Summary) Failed() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// AlertCount totals the alerts raised across units.
func (s Summary) AlertCount() int {
	n := 0
	for _, o := range s.Outcomes {
		n += o.Alerts
	}
	return n
}

// Options tune a Pipeline.
type Options struct {
	// Concurrency bounds the number of units in flight per cycle.
	Concurrency int
	// StatusUpdates sends a "no alerts" message after clean checks.
	StatusUpdates bool
}

// Pipeline drives Gateway -> Analyzer -> Composer -> Dispatcher for each
// (user, location) unit. Unit failures are isolated: they are logged,
// counted, and reported in the Summary while siblings continue.
type Pipeline struct {
	weather   WeatherFetcher
	analyzer  *domain.Analyzer
	notifier  Notifier
	publisher AlertPublisher
	users     UserLister
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu      sync.Mutex
	lastRun map[Kind]Summary
}

// New creates a Pipeline. publisher may be nil.
func New(weather WeatherFetcher, analyzer *domain.Analyzer, notifier Notifier, publisher AlertPublisher, users UserLister, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Pipeline{
		weather:   weather,
		analyzer:  analyzer,
		notifier:  notifier,
		publisher: publisher,
		users:     users,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
		lastRun:   make(map[Kind]Summary),
	}
}

// CheckAll runs an extreme-weather check for every user with alerts
// enabled, bypassing the timers.
func (p *Pipeline) CheckAll(ctx context.Context) (Summary, error) {
	users, err := p.users.ListUsers(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list users: %w", err)
	}
	users = slices.DeleteFunc(users, func(u domain.User) bool { return !u.EnableExtremeWeatherAlerts })
	return p.CheckUsers(ctx, uuid.NewString(), users), nil
}

// NotifyAll sends the routine forecast to every user now.
func (p *Pipeline) NotifyAll(ctx context.Context) (Summary, error) {
	users, err := p.users.ListUsers(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list users: %w", err)
	}
	return p.NotifyUsers(ctx, uuid.NewString(), users), nil
}

// CheckUsers fetches, analyzes, and alerts on every location of users.
func (p *Pipeline) CheckUsers(ctx context.Context, runID string, users []domain.User) Summary {
	return p.run(ctx, KindExtreme, runID, users, p.checkUnit)
}

// NotifyUsers sends the routine forecast for every location of users.
func (p *Pipeline) NotifyUsers(ctx context.Context, runID string, users []domain.User) Summary {
	return p.run(ctx, KindRoutine, runID, users, p.notifyUnit)
}

// LastRun returns the most recent summary of kind.
func (p *Pipeline) LastRun(kind Kind) (Summary, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.lastRun[kind]
	return s, ok
}

type unitFunc func(ctx context.Context, logger *slog.Logger, runID string, user domain.User, location string) Outcome

func (p *Pipeline) run(ctx context.Context, kind Kind, runID string, users []domain.User, fn unitFunc) Summary {
	start := time.Now()
	logger := p.logger.With("run_id", runID, "kind", kind)

	type unit struct {
		user     domain.User
		location string
	}
	var units []unit
	for _, u := range users {
		for _, loc := range u.Locations {
			units = append(units, unit{user: u, location: loc})
		}
	}
	logger.Info("cycle started", "users", len(users), "units", len(units))

	outcomes := make([]Outcome, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for i, un := range units {
		g.Go(func() error {
			outcomes[i] = fn(gctx, logger.With("user", un.user.Name, "location", un.location), runID, un.user, un.location)
			return nil
		})
	}
	_ = g.Wait()

	summary := Summary{
		RunID:     runID,
		Kind:      kind,
		StartedAt: start.UTC(),
		Duration:  time.Since(start),
		Outcomes:  outcomes,
	}
	for _, o := range outcomes {
		p.metrics.ChecksRun.WithLabelValues(string(kind), o.Status()).Inc()
	}
	p.metrics.CheckDuration.WithLabelValues(string(kind)).Observe(summary.Duration.Seconds())

	p.mu.Lock()
	p.lastRun[kind] = summary
	p.mu.Unlock()

	logger.Info("cycle complete",
		"units", len(outcomes),
		"failed", summary.Failed(),
		"alerts", summary.AlertCount(),
		"duration", summary.Duration,
	)
	return summary
}

func (p *Pipeline) checkUnit(ctx context.Context, logger *slog.Logger, runID string, user domain.User, location string) Outcome {
	out := Outcome{User: user.Name, Location: location}

	lw, err := p.weather.FetchWeather(ctx, location)
	if err != nil {
		logger.Error("weather fetch failed", "error", err)
		out.Err = fmt.Errorf("fetch weather for %s: %w", location, err)
		return out
	}

	alerts := p.analyzer.Analyze(lw.Snapshot, lw.Geo.Name)
	out.Alerts = len(alerts)
	if len(alerts) == 0 {
		logger.Debug("no extreme weather")
		if p.opts.StatusUpdates {
			out.Deliveries = p.notifier.SendStatusUpdate(ctx, user, location)
		}
		return out
	}

	for _, a := range alerts {
		p.metrics.AlertsRaised.WithLabelValues(a.Severity.String()).Inc()
	}
	logger.Info("extreme weather detected", "alerts", len(alerts), "critical", domain.HasSeverity(alerts, domain.SeverityCritical))
	p.publish(ctx, logger, domain.NewAlertEvents(runID, user.Name, location, lw.Geo, alerts))

	out.Deliveries = p.notifier.SendExtremeWeatherAlert(ctx, user, location, lw.Geo, alerts)
	if len(out.Deliveries) > 0 && !notify.Delivered(out.Deliveries) {
		out.Err = ErrUndelivered
	}
	return out
}

func (p *Pipeline) notifyUnit(ctx context.Context, logger *slog.Logger, _ string, user domain.User, location string) Outcome {
	out := Outcome{User: user.Name, Location: location}

	lw, err := p.weather.FetchWeather(ctx, location)
	if err != nil {
		logger.Error("weather fetch failed", "error", err)
		out.Err = fmt.Errorf("fetch weather for %s: %w", location, err)
		return out
	}

	out.Deliveries = p.notifier.SendForecast(ctx, user, lw)
	if len(out.Deliveries) > 0 && !notify.Delivered(out.Deliveries) {
		out.Err = ErrUndelivered
	}
	return out
}

// publish is best-effort: a broker outage must not block user alerts.
func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, events []domain.AlertEvent) {
	if p.publisher == nil || len(events) == 0 {
		return
	}
	if err := p.publisher.PublishAlerts(ctx, events); err != nil {
		logger.Warn("publish alert events failed", "error", err, "events", len(events))
		p.metrics.PublishErrors.Inc()
		return
	}
	p.metrics.EventsPublished.Add(float64(len(events)))
}
