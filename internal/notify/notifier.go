package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/couchcryptid/hikecast-alerts/internal/domain"
	"github.com/couchcryptid/hikecast-alerts/internal/observability"
)

// ErrChannelUnavailable is recorded when a user's channel has no configured transport.
var ErrChannelUnavailable = errors.New("channel not configured")

// ErrSenderPanic is recorded when a transport panics during a send.
var ErrSenderPanic = errors.New("sender panicked")

// Sender delivers a message to one handle on one channel.
type Sender interface {
	Send(ctx context.Context, handle string, msg domain.Message) error
}

// Enricher produces optional AI narrative. An empty result with a nil error
// counts as no enrichment.
type Enricher interface {
	AnalyzeExtremeWeather(ctx context.Context, alerts []domain.Alert, location string) (string, error)
	AnalyzeForecastDay(ctx context.Context, day domain.ForecastDay, location string) (string, error)
}

// Delivery is the outcome of one channel send.
type Delivery struct {
	Channel domain.Channel
	Handle  string
	Err     error
}

// OK reports whether the send succeeded.
func (d Delivery) OK() bool { return d.Err == nil }

// Delivered reports whether at least one delivery succeeded.
func Delivered(ds []Delivery) bool {
	return slices.ContainsFunc(ds, Delivery.OK)
}

// forcedChannels are added to any message carrying a CRITICAL alert.
var forcedChannels = []domain.Channel{domain.ChannelTelegram, domain.ChannelEmail}

// Notifier composes alert, status, and forecast messages and fans them out
// to the user's channels. Channel failures are isolated: each is logged,
// counted, and returned as a Delivery, never as an error.
type Notifier struct {
	senders  map[domain.Channel]Sender
	enricher Enricher
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates a Notifier. Channels missing from senders are reported as
// ErrChannelUnavailable deliveries. enricher may be nil.
func New(senders map[domain.Channel]Sender, enricher Enricher, metrics *observability.Metrics, logger *slog.Logger) *Notifier {
	return &Notifier{
		senders:  senders,
		enricher: enricher,
		metrics:  metrics,
		logger:   logger,
	}
}

// SendExtremeWeatherAlert sends one message summarizing alerts for a
// location. It is a no-op when alerts is empty. Any CRITICAL alert widens
// delivery to telegram and email on top of the user's own channels.
func (n *Notifier) SendExtremeWeatherAlert(ctx context.Context, user domain.User, location string, geo domain.GeoLocation, alerts []domain.Alert) []Delivery {
	if len(alerts) == 0 {
		return nil
	}
	sorted := domain.SortBySeverity(alerts)

	var assessment string
	if user.EnableAIAnalysis {
		assessment = n.enrich(ctx, "extreme", location, func(ctx context.Context, e Enricher) (string, error) {
			return e.AnalyzeExtremeWeather(ctx, sorted, location)
		})
	}

	msg := composeAlert(user, geo, sorted, assessment, domain.Now())
	return n.deliver(ctx, user, alertChannels(user, sorted), msg)
}

// SendStatusUpdate confirms to the user that a check ran and found nothing.
func (n *Notifier) SendStatusUpdate(ctx context.Context, user domain.User, location string) []Delivery {
	msg := composeStatus(user, location, domain.Now())
	return n.deliver(ctx, user, user.Channels, msg)
}

// SendForecast sends the routine forecast for the user's selected days. It
// returns nil when none of the requested days are in the forecast.
func (n *Notifier) SendForecast(ctx context.Context, user domain.User, lw domain.LocationWeather) []Delivery {
	days := domain.SelectForecastDays(lw.Snapshot.Daily, user)
	if len(days) == 0 {
		n.logger.Warn("no matching forecast days", "user", user.Name, "location", lw.Geo.Name, "requested", user.ForecastDays)
		return nil
	}

	label := lw.Geo.Label()
	sections := make([]string, len(days))
	for i, day := range days {
		var assessment string
		if user.EnableAIAnalysis {
			assessment = n.enrich(ctx, "forecast", label, func(ctx context.Context, e Enricher) (string, error) {
				return e.AnalyzeForecastDay(ctx, day, label)
			})
		}
		sections[i] = composeForecastDay(user, day, assessment)
	}

	msg := composeForecast(lw.Geo, days, sections)
	return n.deliver(ctx, user, user.Channels, msg)
}

// enrich runs one best-effort enrichment call. Errors and empty results
// yield "", which the composers replace with fallback text.
func (n *Notifier) enrich(ctx context.Context, kind, location string, call func(context.Context, Enricher) (string, error)) string {
	if n.enricher == nil {
		n.metrics.Enrichments.WithLabelValues("fallback").Inc()
		return ""
	}
	text, err := call(ctx, n.enricher)
	if err != nil {
		n.logger.Warn("enrichment failed", "kind", kind, "location", location, "error", err)
		n.metrics.Enrichments.WithLabelValues("fallback").Inc()
		return ""
	}
	text = strings.TrimSpace(text)
	if text == "" {
		n.metrics.Enrichments.WithLabelValues("fallback").Inc()
		return ""
	}
	n.metrics.Enrichments.WithLabelValues("success").Inc()
	return text
}

// alertChannels returns the user's channels, widened with the forced
// channels when a CRITICAL alert is present, in delivery order.
func alertChannels(user domain.User, alerts []domain.Alert) []domain.Channel {
	if !domain.HasSeverity(alerts, domain.SeverityCritical) {
		return user.Channels
	}
	var out []domain.Channel
	for _, c := range domain.Channels {
		if slices.Contains(forcedChannels, c) || user.HasChannel(c) {
			out = append(out, c)
		}
	}
	return out
}

// deliver sends msg on every channel with a handle, concurrently. Results
// follow the order of channels.
func (n *Notifier) deliver(ctx context.Context, user domain.User, channels []domain.Channel, msg domain.Message) []Delivery {
	type job struct {
		channel domain.Channel
		handle  string
	}
	var jobs []job
	for _, c := range channels {
		handle := user.Handle(c)
		if handle == "" {
			n.logger.Debug("skipping channel without handle", "user", user.Name, "channel", c)
			continue
		}
		jobs = append(jobs, job{channel: c, handle: handle})
	}

	results := make([]Delivery, len(jobs))
	var wg sync.WaitGroup
	for i, j := range jobs {
		wg.Go(func() {
			results[i] = Delivery{Channel: j.channel, Handle: j.handle, Err: n.send(ctx, j.channel, j.handle, msg)}
		})
	}
	wg.Wait()

	for _, d := range results {
		if d.Err != nil {
			n.logger.Error("delivery failed", "user", user.Name, "channel", d.Channel, "error", d.Err)
			n.metrics.Deliveries.WithLabelValues(string(d.Channel), "error").Inc()
			continue
		}
		n.logger.Info("delivered", "user", user.Name, "channel", d.Channel, "subject", msg.Subject)
		n.metrics.Deliveries.WithLabelValues(string(d.Channel), "success").Inc()
	}
	return results
}

// send runs one transport. A panicking transport is reported as a failed
// delivery on its channel.
func (n *Notifier) send(ctx context.Context, c domain.Channel, handle string, msg domain.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s sender panicked: %v", ErrSenderPanic, c, r)
		}
	}()
	sender, ok := n.senders[c]
	if !ok || sender == nil {
		return ErrChannelUnavailable
	}
	return sender.Send(ctx, handle, msg)
}
