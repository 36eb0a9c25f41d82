package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/hikecast-alerts/internal/domain"
	"github.com/couchcryptid/hikecast-alerts/internal/pipeline"
)

// maxBodyBytes caps user payloads.
const maxBodyBytes = 1 << 20

// UserStore is the subscriber repository behind the users API.
type UserStore interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, name string) (domain.User, error)
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	UpdateUser(ctx context.Context, name string, u domain.User) (domain.User, error)
	DeleteUser(ctx context.Context, name string) error
}

// Rescheduler rebuilds one family of timers.
type Rescheduler interface {
	Reschedule(ctx context.Context) error
	ActiveTimers() int
}

// Runner triggers check and notification cycles outside the timers.
type Runner interface {
	CheckAll(ctx context.Context) (pipeline.Summary, error)
	NotifyAll(ctx context.Context) (pipeline.Summary, error)
	LastRun(kind pipeline.Kind) (pipeline.Summary, bool)
}

// API serves the /api routes.
type API struct {
	store      UserStore
	runner     Runner
	schedulers map[string]Rescheduler
	features   map[string]bool
	runTimeout time.Duration
	logger     *slog.Logger
}

// NewAPI wires the management API. schedulers is keyed by kind ("extreme",
// "routine"); every user mutation reschedules all of them. features reports
// which optional integrations are configured. runTimeout bounds manual
// check and notify cycles.
func NewAPI(store UserStore, runner Runner, schedulers map[string]Rescheduler, features map[string]bool, runTimeout time.Duration, logger *slog.Logger) *API {
	return &API{
		store:      store,
		runner:     runner,
		schedulers: schedulers,
		features:   features,
		runTimeout: runTimeout,
		logger:     logger,
	}
}

func (a *API) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/users", a.handleListUsers)
	mux.HandleFunc("POST /api/users", a.handleCreateUser)
	mux.HandleFunc("GET /api/users/{name}", a.handleGetUser)
	mux.HandleFunc("PUT /api/users/{name}", a.handleUpdateUser)
	mux.HandleFunc("DELETE /api/users/{name}", a.handleDeleteUser)

	mux.HandleFunc("GET /api/status", a.handleStatus)
	mux.HandleFunc("POST /api/reschedule", a.handleReschedule)
	mux.HandleFunc("POST /api/check-now", a.handleRun(pipeline.KindExtreme))
	mux.HandleFunc("POST /api/notify-all", a.handleRun(pipeline.KindRoutine))
}

// --- users ---

// userRequest lets clients omit the feature flags, which then default to on.
type userRequest struct {
	domain.User
	EnableAIAnalysis           *bool `json:"enable_ai_analysis"`
	EnableExtremeWeatherAlerts *bool `json:"enable_extreme_weather_alerts"`
}

func (r userRequest) toUser() domain.User {
	u := r.User
	u.EnableAIAnalysis = r.EnableAIAnalysis == nil || *r.EnableAIAnalysis
	u.EnableExtremeWeatherAlerts = r.EnableExtremeWeatherAlerts == nil || *r.EnableExtremeWeatherAlerts
	u.CreatedAt, u.UpdatedAt = time.Time{}, time.Time{}
	return u
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.store.ListUsers(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, users)
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := a.store.GetUser(r.Context(), r.PathValue("name"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, u)
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	u, ok := a.decodeUser(w, r, "")
	if !ok {
		return
	}
	created, err := a.store.CreateUser(r.Context(), u)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.logger.Info("user created", "user", created.Name, "locations", len(created.Locations))
	a.rescheduleAll(r.Context())
	sharedobs.WriteJSON(w, http.StatusCreated, created)
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	u, ok := a.decodeUser(w, r, name)
	if !ok {
		return
	}
	updated, err := a.store.UpdateUser(r.Context(), name, u)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.logger.Info("user updated", "user", updated.Name)
	a.rescheduleAll(r.Context())
	sharedobs.WriteJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := a.store.DeleteUser(r.Context(), name); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.logger.Info("user deleted", "user", name)
	a.rescheduleAll(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// decodeUser reads and validates a user body. defaultName fills an empty
// name on updates.
func (a *API) decodeUser(w http.ResponseWriter, r *http.Request, defaultName string) (domain.User, bool) {
	var req userRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return domain.User{}, false
	}
	u := req.toUser()
	if u.Name == "" {
		u.Name = defaultName
	}
	if err := u.Validate(); err != nil {
		a.writeError(w, r, err)
		return domain.User{}, false
	}
	return u, true
}

// rescheduleAll rebuilds every timer family. Failures are logged: the user
// change is already committed and the next reschedule will pick it up.
func (a *API) rescheduleAll(ctx context.Context) {
	for kind, s := range a.schedulers {
		if err := s.Reschedule(ctx); err != nil {
			a.logger.Error("reschedule failed", "kind", kind, "error", err)
		}
	}
}

// --- system ---

type statusResponse struct {
	Users        userStats              `json:"users"`
	ActiveTimers map[string]int         `json:"active_timers"`
	Features     map[string]bool        `json:"features"`
	LastRuns     map[string]runResponse `json:"last_runs"`
	Timestamp    time.Time              `json:"timestamp"`
}

type userStats struct {
	Total         int                    `json:"total"`
	ByChannel     map[domain.Channel]int `json:"by_channel"`
	AIEnabled     int                    `json:"ai_enabled"`
	AlertsEnabled int                    `json:"alerts_enabled"`
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	users, err := a.store.ListUsers(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	stats := userStats{Total: len(users), ByChannel: map[domain.Channel]int{}}
	for _, c := range domain.Channels {
		stats.ByChannel[c] = 0
	}
	for _, u := range users {
		for _, c := range domain.Channels {
			if u.Handle(c) != "" {
				stats.ByChannel[c]++
			}
		}
		if u.EnableAIAnalysis {
			stats.AIEnabled++
		}
		if u.EnableExtremeWeatherAlerts {
			stats.AlertsEnabled++
		}
	}

	resp := statusResponse{
		Users:        stats,
		ActiveTimers: make(map[string]int, len(a.schedulers)),
		Features:     a.features,
		LastRuns:     map[string]runResponse{},
		Timestamp:    time.Now().UTC(),
	}
	for kind, s := range a.schedulers {
		resp.ActiveTimers[kind] = s.ActiveTimers()
	}
	for _, kind := range []pipeline.Kind{pipeline.KindExtreme, pipeline.KindRoutine} {
		if last, ok := a.runner.LastRun(kind); ok {
			resp.LastRuns[string(kind)] = newRunResponse(last)
		}
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func (a *API) handleReschedule(w http.ResponseWriter, r *http.Request) {
	timers := make(map[string]int, len(a.schedulers))
	for kind, s := range a.schedulers {
		if err := s.Reschedule(r.Context()); err != nil {
			a.writeError(w, r, err)
			return
		}
		timers[kind] = s.ActiveTimers()
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"status": "rescheduled", "active_timers": timers})
}

type outcomeResponse struct {
	User     string `json:"user"`
	Location string `json:"location"`
	Status   string `json:"status"`
	Alerts   int    `json:"alerts"`
	Error    string `json:"error,omitempty"`
}

type runResponse struct {
	RunID     string            `json:"run_id"`
	Kind      pipeline.Kind     `json:"kind"`
	StartedAt time.Time         `json:"started_at"`
	Duration  string            `json:"duration"`
	Total     int               `json:"total"`
	Failed    int               `json:"failed"`
	Alerts    int               `json:"alerts"`
	Outcomes  []outcomeResponse `json:"outcomes"`
}

func newRunResponse(s pipeline.Summary) runResponse {
	resp := runResponse{
		RunID:     s.RunID,
		Kind:      s.Kind,
		StartedAt: s.StartedAt,
		Duration:  s.Duration.Round(time.Millisecond).String(),
		Total:     len(s.Outcomes),
		Failed:    s.Failed(),
		Alerts:    s.AlertCount(),
		Outcomes:  make([]outcomeResponse, len(s.Outcomes)),
	}
	for i, o := range s.Outcomes {
		resp.Outcomes[i] = outcomeResponse{User: o.User, Location: o.Location, Status: o.Status(), Alerts: o.Alerts}
		if o.Err != nil {
			resp.Outcomes[i].Error = o.Err.Error()
		}
	}
	return resp
}

// handleRun runs a manual cycle synchronously, extending the write deadline
// past the server default for the duration of the run.
func (a *API) handleRun(kind pipeline.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := http.NewResponseController(w).SetWriteDeadline(time.Now().Add(a.runTimeout + 5*time.Second)); err != nil {
			a.logger.Debug("write deadline not extended", "error", err)
		}
		ctx, cancel := context.WithTimeout(r.Context(), a.runTimeout)
		defer cancel()

		run := a.runner.CheckAll
		if kind == pipeline.KindRoutine {
			run = a.runner.NotifyAll
		}
		summary, err := run(ctx)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, newRunResponse(summary))
	}
}

// --- errors ---

type problem struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func writeProblem(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, problem{Error: msg})
}

// writeError maps domain errors to status codes. Unexpected errors are
// logged and reported without detail.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		sharedobs.WriteJSON(w, http.StatusBadRequest, problem{Error: "validation failed", Problems: verr.Problems})
	case errors.Is(err, domain.ErrUserNotFound):
		writeProblem(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUserExists):
		writeProblem(w, http.StatusConflict, err.Error())
	default:
		a.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeProblem(w, http.StatusInternalServerError, "internal error")
	}
}
