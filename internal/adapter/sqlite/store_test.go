package sqlite

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hikecast-alerts/internal/domain"
)

var created = time.Date(2025, 7, 14, 6, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *clockwork.FakeClock) {
	t.Helper()
	clk := clockwork.NewFakeClockAt(created)
	domain.SetClock(clk)
	t.Cleanup(func() { domain.SetClock(nil) })

	s, err := Open(context.Background(), ":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, clk
}

func alice() domain.User {
	day := 2
	return domain.User{
		Name:                       "alice",
		Locations:                  []string{"Zermatt", "Chamonix"},
		Channels:                   []domain.Channel{domain.ChannelTelegram, domain.ChannelEmail},
		TelegramChatID:             "12345",
		Email:                      "alice@example.com",
		Schedule:                   "30 6 * * 6",
		Timezone:                   "Europe/Zurich",
		ForecastDays:               []string{"Saturday", "Sunday"},
		ForecastDay:                &day,
		EnableAIAnalysis:           true,
		EnableExtremeWeatherAlerts: true,
	}
}

var compareTimes = cmpopts.EquateApproxTime(time.Millisecond)

func TestCreateAndGetUser(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	saved, err := s.CreateUser(ctx, alice())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCheckInterval, saved.ExtremeWeatherCheckInterval, "defaults applied")
	assert.True(t, created.Equal(saved.CreatedAt))

	got, err := s.GetUser(ctx, "alice")
	require.NoError(t, err)
	if diff := cmp.Diff(saved, got, compareTimes); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, alice())
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, alice())
	require.ErrorIs(t, err, domain.ErrUserExists)
}

func TestCreateUser_MinimalFields(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, domain.User{
		Name:      "bob",
		Locations: []string{"Aspen"},
		Channels:  []domain.Channel{domain.ChannelWhatsApp},
		WhatsApp:  "+15551234567",
	})
	require.NoError(t, err)

	got, err := s.GetUser(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSchedule, got.Schedule)
	assert.Equal(t, domain.DefaultTimezone, got.Timezone)
	assert.Nil(t, got.ForecastDays)
	assert.Nil(t, got.ForecastDay)
	assert.Empty(t, got.TelegramChatID)
	assert.False(t, got.EnableAIAnalysis)
}

func TestGetUser_NotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.GetUser(context.Background(), "nobody")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUpdateUser(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, alice())
	require.NoError(t, err)
	clk.Advance(time.Hour)

	changed := alice()
	changed.Name = "alice-h"
	changed.Locations = []string{"Grindelwald"}
	changed.EnableExtremeWeatherAlerts = false
	changed.ForecastDay = nil

	updated, err := s.UpdateUser(ctx, "alice", changed)
	require.NoError(t, err)
	assert.True(t, created.Equal(updated.CreatedAt), "created_at preserved")
	assert.True(t, created.Add(time.Hour).Equal(updated.UpdatedAt))

	_, err = s.GetUser(ctx, "alice")
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	got, err := s.GetUser(ctx, "alice-h")
	require.NoError(t, err)
	if diff := cmp.Diff(updated, got, compareTimes); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateUser_Errors(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.UpdateUser(ctx, "ghost", alice())
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = s.CreateUser(ctx, alice())
	require.NoError(t, err)
	bob := alice()
	bob.Name = "bob"
	_, err = s.CreateUser(ctx, bob)
	require.NoError(t, err)

	_, err = s.UpdateUser(ctx, "bob", alice())
	require.ErrorIs(t, err, domain.ErrUserExists, "renaming onto an existing user")
}

func TestDeleteUser(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, alice())
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, "alice"))
	require.ErrorIs(t, s.DeleteUser(ctx, "alice"), domain.ErrUserNotFound)
}

func TestListUsers(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	for _, name := range []string{"carol", "alice", "bob"} {
		u := alice()
		u.Name = name
		_, err := s.CreateUser(ctx, u)
		require.NoError(t, err)
	}

	users, err = s.ListUsers(ctx)
	require.NoError(t, err)
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Name
	}
	assert.Equal(t, []string{"carol", "alice", "bob"}, names, "insertion order")
}

func TestCheckReadiness(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.CheckReadiness(context.Background()))

	require.NoError(t, s.Close())
	require.Error(t, s.CheckReadiness(context.Background()))
}

func TestScanUser_NullFlagsTakeDefaults(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, locations, channels, email) VALUES ('dave', '["Bern"]', '["email"]', 'dave@example.com')`)
	require.NoError(t, err)

	got, err := s.GetUser(ctx, "dave")
	require.NoError(t, err)
	assert.True(t, got.EnableAIAnalysis)
	assert.True(t, got.EnableExtremeWeatherAlerts)
	assert.Equal(t, domain.DefaultCheckInterval, got.ExtremeWeatherCheckInterval)
	assert.Equal(t, []string{"Bern"}, got.Locations)
}
