// Package sqlite persists subscribers in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/hikecast-alerts/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id                             INTEGER PRIMARY KEY AUTOINCREMENT,
	name                           TEXT UNIQUE NOT NULL,
	locations                      TEXT NOT NULL,
	channels                       TEXT NOT NULL,
	telegram_chat_id               TEXT,
	email                          TEXT,
	whatsapp                       TEXT,
	schedule                       TEXT DEFAULT '0 7 * * *',
	timezone                       TEXT DEFAULT 'UTC',
	forecast_days                  TEXT,
	forecast_day                   INTEGER,
	enable_ai_analysis             INTEGER DEFAULT 1,
	enable_extreme_weather_alerts  INTEGER DEFAULT 1,
	extreme_weather_check_interval TEXT DEFAULT '0 */2 * * *',
	created_at                     DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at                     DATETIME DEFAULT CURRENT_TIMESTAMP
)`

const userColumns = `name, locations, channels, telegram_chat_id, email, whatsapp,
	schedule, timezone, forecast_days, forecast_day, enable_ai_analysis,
	enable_extreme_weather_alerts, extreme_weather_check_interval, created_at, updated_at`

// Store is the user repository. It implements the pipeline's UserLister and
// the HTTP layer's user store, and doubles as the readiness check.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for an ephemeral store.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite serializes writers; one connection also keeps :memory: shared.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("user store ready", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("user store: %w", err)
	}
	return nil
}

// CreateUser inserts u with defaults applied. It returns domain.ErrUserExists
// when the name is taken.
func (s *Store) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	u = u.WithDefaults()
	now := domain.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	args, err := userArgs(u)
	if err != nil {
		return domain.User{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		append(args, u.CreatedAt, u.UpdatedAt)...)
	if isUniqueViolation(err) {
		return domain.User{}, fmt.Errorf("%w: %s", domain.ErrUserExists, u.Name)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// GetUser returns the user called name, or domain.ErrUserNotFound.
func (s *Store) GetUser(ctx context.Context, name string) (domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE name = ?`, name)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, fmt.Errorf("%w: %s", domain.ErrUserNotFound, name)
	}
	return u, err
}

// UpdateUser replaces the user called name with u, which may carry a new
// name. CreatedAt is preserved.
func (s *Store) UpdateUser(ctx context.Context, name string, u domain.User) (domain.User, error) {
	existing, err := s.GetUser(ctx, name)
	if err != nil {
		return domain.User{}, err
	}
	u = u.WithDefaults()
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = domain.Now().UTC()

	args, err := userArgs(u)
	if err != nil {
		return domain.User{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE users SET
		name = ?, locations = ?, channels = ?, telegram_chat_id = ?, email = ?, whatsapp = ?,
		schedule = ?, timezone = ?, forecast_days = ?, forecast_day = ?, enable_ai_analysis = ?,
		enable_extreme_weather_alerts = ?, extreme_weather_check_interval = ?, updated_at = ?
		WHERE name = ?`,
		append(args, u.UpdatedAt, name)...)
	if isUniqueViolation(err) {
		return domain.User{}, fmt.Errorf("%w: %s", domain.ErrUserExists, u.Name)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.User{}, fmt.Errorf("%w: %s", domain.ErrUserNotFound, name)
	}
	return u, nil
}

// DeleteUser removes the user called name, or returns domain.ErrUserNotFound.
func (s *Store) DeleteUser(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrUserNotFound, name)
	}
	return nil
}

// ListUsers returns every user ordered by creation.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// userArgs returns the insert/update values for every column except the
// timestamps, in userColumns order.
func userArgs(u domain.User) ([]any, error) {
	locations, err := json.Marshal(u.Locations)
	if err != nil {
		return nil, fmt.Errorf("encode locations: %w", err)
	}
	channels, err := json.Marshal(u.Channels)
	if err != nil {
		return nil, fmt.Errorf("encode channels: %w", err)
	}
	var forecastDays sql.NullString
	if len(u.ForecastDays) > 0 {
		b, err := json.Marshal(u.ForecastDays)
		if err != nil {
			return nil, fmt.Errorf("encode forecast days: %w", err)
		}
		forecastDays = sql.NullString{String: string(b), Valid: true}
	}
	var forecastDay sql.NullInt64
	if u.ForecastDay != nil {
		forecastDay = sql.NullInt64{Int64: int64(*u.ForecastDay), Valid: true}
	}

	return []any{
		u.Name, string(locations), string(channels),
		nullString(u.TelegramChatID), nullString(u.Email), nullString(u.WhatsApp),
		u.Schedule, u.Timezone, forecastDays, forecastDay,
		u.EnableAIAnalysis, u.EnableExtremeWeatherAlerts, u.ExtremeWeatherCheckInterval,
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(sc scanner) (domain.User, error) {
	var (
		u                            domain.User
		locations, channels          string
		telegram, email, whatsapp    sql.NullString
		schedule, timezone, interval sql.NullString
		forecastDays                 sql.NullString
		forecastDay                  sql.NullInt64
		aiEnabled, alertsEnabled     sql.NullBool
	)
	err := sc.Scan(&u.Name, &locations, &channels, &telegram, &email, &whatsapp,
		&schedule, &timezone, &forecastDays, &forecastDay, &aiEnabled,
		&alertsEnabled, &interval, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}

	if err := json.Unmarshal([]byte(locations), &u.Locations); err != nil {
		return domain.User{}, fmt.Errorf("decode locations for %s: %w", u.Name, err)
	}
	if err := json.Unmarshal([]byte(channels), &u.Channels); err != nil {
		return domain.User{}, fmt.Errorf("decode channels for %s: %w", u.Name, err)
	}
	if forecastDays.Valid && forecastDays.String != "" {
		if err := json.Unmarshal([]byte(forecastDays.String), &u.ForecastDays); err != nil {
			return domain.User{}, fmt.Errorf("decode forecast days for %s: %w", u.Name, err)
		}
	}
	if forecastDay.Valid {
		d := int(forecastDay.Int64)
		u.ForecastDay = &d
	}

	u.TelegramChatID = telegram.String
	u.Email = email.String
	u.WhatsApp = whatsapp.String
	u.Schedule = schedule.String
	u.Timezone = timezone.String
	u.ExtremeWeatherCheckInterval = interval.String
	// NULL flags take the column defaults.
	u.EnableAIAnalysis = !aiEnabled.Valid || aiEnabled.Bool
	u.EnableExtremeWeatherAlerts = !alertsEnabled.Valid || alertsEnabled.Bool
	return u.WithDefaults(), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
