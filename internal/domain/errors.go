package domain

import (
	"errors"
	"strings"
)

var (
	// ErrUserNotFound is returned by user stores when no user has the given name.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned when creating a user whose name is taken.
	ErrUserExists = errors.New("user already exists")

	// ErrLocationNotFound is returned by the weather gateway when geocoding
	// yields no match.
	ErrLocationNotFound = errors.New("location not found")

	// ErrInvalidSchedule marks a cron expression that cannot be parsed.
	ErrInvalidSchedule = errors.New("invalid schedule expression")
)

// ValidationError lists every problem found in user input.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid user: " + strings.Join(e.Problems, "; ")
}
