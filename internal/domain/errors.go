package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTier       = errors.New("invalid tier")
	ErrOutOfRange        = errors.New("rating out of range")
	ErrEmptyInput        = errors.New("empty input")
	ErrUnevenRoster      = errors.New("roster size is not a multiple of the team split")
	ErrRosterTooSmall    = errors.New("not enough players to build teams")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrRateLimited       = errors.New("rate limited by upstream")
	ErrDuplicatePlayer   = errors.New("player already registered")
	ErrPlayerNotInRoster = errors.New("player is not registered")
	ErrInvalidName       = errors.New("invalid player name")
)

type InvalidTierError struct {
	Value string
}

func (e *InvalidTierError) Error() string {
	return fmt.Sprintf("invalid tier %q", e.Value)
}

func (e *InvalidTierError) Unwrap() error { return ErrInvalidTier }

type OutOfRangeError struct {
	Rating int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("rating %d out of range", e.Rating)
}

func (e *OutOfRangeError) Unwrap() error { return ErrOutOfRange }

// EmptyInputError is returned when an aggregate is asked for over zero players.
type EmptyInputError struct {
	Op string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s: no players", e.Op)
}

func (e *EmptyInputError) Unwrap() error { return ErrEmptyInput }

// UnevenRosterError carries the multiple the roster size has to match so the
// caller can tell the user how many players to add or remove.
type UnevenRosterError struct {
	Size     int
	Multiple int
}

func (e *UnevenRosterError) Error() string {
	return fmt.Sprintf("roster of %d players is not a multiple of %d", e.Size, e.Multiple)
}

func (e *UnevenRosterError) Unwrap() error { return ErrUnevenRoster }

type RosterTooSmallError struct {
	Size int
	Min  int
}

func (e *RosterTooSmallError) Error() string {
	return fmt.Sprintf("roster has %d players, at least %d required", e.Size, e.Min)
}

func (e *RosterTooSmallError) Unwrap() error { return ErrRosterTooSmall }

type PlayerNotFoundError struct {
	Name string
}

func (e *PlayerNotFoundError) Error() string {
	return fmt.Sprintf("player %q not found", e.Name)
}

func (e *PlayerNotFoundError) Unwrap() error { return ErrPlayerNotFound }

// RateLimitedError is surfaced as-is from upstream 429 responses.
type RateLimitedError struct {
	Source     string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Source, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limited", e.Source)
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }
