// Package roster owns the per-session player rosters. A session is whatever
// the transport scopes registrations to: a Discord channel or an HTTP session
// key. Rosters live in memory only and are dropped with Discard.
package roster

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Registry struct {
	mu      sync.Mutex
	rosters map[string]*Roster
	logger  zerolog.Logger
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		rosters: make(map[string]*Roster),
		logger:  logger,
	}
}

// Get returns the session's roster, creating it on first use.
func (reg *Registry) Get(session string) (*Roster, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if r, ok := reg.rosters[session]; ok {
		return r, nil
	}
	r, err := New()
	if err != nil {
		return nil, err
	}
	reg.rosters[session] = r
	reg.logger.Debug().Str("session", session).Str("roster_id", r.ID()).Msg("roster created")
	return r, nil
}

// Lookup returns the session's roster without creating one.
func (reg *Registry) Lookup(session string) (*Roster, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rosters[session]
	return r, ok
}

// Discard drops the session's roster. It reports whether one existed.
func (reg *Registry) Discard(session string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rosters[session]
	if !ok {
		return false
	}
	delete(reg.rosters, session)
	reg.logger.Debug().
		Str("session", session).
		Str("roster_id", r.ID()).
		Int("players", r.Len()).
		Dur("age", time.Since(r.CreatedAt())).
		Msg("roster discarded")
	return true
}

func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rosters)
}
