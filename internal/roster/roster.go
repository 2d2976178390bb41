package roster

import (
	"fmt"
	"sync"
	"time"

	"summoner-balancer/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Roster is the ordered set of players registered in one session.
// It is safe for concurrent use; readers get snapshots.
type Roster struct {
	id        string
	createdAt time.Time

	mu      sync.RWMutex
	players []domain.Player
}

func New() (*Roster, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate roster id: %w", err)
	}
	return &Roster{id: id, createdAt: time.Now()}, nil
}

func (r *Roster) ID() string           { return r.id }
func (r *Roster) CreatedAt() time.Time { return r.createdAt }

// Add appends a player. Names are unique by their normalized key.
func (r *Roster) Add(p domain.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := p.Key()
	for _, existing := range r.players {
		if existing.Key() == key {
			return fmt.Errorf("%s: %w", existing.Name, domain.ErrDuplicatePlayer)
		}
	}
	r.players = append(r.players, p)
	return nil
}

// Remove drops the player registered under name and returns it.
func (r *Roster) Remove(name string) (domain.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := domain.NormalizeName(name)
	for i, p := range r.players {
		if p.Key() == key {
			r.players = append(r.players[:i:i], r.players[i+1:]...)
			return p, nil
		}
	}
	return domain.Player{}, fmt.Errorf("%s: %w", name, domain.ErrPlayerNotInRoster)
}

// Contains reports whether a player with this name is registered.
func (r *Roster) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := domain.NormalizeName(name)
	for _, p := range r.players {
		if p.Key() == key {
			return true
		}
	}
	return false
}

// Players returns a copy of the roster in registration order.
func (r *Roster) Players() []domain.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Player, len(r.players))
	copy(out, r.players)
	return out
}

func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

