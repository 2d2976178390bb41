package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"summoner-balancer/internal/domain"
	"summoner-balancer/internal/rating"

	"github.com/rs/zerolog"
)

// ErrNotCached is returned when no row exists for a player key.
var ErrNotCached = errors.New("player not cached")

// likeEscaper makes user input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const playerColumns = `player_key, name, puuid, tier, division, league_points, queue, level, profile_url, source, resolved_at`

// PlayerRepository caches resolved players so repeated registrations within
// the TTL do not hit the upstream APIs.
type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{db: sqlDB, logger: logger}
}

func (r *PlayerRepository) Get(ctx context.Context, key string) (*domain.Player, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE player_key = ?`, key)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %s: %w", key, err)
	}
	return p, nil
}

func (r *PlayerRepository) Upsert(ctx context.Context, p *domain.Player) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO players (`+playerColumns+`, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(player_key) DO UPDATE SET
			name = excluded.name,
			puuid = excluded.puuid,
			tier = excluded.tier,
			division = excluded.division,
			league_points = excluded.league_points,
			queue = excluded.queue,
			level = excluded.level,
			profile_url = excluded.profile_url,
			source = excluded.source,
			resolved_at = excluded.resolved_at,
			updated_at = excluded.updated_at`,
		p.Key(), p.Name, p.Puuid, p.Tier.String(), divisionColumn(p.Division), p.LeaguePoints,
		string(p.Queue), p.Level, p.ProfileURL, p.Source, p.ResolvedAt.UTC(), now.UTC(), now.UTC(),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("player", p.Name).Msg("failed to upsert player")
		return fmt.Errorf("failed to upsert player %s: %w", p.Name, err)
	}
	return nil
}

func (r *PlayerRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE player_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete player %s: %w", key, err)
	}
	r.logger.Debug().Str("player", key).Msg("player dropped from cache")
	return nil
}

// Search matches cached names by substring, most recently resolved first.
func (r *PlayerRepository) Search(ctx context.Context, query string, limit int) ([]domain.Player, error) {
	pattern := "%" + likeEscaper.Replace(domain.NormalizeName(query)) + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE player_key LIKE ? ESCAPE '\' ORDER BY resolved_at DESC LIMIT ?`,
		pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search players: %w", err)
	}
	defer rows.Close()

	var result []domain.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// PurgeBefore drops rows resolved before cutoff and returns how many went.
func (r *PlayerRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE resolved_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge players: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlayer(s scanner) (*domain.Player, error) {
	var (
		key, tierName, divName, queue string
		p                             domain.Player
	)
	err := s.Scan(&key, &p.Name, &p.Puuid, &tierName, &divName, &p.LeaguePoints,
		&queue, &p.Level, &p.ProfileURL, &p.Source, &p.ResolvedAt)
	if err != nil {
		return nil, err
	}

	tier, err := domain.ParseTier(tierName)
	if err != nil {
		return nil, fmt.Errorf("corrupt cache row %s: %w", key, err)
	}
	div := domain.DivisionNone
	if strings.TrimSpace(divName) != "" {
		d, ok := domain.ParseDivision(divName)
		if !ok {
			return nil, fmt.Errorf("corrupt cache row %s: division %q", key, divName)
		}
		div = d
	}

	p.Tier = tier
	p.Division = div
	p.Queue = domain.Queue(queue)
	rated, err := rating.Rate(p)
	if err != nil {
		return nil, fmt.Errorf("corrupt cache row %s: %w", key, err)
	}
	return &rated, nil
}

func divisionColumn(d domain.Division) string {
	if d == domain.DivisionNone {
		return ""
	}
	return d.String()
}
