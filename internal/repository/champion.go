package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"summoner-balancer/internal/domain"

	"github.com/rs/zerolog"
)

// ChampionRepository caches the most played champion per puuid. Match
// history changes slowly, so a stale row is preferable to another burst of
// match requests.
type ChampionRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewChampionRepository(sqlDB *sql.DB, logger zerolog.Logger) *ChampionRepository {
	return &ChampionRepository{db: sqlDB, logger: logger}
}

func (r *ChampionRepository) Get(ctx context.Context, puuid string) (*domain.ChampionStat, error) {
	var s domain.ChampionStat
	err := r.db.QueryRowContext(ctx,
		`SELECT puuid, champion, games, position, sample_size, fetched_at FROM champion_stats WHERE puuid = ?`, puuid).
		Scan(&s.Puuid, &s.Champion, &s.Games, &s.Position, &s.SampleSize, &s.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get champion stat %s: %w", puuid, err)
	}
	return &s, nil
}

func (r *ChampionRepository) Upsert(ctx context.Context, s *domain.ChampionStat) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO champion_stats (puuid, champion, games, position, sample_size, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(puuid) DO UPDATE SET
			champion = excluded.champion,
			games = excluded.games,
			position = excluded.position,
			sample_size = excluded.sample_size,
			fetched_at = excluded.fetched_at`,
		s.Puuid, s.Champion, s.Games, s.Position, s.SampleSize, s.FetchedAt.UTC())
	if err != nil {
		r.logger.Error().Err(err).Str("puuid", s.Puuid).Msg("failed to upsert champion stat")
		return fmt.Errorf("failed to upsert champion stat %s: %w", s.Puuid, err)
	}
	return nil
}
