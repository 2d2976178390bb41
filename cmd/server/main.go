package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"summoner-balancer/internal/bot"
	"summoner-balancer/internal/config"
	"summoner-balancer/internal/constants"
	fxmodules "summoner-balancer/internal/fx"
	"summoner-balancer/internal/repository"
	"summoner-balancer/internal/server"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(purgeCache),
		fx.Invoke(runServer),
		fx.Invoke(runBot),
	).Run()
}

// purgeCache drops cache rows nobody has looked at for a week.
func purgeCache(lc fx.Lifecycle, repo *repository.PlayerRepository, logger zerolog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			n, err := repo.PurgeBefore(ctx, time.Now().Add(-constants.CacheRetention))
			if err != nil {
				logger.Warn().Err(err).Msg("failed to purge player cache")
				return nil
			}
			logger.Info().Int64("rows", n).Msg("player cache purged")
			return nil
		},
	})
}

func runServer(
	lc fx.Lifecycle,
	apiServer *server.Server,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      constants.RequestTimeout + 5*time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			err := srv.Shutdown(shutdownCtx)
			if cerr := db.Close(); cerr != nil {
				logger.Warn().Err(cerr).Msg("error closing database connection")
			}
			if err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}

func runBot(lc fx.Lifecycle, b *bot.Bot, logger zerolog.Logger) {
	if !b.Enabled() {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return b.Open()
		},
		OnStop: func(ctx context.Context) error {
			if err := b.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing discord session")
				return err
			}
			logger.Info().Msg("discord session closed")
			return nil
		},
	})
}
