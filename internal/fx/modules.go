package fx

import (
	"summoner-balancer/internal/api"
	"summoner-balancer/internal/bot"
	"summoner-balancer/internal/config"
	"summoner-balancer/internal/database"
	"summoner-balancer/internal/logger"
	"summoner-balancer/internal/repository"
	"summoner-balancer/internal/roster"
	"summoner-balancer/internal/server"
	"summoner-balancer/internal/service"
	"summoner-balancer/internal/source"

	"go.uber.org/fx"
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewChampionRepository),
	// upstreams
	fx.Provide(api.NewRiotClient),
	fx.Provide(api.NewOPGGClient),
	fx.Provide(source.NewPrimaryAPI),
	fx.Provide(source.NewScrapeFallback),
	// svc
	fx.Provide(roster.NewRegistry),
	fx.Provide(service.NewPlayerService),
	fx.Provide(service.NewChampionService),
	fx.Provide(service.NewRosterService),
	fx.Provide(service.NewTeamService),
	// transports
	fx.Provide(server.NewServer),
	fx.Provide(bot.New),
)
