// Package server exposes the roster and team operations as a JSON HTTP API.
// Sessions in the URL play the role a Discord channel plays for the bot.
package server

import (
	"context"
	"net/http"
	"net/url"

	"summoner-balancer/internal/api"
	"summoner-balancer/internal/domain"
	"summoner-balancer/internal/middleware"
	"summoner-balancer/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

type RosterOps interface {
	Register(ctx context.Context, session, name string) (domain.Player, error)
	Unregister(session, name string) (domain.Player, error)
	List(session string) []domain.Player
	Clear(session string) bool
	Check(ctx context.Context, session string) ([]domain.PlayerReport, error)
}

type TeamOps interface {
	Teams(session string) ([]domain.TeamSummary, error)
}

type PlayerSearch interface {
	SearchSuggestions(ctx context.Context, query string) ([]domain.Player, error)
}

type RateLimits interface {
	GetRateLimitInfo() api.RateLimitInfo
}

type Server struct {
	roster  RosterOps
	teams   TeamOps
	players PlayerSearch
	limits  RateLimits
	logger  zerolog.Logger
}

func NewServer(
	rosterSvc *service.RosterService,
	teamSvc *service.TeamService,
	playerSvc *service.PlayerService,
	riot *api.RiotClient,
	logger zerolog.Logger,
) *Server {
	return &Server{roster: rosterSvc, teams: teamSvc, players: playerSvc, limits: riot, logger: logger}
}

// Handler builds the router with CORS, request IDs and panic recovery.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	}).Handler)

	r.Get("/healthz", s.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/players", s.searchPlayers)
		r.Route("/sessions/{session}", func(r chi.Router) {
			r.Delete("/", s.clearSession)
			r.Get("/players", s.listPlayers)
			r.Post("/players", s.registerPlayer)
			r.Delete("/players/{name}", s.unregisterPlayer)
			r.Get("/report", s.checkPlayers)
			r.Post("/teams", s.buildTeams)
		})
	})
	return r
}

// health also reports the Riot rate-limit counters seen on the last call.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"riotLimit": s.limits.GetRateLimitInfo(),
	})
}

func (s *Server) searchPlayers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusOK, map[string]any{"players": []playerJSON{}})
		return
	}
	players, err := s.players.SearchSuggestions(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": toPlayersJSON(players)})
}

func (s *Server) listPlayers(w http.ResponseWriter, r *http.Request) {
	players := s.roster.List(chi.URLParam(r, "session"))
	writeJSON(w, http.StatusOK, map[string]any{"players": toPlayersJSON(players)})
}

type registerRequest struct {
	Name string `json:"name"`
}

func (s *Server) registerPlayer(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	p, err := s.roster.Register(r.Context(), chi.URLParam(r, "session"), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlayerJSON(p))
}

func (s *Server) unregisterPlayer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	p, err := s.roster.Unregister(chi.URLParam(r, "session"), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlayerJSON(p))
}

func (s *Server) clearSession(w http.ResponseWriter, r *http.Request) {
	if !s.roster.Clear(chi.URLParam(r, "session")) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) checkPlayers(w http.ResponseWriter, r *http.Request) {
	reports, err := s.roster.Check(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]reportJSON, len(reports))
	for i, rep := range reports {
		out[i] = reportJSON{
			Player:   toPlayerJSON(rep.Player),
			Champion: rep.Champion.Champion,
			Games:    rep.Champion.Games,
			Position: rep.Champion.Position,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": out})
}

func (s *Server) buildTeams(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.teams.Teams(chi.URLParam(r, "session"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]teamJSON, len(summaries))
	for i, sum := range summaries {
		out[i] = teamJSON{
			Team:          sum.Team.Index + 1,
			AverageRating: sum.AverageRating,
			AverageRank:   domain.FormatRank(sum.AverageTier, sum.AverageDivision),
			Standout:      toPlayerJSON(sum.Standout),
			Players:       toPlayersJSON(sum.Team.Players),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"teams": out})
}
