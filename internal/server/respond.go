package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"summoner-balancer/internal/domain"

	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 16

type errorResponse struct {
	Error    string `json:"error"`
	Multiple int    `json:"multiple,omitempty"`
	Min      int    `json:"min,omitempty"`
}

type playerJSON struct {
	Name         string `json:"name"`
	Puuid        string `json:"puuid,omitempty"`
	Tier         string `json:"tier"`
	Division     string `json:"division,omitempty"`
	Rank         string `json:"rank"`
	Rating       int    `json:"rating"`
	LeaguePoints int    `json:"leaguePoints"`
	Queue        string `json:"queue"`
	Level        int    `json:"level,omitempty"`
	ProfileURL   string `json:"profileUrl,omitempty"`
	Source       string `json:"source"`
}

type reportJSON struct {
	Player   playerJSON `json:"player"`
	Champion string     `json:"champion,omitempty"`
	Games    int        `json:"games"`
	Position string     `json:"position,omitempty"`
}

type teamJSON struct {
	Team          int          `json:"team"`
	AverageRating int          `json:"averageRating"`
	AverageRank   string       `json:"averageRank"`
	Standout      playerJSON   `json:"standout"`
	Players       []playerJSON `json:"players"`
}

func toPlayerJSON(p domain.Player) playerJSON {
	out := playerJSON{
		Name:         p.Name,
		Puuid:        p.Puuid,
		Tier:         p.Tier.String(),
		Rank:         p.Rank(),
		Rating:       p.Rating,
		LeaguePoints: p.LeaguePoints,
		Queue:        string(p.Queue),
		Level:        p.Level,
		ProfileURL:   p.ProfileURL,
		Source:       p.Source,
	}
	if p.Division != domain.DivisionNone {
		out.Division = p.Division.String()
	}
	return out
}

func toPlayersJSON(players []domain.Player) []playerJSON {
	out := make([]playerJSON, len(players))
	for i, p := range players {
		out[i] = toPlayerJSON(p)
	}
	return out
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case errors.As(err, &syntaxErr):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxErr.Offset)
		case errors.As(err, &maxErr):
			return fmt.Errorf("body must not be larger than %d bytes", maxErr.Limit)
		default:
			return err
		}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps domain errors onto HTTP statuses. Anything unrecognised is
// logged and reported as a 500 without its message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		uneven    *domain.UnevenRosterError
		tooSmall  *domain.RosterTooSmallError
		rateLimit *domain.RateLimitedError
	)

	switch {
	case errors.As(err, &uneven):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Multiple: uneven.Multiple})
	case errors.As(err, &tooSmall):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Min: tooSmall.Min})
	case errors.Is(err, domain.ErrEmptyInput),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidTier):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrPlayerNotFound), errors.Is(err, domain.ErrPlayerNotInRoster):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrDuplicatePlayer):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &rateLimit):
		if rateLimit.RetryAfter > 0 {
			secs := int(math.Ceil(rateLimit.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(secs))
		}
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: err.Error()})
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
