package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"summoner-balancer/internal/api"
	"summoner-balancer/internal/balance"
	"summoner-balancer/internal/config"
	"summoner-balancer/internal/domain"
	"summoner-balancer/internal/repository"
	"summoner-balancer/internal/roster"
	"summoner-balancer/internal/source"

	"github.com/rs/zerolog"
)

type fakeSource struct {
	name  string
	calls atomic.Int32
	fn    func(id domain.RiotID) (source.Standing, error)

	// when set, Lookup blocks until it is closed or ctx ends
	gate chan struct{}
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Lookup(ctx context.Context, id domain.RiotID) (source.Standing, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return source.Standing{}, ctx.Err()
		}
	}
	return f.fn(id)
}

type memCache struct {
	mu      sync.Mutex
	players map[string]domain.Player
}

func newMemCache() *memCache { return &memCache{players: make(map[string]domain.Player)} }

func (c *memCache) Get(_ context.Context, key string) (*domain.Player, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.players[key]
	if !ok {
		return nil, repository.ErrNotCached
	}
	return &p, nil
}

func (c *memCache) Upsert(_ context.Context, p *domain.Player) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.players[p.Key()] = *p
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.players, key)
	return nil
}

func (c *memCache) Search(_ context.Context, query string, limit int) ([]domain.Player, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.Player
	for k, p := range c.players {
		if strings.Contains(k, domain.NormalizeName(query)) && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

type linker struct{}

func (linker) ProfileURL(id domain.RiotID) string { return "https://op.gg/" + id.GameName }

func ranked(t domain.Tier, d domain.Division) func(domain.RiotID) (source.Standing, error) {
	return func(id domain.RiotID) (source.Standing, error) {
		return source.Standing{ID: id, Puuid: "p-" + id.GameName, Tier: t, Division: d, Queue: domain.QueueSolo, Ranked: true, Source: domain.SourceRiot}, nil
	}
}

func unranked(src string) func(domain.RiotID) (source.Standing, error) {
	return func(id domain.RiotID) (source.Standing, error) {
		return source.Standing{ID: id, Puuid: "p-" + id.GameName, Queue: domain.QueueUnranked, Source: src}, nil
	}
}

func testConfig() *config.Config {
	return &config.Config{
		DefaultTag:        "KR1",
		CacheTTL:          5 * time.Minute,
		PlacementTier:     domain.TierIron,
		PlacementDivision: domain.DivisionIV,
		TeamBands:         balance.DefaultBands(),
	}
}

func TestPlayerService_Resolve(t *testing.T) {
	tests := []struct {
		name       string
		primary    func(domain.RiotID) (source.Standing, error)
		fallback   func(domain.RiotID) (source.Standing, error)
		wantRank   string
		wantRating int
		wantSource string
		wantErr    error
	}{
		{
			name:       "ranked by primary",
			primary:    ranked(domain.TierGold, domain.DivisionII),
			fallback:   unranked(domain.SourceOPGG),
			wantRank:   "GOLD II",
			wantRating: 2800,
			wantSource: domain.SourceRiot,
		},
		{
			name:    "last season from fallback",
			primary: unranked(domain.SourceRiot),
			fallback: func(id domain.RiotID) (source.Standing, error) {
				return source.Standing{ID: id, Tier: domain.TierSilver, Division: domain.DivisionI, Queue: domain.QueueLastSeason, Ranked: true, Source: domain.SourceOPGG}, nil
			},
			wantRank:   "SILVER I",
			wantRating: 1900,
			wantSource: domain.SourceOPGG,
		},
		{
			name:       "placement when nobody ranks",
			primary:    unranked(domain.SourceRiot),
			fallback:   unranked(domain.SourceOPGG),
			wantRank:   "IRON IV",
			wantRating: 100,
			wantSource: domain.SourcePlacement,
		},
		{
			name:    "fallback failure degrades to placement",
			primary: unranked(domain.SourceRiot),
			fallback: func(domain.RiotID) (source.Standing, error) {
				return source.Standing{}, errors.New("connection reset")
			},
			wantRank:   "IRON IV",
			wantRating: 100,
			wantSource: domain.SourcePlacement,
		},
		{
			name:    "fallback rate limit surfaces",
			primary: unranked(domain.SourceRiot),
			fallback: func(domain.RiotID) (source.Standing, error) {
				return source.Standing{}, &domain.RateLimitedError{Source: domain.SourceOPGG}
			},
			wantErr: domain.ErrRateLimited,
		},
		{
			name: "not found",
			primary: func(id domain.RiotID) (source.Standing, error) {
				return source.Standing{}, &domain.PlayerNotFoundError{Name: id.String()}
			},
			fallback: unranked(domain.SourceOPGG),
			wantErr:  domain.ErrPlayerNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &fakeSource{name: domain.SourceRiot, fn: tt.primary}
			fallback := &fakeSource{name: domain.SourceOPGG, fn: tt.fallback}
			s := newPlayerService(primary, []source.RatingSource{fallback}, newMemCache(), linker{}, testConfig(), zerolog.Nop())

			p, err := s.Resolve(context.Background(), "Faker", false)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if p.Rank() != tt.wantRank || p.Rating != tt.wantRating || p.Source != tt.wantSource {
				t.Errorf("Resolve() = %s %d from %s, want %s %d from %s", p.Rank(), p.Rating, p.Source, tt.wantRank, tt.wantRating, tt.wantSource)
			}
			if p.Name != "Faker#KR1" || p.ProfileURL != "https://op.gg/Faker" {
				t.Errorf("Resolve() = %+v", p)
			}
		})
	}
}

func TestPlayerService_Cache(t *testing.T) {
	primary := &fakeSource{name: domain.SourceRiot, fn: ranked(domain.TierDiamond, domain.DivisionI)}
	cache := newMemCache()
	s := newPlayerService(primary, nil, cache, linker{}, testConfig(), zerolog.Nop())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if _, err := s.Resolve(ctx, "Faker#KR1", false); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Resolve(ctx, "faker #kr1", false); err != nil {
		t.Fatal(err)
	}
	if got := primary.calls.Load(); got != 1 {
		t.Errorf("primary calls after cached lookup = %d, want 1", got)
	}

	if _, err := s.Resolve(ctx, "Faker", true); err != nil {
		t.Fatal(err)
	}
	if got := primary.calls.Load(); got != 2 {
		t.Errorf("primary calls after refresh = %d, want 2", got)
	}

	now = now.Add(6 * time.Minute)
	if _, err := s.Resolve(ctx, "Faker", false); err != nil {
		t.Fatal(err)
	}
	if got := primary.calls.Load(); got != 3 {
		t.Errorf("primary calls after ttl = %d, want 3", got)
	}
}

func TestPlayerService_SharedLookupOutlivesCaller(t *testing.T) {
	primary := &fakeSource{name: domain.SourceRiot, fn: ranked(domain.TierGold, domain.DivisionI), gate: make(chan struct{})}
	s := newPlayerService(primary, nil, newMemCache(), linker{}, testConfig(), zerolog.Nop())

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := s.Resolve(ctxA, "Faker", false)
		errA <- err
	}()
	for primary.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	type result struct {
		p   domain.Player
		err error
	}
	resB := make(chan result, 1)
	go func() {
		p, err := s.Resolve(context.Background(), "Faker", false)
		resB <- result{p, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller error = %v, want context.Canceled", err)
	}

	close(primary.gate)
	b := <-resB
	if b.err != nil {
		t.Fatalf("waiting caller error = %v", b.err)
	}
	if b.p.Rank() != "GOLD I" {
		t.Errorf("waiting caller got %s, want GOLD I", b.p.Rank())
	}
	if got := primary.calls.Load(); got != 1 {
		t.Errorf("primary calls = %d, want 1", got)
	}
}

func TestPlayerService_NotFoundDropsCachedRow(t *testing.T) {
	primary := &fakeSource{name: domain.SourceRiot, fn: func(id domain.RiotID) (source.Standing, error) {
		return source.Standing{}, &domain.PlayerNotFoundError{Name: id.String()}
	}}
	cache := newMemCache()
	cache.players["faker#kr1"] = domain.Player{Name: "Faker#KR1", Tier: domain.TierGold, Division: domain.DivisionI}
	s := newPlayerService(primary, nil, cache, linker{}, testConfig(), zerolog.Nop())

	if _, err := s.Resolve(context.Background(), "Faker", true); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("Resolve() error = %v, want ErrPlayerNotFound", err)
	}
	if _, ok := cache.players["faker#kr1"]; ok {
		t.Error("stale row still cached")
	}
}

func TestPlayerService_InvalidName(t *testing.T) {
	s := newPlayerService(&fakeSource{fn: ranked(domain.TierGold, domain.DivisionI)}, nil, newMemCache(), linker{}, testConfig(), zerolog.Nop())
	for _, name := range []string{"", "   ", "#KR1", strings.Repeat("a", 80)} {
		if _, err := s.Resolve(context.Background(), name, false); !errors.Is(err, domain.ErrInvalidName) {
			t.Errorf("Resolve(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestPlayerService_ResolveMany(t *testing.T) {
	tiers := map[string]domain.Tier{"a": domain.TierGold, "b": domain.TierSilver, "c": domain.TierBronze}
	primary := &fakeSource{fn: func(id domain.RiotID) (source.Standing, error) {
		tier, ok := tiers[id.GameName]
		if !ok {
			return source.Standing{}, &domain.PlayerNotFoundError{Name: id.String()}
		}
		return ranked(tier, domain.DivisionIV)(id)
	}}
	s := newPlayerService(primary, nil, newMemCache(), linker{}, testConfig(), zerolog.Nop())

	players, err := s.ResolveMany(context.Background(), []string{"c", "a", "b"})
	if err != nil {
		t.Fatalf("ResolveMany() error = %v", err)
	}
	want := []string{"BRONZE IV", "GOLD IV", "SILVER IV"}
	for i, p := range players {
		if p.Rank() != want[i] {
			t.Errorf("players[%d] = %s, want %s", i, p.Rank(), want[i])
		}
	}

	if _, err := s.ResolveMany(context.Background(), []string{"a", "zz"}); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Errorf("ResolveMany() error = %v, want ErrPlayerNotFound", err)
	}
}

type fakeMatches struct {
	ids   []string
	picks map[string]api.MatchParticipant
}

func (f *fakeMatches) GetMatchIDs(context.Context, string, int) ([]string, error) { return f.ids, nil }

func (f *fakeMatches) GetMatch(_ context.Context, id string) (*api.MatchResponse, error) {
	p, ok := f.picks[id]
	if !ok {
		return nil, api.ErrNotFound
	}
	var m api.MatchResponse
	m.Info.Participants = []api.MatchParticipant{{Puuid: "other", ChampionName: "Teemo"}, p}
	return &m, nil
}

type memChampions struct {
	mu    sync.Mutex
	stats map[string]domain.ChampionStat
}

func (c *memChampions) Get(_ context.Context, puuid string) (*domain.ChampionStat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stats[puuid]
	if !ok {
		return nil, repository.ErrNotCached
	}
	return &s, nil
}

func (c *memChampions) Upsert(_ context.Context, s *domain.ChampionStat) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats[s.Puuid] = *s
	return nil
}

func TestChampionService_MostPlayed(t *testing.T) {
	me := func(champ, pos string) api.MatchParticipant {
		return api.MatchParticipant{Puuid: "me", ChampionName: champ, TeamPosition: pos}
	}
	matches := &fakeMatches{
		ids: []string{"m1", "m2", "m3", "m4", "m5"},
		picks: map[string]api.MatchParticipant{
			"m1": me("Ahri", "MIDDLE"),
			"m2": me("Zed", "MIDDLE"),
			"m3": me("Zed", "MIDDLE"),
			"m4": me("Ahri", "BOTTOM"),
			"m5": me("Lux", "UTILITY"),
		},
	}
	cache := &memChampions{stats: make(map[string]domain.ChampionStat)}
	s := newChampionService(matches, cache, zerolog.Nop())

	stat, err := s.MostPlayed(context.Background(), "me")
	if err != nil {
		t.Fatalf("MostPlayed() error = %v", err)
	}
	if stat.Champion != "Ahri" || stat.Games != 2 || stat.Position != "MIDDLE" || stat.SampleSize != 5 {
		t.Errorf("MostPlayed() = %+v", stat)
	}
	if _, ok := cache.stats["me"]; !ok {
		t.Error("stat not cached")
	}

	matches.ids = append(matches.ids, "missing")
	cache.stats = make(map[string]domain.ChampionStat)
	if _, err := s.MostPlayed(context.Background(), "me"); !errors.Is(err, api.ErrNotFound) {
		t.Errorf("MostPlayed() error = %v, want ErrNotFound", err)
	}
}

type fakeResolver struct {
	players map[string]domain.Player
}

func (f *fakeResolver) Resolve(_ context.Context, name string, _ bool) (domain.Player, error) {
	p, ok := f.players[domain.NormalizeName(name)]
	if !ok {
		return domain.Player{}, &domain.PlayerNotFoundError{Name: name}
	}
	return p, nil
}

func (f *fakeResolver) ResolveMany(ctx context.Context, names []string) ([]domain.Player, error) {
	out := make([]domain.Player, len(names))
	for i, name := range names {
		p, err := f.Resolve(ctx, name, false)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

type fakeChampions struct{ err error }

func (f fakeChampions) MostPlayed(_ context.Context, puuid string) (domain.ChampionStat, error) {
	if f.err != nil {
		return domain.ChampionStat{}, f.err
	}
	return domain.ChampionStat{Puuid: puuid, Champion: "Ahri", Games: 3}, nil
}

func newFakeResolver(n int) *fakeResolver {
	r := &fakeResolver{players: make(map[string]domain.Player)}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("p%d", i)
		r.players[name] = domain.Player{Name: name + "#KR1", Puuid: name, Tier: domain.TierGold, Division: domain.DivisionIV, Rating: 2600 + i*10}
	}
	return r
}

func TestRosterService(t *testing.T) {
	reg := roster.NewRegistry(zerolog.Nop())
	s := newRosterService(newFakeResolver(3), fakeChampions{}, reg, "KR1", zerolog.Nop())
	ctx := context.Background()

	for _, name := range []string{"p0", "p1"} {
		if _, err := s.Register(ctx, "chan", name); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}
	if _, err := s.Register(ctx, "chan", "P0#kr1"); !errors.Is(err, domain.ErrDuplicatePlayer) {
		t.Errorf("Register(dup) error = %v, want ErrDuplicatePlayer", err)
	}
	if _, err := s.Register(ctx, "chan", "ghost"); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Errorf("Register(ghost) error = %v, want ErrPlayerNotFound", err)
	}
	if got := len(s.List("chan")); got != 2 {
		t.Errorf("List() len = %d, want 2", got)
	}
	if got := s.List("other"); got != nil {
		t.Errorf("List(other) = %v, want nil", got)
	}

	reports, err := s.Check(ctx, "chan")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(reports) != 2 || reports[0].Player.Puuid != "p0" || reports[1].Champion.Champion != "Ahri" {
		t.Errorf("Check() = %+v", reports)
	}

	if _, err := s.Unregister("chan", "p1"); err != nil {
		t.Errorf("Unregister() error = %v", err)
	}
	if _, err := s.Unregister("chan", "p1"); !errors.Is(err, domain.ErrPlayerNotInRoster) {
		t.Errorf("Unregister(again) error = %v", err)
	}
	if _, err := s.Unregister("nowhere", "p1"); !errors.Is(err, domain.ErrPlayerNotInRoster) {
		t.Errorf("Unregister(no roster) error = %v", err)
	}

	if !s.Clear("chan") || s.Clear("chan") {
		t.Error("Clear() should report an existing roster exactly once")
	}
}

func TestRosterService_FailedRegisterLeavesNoRoster(t *testing.T) {
	reg := roster.NewRegistry(zerolog.Nop())
	s := newRosterService(newFakeResolver(1), fakeChampions{}, reg, "KR1", zerolog.Nop())

	if _, err := s.Register(context.Background(), "chan", "ghost"); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("Register(ghost) error = %v", err)
	}
	if _, ok := reg.Lookup("chan"); ok {
		t.Error("failed registration created a roster")
	}
	if s.Clear("chan") {
		t.Error("Clear() reported a roster that was never used")
	}
}

func TestRosterService_RegisterMany(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		names    []string
		wantErr  error
		wantLen  int
	}{
		{"all resolve", nil, []string{"p0", "p1", "p2"}, nil, 3},
		{"one missing adds none", nil, []string{"p0", "ghost"}, domain.ErrPlayerNotFound, 0},
		{"duplicate in batch", nil, []string{"p0", "P0#KR1"}, domain.ErrDuplicatePlayer, 0},
		{"already registered", []string{"p1"}, []string{"p0", "p1"}, domain.ErrDuplicatePlayer, 1},
		{"empty", nil, nil, domain.ErrEmptyInput, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := roster.NewRegistry(zerolog.Nop())
			s := newRosterService(newFakeResolver(3), fakeChampions{}, reg, "KR1", zerolog.Nop())
			for _, name := range tt.existing {
				if _, err := s.Register(context.Background(), "chan", name); err != nil {
					t.Fatal(err)
				}
			}

			players, err := s.RegisterMany(context.Background(), "chan", tt.names)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("RegisterMany() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil || len(players) != len(tt.names) {
				t.Fatalf("RegisterMany() = %d players, %v", len(players), err)
			}
			if got := len(s.List("chan")); got != tt.wantLen {
				t.Errorf("roster size = %d, want %d", got, tt.wantLen)
			}
		})
	}
}

func TestRosterService_CheckRateLimited(t *testing.T) {
	reg := roster.NewRegistry(zerolog.Nop())
	s := newRosterService(newFakeResolver(1), fakeChampions{err: &domain.RateLimitedError{Source: "riot"}}, reg, "KR1", zerolog.Nop())
	if _, err := s.Register(context.Background(), "chan", "p0"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Check(context.Background(), "chan"); !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("Check() error = %v, want ErrRateLimited", err)
	}

	s.champions = fakeChampions{err: errors.New("boom")}
	reports, err := s.Check(context.Background(), "chan")
	if err != nil || len(reports) != 1 || reports[0].Champion.Champion != "" {
		t.Errorf("Check() = %+v, %v; want empty champion", reports, err)
	}
}

func TestTeamService_Teams(t *testing.T) {
	tests := []struct {
		name      string
		players   int
		wantTeams int
		wantErr   error
	}{
		{"empty", 0, 0, domain.ErrEmptyInput},
		{"too small", 9, 0, domain.ErrRosterTooSmall},
		{"two teams", 10, 2, nil},
		{"uneven", 11, 0, domain.ErrUnevenRoster},
		{"three teams", 15, 3, nil},
		{"four teams", 20, 4, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := roster.NewRegistry(zerolog.Nop())
			rs := newRosterService(newFakeResolver(tt.players), fakeChampions{}, reg, "KR1", zerolog.Nop())
			for i := 0; i < tt.players; i++ {
				if _, err := rs.Register(context.Background(), "chan", fmt.Sprintf("p%d", i)); err != nil {
					t.Fatal(err)
				}
			}

			s := NewTeamService(reg, testConfig(), zerolog.Nop())
			summaries, err := s.Teams("chan")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Teams() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Teams() error = %v", err)
			}
			if len(summaries) != tt.wantTeams {
				t.Fatalf("Teams() = %d teams, want %d", len(summaries), tt.wantTeams)
			}
			total := 0
			for _, sum := range summaries {
				total += len(sum.Team.Players)
			}
			if total != tt.players {
				t.Errorf("players across teams = %d, want %d", total, tt.players)
			}
			if summaries[0].Standout.Rating != 2600+(tt.players-1)*10 {
				t.Errorf("team 1 standout = %+v", summaries[0].Standout)
			}
		})
	}
}
