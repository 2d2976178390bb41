package bot

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"summoner-balancer/internal/domain"

	"github.com/rs/zerolog"
)

type fakeRoster struct {
	players []domain.Player
	checked []domain.PlayerReport
	err     error
}

func (f *fakeRoster) RegisterMany(_ context.Context, _ string, names []string) ([]domain.Player, error) {
	var added []domain.Player
	for _, name := range names {
		if name == "ghost" {
			return nil, &domain.PlayerNotFoundError{Name: "ghost#KR1"}
		}
		added = append(added, domain.Player{Name: name + "#KR1", Tier: domain.TierGold, Division: domain.DivisionII,
			LeaguePoints: 75, Queue: domain.QueueSolo, Source: domain.SourceRiot})
	}
	f.players = append(f.players, added...)
	return added, nil
}

func (f *fakeRoster) Unregister(_, name string) (domain.Player, error) {
	for i, p := range f.players {
		if p.Name == name {
			f.players = append(f.players[:i], f.players[i+1:]...)
			return p, nil
		}
	}
	return domain.Player{}, errors.New(name + ": " + domain.ErrPlayerNotInRoster.Error())
}

func (f *fakeRoster) List(string) []domain.Player { return f.players }

func (f *fakeRoster) Clear(string) bool {
	f.players = nil
	return true
}

func (f *fakeRoster) Check(context.Context, string) ([]domain.PlayerReport, error) {
	return f.checked, f.err
}

type fakeTeams struct {
	summaries []domain.TeamSummary
	err       error
}

func (f fakeTeams) Teams(string) ([]domain.TeamSummary, error) { return f.summaries, f.err }

func newTestBot(r RosterOps, t TeamOps) *Bot {
	return &Bot{prefix: "!", roster: r, teams: t, logger: zerolog.Nop()}
}

func TestHandleCommand_Register(t *testing.T) {
	r := &fakeRoster{}
	b := newTestBot(r, fakeTeams{})

	reply, ok := b.HandleCommand(context.Background(), "c1", "!소환사등록 Hide on bush")
	if !ok {
		t.Fatal("korean alias not handled")
	}
	if !strings.Contains(reply.Body, "Hide on bush#KR1 registered (GOLD II, 75 LP)") {
		t.Errorf("reply = %q", reply.Body)
	}

	reply, _ = b.HandleCommand(context.Background(), "c1", `!register "Faker" ghost`)
	if strings.Contains(reply.Body, "Faker#KR1 registered") || !strings.Contains(reply.Body, "Summoner ghost#KR1 not found.") {
		t.Errorf("reply = %q", reply.Body)
	}
	if !strings.Contains(reply.Body, "Roster: Hide on bush#KR1 (1)") {
		t.Errorf("roster line after failed batch = %q", reply.Body)
	}

	reply, _ = b.HandleCommand(context.Background(), "c1", `!register "Faker" "Deft"`)
	if !strings.Contains(reply.Body, "Faker#KR1 registered") || !strings.Contains(reply.Body, "Deft#KR1 registered") {
		t.Errorf("reply = %q", reply.Body)
	}
	if !strings.Contains(reply.Body, "Roster: Hide on bush#KR1, Faker#KR1, Deft#KR1 (3)") {
		t.Errorf("roster line = %q", reply.Body)
	}

	reply, _ = b.HandleCommand(context.Background(), "c1", "!register")
	if !strings.HasPrefix(reply.Body, "usage:") {
		t.Errorf("reply = %q", reply.Body)
	}
}

func TestHandleCommand_NotACommand(t *testing.T) {
	b := newTestBot(&fakeRoster{}, fakeTeams{})
	for _, text := range []string{"hello", "!unknown", "?register x", ""} {
		if _, ok := b.HandleCommand(context.Background(), "c1", text); ok {
			t.Errorf("HandleCommand(%q) handled, want ignored", text)
		}
	}
}

func TestHandleCommand_Teams(t *testing.T) {
	a := domain.Player{Name: "a#KR1", Tier: domain.TierGold, Division: domain.DivisionI, LeaguePoints: 10, Source: domain.SourceRiot}
	u := domain.Player{Name: "u#KR1", Tier: domain.TierIron, Division: domain.DivisionIV, Queue: domain.QueueUnranked, Source: domain.SourcePlacement}
	summaries := []domain.TeamSummary{
		{Team: domain.Team{Index: 0, Players: []domain.Player{a}}, AverageTier: domain.TierGold, AverageDivision: domain.DivisionI},
		{Team: domain.Team{Index: 1, Players: []domain.Player{u}}, AverageTier: domain.TierIron, AverageDivision: domain.DivisionIV},
	}
	b := newTestBot(&fakeRoster{}, fakeTeams{summaries: summaries})

	reply, ok := b.HandleCommand(context.Background(), "c1", "!팀짜기")
	if !ok {
		t.Fatal("not handled")
	}
	want := "team1 [avg GOLD I]: a#KR1 (GOLD I, 10 LP)\nteam2 [avg IRON IV]: u#KR1 (IRON IV, unranked)"
	if reply.Body != want {
		t.Errorf("reply = %q, want %q", reply.Body, want)
	}
}

func TestHandleCommand_TeamErrors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&domain.UnevenRosterError{Size: 11, Multiple: 2}, "Register a multiple of 2 summoners (currently 11)."},
		{&domain.RosterTooSmallError{Size: 4, Min: 10}, "Register at least 10 summoners (currently 4)."},
		{&domain.EmptyInputError{Op: "balance"}, "No summoners registered."},
		{&domain.RateLimitedError{Source: "riot", RetryAfter: 3 * time.Second}, "API request limit exceeded. Please try again in 3 seconds."},
		{errors.New("boom"), "Sorry, something went wrong."},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			b := newTestBot(&fakeRoster{}, fakeTeams{err: tt.err})
			reply, _ := b.HandleCommand(context.Background(), "c1", "!teams")
			if reply.Body != tt.want {
				t.Errorf("reply = %q, want %q", reply.Body, tt.want)
			}
		})
	}
}

func TestHandleCommand_Check(t *testing.T) {
	r := &fakeRoster{checked: []domain.PlayerReport{{
		Player:   domain.Player{Name: "a#KR1", Tier: domain.TierSilver, Division: domain.DivisionI, Queue: domain.QueueLastSeason, Source: domain.SourceOPGG},
		Champion: domain.ChampionStat{Champion: "Ahri", Position: "MIDDLE"},
	}}}
	b := newTestBot(r, fakeTeams{})

	reply, _ := b.HandleCommand(context.Background(), "c1", "!확인하기")
	if reply.Body != "a#KR1: SILVER I, last season, Ahri (MIDDLE)" {
		t.Errorf("reply = %q", reply.Body)
	}

	r.checked, r.err = nil, &domain.RateLimitedError{Source: "riot"}
	reply, _ = b.HandleCommand(context.Background(), "c1", "!check")
	if reply.Body != "API request limit exceeded. Please try again shortly." {
		t.Errorf("reply = %q", reply.Body)
	}
}

func TestHandleCommand_ListClear(t *testing.T) {
	r := &fakeRoster{}
	b := newTestBot(r, fakeTeams{})
	b.HandleCommand(context.Background(), "c1", "!register a")

	reply, _ := b.HandleCommand(context.Background(), "c1", "!LIST")
	if reply.Body != "a#KR1 (1)" {
		t.Errorf("list = %q", reply.Body)
	}
	reply, _ = b.HandleCommand(context.Background(), "c1", "!unregister a#KR1")
	if !strings.HasPrefix(reply.Body, "a#KR1 removed.") {
		t.Errorf("unregister = %q", reply.Body)
	}
	b.HandleCommand(context.Background(), "c1", "!clear")
	if reply, _ := b.HandleCommand(context.Background(), "c1", "!list"); reply.Body != "(empty)" {
		t.Errorf("list after clear = %q", reply.Body)
	}
}

func TestSplitArgs(t *testing.T) {
	got := splitArgs(`"Hide on bush" Faker  "" "T1 Gumayusi#KR1"`)
	want := []string{"Hide on bush", "Faker", "T1 Gumayusi#KR1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitArgs() = %q, want %q", got, want)
	}
}
