package bot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"summoner-balancer/internal/domain"
)

// quoted names may contain spaces: !register "Hide on bush" Faker
var reArg = regexp.MustCompile(`"([^"]*)"|(\S+)`)

type Reply struct {
	Title string
	Body  string
}

// HandleCommand runs one chat line against the channel's roster. ok is false
// when the line is not a command for this bot.
func (b *Bot) HandleCommand(ctx context.Context, channelID, text string) (reply Reply, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, b.prefix) {
		return Reply{}, false
	}
	cmd, args, _ := strings.Cut(strings.TrimPrefix(text, b.prefix), " ")
	args = strings.TrimSpace(args)

	log := b.logger.With().Str("channel", channelID).Str("command", cmd).Logger()

	switch strings.ToLower(cmd) {
	case "help", "도움말":
		return Reply{Title: "Commands", Body: b.helpText()}, true

	case "register", "소환사등록":
		names := registerArgs(args)
		if len(names) == 0 {
			return Reply{Title: "Register", Body: fmt.Sprintf("usage: %sregister <name#tag>", b.prefix)}, true
		}
		var lines []string
		players, err := b.roster.RegisterMany(ctx, channelID, names)
		if err != nil {
			log.Warn().Err(err).Strs("names", names).Msg("register failed")
			lines = append(lines, errorText(err))
		}
		for _, p := range players {
			lines = append(lines, fmt.Sprintf("%s registered (%s).", p.Name, describeRank(p)))
		}
		lines = append(lines, "Roster: "+rosterNames(b.roster.List(channelID)))
		return Reply{Title: "Register", Body: strings.Join(lines, "\n")}, true

	case "unregister", "remove", "소환사삭제":
		if args == "" {
			return Reply{Title: "Unregister", Body: fmt.Sprintf("usage: %sunregister <name#tag>", b.prefix)}, true
		}
		p, err := b.roster.Unregister(channelID, strings.Trim(args, `"`))
		if err != nil {
			return Reply{Title: "Unregister", Body: errorText(err)}, true
		}
		return Reply{Title: "Unregister", Body: fmt.Sprintf("%s removed.\nRoster: %s", p.Name, rosterNames(b.roster.List(channelID)))}, true

	case "list", "목록":
		return Reply{Title: "Roster", Body: rosterNames(b.roster.List(channelID))}, true

	case "clear", "초기화":
		b.roster.Clear(channelID)
		return Reply{Title: "Roster", Body: "Roster cleared."}, true

	case "check", "확인하기":
		reports, err := b.roster.Check(ctx, channelID)
		if err != nil {
			log.Warn().Err(err).Msg("check failed")
			return Reply{Title: "Summoners", Body: errorText(err)}, true
		}
		if len(reports) == 0 {
			return Reply{Title: "Summoners", Body: errorText(domain.ErrEmptyInput)}, true
		}
		var sb strings.Builder
		for _, r := range reports {
			fmt.Fprintf(&sb, "%s: %s", r.Player.Name, describeRank(r.Player))
			if r.Champion.Champion != "" {
				fmt.Fprintf(&sb, ", %s", r.Champion.Champion)
				if r.Champion.Position != "" {
					fmt.Fprintf(&sb, " (%s)", r.Champion.Position)
				}
			}
			sb.WriteByte('\n')
		}
		return Reply{Title: "Summoners", Body: strings.TrimRight(sb.String(), "\n")}, true

	case "teams", "팀짜기":
		summaries, err := b.teams.Teams(channelID)
		if err != nil {
			log.Debug().Err(err).Msg("teams refused")
			return Reply{Title: "Teams", Body: errorText(err)}, true
		}
		var sb strings.Builder
		for _, s := range summaries {
			members := make([]string, len(s.Team.Players))
			for i, p := range s.Team.Players {
				members[i] = fmt.Sprintf("%s (%s)", p.Name, describeRank(p))
			}
			fmt.Fprintf(&sb, "team%d [avg %s]: %s\n", s.Team.Index+1,
				domain.FormatRank(s.AverageTier, s.AverageDivision), strings.Join(members, ", "))
		}
		return Reply{Title: "Teams", Body: strings.TrimRight(sb.String(), "\n")}, true
	}

	return Reply{}, false
}

func (b *Bot) helpText() string {
	p := b.prefix
	return strings.Join([]string{
		p + "register <name#tag> (" + p + "소환사등록)",
		"  add a summoner to this channel's roster; quote names to add several at once (all or none)",
		p + "unregister <name#tag>",
		"  remove a summoner",
		p + "list",
		"  show the roster",
		p + "check (" + p + "확인하기)",
		"  rank, most played champion and position of every summoner",
		p + "teams (" + p + "팀짜기)",
		"  build balanced teams: 10+ players make 2 teams, 15+ make 3, 20+ make 4",
		p + "clear",
		"  empty the roster",
	}, "\n")
}

// registerArgs returns the names to register. Without quotes the whole
// argument is one name, since Riot names may contain spaces.
func registerArgs(args string) []string {
	if args == "" {
		return nil
	}
	if !strings.Contains(args, `"`) {
		return []string{args}
	}
	return splitArgs(args)
}

func splitArgs(s string) []string {
	var out []string
	for _, m := range reArg.FindAllStringSubmatch(s, -1) {
		arg := m[1]
		if arg == "" {
			arg = m[2]
		}
		if arg = strings.TrimSpace(arg); arg != "" {
			out = append(out, arg)
		}
	}
	return out
}

func describeRank(p domain.Player) string {
	switch {
	case p.Unranked():
		return p.Rank() + ", unranked"
	case p.Source == domain.SourceOPGG:
		return p.Rank() + ", last season"
	}
	return fmt.Sprintf("%s, %d LP", p.Rank(), p.LeaguePoints)
}

func rosterNames(players []domain.Player) string {
	if len(players) == 0 {
		return "(empty)"
	}
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	return fmt.Sprintf("%s (%d)", strings.Join(names, ", "), len(players))
}

func errorText(err error) string {
	var (
		uneven    *domain.UnevenRosterError
		tooSmall  *domain.RosterTooSmallError
		notFound  *domain.PlayerNotFoundError
		rateLimit *domain.RateLimitedError
	)
	switch {
	case errors.As(err, &uneven):
		return fmt.Sprintf("Register a multiple of %d summoners (currently %d).", uneven.Multiple, uneven.Size)
	case errors.As(err, &tooSmall):
		return fmt.Sprintf("Register at least %d summoners (currently %d).", tooSmall.Min, tooSmall.Size)
	case errors.Is(err, domain.ErrEmptyInput):
		return "No summoners registered."
	case errors.As(err, &notFound):
		return fmt.Sprintf("Summoner %s not found.", notFound.Name)
	case errors.As(err, &rateLimit):
		if rateLimit.RetryAfter > 0 {
			return fmt.Sprintf("API request limit exceeded. Please try again in %d seconds.", int(math.Ceil(rateLimit.RetryAfter.Seconds())))
		}
		return "API request limit exceeded. Please try again shortly."
	case errors.Is(err, domain.ErrDuplicatePlayer), errors.Is(err, domain.ErrPlayerNotInRoster):
		return err.Error() + "."
	case errors.Is(err, domain.ErrInvalidName):
		return "Invalid summoner name."
	}
	return "Sorry, something went wrong."
}
