// Package bot is the Discord front end. Each channel gets its own roster;
// commands are prefix-based and accept the English names as well as the
// Korean aliases players already know.
package bot

import (
	"context"
	"fmt"

	"summoner-balancer/internal/config"
	"summoner-balancer/internal/constants"
	"summoner-balancer/internal/domain"
	"summoner-balancer/internal/service"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

type RosterOps interface {
	RegisterMany(ctx context.Context, session string, names []string) ([]domain.Player, error)
	Unregister(session, name string) (domain.Player, error)
	List(session string) []domain.Player
	Clear(session string) bool
	Check(ctx context.Context, session string) ([]domain.PlayerReport, error)
}

type TeamOps interface {
	Teams(session string) ([]domain.TeamSummary, error)
}

type Bot struct {
	session *discordgo.Session
	prefix  string
	roster  RosterOps
	teams   TeamOps
	logger  zerolog.Logger
}

func New(cfg *config.Config, rosterSvc *service.RosterService, teamSvc *service.TeamService, logger zerolog.Logger) (*Bot, error) {
	b := &Bot{
		prefix: cfg.CommandPrefix,
		roster: rosterSvc,
		teams:  teamSvc,
		logger: logger.With().Str("component", "discord").Logger(),
	}
	if cfg.DiscordToken == "" {
		b.logger.Info().Msg("DISCORD_BOT_TOKEN not set, discord bot disabled")
		return b, nil
	}

	s, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent
	s.AddHandler(b.onReady)
	s.AddHandler(b.onMessageCreate)
	b.session = s
	return b, nil
}

func (b *Bot) Enabled() bool { return b.session != nil }

func (b *Bot) Open() error {
	if !b.Enabled() {
		return nil
	}
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}
	b.logger.Info().Msg("discord gateway connected")
	return nil
}

func (b *Bot) Close() error {
	if !b.Enabled() {
		return nil
	}
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("discord ready")
	if err := s.UpdateGameStatus(0, constants.DiscordPresence); err != nil {
		b.logger.Warn().Err(err).Msg("failed to set presence")
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	reply, ok := b.HandleCommand(context.Background(), m.ChannelID, m.Content)
	if !ok {
		return
	}

	_, err := s.ChannelMessageSendEmbed(m.ChannelID, &discordgo.MessageEmbed{
		Title:       reply.Title,
		Description: reply.Body,
		Color:       constants.DiscordEmbedColor,
	})
	if err != nil {
		b.logger.Error().Err(err).Str("channel", m.ChannelID).Msg("failed to send reply")
	}
}
