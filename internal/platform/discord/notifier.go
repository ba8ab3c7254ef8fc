// Package discord carries the outbound announcement capability. The gateway
// connection, slash-command registration and interaction handling live in the
// bot process outside this codebase; the engines only ever post
// fire-and-forget announcements to a channel.
package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// Embed colors used for faucet and giveaway announcements.
const (
	ColorSuccess = 0x00ff40
	ColorWarning = 0xffaa00
	ColorFailure = 0xff0000
)

// Field is one name/value pair of an announcement embed.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Announcement is a channel post. Engines build these; delivery never blocks
// an engine outcome.
type Announcement struct {
	ChannelID   string
	Title       string
	Description string
	Color       int
	Fields      []Field
}

// Notifier posts announcements to channels, fire and forget.
type Notifier interface {
	Announce(a Announcement)
}

// BotNotifier posts announcements through a discordgo session.
type BotNotifier struct {
	session *discordgo.Session
	logger  zerolog.Logger
}

func NewBotNotifier(botToken string, logger zerolog.Logger) (*BotNotifier, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, err
	}
	return &BotNotifier{session: session, logger: logger}, nil
}

func (n *BotNotifier) Announce(a Announcement) {
	go func() {
		embed := &discordgo.MessageEmbed{
			Title:       a.Title,
			Description: a.Description,
			Color:       a.Color,
			Timestamp:   time.Now().Format(time.RFC3339),
		}
		for _, f := range a.Fields {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   f.Name,
				Value:  f.Value,
				Inline: f.Inline,
			})
		}

		if _, err := n.session.ChannelMessageSendEmbed(a.ChannelID, embed); err != nil {
			n.logger.Error().
				Str("channel_id", a.ChannelID).
				Str("title", a.Title).
				Err(err).
				Msg("failed to post announcement")
		}
	}()
}

// LogNotifier logs announcements instead of posting them. Used when no bot
// token is configured.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n *LogNotifier) Announce(a Announcement) {
	n.Logger.Info().
		Str("channel_id", a.ChannelID).
		Str("title", a.Title).
		Str("description", a.Description).
		Msg("announcement (notifier disabled)")
}
