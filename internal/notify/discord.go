package notify

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/vthunder/nudge/internal/logging"
	"github.com/vthunder/nudge/internal/types"
)

// Discord delivers interventions to a Discord channel, for users who want
// nudges on a second device.
type Discord struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscord creates a Discord notifier and opens the gateway connection
func NewDiscord(token, channelID string) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("open discord session: %w", err)
	}
	logging.Info("notify", "discord sink connected (channel %s)", channelID)
	return &Discord{session: session, channelID: channelID}, nil
}

// Execute sends the intervention as a channel message
func (d *Discord) Execute(kind types.InterventionKind, message string) error {
	if kind == types.KindNone {
		return nil
	}

	var text string
	switch kind {
	case types.KindAlarm:
		text = "🚨 **" + message + "**"
	case types.KindNotification:
		text = "⚠️ " + message
	default:
		text = message
	}

	if _, err := d.session.ChannelMessageSend(d.channelID, text); err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	return nil
}

// Close shuts down the gateway connection
func (d *Discord) Close() error {
	return d.session.Close()
}
