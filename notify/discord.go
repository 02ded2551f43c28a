package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// DiscordPoster posts to one Discord channel using a bot token. Only the
// REST API is used, so no gateway connection is opened.
type DiscordPoster struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordPoster(token, channelID string) (*DiscordPoster, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &DiscordPoster{session: session, channelID: channelID}, nil
}

func (p *DiscordPoster) Post(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.session.ChannelMessageSend(p.channelID, "🍽️ "+content); err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	return nil
}
