package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// memberStatuses are the getChatMember statuses counted as "is a member".
// Everything else, including left, kicked and unknown, is not.
var memberStatuses = map[string]bool{
	"member":        true,
	"administrator": true,
	"creator":       true,
}

// ChannelMembership checks live channel membership over getChatMember.
// Any failure of the underlying call means "not a member" — fail closed.
type ChannelMembership struct {
	api     *tgbotapi.BotAPI
	channel string
	log     zerolog.Logger
}

func NewChannelMembership(api *tgbotapi.BotAPI, channel string, log zerolog.Logger) *ChannelMembership {
	return &ChannelMembership{api: api, channel: strings.TrimSpace(channel), log: log}
}

func (m *ChannelMembership) IsMember(ctx context.Context, userID int64) bool {
	if m.channel == "" {
		return false
	}

	cfg := tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{UserID: userID},
	}
	// The channel may be configured as @username or as a numeric id.
	if id, err := strconv.ParseInt(m.channel, 10, 64); err == nil {
		cfg.ChatID = id
	} else {
		cfg.SuperGroupUsername = m.channel
	}

	member, err := m.api.GetChatMember(cfg)
	if err != nil {
		m.log.Debug().Err(err).Int64("user", userID).Msg("getChatMember failed")
		return false
	}

	return memberStatuses[member.Status]
}
