package bot

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// The methods below adapt the gateway session to the verification service,
// the notifier and the message filter.

func (b *Bot) Guild(guildID string) (*discordgo.Guild, error) {
	if b.session.State != nil {
		if guild, err := b.session.State.Guild(guildID); err == nil {
			return guild, nil
		}
	}
	return b.session.Guild(guildID)
}

func (b *Bot) Member(guildID, userID string) (*discordgo.Member, error) {
	if b.session.State != nil {
		if member, err := b.session.State.Member(guildID, userID); err == nil {
			return member, nil
		}
	}
	return b.session.GuildMember(guildID, userID)
}

func (b *Bot) SendDM(userID string, embed *discordgo.MessageEmbed) error {
	if userID == "" || embed == nil {
		return errors.New("empty direct message")
	}
	channel, err := b.session.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = b.session.ChannelMessageSendEmbed(channel.ID, embed)
	return err
}

func (b *Bot) Ban(guildID, userID, reason string) error {
	return b.session.GuildBanCreateWithReason(guildID, userID, reason, 0)
}

// GrantRoleByName adds the first role whose name matches roleName, ignoring
// case. It reports false when the guild has no such role.
func (b *Bot) GrantRoleByName(guildID, userID, roleName, reason string) (bool, error) {
	roles, err := b.session.GuildRoles(guildID)
	if err != nil {
		return false, err
	}
	role := findRole(roles, roleName)
	if role == nil {
		return false, nil
	}
	if err := b.session.GuildMemberRoleAdd(guildID, userID, role.ID, discordgo.WithAuditLogReason(reason)); err != nil {
		return false, err
	}
	return true, nil
}

func (b *Bot) SendChannelEmbed(channelID string, embed *discordgo.MessageEmbed) error {
	_, err := b.session.ChannelMessageSendEmbed(channelID, embed)
	return err
}

func (b *Bot) DeleteMessage(channelID, messageID string) error {
	return b.session.ChannelMessageDelete(channelID, messageID)
}

func (b *Bot) SendChannelMessage(channelID, content string) error {
	_, err := b.session.ChannelMessageSend(channelID, content)
	return err
}

func (b *Bot) Kick(guildID, userID, reason string) error {
	return b.session.GuildMemberDeleteWithReason(guildID, userID, reason)
}

func (b *Bot) Timeout(guildID, userID string, until time.Time, reason string) error {
	return b.session.GuildMemberTimeout(guildID, userID, &until, discordgo.WithAuditLogReason(reason))
}

func (b *Bot) clearTimeout(guildID, userID, reason string) error {
	return b.session.GuildMemberTimeout(guildID, userID, nil, discordgo.WithAuditLogReason(reason))
}

// timeoutUntil fetches the member fresh so the expiry reflects the latest
// moderation state rather than the gateway cache.
func (b *Bot) timeoutUntil(guildID, userID string) (time.Time, error) {
	member, err := b.session.GuildMember(guildID, userID)
	if err != nil {
		return time.Time{}, err
	}
	if member.CommunicationDisabledUntil == nil {
		return time.Time{}, nil
	}
	return *member.CommunicationDisabledUntil, nil
}

func findRole(roles []*discordgo.Role, name string) *discordgo.Role {
	for _, role := range roles {
		if role != nil && strings.EqualFold(role.Name, name) {
			return role
		}
	}
	return nil
}
