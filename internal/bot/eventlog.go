package bot

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"verigate/internal/modules/audit"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	// stateMessageCount bounds the per-channel message cache that edit and
	// delete events read their previous content from.
	stateMessageCount = 100
	maxContentRunes   = 400
	maxFieldRunes     = 1024
)

type mirrorTarget int

const (
	mirrorNone mirrorTarget = iota
	mirrorModerationLog
	mirrorEventLog
)

// mirrorTargetOf picks the channel family an audit event is echoed to.
// Verification events have their own notifier embed and are not mirrored.
func mirrorTargetOf(event string) mirrorTarget {
	switch event {
	case audit.EventFilterViolation, audit.EventTimeout, audit.EventNickname:
		return mirrorModerationLog
	case audit.EventMemberJoin, audit.EventMemberLeave, audit.EventNicknameEdit,
		audit.EventRolesEdit, audit.EventMessageEdit, audit.EventMessageDelete:
		return mirrorEventLog
	default:
		return mirrorNone
	}
}

func (b *Bot) onGuildMemberAdd(_ *discordgo.Session, event *discordgo.GuildMemberAdd) {
	if event.Member == nil || event.User == nil {
		return
	}
	b.logEvent(event.GuildID, event.User.ID, audit.EventMemberJoin, memberJoinDetails(event.User))
}

func (b *Bot) onGuildMemberRemove(_ *discordgo.Session, event *discordgo.GuildMemberRemove) {
	if event.Member == nil || event.User == nil {
		return
	}
	b.logEvent(event.GuildID, event.User.ID, audit.EventMemberLeave, "name="+event.User.Username)
}

func (b *Bot) onGuildMemberUpdate(_ *discordgo.Session, event *discordgo.GuildMemberUpdate) {
	if event.Member == nil || event.User == nil {
		return
	}
	if details, ok := nicknameChange(event.BeforeUpdate, event.Member); ok {
		b.logEvent(event.GuildID, event.User.ID, audit.EventNicknameEdit, details)
	}
	if details, ok := roleChange(event.BeforeUpdate, event.Member); ok {
		b.logEvent(event.GuildID, event.User.ID, audit.EventRolesEdit, details)
	}
}

func (b *Bot) onMessageUpdate(_ *discordgo.Session, event *discordgo.MessageUpdate) {
	if event.Message == nil {
		return
	}
	details, ok := messageEdit(event.BeforeUpdate, event.Message)
	if !ok {
		return
	}
	b.logEvent(event.BeforeUpdate.GuildID, event.BeforeUpdate.Author.ID, audit.EventMessageEdit, details)
}

func (b *Bot) onMessageDelete(_ *discordgo.Session, event *discordgo.MessageDelete) {
	details, ok := messageDeletion(event.BeforeDelete)
	if !ok {
		return
	}
	b.logEvent(event.BeforeDelete.GuildID, event.BeforeDelete.Author.ID, audit.EventMessageDelete, details)
}

// logEvent records a member or message event, but only for guilds that
// registered at least one event log channel.
func (b *Bot) logEvent(guildID, userID, event, details string) {
	if guildID == "" {
		return
	}
	ctx := context.Background()
	if len(b.eventLogChannels(ctx, guildID)) == 0 {
		return
	}
	b.audit.Log(ctx, audit.LevelInfo, guildID, userID, event, details)
}

func (b *Bot) eventLogChannels(ctx context.Context, guildID string) []string {
	if b.store == nil {
		return nil
	}
	channels, err := b.store.ListEventLogChannels(ctx, guildID)
	if err != nil {
		b.logger.Warn("load event log channels failed", zap.String("guild_id", guildID), zap.Error(err))
		return nil
	}
	return channels
}

func memberJoinDetails(user *discordgo.User) string {
	created, err := discordgo.SnowflakeTimestamp(user.ID)
	if err != nil {
		return "name=" + user.Username
	}
	return fmt.Sprintf("name=%s\naccount_created=<t:%d:F>", user.Username, created.Unix())
}

// nicknameChange needs the cached member; without it there is nothing to diff.
func nicknameChange(before, after *discordgo.Member) (string, bool) {
	if before == nil || before.Nick == after.Nick {
		return "", false
	}
	return fmt.Sprintf("before=%s\nafter=%s", orDash(displayName(before)), orDash(displayName(after))), true
}

func roleChange(before, after *discordgo.Member) (string, bool) {
	if before == nil {
		return "", false
	}
	added := roleDiff(after.Roles, before.Roles)
	removed := roleDiff(before.Roles, after.Roles)
	if len(added) == 0 && len(removed) == 0 {
		return "", false
	}

	var lines []string
	if len(added) > 0 {
		lines = append(lines, "added="+roleMentions(added))
	}
	if len(removed) > 0 {
		lines = append(lines, "removed="+roleMentions(removed))
	}
	return strings.Join(lines, "\n"), true
}

// roleDiff returns the roles in from that are missing in other, in from's order.
func roleDiff(from, other []string) []string {
	seen := make(map[string]struct{}, len(other))
	for _, id := range other {
		seen[id] = struct{}{}
	}
	var out []string
	for _, id := range from {
		if _, ok := seen[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func roleMentions(ids []string) string {
	mentions := make([]string, len(ids))
	for i, id := range ids {
		mentions[i] = "<@&" + id + ">"
	}
	return strings.Join(mentions, ", ")
}

// messageEdit skips uncached messages, bot authors and embed-only updates
// where the text did not change.
func messageEdit(before, after *discordgo.Message) (string, bool) {
	if before == nil || before.Author == nil || before.Author.Bot {
		return "", false
	}
	if before.Content == after.Content {
		return "", false
	}
	return fmt.Sprintf("channel=<#%s>\nbefore=%s\nafter=%s\nlink=%s",
		before.ChannelID,
		orDash(clip(before.Content, maxContentRunes)),
		orDash(clip(after.Content, maxContentRunes)),
		messageLink(before.GuildID, before.ChannelID, before.ID),
	), true
}

func messageDeletion(msg *discordgo.Message) (string, bool) {
	if msg == nil || msg.Author == nil || msg.Author.Bot {
		return "", false
	}
	return fmt.Sprintf("channel=<#%s>\ncontent=%s", msg.ChannelID, orDash(clip(msg.Content, maxContentRunes))), true
}

func messageLink(guildID, channelID, messageID string) string {
	return "https://discord.com/channels/" + guildID + "/" + channelID + "/" + messageID
}

func clip(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return string(runes[:limit-1]) + "…"
}
