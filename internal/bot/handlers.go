package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"verigate/internal/analytics"
	"verigate/internal/moderation"
	"verigate/internal/modules/audit"
	"verigate/internal/modules/filter"
	"verigate/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	timeoutAdd     = "add"
	timeoutForever = "forever"
	timeoutCancel  = "cancel"
	timeoutView    = "view"
	timeoutHistory = "history"
	timeoutRemove  = "remove"

	timeoutHistoryLimit = 10
	statsWindow         = 7 * 24 * time.Hour
)

type optionSet map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionsOf(options []*discordgo.ApplicationCommandInteractionDataOption) optionSet {
	set := make(optionSet, len(options))
	for _, opt := range options {
		set[opt.Name] = opt
	}
	return set
}

func (o optionSet) String(name string) string {
	if opt, ok := o[name]; ok {
		return strings.TrimSpace(opt.StringValue())
	}
	return ""
}

func (o optionSet) Int(name string) int {
	if opt, ok := o[name]; ok {
		return int(opt.IntValue())
	}
	return 0
}

func (o optionSet) Bool(name string) bool {
	if opt, ok := o[name]; ok {
		return opt.BoolValue()
	}
	return false
}

// ID returns the snowflake carried by a user, role or channel option.
func (o optionSet) ID(name string) string {
	opt, ok := o[name]
	if !ok {
		return ""
	}
	if id, ok := opt.Value.(string); ok {
		return id
	}
	return ""
}

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}

	ctx := context.Background()
	data := interaction.ApplicationCommandData()
	if interaction.GuildID == "" {
		lang := b.language(storage.GuildSettings{})
		b.respondEmbed(session, interaction, b.commandEmbed(data.Name, b.t(lang, "error_only_guild"), b.cfg.Notifications.EmbedColors.Error, nil), true)
		return
	}

	settings := b.guildSettings(ctx, interaction.GuildID)
	lang := b.language(settings)
	if !hasPermission(interaction.Member, requiredPermission(data.Name)) {
		b.respondEmbed(session, interaction, b.commandEmbed(data.Name, b.t(lang, "error_permission"), b.cfg.Notifications.EmbedColors.Error, nil), true)
		return
	}

	switch data.Name {
	case "verify":
		b.handleVerify(session, interaction, lang, optionsOf(data.Options))
	case "verifylog":
		b.handleVerifyLog(ctx, session, interaction, settings, lang, data.Options)
	case "log":
		b.handleEventLog(ctx, session, interaction, lang, data.Options)
	case "timeout":
		b.handleTimeout(ctx, session, interaction, lang, optionsOf(data.Options))
	case "nick":
		b.handleNick(ctx, session, interaction, lang, optionsOf(data.Options))
	case "filter":
		b.handleFilter(ctx, session, interaction, settings, lang, data.Options)
	}
}

func requiredPermission(command string) int64 {
	switch command {
	case "timeout":
		return permModerateMembers
	case "nick":
		return permManageNicknames
	default:
		return permAdministrator
	}
}

func hasPermission(member *discordgo.Member, perm int64) bool {
	if member == nil {
		return false
	}
	if member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return member.Permissions&perm != 0
}

func invokerID(interaction *discordgo.InteractionCreate) string {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User.ID
	}
	if interaction.User != nil {
		return interaction.User.ID
	}
	return ""
}

func (b *Bot) handleVerify(session *discordgo.Session, interaction *discordgo.InteractionCreate, lang string, options optionSet) {
	colors := b.cfg.Notifications.EmbedColors
	if b.cfg.Discord.VerifyURL == "" {
		b.respondEmbed(session, interaction, b.commandEmbed(b.t(lang, "verify_title"), b.t(lang, "verify_no_url"), colors.Error, nil), true)
		return
	}
	b.respondEmbed(session, interaction, b.verifyPanel(lang, options.ID("role")), false)
}

func (b *Bot) verifyPanel(lang, roleID string) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: b.t(lang, "verify_field_role"), Value: "<@&" + roleID + ">", Inline: false},
		{Name: b.t(lang, "verify_field_link"), Value: b.tf(lang, "verify_link_label", b.cfg.Discord.VerifyURL), Inline: false},
	}
	return b.commandEmbed(b.t(lang, "verify_title"), b.t(lang, "verify_desc"), b.cfg.Notifications.EmbedColors.Action, fields)
}

func (b *Bot) handleVerifyLog(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, settings storage.GuildSettings, lang string, options []*discordgo.ApplicationCommandInteractionDataOption) {
	colors := b.cfg.Notifications.EmbedColors
	title := b.t(lang, "verifylog_title")
	if len(options) == 0 {
		b.respondEmbed(session, interaction, b.commandEmbed(title, b.t(lang, "error_unknown"), colors.Error, nil), true)
		return
	}
	sub := options[0]

	switch sub.Name {
	case "set":
		channelID := optionsOf(sub.Options).ID("channel")
		if channelID == "" {
			b.respondEmbed(session, interaction, b.commandEmbed(title, b.t(lang, "verifylog_need_channel"), colors.Error, nil), true)
			return
		}
		settings.VerificationLogChannel = channelID
		if !b.saveSettings(ctx, session, interaction, settings, lang, title) {
			return
		}
		b.respondEmbed(session, interaction, b.commandEmbed(title, b.tf(lang, "verifylog_set", channelID), colors.Action, nil), true)
	case "unset":
		settings.VerificationLogChannel = ""
		if !b.saveSettings(ctx, session, interaction, settings, lang, title) {
			return
		}
		b.respondEmbed(session, interaction, b.commandEmbed(title, b.t(lang, "verifylog_unset"), colors.Action, nil), true)
	case "status":
		value := b.t(lang, "verifylog_none")
		if settings.VerificationLogChannel != "" {
			value = "<#" + settings.VerificationLogChannel + ">"
		}
		b.respondEmbed(session, interaction, b.commandEmbed(title, b.tf(lang, "verifylog_status", value), colors.Action, nil), true)
	case "stats":
		stats, err := b.analytics.Verifications(ctx, interaction.GuildID, b.now().Add(-statsWindow))
		if err != nil {
			b.respondEmbed(session, interaction, b.commandEmbed(title, b.tf(lang, "error_generic", err.Error()), colors.Error, nil), true)
			return
		}
		b.respondEmbed(session, interaction, b.commandEmbed(title, b.t(lang, "verifylog_stats"), colors.Action, statsFields(stats)), true)
	default:
		b.respondEmbed(session, interaction, b.commandEmbed(title, b.t(lang, "error_unknown"), colors.Error, nil), true)
	}
}

func (b *Bot) handleEventLog(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, lang string, options []*discordgo.ApplicationCommandInteractionDataOption) {
	colors := b.cfg.Notifications.EmbedColors
	title := b.t(lang, "eventlog_title")
	guildID := interaction.GuildID
	fail := func(message string) {
		b.respondEmbed(session, interaction, b.commandEmbed(title, message, colors.Error, nil), true)
	}
	if len(options) == 0 {
		fail(b.t(lang, "error_unknown"))
		return
	}
	sub := options[0]

	if sub.Name == "list" {
		channels, err := b.store.ListEventLogChannels(ctx, guildID)
		if err != nil {
			fail(b.tf(lang, "error_generic", err.Error()))
			return
		}
		b.respondEmbed(session, interaction, b.commandEmbed(title, b.tf(lang, "eventlog_list", channelList(channels, b.t(lang, "verifylog_none"))), colors.Action, nil), true)
		return
	}

	channelID := optionsOf(sub.Options).ID("channel")
	if channelID == "" {
		fail(b.t(lang, "verifylog_need_channel"))
		return
	}
	var (
		changed bool
		err     error
		message string
	)
	switch sub.Name {
	case "add":
		changed, err = b.store.AddEventLogChannel(ctx, guildID, channelID)
		message = b.tf(lang, "eventlog_added", channelID)
		if !changed {
			message = b.t(lang, "eventlog_exists")
		}
	case "remove":
		changed, err = b.store.RemoveEventLogChannel(ctx, guildID, channelID)
		message = b.tf(lang, "eventlog_removed", channelID)
		if !changed {
			message = b.t(lang, "eventlog_missing")
		}
	default:
		fail(b.t(lang, "error_unknown"))
		return
	}
	if err != nil {
		b.logger.Warn("update event log channels failed", zap.String("guild_id", guildID), zap.Error(err))
		fail(b.tf(lang, "error_generic", err.Error()))
		return
	}
	if changed {
		b.audit.Log(ctx, audit.LevelInfo, guildID, invokerID(interaction), audit.EventSettingsChanged,
			fmt.Sprintf("event_log_channel=%s:%s", sub.Name, channelID))
	}
	b.respondEmbed(session, interaction, b.commandEmbed(title, message, colors.Action, nil), true)
}

func channelList(channels []string, empty string) string {
	if len(channels) == 0 {
		return empty
	}
	mentions := make([]string, len(channels))
	for i, id := range channels {
		mentions[i] = "<#" + id + ">"
	}
	return strings.Join(mentions, ", ")
}

func statsFields(stats analytics.VerificationStats) []*discordgo.MessageEmbedField {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Total", Value: fmt.Sprintf("%d", stats.Total()), Inline: true},
		{Name: "Success", Value: fmt.Sprintf("%d", stats.Accepted), Inline: true},
		{Name: "Banned", Value: fmt.Sprintf("%d", stats.Banned), Inline: true},
	}
	for _, reason := range stats.Reasons() {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Failed (" + reason + ")", Value: fmt.Sprintf("%d", stats.Rejected[reason]), Inline: true})
	}
	return fields
}

func (b *Bot) saveSettings(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, settings storage.GuildSettings, lang, title string) bool {
	if err := b.store.UpsertGuildSettings(ctx, settings); err != nil {
		b.logger.Warn("save guild settings failed", zap.String("guild_id", settings.GuildID), zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed(title, b.tf(lang, "error_generic", err.Error()), b.cfg.Notifications.EmbedColors.Error, nil), true)
		return false
	}
	b.audit.Log(ctx, audit.LevelInfo, settings.GuildID, invokerID(interaction), audit.EventSettingsChanged,
		fmt.Sprintf("log_channel=%s block_urls=%t block_invites=%t", settings.VerificationLogChannel, settings.BlockURLs, settings.BlockInvites))
	return true
}

func (b *Bot) handleTimeout(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, lang string, options optionSet) {
	colors := b.cfg.Notifications.EmbedColors
	title := b.t(lang, "timeout_title")
	guildID := interaction.GuildID
	userID := options.ID("user")
	moderatorID := invokerID(interaction)
	now := b.now()

	fail := func(message string) {
		b.respondEmbed(session, interaction, b.commandEmbed(title, message, colors.Error, nil), true)
	}
	parse := func() (time.Duration, bool) {
		raw := options.String("time")
		if raw == "" {
			fail(b.t(lang, "timeout_need_time"))
			return 0, false
		}
		d, err := moderation.ParseDuration(raw)
		if err != nil {
			fail(b.t(lang, "timeout_invalid_time"))
			return 0, false
		}
		return d, true
	}
	reason := "timeout by " + moderatorID

	switch options.String("action") {
	case timeoutAdd, timeoutForever:
		d := moderation.MaxTimeout
		message := b.tf(lang, "timeout_forever", userID)
		action := timeoutForever
		if options.String("action") == timeoutAdd {
			parsed, ok := parse()
			if !ok {
				return
			}
			d = moderation.Clamp(parsed)
			message = b.tf(lang, "timeout_added", userID)
			action = timeoutAdd
		}
		if err := b.Timeout(guildID, userID, now.Add(d), reason); err != nil {
			fail(b.tf(lang, "error_generic", err.Error()))
			return
		}
		b.recordTimeout(ctx, guildID, userID, moderatorID, action, d)
		fields := []*discordgo.MessageEmbedField{{Name: b.t(lang, "timeout_field_duration"), Value: moderation.FormatRemaining(lang, d), Inline: true}}
		b.respondEmbed(session, interaction, b.commandEmbed(title, message, colors.Action, fields), false)
	case timeoutCancel:
		if err := b.clearTimeout(guildID, userID, reason); err != nil {
			fail(b.tf(lang, "error_generic", err.Error()))
			return
		}
		b.recordTimeout(ctx, guildID, userID, moderatorID, timeoutCancel, 0)
		b.respondEmbed(session, interaction, b.commandEmbed(title, b.tf(lang, "timeout_cancelled", userID), colors.Success, nil), false)
	case timeoutView:
		until, err := b.timeoutUntil(guildID, userID)
		if err != nil {
			fail(b.tf(lang, "error_generic", err.Error()))
			return
		}
		b.respondEmbed(session, interaction, b.commandEmbed(title, b.timeoutStatus(lang, userID, until, now), colors.Action, nil), true)
	case timeoutHistory:
		records, err := b.store.ListTimeoutHistory(ctx, guildID, userID, timeoutHistoryLimit)
		if err != nil {
			fail(b.tf(lang, "error_generic", err.Error()))
			return
		}
		b.respondEmbed(session, interaction, b.historyEmbed(lang, userID, records), true)
	case timeoutRemove:
		by, ok := parse()
		if !ok {
			return
		}
		until, err := b.timeoutUntil(guildID, userID)
		if err != nil {
			fail(b.tf(lang, "error_generic", err.Error()))
			return
		}
		remaining, active := moderation.Shorten(until, now, by)
		if !active {
			if err := b.clearTimeout(guildID, userID, reason); err != nil {
				fail(b.tf(lang, "error_generic", err.Error()))
				return
			}
			b.recordTimeout(ctx, guildID, userID, moderatorID, timeoutRemove, by)
			b.respondEmbed(session, interaction, b.commandEmbed(title, b.tf(lang, "timeout_cancelled", userID), colors.Success, nil), false)
			return
		}
		if err := b.Timeout(guildID, userID, now.Add(remaining), reason); err != nil {
			fail(b.tf(lang, "error_generic", err.Error()))
			return
		}
		b.recordTimeout(ctx, guildID, userID, moderatorID, timeoutRemove, by)
		message := b.tf(lang, "timeout_shortened", userID, moderation.FormatRemaining(lang, by), moderation.FormatRemaining(lang, remaining))
		b.respondEmbed(session, interaction, b.commandEmbed(title, message, colors.Action, nil), false)
	default:
		fail(b.t(lang, "error_unknown"))
	}
}

func (b *Bot) timeoutStatus(lang, userID string, until, now time.Time) string {
	if until.IsZero() || !until.After(now) {
		return b.tf(lang, "timeout_inactive", userID)
	}
	return b.tf(lang, "timeout_active", userID, moderation.FormatRemaining(lang, until.Sub(now)))
}

func (b *Bot) historyEmbed(lang, userID string, records []storage.TimeoutRecord) *discordgo.MessageEmbed {
	colors := b.cfg.Notifications.EmbedColors
	if len(records) == 0 {
		return b.commandEmbed(b.t(lang, "timeout_title"), b.tf(lang, "timeout_no_history", userID), colors.Action, nil)
	}
	fields := make([]*discordgo.MessageEmbedField, 0, len(records))
	for _, record := range records {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  b.tf(lang, "timeout_history_action", record.Action),
			Value: b.tf(lang, "timeout_history_value", record.ModeratorID, moderation.FormatRemaining(lang, record.Duration), record.CreatedAt.Unix()),
		})
	}
	return b.commandEmbed(b.t(lang, "timeout_title"), b.tf(lang, "timeout_history_title", userID), colors.Action, fields)
}

func (b *Bot) recordTimeout(ctx context.Context, guildID, userID, moderatorID, action string, d time.Duration) {
	record := storage.TimeoutRecord{
		GuildID:     guildID,
		UserID:      userID,
		ModeratorID: moderatorID,
		Action:      action,
		Duration:    d,
		CreatedAt:   b.now(),
	}
	if err := b.store.AddTimeoutRecord(ctx, record); err != nil {
		b.logger.Warn("record timeout failed", zap.String("user_id", userID), zap.Error(err))
	}
	b.audit.Log(ctx, audit.LevelWarn, guildID, userID, audit.EventTimeout,
		fmt.Sprintf("action=%s duration=%s moderator=%s", action, d, moderatorID))
}

func (b *Bot) handleNick(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, lang string, options optionSet) {
	colors := b.cfg.Notifications.EmbedColors
	title := b.t(lang, "nick_title")
	guildID := interaction.GuildID
	userID := options.ID("user")
	name := nicknameValue(options.String("name"))

	before := ""
	if member, err := b.Member(guildID, userID); err == nil && member != nil {
		before = displayName(member)
	}
	if err := b.session.GuildMemberNickname(guildID, userID, name); err != nil {
		b.logger.Warn("nickname change failed", zap.String("user_id", userID), zap.Error(err))
		b.respondEmbed(session, interaction, b.commandEmbed(title, b.t(lang, "nick_failed"), colors.Error, nil), true)
		return
	}

	after := name
	if after == "" {
		after = "default"
	}
	b.audit.Log(ctx, audit.LevelInfo, guildID, userID, audit.EventNickname, fmt.Sprintf("before=%s after=%s", before, after))
	fields := []*discordgo.MessageEmbedField{
		{Name: b.t(lang, "nick_field_user"), Value: "<@" + userID + ">", Inline: false},
		{Name: b.t(lang, "nick_field_before"), Value: orDash(before), Inline: true},
		{Name: b.t(lang, "nick_field_after"), Value: after, Inline: true},
	}
	b.respondEmbed(session, interaction, b.commandEmbed(title, "", colors.Success, fields), false)
}

// nicknameValue maps "default" to the empty nickname, which resets it.
func nicknameValue(name string) string {
	if strings.EqualFold(name, "default") {
		return ""
	}
	return name
}

func displayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User != nil {
		return member.User.Username
	}
	return ""
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func (b *Bot) handleFilter(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, settings storage.GuildSettings, lang string, options []*discordgo.ApplicationCommandInteractionDataOption) {
	colors := b.cfg.Notifications.EmbedColors
	title := b.t(lang, "filter_title")
	if len(options) == 0 {
		b.respondEmbed(session, interaction, b.commandEmbed(title, b.t(lang, "error_unknown"), colors.Error, nil), true)
		return
	}
	sub := options[0]

	switch sub.Name {
	case "word":
		if len(sub.Options) == 0 {
			b.respondEmbed(session, interaction, b.commandEmbed(title, b.t(lang, "error_unknown"), colors.Error, nil), true)
			return
		}
		b.handleFilterWord(ctx, session, interaction, lang, sub.Options[0].Name, optionsOf(sub.Options[0].Options))
	case "url-block", "invite-block":
		value := optionsOf(sub.Options).Bool("value")
		state := b.t(lang, "filter_off")
		if value {
			state = b.t(lang, "filter_on")
		}
		key := "filter_url_block"
		if sub.Name == "url-block" {
			settings.BlockURLs = value
		} else {
			settings.BlockInvites = value
			key = "filter_invite_block"
		}
		if !b.saveSettings(ctx, session, interaction, settings, lang, title) {
			return
		}
		b.respondEmbed(session, interaction, b.commandEmbed(title, b.tf(lang, key, state), colors.Action, nil), true)
	case "domain":
		b.handleDomainList(ctx, session, interaction, lang, optionsOf(sub.Options))
	default:
		b.respondEmbed(session, interaction, b.commandEmbed(title, b.t(lang, "error_unknown"), colors.Error, nil), true)
	}
}

func (b *Bot) handleFilterWord(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, lang, action string, options optionSet) {
	colors := b.cfg.Notifications.EmbedColors
	title := b.t(lang, "filter_title")
	guildID := interaction.GuildID
	word := strings.ToLower(options.String("word"))
	fail := func(message string) {
		b.respondEmbed(session, interaction, b.commandEmbed(title, message, colors.Error, nil), true)
	}

	switch action {
	case "add", "edit":
		entry := storage.FilterWord{GuildID: guildID, Word: word, Penalty: options.String("penalty"), TimeoutMinutes: options.Int("timeout")}
		if word == "" || !filter.ValidPenalty(entry.Penalty) {
			fail(b.t(lang, "filter_word_required"))
			return
		}
		_, found, err := b.store.GetFilterWord(ctx, guildID, word)
		if err != nil {
			fail(b.tf(lang, "error_generic", err.Error()))
			return
		}
		if action == "add" && found {
			fail(b.tf(lang, "filter_word_exists", word))
			return
		}
		if action == "edit" && !found {
			fail(b.tf(lang, "filter_word_missing", word))
			return
		}
		if err := b.store.UpsertFilterWord(ctx, entry); err != nil {
			fail(b.tf(lang, "error_generic", err.Error()))
			return
		}
		key := "filter_word_added"
		if action == "edit" {
			key = "filter_word_edited"
		}
		b.respondEmbed(session, interaction, b.commandEmbed(title, b.tf(lang, key, word), colors.Action, nil), true)
	case "remove":
		removed, err := b.store.RemoveFilterWord(ctx, guildID, word)
		if err != nil {
			fail(b.tf(lang, "error_generic", err.Error()))
			return
		}
		if !removed {
			fail(b.tf(lang, "filter_word_missing", word))
			return
		}
		b.respondEmbed(session, interaction, b.commandEmbed(title, b.tf(lang, "filter_word_removed", word), colors.Action, nil), true)
	case "list":
		words, err := b.store.ListFilterWords(ctx, guildID)
		if err != nil {
			fail(b.tf(lang, "error_generic", err.Error()))
			return
		}
		b.respondEmbed(session, interaction, b.wordListEmbed(lang, words), true)
	default:
		fail(b.t(lang, "error_unknown"))
	}
}

func (b *Bot) wordListEmbed(lang string, words []storage.FilterWord) *discordgo.MessageEmbed {
	colors := b.cfg.Notifications.EmbedColors
	if len(words) == 0 {
		return b.commandEmbed(b.t(lang, "filter_word_list"), b.t(lang, "filter_word_empty"), colors.Action, nil)
	}
	lines := make([]string, 0, len(words))
	for _, word := range words {
		line := fmt.Sprintf("`%s` %s", word.Word, word.Penalty)
		if word.Penalty == filter.PenaltyTimeout && word.TimeoutMinutes > 0 {
			line += " (" + b.tf(lang, "filter_minutes", word.TimeoutMinutes) + ")"
		}
		lines = append(lines, line)
	}
	return b.commandEmbed(b.t(lang, "filter_word_list"), strings.Join(lines, "\n"), colors.Action, nil)
}

func (b *Bot) handleDomainList(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, lang string, options optionSet) {
	colors := b.cfg.Notifications.EmbedColors
	title := b.t(lang, "domain_title")
	guildID := interaction.GuildID
	listType := options.String("list")
	domain := strings.ToLower(options.String("domain"))

	switch options.String("action") {
	case "add", "remove":
		if domain == "" {
			b.respondEmbed(session, interaction, b.commandEmbed(title, b.t(lang, "domain_required"), colors.Error, nil), true)
			return
		}
		var err error
		switch {
		case listType == "allow" && options.String("action") == "add":
			err = b.store.AddDomainAllow(ctx, guildID, domain)
		case listType == "allow":
			err = b.store.RemoveDomainAllow(ctx, guildID, domain)
		case options.String("action") == "add":
			err = b.store.AddDomainBlock(ctx, guildID, domain)
		default:
			err = b.store.RemoveDomainBlock(ctx, guildID, domain)
		}
		if err != nil {
			b.respondEmbed(session, interaction, b.commandEmbed(title, b.tf(lang, "error_generic", err.Error()), colors.Error, nil), true)
			return
		}
		key := "domain_added"
		if options.String("action") == "remove" {
			key = "domain_removed"
		}
		fields := []*discordgo.MessageEmbedField{{Name: b.t(lang, "field_domain"), Value: domain, Inline: true}}
		b.respondEmbed(session, interaction, b.commandEmbed(title, b.t(lang, key), colors.Action, fields), true)
	case "show":
		var domains []string
		var err error
		if listType == "allow" {
			domains, err = b.store.ListDomainAllow(ctx, guildID)
		} else {
			domains, err = b.store.ListDomainBlock(ctx, guildID)
		}
		if err != nil {
			b.respondEmbed(session, interaction, b.commandEmbed(title, b.tf(lang, "error_generic", err.Error()), colors.Error, nil), true)
			return
		}
		if len(domains) == 0 {
			b.respondEmbed(session, interaction, b.commandEmbed(title, b.t(lang, "domain_empty"), colors.Action, nil), true)
			return
		}
		fields := []*discordgo.MessageEmbedField{{Name: b.t(lang, "field_domains"), Value: strings.Join(domains, "\n"), Inline: false}}
		b.respondEmbed(session, interaction, b.commandEmbed(title, b.t(lang, "domain_list"), colors.Action, fields), true)
	default:
		b.respondEmbed(session, interaction, b.commandEmbed(title, b.t(lang, "error_unknown"), colors.Error, nil), true)
	}
}
