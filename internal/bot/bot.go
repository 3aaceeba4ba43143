package bot

import (
	"context"
	"time"

	"verigate/internal/analytics"
	"verigate/internal/config"
	"verigate/internal/modules/audit"
	"verigate/internal/modules/filter"
	"verigate/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const maintenanceInterval = 24 * time.Hour

type Bot struct {
	cfg       config.Config
	logger    *zap.Logger
	store     *storage.Store
	audit     *audit.Logger
	analytics *analytics.Service
	session   *discordgo.Session
	filter    *filter.Module
	now       func() time.Time
}

func New(cfg config.Config, logger *zap.Logger, store *storage.Store, auditLogger *audit.Logger, analyticsEngine *analytics.Service) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent
	session.State.MaxMessageCount = stateMessageCount

	b := &Bot{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		audit:     auditLogger,
		analytics: analyticsEngine,
		session:   session,
		now:       time.Now,
	}

	b.filter = filter.New(store, b, auditLogger, filter.Options{
		DefaultTimeout: time.Duration(cfg.Filter.DefaultTimeoutMinutes) * time.Minute,
		ForgiveAfter:   time.Duration(cfg.Filter.ForgiveAfterHours) * time.Hour,
	}, logger)
	if b.audit != nil {
		b.audit.SetNotifier(b.notifyAudit)
	}

	return b, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onInteractionCreate)
	b.session.AddHandler(b.onGuildMemberAdd)
	b.session.AddHandler(b.onGuildMemberRemove)
	b.session.AddHandler(b.onGuildMemberUpdate)
	b.session.AddHandler(b.onMessageUpdate)
	b.session.AddHandler(b.onMessageDelete)

	if err := b.session.Open(); err != nil {
		return err
	}

	return b.registerCommands()
}

// Run starts the gateway session and performs daily retention cleanup until
// ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.Start(); err != nil {
		return err
	}
	defer b.Close()

	b.cleanup(ctx)
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			b.cleanup(ctx)
		}
	}
}

func (b *Bot) Close() {
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) cleanup(ctx context.Context) {
	if b.cfg.RetentionDays > 0 {
		removed, err := b.store.CleanupAuditLogs(ctx, b.cfg.RetentionDays)
		if err != nil {
			b.logger.Warn("audit log cleanup failed", zap.Error(err))
		} else if removed > 0 {
			b.logger.Info("audit logs pruned", zap.Int64("removed", removed))
		}
	}

	window := time.Duration(b.cfg.Ledger.WindowDays) * 24 * time.Hour
	removed, err := b.store.PruneIPUsage(ctx, b.now().Add(-window))
	if err != nil {
		b.logger.Warn("ip usage prune failed", zap.Error(err))
		return
	}
	if removed > 0 {
		b.logger.Info("ip usage pruned", zap.Int64("removed", removed))
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready", zap.String("user", event.User.Username), zap.Int("guilds", len(event.Guilds)))
}

func (b *Bot) onMessageCreate(session *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Author == nil || msg.Author.Bot {
		return
	}
	if msg.GuildID == "" {
		return
	}

	ctx := context.Background()
	settings := b.guildSettings(ctx, msg.GuildID)
	violation, count, found := b.filter.HandleMessage(ctx, msg, msg.GuildID, settings, b.language(settings))
	if found {
		b.logger.Info("filter violation",
			zap.String("guild_id", msg.GuildID),
			zap.String("user_id", msg.Author.ID),
			zap.String("kind", violation.Kind),
			zap.Int("count", count),
		)
	}
}

// notifyAudit mirrors audit entries into guild channels. Moderation entries
// go to the verification log channel and member or message events go to
// every registered event log channel.
func (b *Bot) notifyAudit(ctx context.Context, entry storage.AuditLog) {
	target := mirrorTargetOf(entry.Event)
	if target == mirrorNone {
		return
	}
	settings := b.guildSettings(ctx, entry.GuildID)
	var channels []string
	switch target {
	case mirrorModerationLog:
		if settings.VerificationLogChannel != "" {
			channels = []string{settings.VerificationLogChannel}
		}
	case mirrorEventLog:
		channels = b.eventLogChannels(ctx, entry.GuildID)
	}
	if len(channels) == 0 {
		return
	}

	embed := b.auditEmbed(b.language(settings), entry)
	for _, channelID := range channels {
		if _, err := b.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
			b.logger.Debug("audit mirror failed", zap.String("guild_id", entry.GuildID), zap.String("channel_id", channelID), zap.Error(err))
		}
	}
}

func (b *Bot) auditEmbed(lang string, entry storage.AuditLog) *discordgo.MessageEmbed {
	colors := b.cfg.Notifications.EmbedColors
	color := colors.Action
	title := entry.Event
	switch entry.Event {
	case audit.EventFilterViolation:
		color = colors.Warning
		title = b.t(lang, "filter_violation_title")
	case audit.EventTimeout:
		title = b.t(lang, "timeout_title")
	case audit.EventNickname:
		title = b.t(lang, "nick_title")
	case audit.EventMemberJoin:
		color = colors.Success
		title = b.t(lang, "event_member_join")
	case audit.EventMemberLeave:
		color = colors.Failure
		title = b.t(lang, "event_member_leave")
	case audit.EventNicknameEdit:
		title = b.t(lang, "event_nickname")
	case audit.EventRolesEdit:
		title = b.t(lang, "event_roles")
	case audit.EventMessageEdit:
		title = b.t(lang, "event_message_edit")
	case audit.EventMessageDelete:
		color = colors.Failure
		title = b.t(lang, "event_message_delete")
	}
	if entry.Level == audit.LevelCrit {
		color = colors.Error
	}

	var fields []*discordgo.MessageEmbedField
	if entry.UserID != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: b.t(lang, "field_user"), Value: "<@" + entry.UserID + ">", Inline: true})
	}
	if entry.Details != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: b.t(lang, "field_details"), Value: clip(entry.Details, maxFieldRunes), Inline: false})
	}
	return b.commandEmbed(title, "", color, fields)
}

func (b *Bot) guildSettings(ctx context.Context, guildID string) storage.GuildSettings {
	defaults := storage.GuildSettings{
		GuildID:  guildID,
		Language: b.cfg.DefaultLanguage,
	}
	if b.store == nil {
		return defaults
	}
	settings, err := b.store.GetGuildSettings(ctx, guildID, defaults)
	if err != nil {
		b.logger.Warn("load guild settings failed", zap.String("guild_id", guildID), zap.Error(err))
		return defaults
	}
	return settings
}

func (b *Bot) language(settings storage.GuildSettings) string {
	if settings.Language != "" {
		return settings.Language
	}
	if b.cfg.DefaultLanguage != "" {
		return b.cfg.DefaultLanguage
	}
	return "ja"
}

func (b *Bot) respond(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	if embed == nil {
		b.respond(session, interaction, "No response available.", ephemeral)
		return
	}
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
}

func (b *Bot) commandEmbed(title, description string, color int, fields []*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   b.now().Format(time.RFC3339),
		Fields:      fields,
	}
}
