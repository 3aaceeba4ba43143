package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"verigate/internal/config"
	"verigate/internal/modules/audit"
	"verigate/internal/storage"
	"verigate/internal/verification"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrQueueFull = errors.New("notifier queue full")

// Platform performs the outbound calls against the chat platform.
type Platform interface {
	SendDM(userID string, embed *discordgo.MessageEmbed) error
	Ban(guildID, userID, reason string) error
	GrantRoleByName(guildID, userID, roleName, reason string) (bool, error)
	SendChannelEmbed(channelID string, embed *discordgo.MessageEmbed) error
}

type Settings interface {
	GetGuildSettings(ctx context.Context, guildID string, defaults storage.GuildSettings) (storage.GuildSettings, error)
}

type Recorder interface {
	RecordAction(action string, err error)
	RecordDropped()
}

type Options struct {
	RoleName        string
	DefaultLanguage string
	DMEnabled       bool
	QueueSize       int
	Colors          config.EmbedColors
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		RoleName:        cfg.Discord.VerifiedRoleName,
		DefaultLanguage: cfg.DefaultLanguage,
		DMEnabled:       cfg.Notifications.DMEnabled,
		QueueSize:       cfg.Notifications.QueueSize,
		Colors:          cfg.Notifications.EmbedColors,
	}
}

type task struct {
	id       string
	guildID  string
	verdict  verification.Verdict
	enqueued time.Time
}

// Notifier applies verdict side effects off the request path. Dispatch never
// blocks; Run drains the queue until its context is done.
type Notifier struct {
	tasks    chan task
	platform Platform
	settings Settings
	audit    *audit.Logger
	recorder Recorder
	opts     Options
	logger   *zap.Logger
}

func New(platform Platform, settings Settings, auditLogger *audit.Logger, recorder Recorder, opts Options, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.RoleName == "" {
		opts.RoleName = "verified"
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "ja"
	}
	return &Notifier{
		tasks:    make(chan task, opts.QueueSize),
		platform: platform,
		settings: settings,
		audit:    auditLogger,
		recorder: recorder,
		opts:     opts,
		logger:   logger,
	}
}

func (n *Notifier) Dispatch(ctx context.Context, guildID string, verdict verification.Verdict) error {
	t := task{id: uuid.NewString(), guildID: guildID, verdict: verdict, enqueued: time.Now()}
	select {
	case n.tasks <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		if n.recorder != nil {
			n.recorder.RecordDropped()
		}
		return fmt.Errorf("%w: verdict %s", ErrQueueFull, verdict.ID)
	}
}

// Pending reports the number of queued tasks.
func (n *Notifier) Pending() int {
	return len(n.tasks)
}

func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			n.drain()
			return nil
		case t := <-n.tasks:
			n.process(ctx, t)
		}
	}
}

// drain applies what is already queued with a short grace period so accepted
// members still receive their role during shutdown.
func (n *Notifier) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case t := <-n.tasks:
			n.process(ctx, t)
		default:
			return
		}
	}
}

func (n *Notifier) target(ctx context.Context, guildID string) Target {
	target := Target{GuildID: guildID, RoleName: n.opts.RoleName, Language: n.opts.DefaultLanguage}
	if n.settings == nil {
		return target
	}
	settings, err := n.settings.GetGuildSettings(ctx, guildID, storage.GuildSettings{Language: n.opts.DefaultLanguage})
	if err != nil {
		n.logger.Warn("guild settings lookup failed", zap.String("guild_id", guildID), zap.Error(err))
		return target
	}
	target.LogChannelID = settings.VerificationLogChannel
	target.Language = settings.Language
	return target
}

func (n *Notifier) process(ctx context.Context, t task) {
	target := n.target(ctx, t.guildID)
	verdict := t.verdict
	userID := verdict.Request.SubjectID

	for _, action := range Plan(verdict, target) {
		var err error
		switch action {
		case ActionDM:
			if !n.opts.DMEnabled {
				continue
			}
			err = n.platform.SendDM(userID, dmEmbed(target.Language, verdict, n.opts.Colors))
		case ActionBan:
			err = n.platform.Ban(target.GuildID, userID, BanReason)
		case ActionGrantRole:
			var granted bool
			granted, err = n.platform.GrantRoleByName(target.GuildID, userID, target.RoleName, RoleGrantReason)
			if err == nil && !granted {
				n.logger.Info("verified role missing", zap.String("guild_id", target.GuildID), zap.String("role", target.RoleName))
			}
		case ActionAuditLog:
			err = n.platform.SendChannelEmbed(target.LogChannelID, LogEmbed(verdict, n.opts.Colors))
		}

		if n.recorder != nil {
			n.recorder.RecordAction(action.String(), err)
		}
		if err != nil {
			n.logger.Warn("notifier action failed",
				zap.String("task_id", t.id),
				zap.String("verdict_id", verdict.ID),
				zap.String("action", action.String()),
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	n.writeAudit(ctx, target.GuildID, verdict)
	n.logger.Debug("verdict applied",
		zap.String("task_id", t.id),
		zap.String("verdict_id", verdict.ID),
		zap.Duration("queued", time.Since(t.enqueued)),
	)
}

func (n *Notifier) writeAudit(ctx context.Context, guildID string, verdict verification.Verdict) {
	if n.audit == nil {
		return
	}
	userID := verdict.Request.SubjectID
	switch verdict.Outcome {
	case verification.Accepted:
		n.audit.Log(ctx, audit.LevelInfo, guildID, userID, audit.EventVerificationAccepted, verdict.Request.CountryCode)
	case verification.RejectedDuplicateBan:
		n.audit.Log(ctx, audit.LevelCrit, guildID, userID, audit.EventMemberBanned, verdict.Reason)
		n.audit.Log(ctx, audit.LevelWarn, guildID, userID, audit.EventVerificationRejected, verdict.Outcome.ReasonCode())
	default:
		n.audit.Log(ctx, audit.LevelWarn, guildID, userID, audit.EventVerificationRejected, verdict.Outcome.ReasonCode())
	}
}
