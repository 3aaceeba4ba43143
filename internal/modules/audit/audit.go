package audit

import (
	"context"
	"time"

	"verigate/internal/storage"

	"go.uber.org/zap"
)

const (
	LevelInfo = "INFO"
	LevelWarn = "WARN"
	LevelCrit = "CRIT"
)

const (
	EventVerificationAccepted = "verification_accepted"
	EventVerificationRejected = "verification_rejected"
	EventMemberBanned         = "member_banned"
	EventTimeout              = "timeout"
	EventNickname             = "nickname"
	EventFilterViolation      = "filter_violation"
	EventSettingsChanged      = "settings_changed"

	EventMemberJoin    = "member_join"
	EventMemberLeave   = "member_leave"
	EventNicknameEdit  = "member_nickname"
	EventRolesEdit     = "member_roles"
	EventMessageEdit   = "message_edit"
	EventMessageDelete = "message_delete"
)

// Sink persists audit entries. *storage.Store satisfies it.
type Sink interface {
	AddAuditLog(ctx context.Context, log storage.AuditLog) error
}

type Logger struct {
	sink   Sink
	logger *zap.Logger
	notify func(context.Context, storage.AuditLog)
	now    func() time.Time
}

func NewLogger(sink Sink, logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{sink: sink, logger: logger, now: time.Now}
}

// SetNotifier registers a callback run after every persisted entry, used to
// mirror entries into a guild channel.
func (l *Logger) SetNotifier(notify func(context.Context, storage.AuditLog)) {
	l.notify = notify
}

func (l *Logger) Log(ctx context.Context, level, guildID, userID, event, details string) {
	if l == nil {
		return
	}
	entry := storage.AuditLog{
		GuildID:   guildID,
		UserID:    userID,
		Level:     level,
		Event:     event,
		Details:   details,
		CreatedAt: l.now(),
	}
	if l.sink != nil {
		if err := l.sink.AddAuditLog(ctx, entry); err != nil {
			l.logger.Warn("audit persist failed", zap.String("event", event), zap.Error(err))
		}
	}
	if l.notify != nil {
		l.notify(ctx, entry)
	}

	fields := []zap.Field{
		zap.String("guild_id", guildID),
		zap.String("user_id", userID),
		zap.String("event", event),
		zap.String("details", details),
	}
	switch level {
	case LevelCrit:
		l.logger.Error("audit", fields...)
	case LevelWarn:
		l.logger.Warn("audit", fields...)
	default:
		l.logger.Info("audit", fields...)
	}
}
