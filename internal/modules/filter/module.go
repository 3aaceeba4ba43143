package filter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"verigate/internal/modules/audit"
	"verigate/internal/storage"
	"verigate/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	PenaltyNone    = ""
	PenaltyKick    = "kick"
	PenaltyBan     = "ban"
	PenaltyTimeout = "timeout"
)

const (
	KindWord   = "word"
	KindURL    = "url"
	KindInvite = "invite"
)

// ValidPenalty reports whether p is a penalty a filter word may carry.
func ValidPenalty(p string) bool {
	switch p {
	case PenaltyKick, PenaltyBan, PenaltyTimeout:
		return true
	}
	return false
}

type Violation struct {
	Kind           string
	Word           string
	URL            string
	Penalty        string
	TimeoutMinutes int
}

func (v Violation) category() string {
	switch v.Kind {
	case KindURL:
		return storage.InfractionFilterURL
	case KindInvite:
		return storage.InfractionFilterInvite
	default:
		return storage.InfractionFilterWord
	}
}

type Store interface {
	ListFilterWords(ctx context.Context, guildID string) ([]storage.FilterWord, error)
	ListDomainAllow(ctx context.Context, guildID string) ([]string, error)
	ListDomainBlock(ctx context.Context, guildID string) ([]string, error)
	IncrementInfraction(ctx context.Context, guildID, userID, category, lastAction string, forgiveAfter time.Duration) (int, error)
}

// Enforcer applies moderation actions on the platform.
type Enforcer interface {
	DeleteMessage(channelID, messageID string) error
	SendChannelMessage(channelID, content string) error
	Kick(guildID, userID, reason string) error
	Ban(guildID, userID, reason string) error
	Timeout(guildID, userID string, until time.Time, reason string) error
}

type Options struct {
	DefaultTimeout time.Duration
	ForgiveAfter   time.Duration
}

type Module struct {
	store    Store
	enforcer Enforcer
	audit    *audit.Logger
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

func New(store Store, enforcer Enforcer, auditLogger *audit.Logger, opts Options, logger *zap.Logger) *Module {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = 5 * time.Minute
	}
	return &Module{store: store, enforcer: enforcer, audit: auditLogger, opts: opts, logger: logger, now: time.Now}
}

// Detect returns the first rule the content breaks. Filter words are checked
// first, then links, then invites.
func Detect(content string, words []storage.FilterWord, settings storage.GuildSettings, allowlist, blocklist map[string]struct{}) (Violation, bool) {
	normalized := normalizeText(content)
	for _, word := range words {
		if word.Word == "" {
			continue
		}
		if strings.Contains(normalized, normalizeText(word.Word)) {
			return Violation{Kind: KindWord, Word: word.Word, Penalty: word.Penalty, TimeoutMinutes: word.TimeoutMinutes}, true
		}
	}

	invites := utils.ExtractInvites(content)
	for _, raw := range utils.ExtractURLs(content) {
		if isInviteURL(raw, invites) {
			continue
		}
		normalizedURL, domain, err := utils.NormalizeURL(raw)
		if err != nil {
			continue
		}
		allowed, blocked := utils.DomainMatch(domain, allowlist, blocklist)
		if allowed {
			continue
		}
		if blocked || settings.BlockURLs {
			return Violation{Kind: KindURL, URL: normalizedURL}, true
		}
	}

	if settings.BlockInvites && len(invites) > 0 {
		return Violation{Kind: KindInvite, URL: invites[0]}, true
	}
	return Violation{}, false
}

// HandleMessage enforces the guild's filter on one message. It returns the
// violation found and the member's violation count.
func (m *Module) HandleMessage(ctx context.Context, msg *discordgo.MessageCreate, guildID string, settings storage.GuildSettings, lang string) (Violation, int, bool) {
	if msg == nil || msg.Author == nil || msg.Author.Bot || msg.Content == "" {
		return Violation{}, 0, false
	}

	words, err := m.store.ListFilterWords(ctx, guildID)
	if err != nil {
		m.logger.Warn("load filter words failed", zap.String("guild_id", guildID), zap.Error(err))
	}
	allow, err := m.store.ListDomainAllow(ctx, guildID)
	if err != nil {
		m.logger.Warn("load domain allowlist failed", zap.String("guild_id", guildID), zap.Error(err))
	}
	block, err := m.store.ListDomainBlock(ctx, guildID)
	if err != nil {
		m.logger.Warn("load domain blocklist failed", zap.String("guild_id", guildID), zap.Error(err))
	}

	violation, found := Detect(msg.Content, words, settings, utils.ToSet(allow), utils.ToSet(block))
	if !found {
		return Violation{}, 0, false
	}

	userID := msg.Author.ID
	action := violation.Penalty
	if action == PenaltyNone {
		action = "delete"
	}
	count, err := m.store.IncrementInfraction(ctx, guildID, userID, violation.category(), action, m.opts.ForgiveAfter)
	if err != nil {
		m.logger.Warn("increment infraction failed", zap.String("user_id", userID), zap.Error(err))
	}

	if err := m.enforcer.DeleteMessage(msg.ChannelID, msg.ID); err != nil {
		m.logger.Warn("delete message failed", zap.String("message_id", msg.ID), zap.Error(err))
	}
	if err := m.enforcer.SendChannelMessage(msg.ChannelID, WarningText(lang, userID, violation)); err != nil {
		m.logger.Debug("warning message failed", zap.Error(err))
	}

	reason := Reason(lang, violation)
	if err := m.applyPenalty(guildID, userID, violation, reason); err != nil {
		m.logger.Warn("filter penalty failed", zap.String("user_id", userID), zap.String("penalty", violation.Penalty), zap.Error(err))
	}

	if m.audit != nil {
		detail := fmt.Sprintf("kind=%s penalty=%s count=%d", violation.Kind, action, count)
		if violation.Word != "" {
			detail += " word=" + violation.Word
		}
		if violation.URL != "" {
			detail += " url=" + violation.URL
		}
		m.audit.Log(ctx, audit.LevelWarn, guildID, userID, audit.EventFilterViolation, detail)
	}
	return violation, count, true
}

func (m *Module) applyPenalty(guildID, userID string, v Violation, reason string) error {
	switch v.Penalty {
	case PenaltyKick:
		return m.enforcer.Kick(guildID, userID, reason)
	case PenaltyBan:
		return m.enforcer.Ban(guildID, userID, reason)
	case PenaltyTimeout:
		duration := m.opts.DefaultTimeout
		if v.TimeoutMinutes > 0 {
			duration = time.Duration(v.TimeoutMinutes) * time.Minute
		}
		return m.enforcer.Timeout(guildID, userID, m.now().Add(duration), reason)
	}
	return nil
}

func isInviteURL(raw string, invites []string) bool {
	lower := strings.ToLower(raw)
	for _, invite := range invites {
		if strings.Contains(lower, strings.ToLower(invite)) {
			return true
		}
	}
	return false
}

func normalizeText(input string) string {
	replacer := strings.NewReplacer(
		"à", "a", "á", "a", "â", "a", "ä", "a",
		"è", "e", "é", "e", "ê", "e", "ë", "e",
		"ì", "i", "í", "i", "î", "i", "ï", "i",
		"ò", "o", "ó", "o", "ô", "o", "ö", "o",
		"ù", "u", "ú", "u", "û", "u", "ü", "u",
		"ç", "c",
	)
	return replacer.Replace(strings.ToLower(input))
}
