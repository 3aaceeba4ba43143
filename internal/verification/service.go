package verification

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

var (
	ErrGuildNotFound  = errors.New("guild not found")
	ErrMemberNotFound = errors.New("member not found")
)

// Submission is the wire payload posted by the web front-end.
type Submission struct {
	UserID     string `json:"user_id" validate:"required,numeric,max=20"`
	Email      string `json:"email" validate:"max=320"`
	IP         string `json:"ip" validate:"required,ip"`
	Country    string `json:"country" validate:"required,max=16"`
	VPNOrProxy bool   `json:"vpn_or_proxy"`
}

// Directory resolves guilds and members on the chat platform.
type Directory interface {
	Guild(guildID string) (*discordgo.Guild, error)
	Member(guildID, userID string) (*discordgo.Member, error)
}

// Dispatcher hands a verdict to the outbound side-effect worker.
type Dispatcher interface {
	Dispatch(ctx context.Context, guildID string, verdict Verdict) error
}

type Recorder interface {
	RecordVerdict(outcome string, elapsed time.Duration)
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type Service struct {
	guildID    string
	directory  Directory
	evaluator  *Evaluator
	dispatcher Dispatcher
	recorder   Recorder
	clock      Clock
	logger     *zap.Logger
}

func NewService(guildID string, directory Directory, evaluator *Evaluator, dispatcher Dispatcher, recorder Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		guildID:    guildID,
		directory:  directory,
		evaluator:  evaluator,
		dispatcher: dispatcher,
		recorder:   recorder,
		clock:      realClock{},
		logger:     logger,
	}
}

func (s *Service) WithClock(clock Clock) {
	s.clock = clock
}

// Submit resolves the member behind a submission, evaluates it and queues the
// consequences. Only resolution failures are returned as errors.
func (s *Service) Submit(ctx context.Context, sub Submission) (Verdict, error) {
	if s.guildID == "" {
		return Verdict{}, ErrGuildNotFound
	}
	if _, err := s.directory.Guild(s.guildID); err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrGuildNotFound, err)
	}
	member, err := s.directory.Member(s.guildID, sub.UserID)
	if err != nil || member == nil || member.User == nil {
		if err == nil {
			err = errors.New("empty member")
		}
		return Verdict{}, fmt.Errorf("%w: %v", ErrMemberNotFound, err)
	}

	createdAt, err := discordgo.SnowflakeTimestamp(member.User.ID)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrMemberNotFound, err)
	}

	req := Request{
		SubjectID:        member.User.ID,
		Username:         member.User.Username,
		Email:            sub.Email,
		NetworkAddress:   canonicalAddress(sub.IP),
		CountryCode:      normalizeCountry(sub.Country),
		Anonymized:       sub.VPNOrProxy,
		AccountCreatedAt: createdAt,
	}

	started := time.Now()
	verdict := s.evaluator.Evaluate(ctx, req, s.clock.Now())
	if s.recorder != nil {
		s.recorder.RecordVerdict(verdict.Outcome.String(), time.Since(started))
	}

	s.logger.Info("verification evaluated",
		zap.String("verdict_id", verdict.ID),
		zap.String("guild_id", s.guildID),
		zap.String("user_id", req.SubjectID),
		zap.String("outcome", verdict.Outcome.String()),
		zap.String("reason", verdict.Reason),
		zap.Int("account_age_days", verdict.AccountAgeDays),
	)

	if s.dispatcher != nil {
		if err := s.dispatcher.Dispatch(ctx, s.guildID, verdict); err != nil {
			s.logger.Warn("verdict dispatch failed", zap.String("verdict_id", verdict.ID), zap.Error(err))
		}
	}
	return verdict, nil
}

// canonicalAddress gives every spelling of one address the same ledger key.
// IPv4-mapped IPv6 collapses to plain IPv4 and IPv6 is compressed.
func canonicalAddress(value string) string {
	value = strings.TrimSpace(value)
	addr, err := netip.ParseAddr(value)
	if err != nil {
		return value
	}
	return addr.Unmap().WithZone("").String()
}

func normalizeCountry(value string) string {
	value = strings.TrimSpace(value)
	if len(value) == 2 {
		return strings.ToUpper(value)
	}
	if value == "" {
		return "unknown"
	}
	return value
}
