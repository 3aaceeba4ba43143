package analytics

import (
	"context"
	"sort"
	"time"

	"verigate/internal/modules/audit"
	"verigate/internal/storage"
)

// Source lists persisted audit entries. *storage.Store satisfies it.
type Source interface {
	ListAuditLogs(ctx context.Context, guildID string, since time.Time) ([]storage.AuditLog, error)
}

type Service struct {
	store Source
}

func New(store Source) *Service {
	return &Service{store: store}
}

type Report struct {
	Total   int
	ByLevel map[string]int
}

func (s *Service) Report(ctx context.Context, guildID string, since time.Time) (Report, error) {
	logs, err := s.store.ListAuditLogs(ctx, guildID, since)
	if err != nil {
		return Report{}, err
	}

	report := Report{ByLevel: make(map[string]int)}
	for _, log := range logs {
		report.Total++
		report.ByLevel[log.Level]++
	}
	return report, nil
}

// VerificationStats counts verification outcomes. Rejections are keyed by
// reason code.
type VerificationStats struct {
	Accepted int
	Rejected map[string]int
	Banned   int
}

func (v VerificationStats) Total() int {
	total := v.Accepted
	for _, n := range v.Rejected {
		total += n
	}
	return total
}

// Reasons returns the rejection reason codes in a stable order.
func (v VerificationStats) Reasons() []string {
	reasons := make([]string, 0, len(v.Rejected))
	for reason := range v.Rejected {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	return reasons
}

func (s *Service) Verifications(ctx context.Context, guildID string, since time.Time) (VerificationStats, error) {
	logs, err := s.store.ListAuditLogs(ctx, guildID, since)
	if err != nil {
		return VerificationStats{}, err
	}

	stats := VerificationStats{Rejected: make(map[string]int)}
	for _, log := range logs {
		switch log.Event {
		case audit.EventVerificationAccepted:
			stats.Accepted++
		case audit.EventVerificationRejected:
			reason := log.Details
			if reason == "" {
				reason = "unknown"
			}
			stats.Rejected[reason]++
		case audit.EventMemberBanned:
			stats.Banned++
		}
	}
	return stats, nil
}
