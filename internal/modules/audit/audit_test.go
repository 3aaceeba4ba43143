package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"verigate/internal/storage"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type memorySink struct {
	entries []storage.AuditLog
	err     error
}

func (m *memorySink) AddAuditLog(ctx context.Context, log storage.AuditLog) error {
	m.entries = append(m.entries, log)
	return m.err
}

func TestLogPersistsAndNotifies(t *testing.T) {
	sink := &memorySink{}
	logger := NewLogger(sink, zap.NewNop())
	fixed := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	logger.now = func() time.Time { return fixed }

	var notified []storage.AuditLog
	logger.SetNotifier(func(ctx context.Context, entry storage.AuditLog) {
		notified = append(notified, entry)
	})

	logger.Log(context.Background(), LevelWarn, "g1", "u1", EventVerificationRejected, "duplicate_ip")

	if len(sink.entries) != 1 {
		t.Fatalf("expected 1 persisted entry, got %d", len(sink.entries))
	}
	if !sink.entries[0].CreatedAt.Equal(fixed) || sink.entries[0].Level != LevelWarn {
		t.Fatalf("unexpected entry: %+v", sink.entries[0])
	}
	if len(notified) != 1 || notified[0].Event != EventVerificationRejected {
		t.Fatalf("expected notifier to run once, got %v", notified)
	}
}

func TestLogLevelsMapToZap(t *testing.T) {
	core, observed := observer.New(zap.DebugLevel)
	logger := NewLogger(&memorySink{err: errors.New("disk full")}, zap.New(core))

	logger.Log(context.Background(), LevelCrit, "g1", "u1", EventMemberBanned, "")

	var sawWarn, sawError bool
	for _, entry := range observed.All() {
		switch entry.Level {
		case zap.WarnLevel:
			sawWarn = entry.Message == "audit persist failed"
		case zap.ErrorLevel:
			sawError = entry.Message == "audit"
		}
	}
	if !sawWarn || !sawError {
		t.Fatalf("expected persist warning and error-level audit line, got %v", observed.All())
	}
}
