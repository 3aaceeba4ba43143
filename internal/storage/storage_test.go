package storage

import (
	"context"
	"testing"
	"time"

	"verigate/internal/ledger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestMigrateTwice(t *testing.T) {
	store := newTestStore(t)
	if err := store.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestUpsertGuildSettings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	defaults := GuildSettings{Language: "ja"}
	got, err := store.GetGuildSettings(ctx, "g1", defaults)
	if err != nil {
		t.Fatalf("get defaults: %v", err)
	}
	if got.GuildID != "g1" || got.Language != "ja" {
		t.Fatalf("expected defaults, got %+v", got)
	}

	settings := GuildSettings{GuildID: "g1", VerificationLogChannel: "c1", Language: "en", BlockInvites: true}
	if err := store.UpsertGuildSettings(ctx, settings); err != nil {
		t.Fatalf("upsert guild settings: %v", err)
	}
	settings.VerificationLogChannel = "c2"
	if err := store.UpsertGuildSettings(ctx, settings); err != nil {
		t.Fatalf("update guild settings: %v", err)
	}

	got, err = store.GetGuildSettings(ctx, "g1", defaults)
	if err != nil {
		t.Fatalf("get guild settings: %v", err)
	}
	if got.VerificationLogChannel != "c2" {
		t.Fatalf("expected channel c2, got %q", got.VerificationLogChannel)
	}
	if !got.BlockInvites || got.BlockURLs {
		t.Fatalf("unexpected block flags: %+v", got)
	}
}

func TestIPUsageJournal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	entries := []ledger.Entry{
		{Address: "A", SubjectID: "u1", At: now.Add(-10 * 24 * time.Hour)},
		{Address: "A", SubjectID: "u2", At: now.Add(-time.Hour)},
		{Address: "B", SubjectID: "u3", At: now.Add(-2 * time.Hour)},
	}
	for _, entry := range entries {
		if err := store.Append(ctx, entry); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	loaded, err := store.LoadSince(ctx, now.Add(-ledger.DefaultWindow))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 live entries, got %d", len(loaded))
	}
	if !loaded[0].At.Equal(entries[1].At) || loaded[0].SubjectID != "u2" {
		t.Fatalf("unexpected first entry: %+v", loaded[0])
	}

	if err := store.Purge(ctx, "A", now.Add(-ledger.DefaultWindow)); err != nil {
		t.Fatalf("purge: %v", err)
	}
	removed, err := store.PruneIPUsage(ctx, now.Add(-ledger.DefaultWindow))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected purge to have removed the expired row, prune removed %d", removed)
	}
}

func TestStoreBacksLedgerRestore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	first := ledger.New(0, store, nil)
	if err := first.Record(ctx, "A", "u1", now.Add(-3*time.Hour)); err != nil {
		t.Fatalf("record: %v", err)
	}

	second := ledger.New(0, store, nil)
	restored, err := second.Restore(ctx, now)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored != 1 {
		t.Fatalf("expected 1 restored entry, got %d", restored)
	}
	if _, found := second.FindConflict(ctx, "A", "u2", now); !found {
		t.Fatalf("expected conflict after restore")
	}
}

func TestTimeoutHistoryNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 12; i++ {
		record := TimeoutRecord{
			GuildID:     "g1",
			UserID:      "u1",
			ModeratorID: "m1",
			Action:      "add",
			Duration:    time.Duration(i+1) * time.Minute,
			CreatedAt:   start.Add(time.Duration(i) * time.Hour),
		}
		if err := store.AddTimeoutRecord(ctx, record); err != nil {
			t.Fatalf("add record: %v", err)
		}
	}

	records, err := store.ListTimeoutHistory(ctx, "g1", "u1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 10 {
		t.Fatalf("expected 10 records, got %d", len(records))
	}
	if records[0].Duration != 12*time.Minute {
		t.Fatalf("expected newest first, got %s", records[0].Duration)
	}
}

func TestFilterWords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpsertFilterWord(ctx, FilterWord{GuildID: "g1", Word: "spam", Penalty: "kick"}); err != nil {
		t.Fatalf("add word: %v", err)
	}
	if err := store.UpsertFilterWord(ctx, FilterWord{GuildID: "g1", Word: "spam", Penalty: "timeout", TimeoutMinutes: 15}); err != nil {
		t.Fatalf("edit word: %v", err)
	}

	word, found, err := store.GetFilterWord(ctx, "g1", "spam")
	if err != nil || !found {
		t.Fatalf("get word: found=%v err=%v", found, err)
	}
	if word.Penalty != "timeout" || word.TimeoutMinutes != 15 {
		t.Fatalf("unexpected word: %+v", word)
	}

	removed, err := store.RemoveFilterWord(ctx, "g1", "spam")
	if err != nil || !removed {
		t.Fatalf("remove word: removed=%v err=%v", removed, err)
	}
	removed, err = store.RemoveFilterWord(ctx, "g1", "spam")
	if err != nil || removed {
		t.Fatalf("expected second remove to report missing, removed=%v err=%v", removed, err)
	}
}

func TestIncrementInfraction(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		count, err := store.IncrementInfraction(ctx, "g1", "u1", InfractionFilterWord, "kick", time.Hour)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if count != want {
			t.Fatalf("expected %d, got %d", want, count)
		}
	}
	inf, err := store.GetInfraction(ctx, "g1", "u1", InfractionFilterWord)
	if err != nil {
		t.Fatalf("get infraction: %v", err)
	}
	if inf.CountTotal != 3 || inf.LastAction != "kick" {
		t.Fatalf("unexpected infraction: %+v", inf)
	}
}

func TestDomainLists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_ = store.AddDomainAllow(ctx, "g1", "Example.com")
	_ = store.AddDomainAllow(ctx, "g1", "example.com")
	domains, err := store.ListDomainAllow(ctx, "g1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(domains) != 1 || domains[0] != "example.com" {
		t.Fatalf("unexpected allowlist: %v", domains)
	}
}

func TestEventLogChannels(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	added, err := store.AddEventLogChannel(ctx, "g1", "c2")
	if err != nil || !added {
		t.Fatalf("expected first add to register, got %t %v", added, err)
	}
	added, err = store.AddEventLogChannel(ctx, "g1", "c2")
	if err != nil || added {
		t.Fatalf("expected duplicate add to be a no-op, got %t %v", added, err)
	}
	_, _ = store.AddEventLogChannel(ctx, "g1", "c1")
	_, _ = store.AddEventLogChannel(ctx, "g2", "c9")

	channels, err := store.ListEventLogChannels(ctx, "g1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(channels) != 2 || channels[0] != "c1" || channels[1] != "c2" {
		t.Fatalf("unexpected channels: %v", channels)
	}

	removed, err := store.RemoveEventLogChannel(ctx, "g1", "c1")
	if err != nil || !removed {
		t.Fatalf("expected remove, got %t %v", removed, err)
	}
	removed, _ = store.RemoveEventLogChannel(ctx, "g1", "c1")
	if removed {
		t.Fatalf("expected second remove to report false")
	}
}

func TestRebind(t *testing.T) {
	s := &Store{driver: DriverPostgres}
	got := s.rebind("SELECT a FROM t WHERE x = ? AND y = ?")
	if got != "SELECT a FROM t WHERE x = $1 AND y = $2" {
		t.Fatalf("unexpected rebind: %s", got)
	}
	s.driver = DriverSQLite
	if s.rebind("?") != "?" {
		t.Fatalf("expected sqlite query unchanged")
	}
}
