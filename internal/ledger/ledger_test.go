package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeJournal struct {
	mu       sync.Mutex
	appended []Entry
	purges   []time.Time
	stored   []Entry
	err      error
}

func (f *fakeJournal) Append(ctx context.Context, entry Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, entry)
	return f.err
}

func (f *fakeJournal) Purge(ctx context.Context, address string, cutoff time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purges = append(f.purges, cutoff)
	return f.err
}

func (f *fakeJournal) LoadSince(ctx context.Context, cutoff time.Time) ([]Entry, error) {
	return f.stored, f.err
}

func TestFindConflictUnknownAddress(t *testing.T) {
	l := New(0, nil, nil)
	if _, found := l.FindConflict(context.Background(), "198.51.100.1", "u1", base); found {
		t.Fatalf("expected no conflict for unknown address")
	}
	if l.Len("198.51.100.1") != 0 {
		t.Fatalf("expected empty slot to be released")
	}
}

func TestFindConflictIgnoresSameSubject(t *testing.T) {
	ctx := context.Background()
	l := New(0, nil, nil)
	_ = l.Record(ctx, "A", "u1", base.Add(-time.Hour))

	if _, found := l.FindConflict(ctx, "A", "u1", base); found {
		t.Fatalf("expected own entry not to conflict")
	}
	conflict, found := l.FindConflict(ctx, "A", "u2", base)
	if !found || conflict.SubjectID != "u1" {
		t.Fatalf("expected conflict with u1, got %+v found=%v", conflict, found)
	}
}

func TestFindConflictEarliestWins(t *testing.T) {
	ctx := context.Background()
	l := New(0, nil, nil)
	_ = l.Record(ctx, "A", "u3", base.Add(-2*time.Hour))
	_ = l.Record(ctx, "A", "u1", base.Add(-3*24*time.Hour))
	_ = l.Record(ctx, "A", "u4", base.Add(-3*24*time.Hour))

	conflict, found := l.FindConflict(ctx, "A", "u2", base)
	if !found {
		t.Fatalf("expected conflict")
	}
	if conflict.SubjectID != "u1" {
		t.Fatalf("expected earliest entry u1, got %s", conflict.SubjectID)
	}
}

func TestExpiredEntriesArePurgedOnRead(t *testing.T) {
	ctx := context.Background()
	journal := &fakeJournal{}
	l := New(0, journal, nil)
	_ = l.Record(ctx, "A", "u1", base.Add(-8*24*time.Hour))
	_ = l.Record(ctx, "A", "u3", base.Add(-7*24*time.Hour))

	for i := 0; i < 3; i++ {
		if _, found := l.FindConflict(ctx, "A", "u2", base); found {
			t.Fatalf("expected expired entries to be ignored on query %d", i)
		}
	}
	if l.Len("A") != 0 {
		t.Fatalf("expected expired entries dropped, got %d", l.Len("A"))
	}
	if len(journal.purges) != 1 || !journal.purges[0].Equal(base.Add(-DefaultWindow)) {
		t.Fatalf("expected one journal purge at the window cutoff, got %v", journal.purges)
	}

	// a later query must never resurrect them
	if _, found := l.FindConflict(ctx, "A", "u2", base.Add(-30*24*time.Hour)); found {
		t.Fatalf("expected purged entries to stay gone")
	}
}

func TestPurgeOnlyTouchesQueriedAddress(t *testing.T) {
	ctx := context.Background()
	l := New(0, nil, nil)
	_ = l.Record(ctx, "A", "u1", base.Add(-10*24*time.Hour))
	_ = l.Record(ctx, "B", "u1", base.Add(-10*24*time.Hour))

	l.FindConflict(ctx, "A", "u2", base)
	if l.Len("B") != 1 {
		t.Fatalf("expected address B untouched, got %d", l.Len("B"))
	}
}

func TestRecordReportsJournalError(t *testing.T) {
	journal := &fakeJournal{err: errors.New("disk full")}
	l := New(0, journal, nil)

	if err := l.Record(context.Background(), "A", "u1", base); err == nil {
		t.Fatalf("expected journal error")
	}
	if l.Len("A") != 1 {
		t.Fatalf("expected memory entry to stand, got %d", l.Len("A"))
	}
}

func TestRestoreSkipsExpired(t *testing.T) {
	journal := &fakeJournal{stored: []Entry{
		{Address: "A", SubjectID: "u1", At: base.Add(-time.Hour)},
		{Address: "A", SubjectID: "u2", At: base.Add(-9 * 24 * time.Hour)},
	}}
	l := New(0, journal, nil)

	restored, err := l.Restore(context.Background(), base)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored != 1 {
		t.Fatalf("expected 1 restored entry, got %d", restored)
	}
	if _, found := l.FindConflict(context.Background(), "A", "u9", base); !found {
		t.Fatalf("expected restored entry to conflict")
	}
}

func TestRestoreWhileUpdating(t *testing.T) {
	ctx := context.Background()
	journal := &fakeJournal{stored: []Entry{{Address: "A", SubjectID: "u1", At: base.Add(-time.Hour)}}}
	l := New(0, journal, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := l.Restore(ctx, base); err != nil {
				t.Errorf("restore: %v", err)
			}
		}()
		go func(id int) {
			defer wg.Done()
			_ = l.Update(ctx, "A", func(tx *Tx) {
				tx.FindConflict(fmt.Sprintf("u%d", id+2), base)
			})
		}(i)
	}
	wg.Wait()

	if _, found := l.FindConflict(ctx, "A", "u9", base); !found {
		t.Fatalf("expected restored entry to conflict")
	}
}

func TestUpdateSerializesPerAddress(t *testing.T) {
	ctx := context.Background()
	l := New(0, nil, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			subject := fmt.Sprintf("u%d", id)
			_ = l.Update(ctx, "A", func(tx *Tx) {
				if _, found := tx.FindConflict(subject, base); found {
					return
				}
				tx.Record(subject, base)
				mu.Lock()
				accepted++
				mu.Unlock()
			})
		}(i)
	}
	wg.Wait()

	if accepted != 1 {
		t.Fatalf("expected exactly one accepted writer, got %d", accepted)
	}
	if l.Len("A") != 1 {
		t.Fatalf("expected one entry, got %d", l.Len("A"))
	}
}

func TestRedisJournalRoundTrip(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	journal, err := NewRedisJournal(ctx, url, DefaultWindow)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer journal.Close()

	now := time.Now().Truncate(time.Millisecond)
	address := "test-" + now.Format("150405.000")
	if err := journal.Append(ctx, Entry{Address: address, SubjectID: "u1", At: now.Add(-time.Hour)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := journal.Append(ctx, Entry{Address: address, SubjectID: "u2", At: now.Add(-8 * 24 * time.Hour)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := journal.Purge(ctx, address, now.Add(-DefaultWindow)); err != nil {
		t.Fatalf("purge: %v", err)
	}

	entries, err := journal.LoadSince(ctx, now.Add(-DefaultWindow))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	found := 0
	for _, entry := range entries {
		if entry.Address == address {
			found++
			if entry.SubjectID != "u1" {
				t.Fatalf("unexpected subject %s", entry.SubjectID)
			}
		}
	}
	if found != 1 {
		t.Fatalf("expected 1 entry, got %d", found)
	}
}
