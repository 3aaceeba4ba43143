package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultWindow = 7 * 24 * time.Hour

// Entry is one successful verification seen from an address.
type Entry struct {
	Address   string
	SubjectID string
	At        time.Time
}

// Journal persists ledger mutations outside the process. Memory stays authoritative.
type Journal interface {
	Append(ctx context.Context, entry Entry) error
	Purge(ctx context.Context, address string, cutoff time.Time) error
	LoadSince(ctx context.Context, cutoff time.Time) ([]Entry, error)
}

type addressLog struct {
	mu      sync.Mutex
	refs    int
	entries []Entry
}

type Ledger struct {
	mu      sync.Mutex
	window  time.Duration
	journal Journal
	logger  *zap.Logger
	logs    map[string]*addressLog
}

func New(window time.Duration, journal Journal, logger *zap.Logger) *Ledger {
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		window:  window,
		journal: journal,
		logger:  logger,
		logs:    make(map[string]*addressLog),
	}
}

func (l *Ledger) Window() time.Duration {
	return l.window
}

// Restore loads non-expired entries from the journal. It is meant for
// startup but may run alongside Update.
func (l *Ledger) Restore(ctx context.Context, now time.Time) (int, error) {
	if l.journal == nil {
		return 0, nil
	}
	entries, err := l.journal.LoadSince(ctx, now.Add(-l.window))
	if err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	restored := 0
	for _, entry := range entries {
		if l.isExpired(entry.At, now) {
			continue
		}
		log := l.logs[entry.Address]
		if log == nil {
			log = &addressLog{}
			l.logs[entry.Address] = log
		}
		log.mu.Lock()
		log.entries = append(log.entries, entry)
		log.mu.Unlock()
		restored++
	}
	return restored, nil
}

// Update runs fn with exclusive access to the entries of address. Journal
// writes made through tx are flushed before the lock is released.
func (l *Ledger) Update(ctx context.Context, address string, fn func(tx *Tx)) error {
	log := l.acquire(address)
	defer l.release(address, log)

	log.mu.Lock()
	defer log.mu.Unlock()

	tx := &Tx{log: log, address: address, window: l.window}
	fn(tx)
	return l.flush(ctx, tx)
}

func (l *Ledger) FindConflict(ctx context.Context, address, subjectID string, now time.Time) (Entry, bool) {
	var (
		conflict Entry
		found    bool
	)
	if err := l.Update(ctx, address, func(tx *Tx) {
		conflict, found = tx.FindConflict(subjectID, now)
	}); err != nil {
		l.logger.Warn("ledger journal purge failed", zap.String("address", address), zap.Error(err))
	}
	return conflict, found
}

func (l *Ledger) Record(ctx context.Context, address, subjectID string, at time.Time) error {
	return l.Update(ctx, address, func(tx *Tx) {
		tx.Record(subjectID, at)
	})
}

// Len reports the number of entries held for address, expired or not.
func (l *Ledger) Len(address string) int {
	l.mu.Lock()
	log := l.logs[address]
	l.mu.Unlock()
	if log == nil {
		return 0
	}
	log.mu.Lock()
	defer log.mu.Unlock()
	return len(log.entries)
}

func (l *Ledger) acquire(address string) *addressLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	log := l.logs[address]
	if log == nil {
		log = &addressLog{}
		l.logs[address] = log
	}
	log.refs++
	return log
}

func (l *Ledger) release(address string, log *addressLog) {
	l.mu.Lock()
	defer l.mu.Unlock()
	log.refs--
	// refs == 0 means no goroutine holds or waits on log.mu
	if log.refs == 0 && len(log.entries) == 0 {
		delete(l.logs, address)
	}
}

func (l *Ledger) flush(ctx context.Context, tx *Tx) error {
	if l.journal == nil {
		return nil
	}
	var errs []error
	if !tx.purgeCutoff.IsZero() {
		if err := l.journal.Purge(ctx, tx.address, tx.purgeCutoff); err != nil {
			errs = append(errs, err)
		}
	}
	for _, entry := range tx.appended {
		if err := l.journal.Append(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *Ledger) isExpired(at, now time.Time) bool {
	return now.Sub(at) >= l.window
}

// Tx is the view of one address handed to Update callbacks.
type Tx struct {
	log         *addressLog
	address     string
	window      time.Duration
	purgeCutoff time.Time
	appended    []Entry
}

// FindConflict drops expired entries and returns the earliest live entry
// recorded by a different subject. Insertion order breaks timestamp ties.
func (tx *Tx) FindConflict(subjectID string, now time.Time) (Entry, bool) {
	tx.purge(now)

	var (
		conflict Entry
		found    bool
	)
	for _, entry := range tx.log.entries {
		if entry.SubjectID == subjectID {
			continue
		}
		if !found || entry.At.Before(conflict.At) {
			conflict = entry
			found = true
		}
	}
	return conflict, found
}

func (tx *Tx) Record(subjectID string, at time.Time) {
	entry := Entry{Address: tx.address, SubjectID: subjectID, At: at}
	tx.log.entries = append(tx.log.entries, entry)
	tx.appended = append(tx.appended, entry)
}

func (tx *Tx) Entries() []Entry {
	out := make([]Entry, len(tx.log.entries))
	copy(out, tx.log.entries)
	return out
}

func (tx *Tx) purge(now time.Time) {
	kept := tx.log.entries[:0]
	removed := false
	for _, entry := range tx.log.entries {
		if now.Sub(entry.At) >= tx.window {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	// zero the tail so dropped entries are not retained by the backing array
	for i := len(kept); i < len(tx.log.entries); i++ {
		tx.log.entries[i] = Entry{}
	}
	tx.log.entries = kept
	if removed {
		tx.purgeCutoff = now.Add(-tx.window)
	}
}
