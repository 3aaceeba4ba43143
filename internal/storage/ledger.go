package storage

import (
	"context"
	"time"

	"verigate/internal/ledger"
)

// Append, Purge and LoadSince make Store a ledger.Journal.

func (s *Store) Append(ctx context.Context, entry ledger.Entry) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO ip_usage (address, subject_id, created_at) VALUES (?, ?, ?)
	`), entry.Address, entry.SubjectID, entry.At.UnixMilli())
	return err
}

func (s *Store) Purge(ctx context.Context, address string, cutoff time.Time) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		DELETE FROM ip_usage WHERE address = ? AND created_at <= ?
	`), address, cutoff.UnixMilli())
	return err
}

func (s *Store) LoadSince(ctx context.Context, cutoff time.Time) ([]ledger.Entry, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT address, subject_id, created_at
		FROM ip_usage
		WHERE created_at > ?
		ORDER BY id
	`), cutoff.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var entry ledger.Entry
		var created int64
		if err := rows.Scan(&entry.Address, &entry.SubjectID, &created); err != nil {
			return nil, err
		}
		entry.At = time.UnixMilli(created)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// PruneIPUsage drops every journal row at or before cutoff.
func (s *Store) PruneIPUsage(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM ip_usage WHERE created_at <= ?`), cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
