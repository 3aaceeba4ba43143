package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type TimeoutRecord struct {
	ID          int64
	GuildID     string
	UserID      string
	ModeratorID string
	Action      string
	Duration    time.Duration
	CreatedAt   time.Time
}

type FilterWord struct {
	GuildID        string
	Word           string
	Penalty        string
	TimeoutMinutes int
}

func (s *Store) AddTimeoutRecord(ctx context.Context, record TimeoutRecord) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO timeout_history (guild_id, user_id, moderator_id, action, duration_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), record.GuildID, record.UserID, record.ModeratorID, record.Action, int64(record.Duration/time.Second), record.CreatedAt.Unix())
	return err
}

// ListTimeoutHistory returns the newest records first.
func (s *Store) ListTimeoutHistory(ctx context.Context, guildID, userID string, limit int) ([]TimeoutRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, guild_id, user_id, moderator_id, action, duration_seconds, created_at
		FROM timeout_history
		WHERE guild_id = ? AND user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`), guildID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []TimeoutRecord
	for rows.Next() {
		var record TimeoutRecord
		var seconds, created int64
		if err := rows.Scan(&record.ID, &record.GuildID, &record.UserID, &record.ModeratorID, &record.Action, &seconds, &created); err != nil {
			return nil, err
		}
		record.Duration = time.Duration(seconds) * time.Second
		record.CreatedAt = time.Unix(created, 0)
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *Store) UpsertFilterWord(ctx context.Context, word FilterWord) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO filter_words (guild_id, word, penalty, timeout_minutes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(guild_id, word) DO UPDATE SET
			penalty = excluded.penalty,
			timeout_minutes = excluded.timeout_minutes
	`), word.GuildID, word.Word, word.Penalty, word.TimeoutMinutes)
	return err
}

// RemoveFilterWord reports whether the word existed.
func (s *Store) RemoveFilterWord(ctx context.Context, guildID, word string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM filter_words WHERE guild_id = ? AND word = ?`), guildID, word)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) GetFilterWord(ctx context.Context, guildID, word string) (FilterWord, bool, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT guild_id, word, penalty, timeout_minutes FROM filter_words WHERE guild_id = ? AND word = ?
	`), guildID, word)
	var fw FilterWord
	if err := row.Scan(&fw.GuildID, &fw.Word, &fw.Penalty, &fw.TimeoutMinutes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return FilterWord{}, false, nil
		}
		return FilterWord{}, false, err
	}
	return fw, true, nil
}

func (s *Store) ListFilterWords(ctx context.Context, guildID string) ([]FilterWord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT guild_id, word, penalty, timeout_minutes FROM filter_words WHERE guild_id = ? ORDER BY word
	`), guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var words []FilterWord
	for rows.Next() {
		var fw FilterWord
		if err := rows.Scan(&fw.GuildID, &fw.Word, &fw.Penalty, &fw.TimeoutMinutes); err != nil {
			return nil, err
		}
		words = append(words, fw)
	}
	return words, rows.Err()
}
