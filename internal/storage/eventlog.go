package storage

import "context"

// AddEventLogChannel registers a channel for member and message events. It
// reports false when the channel was already registered.
func (s *Store) AddEventLogChannel(ctx context.Context, guildID, channelID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO event_log_channels (guild_id, channel_id) VALUES (?, ?) ON CONFLICT DO NOTHING`), guildID, channelID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) RemoveEventLogChannel(ctx context.Context, guildID, channelID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM event_log_channels WHERE guild_id = ? AND channel_id = ?`), guildID, channelID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) ListEventLogChannels(ctx context.Context, guildID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT channel_id FROM event_log_channels WHERE guild_id = ? ORDER BY channel_id`), guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []string
	for rows.Next() {
		var channelID string
		if err := rows.Scan(&channelID); err != nil {
			return nil, err
		}
		channels = append(channels, channelID)
	}
	return channels, rows.Err()
}
