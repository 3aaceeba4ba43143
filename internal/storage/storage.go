package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrations embed.FS

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

type Store struct {
	db     *sql.DB
	driver string
}

type GuildSettings struct {
	GuildID                string
	VerificationLogChannel string
	Language               string
	BlockURLs              bool
	BlockInvites           bool
}

type AuditLog struct {
	ID        int64
	GuildID   string
	UserID    string
	Level     string
	Event     string
	Details   string
	CreatedAt time.Time
}

// New opens the database. An empty driver means sqlite.
func New(driver, dsn string) (*Store, error) {
	if driver == "" {
		driver = DriverSQLite
	}
	source := dsn
	if driver == DriverSQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		source = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", dsn)
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// one connection keeps :memory: databases shared and serializes writers
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return &Store{db: db, driver: driver}, nil
}

func (s *Store) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Migrate() error {
	dir := path.Join("migrations", "sqlite")
	if s.driver == DriverPostgres {
		dir = path.Join("migrations", "postgres")
	}
	entries, err := migrations.ReadDir(dir)
	if err != nil {
		return err
	}

	var files []string
	for _, entry := range entries {
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := migrations.ReadFile(path.Join(dir, file))
		if err != nil {
			return err
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			if isIgnorableMigrationError(err) {
				continue
			}
			return fmt.Errorf("migration %s failed: %w", file, err)
		}
	}
	return nil
}

func (s *Store) GetGuildSettings(ctx context.Context, guildID string, defaults GuildSettings) (GuildSettings, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT verification_log_channel, language, block_urls, block_invites
		FROM guild_settings WHERE guild_id = ?`), guildID)

	result := defaults
	result.GuildID = guildID

	var blockURLs, blockInvites int
	err := row.Scan(&result.VerificationLogChannel, &result.Language, &blockURLs, &blockInvites)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result, nil
		}
		return GuildSettings{}, err
	}
	result.BlockURLs = blockURLs == 1
	result.BlockInvites = blockInvites == 1
	if result.Language == "" {
		result.Language = defaults.Language
	}
	return result, nil
}

func (s *Store) UpsertGuildSettings(ctx context.Context, settings GuildSettings) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO guild_settings (guild_id, verification_log_channel, language, block_urls, block_invites)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			verification_log_channel = excluded.verification_log_channel,
			language = excluded.language,
			block_urls = excluded.block_urls,
			block_invites = excluded.block_invites
	`),
		settings.GuildID,
		settings.VerificationLogChannel,
		settings.Language,
		boolToInt(settings.BlockURLs),
		boolToInt(settings.BlockInvites),
	)
	return err
}

func (s *Store) AddAuditLog(ctx context.Context, log AuditLog) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO audit_logs (guild_id, user_id, level, event, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), log.GuildID, log.UserID, log.Level, log.Event, log.Details, log.CreatedAt.Unix())
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, guildID string, since time.Time) ([]AuditLog, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, guild_id, user_id, level, event, details, created_at
		FROM audit_logs
		WHERE guild_id = ? AND created_at >= ?
		ORDER BY created_at DESC
	`), guildID, since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []AuditLog
	for rows.Next() {
		var log AuditLog
		var created int64
		if err := rows.Scan(&log.ID, &log.GuildID, &log.UserID, &log.Level, &log.Event, &log.Details, &created); err != nil {
			return nil, err
		}
		log.CreatedAt = time.Unix(created, 0)
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func (s *Store) CleanupAuditLogs(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM audit_logs WHERE created_at < ?`), cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) AddDomainAllow(ctx context.Context, guildID, domain string) error {
	return s.addDomain(ctx, "domain_allowlist", guildID, domain)
}

func (s *Store) RemoveDomainAllow(ctx context.Context, guildID, domain string) error {
	return s.removeDomain(ctx, "domain_allowlist", guildID, domain)
}

func (s *Store) ListDomainAllow(ctx context.Context, guildID string) ([]string, error) {
	return s.listDomains(ctx, "domain_allowlist", guildID)
}

func (s *Store) AddDomainBlock(ctx context.Context, guildID, domain string) error {
	return s.addDomain(ctx, "domain_blocklist", guildID, domain)
}

func (s *Store) RemoveDomainBlock(ctx context.Context, guildID, domain string) error {
	return s.removeDomain(ctx, "domain_blocklist", guildID, domain)
}

func (s *Store) ListDomainBlock(ctx context.Context, guildID string) ([]string, error) {
	return s.listDomains(ctx, "domain_blocklist", guildID)
}

// table is always one of the two constant list names.
func (s *Store) addDomain(ctx context.Context, table, guildID, domain string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO `+table+` (guild_id, domain) VALUES (?, ?) ON CONFLICT DO NOTHING`), guildID, strings.ToLower(domain))
	return err
}

func (s *Store) removeDomain(ctx context.Context, table, guildID, domain string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM `+table+` WHERE guild_id = ? AND domain = ?`), guildID, strings.ToLower(domain))
	return err
}

func (s *Store) listDomains(ctx context.Context, table, guildID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT domain FROM `+table+` WHERE guild_id = ? ORDER BY domain`), guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var domain string
		if err := rows.Scan(&domain); err != nil {
			return nil, err
		}
		domains = append(domains, domain)
	}
	return domains, rows.Err()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func isIgnorableMigrationError(err error) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	return strings.Contains(message, "duplicate column name") || strings.Contains(message, "already exists")
}
