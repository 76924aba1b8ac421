package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is a single-node Store backed by a local SQLite file. It cannot
// coordinate independent replicas (the file is not network-addressable)
// but provides the same atomic primitives for local play and tests.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the store database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store database: %w", err)
	}

	// SQLite doesn't support concurrent writers; a single connection
	// serializes access and makes insert-if-absent race free.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating store schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS combinations (
			key TEXT PRIMARY KEY,
			word_a TEXT NOT NULL,
			word_b TEXT NOT NULL,
			result TEXT NOT NULL,
			discoverer TEXT NOT NULL,
			discovered_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT,
			total_discoveries INTEGER NOT NULL DEFAULT 0,
			first_discoveries INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_users_firsts ON users(first_discoveries DESC, total_discoveries DESC);

		CREATE TABLE IF NOT EXISTS user_words (
			user_id TEXT NOT NULL,
			word TEXT NOT NULL,
			PRIMARY KEY (user_id, word)
		);
	`
	_, err := db.Exec(schema)
	return err
}

func (s *SQLite) Combination(ctx context.Context, key CombinationKey) (*CombinationRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT word_a, word_b, result, discoverer, discovered_at
		FROM combinations WHERE key = ?`, key.String())
	return scanCombination(row)
}

func (s *SQLite) PutCombinationIfAbsent(ctx context.Context, rec CombinationRecord) (bool, *CombinationRecord, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO combinations (key, word_a, word_b, result, discoverer, discovered_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO NOTHING`,
		rec.Key.String(), rec.Key.A, rec.Key.B, rec.Result, rec.Discoverer, rec.DiscoveredAt.UnixMilli())
	if err != nil {
		return false, nil, fmt.Errorf("inserting combination: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, nil, err
	}
	if n == 1 {
		return true, nil, nil
	}

	existing, err := s.Combination(ctx, rec.Key)
	if err != nil {
		return false, nil, err
	}
	if existing == nil {
		// Conflict without a readable row should not happen on one
		// connection.
		return false, nil, fmt.Errorf("combination %s conflicted but is missing", rec.Key)
	}
	return false, existing, nil
}

func (s *SQLite) RecordDiscovery(ctx context.Context, user User, word string, first bool) error {
	firstInc := 0
	if first {
		firstInc = 1
	}

	// Counters and the collected word commit together or not at all.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting discovery transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, name, total_discoveries, first_discoveries)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(id) DO UPDATE SET
			total_discoveries = total_discoveries + 1,
			first_discoveries = first_discoveries + excluded.first_discoveries`,
		user.ID, user.Name, firstInc)
	if err != nil {
		return fmt.Errorf("updating user counters: %w", err)
	}

	if word != "" {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_words (user_id, word) VALUES (?, ?)
			ON CONFLICT(user_id, word) DO NOTHING`, user.ID, word)
		if err != nil {
			return fmt.Errorf("recording collected word: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative limit as unbounded
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, first_discoveries, total_discoveries
		FROM users
		ORDER BY first_discoveries DESC, total_discoveries DESC, id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		var name sql.NullString
		if err := rows.Scan(&e.UserID, &name, &e.FirstDiscoveries, &e.TotalDiscoveries); err != nil {
			return nil, err
		}
		e.Name = name.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLite) GetUser(ctx context.Context, userID string) (*UserRecord, error) {
	var rec UserRecord
	var name sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, first_discoveries, total_discoveries
		FROM users WHERE id = ?`, userID).
		Scan(&rec.UserID, &name, &rec.FirstDiscoveries, &rec.TotalDiscoveries)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	rec.Name = name.String

	rows, err := s.db.QueryContext(ctx, `
		SELECT word FROM user_words WHERE user_id = ? ORDER BY rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying collected words: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		rec.Words = append(rec.Words, w)
	}
	return &rec, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// scanCombination reads a combination row, mapping no-rows to (nil, nil).
func scanCombination(row *sql.Row) (*CombinationRecord, error) {
	var rec CombinationRecord
	var at int64
	err := row.Scan(&rec.Key.A, &rec.Key.B, &rec.Result, &rec.Discoverer, &at)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading combination: %w", err)
	}
	rec.DiscoveredAt = time.UnixMilli(at).UTC()
	return &rec, nil
}
