package session

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/amdadul/brandstore-crm/internal/model"
)

// SQLStore keeps the session as key/value rows in the session_kv table.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore creates a store over a migrated database (see db.Open).
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Save writes all keys in one transaction so readers never observe a partial session.
func (s *SQLStore) Save(ctx context.Context, sess model.Session) error {
	values, err := encode(sess)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	upsert := tx.Rebind(`
		INSERT INTO session_kv (name, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`)
	for _, key := range Keys {
		if _, err := tx.ExecContext(ctx, upsert, key, values[key]); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type kvRow struct {
	Name  string `db:"name"`
	Value string `db:"value"`
}

func (s *SQLStore) Read(ctx context.Context) (*model.Session, error) {
	query, args, err := sqlx.In(`SELECT name, value FROM session_kv WHERE name IN (?)`, Keys)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []kvRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	values := make(map[string]string, len(rows))
	for _, r := range rows {
		values[r.Name] = r.Value
	}
	return decode(values)
}

func (s *SQLStore) Clear(ctx context.Context) error {
	query, args, err := sqlx.In(`DELETE FROM session_kv WHERE name IN (?)`, Keys)
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
