package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/dbx"
)

// SQLRepository implements Repository on SQLite or PostgreSQL. Queries are
// written with '?' placeholders and rebound per dialect.
type SQLRepository struct {
	db dbx.DBTX
	// begin is nil for a repository bound to an open transaction.
	begin   dbx.Beginner
	dialect dbx.Dialect
	now     func() time.Time
}

func NewSQLRepository(db *sql.DB, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, begin: db, dialect: dialect, now: time.Now}
}

func (r *SQLRepository) q(query string) string {
	return dbx.Rebind(r.dialect, query)
}

func (r *SQLRepository) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		r.q(`SELECT value FROM local_storage WHERE namespace = ? AND key = ?`),
		namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s[%s]: %w", namespace, key, err)
	}
	return []byte(value), nil
}

func (r *SQLRepository) Set(ctx context.Context, namespace, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, r.q(`
		INSERT INTO local_storage (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`), namespace, key, string(value), r.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to set %s[%s]: %w", namespace, key, err)
	}
	return nil
}

func (r *SQLRepository) SetMany(ctx context.Context, namespace string, entries map[string][]byte) error {
	keys := slices.Sorted(maps.Keys(entries))
	write := func(db dbx.DBTX) error {
		inTx := &SQLRepository{db: db, dialect: r.dialect, now: r.now}
		for _, k := range keys {
			if err := inTx.Set(ctx, namespace, k, entries[k]); err != nil {
				return err
			}
		}
		return nil
	}
	if r.begin == nil {
		return write(r.db)
	}
	return dbx.WithTx(ctx, r.begin, write)
}

func (r *SQLRepository) Delete(ctx context.Context, namespace string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	args := make([]any, 0, len(keys)+1)
	args = append(args, namespace)
	for _, k := range keys {
		args = append(args, k)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")

	_, err := r.db.ExecContext(ctx,
		r.q(`DELETE FROM local_storage WHERE namespace = ? AND key IN (`+placeholders+`)`),
		args...)
	if err != nil {
		return fmt.Errorf("failed to delete %s%v: %w", namespace, keys, err)
	}
	return nil
}

func (r *SQLRepository) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.q(`
		DELETE FROM local_storage WHERE namespace IN (
			SELECT namespace FROM local_storage GROUP BY namespace HAVING MAX(updated_at) < ?
		)
	`), cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge storage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to purge storage: %w", err)
	}
	return n, nil
}
