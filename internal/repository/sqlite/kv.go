package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/edtech-platform/internal/kvstore"
)

var _ kvstore.Store = (*KVDB)(nil)

// KVDB is the default kvstore.Store: one row per (namespace, key).
type KVDB struct {
	conn *sql.DB
}

func (k *KVDB) Get(ctx context.Context, namespace, key string) (string, error) {
	var value string
	err := k.conn.QueryRowContext(ctx,
		`SELECT value FROM kv_entries WHERE namespace = ? AND key = ?`, namespace, key,
	).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", kvstore.ErrNotFound
		}
		return "", fmt.Errorf("sqlite: reading kv %s/%s: %w", namespace, key, err)
	}
	return value, nil
}

func (k *KVDB) Set(ctx context.Context, namespace, key, value string) error {
	_, err := k.conn.ExecContext(ctx,
		`INSERT INTO kv_entries (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		namespace, key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: writing kv %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (k *KVDB) Delete(ctx context.Context, namespace, key string) error {
	_, err := k.conn.ExecContext(ctx,
		`DELETE FROM kv_entries WHERE namespace = ? AND key = ?`, namespace, key)
	if err != nil {
		return fmt.Errorf("sqlite: deleting kv %s/%s: %w", namespace, key, err)
	}
	return nil
}

// List returns every key in namespace starting with prefix.
func (k *KVDB) List(ctx context.Context, namespace, prefix string) (map[string]string, error) {
	rows, err := k.conn.QueryContext(ctx,
		`SELECT key, value FROM kv_entries
		 WHERE namespace = ? AND substr(key, 1, length(?)) = ?`,
		namespace, prefix, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing kv %s/%s*: %w", namespace, prefix, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("sqlite: scanning kv row: %w", err)
		}
		out[key] = value
	}
	return out, rows.Err()
}
