package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

var _ KVRepository = (*SQLiteKVRepository)(nil)

// SQLiteKVRepository is a string key-value table with whole-value writes.
type SQLiteKVRepository struct {
	db *DB
}

func NewKVRepository(db *DB) *SQLiteKVRepository {
	return &SQLiteKVRepository{db: db}
}

// Get returns the value stored under key and whether it exists.
func (r *SQLiteKVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, true, nil
}

// GetMany returns the entries present for keys; absent keys are omitted.
func (r *SQLiteKVRepository) GetMany(ctx context.Context, keys ...string) (map[string]KVEntry, error) {
	entries := make(map[string]KVEntry, len(keys))
	if len(keys) == 0 {
		return entries, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]interface{}, len(keys))
	for i, key := range keys {
		args[i] = key
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value, updated_at FROM kv_store WHERE key IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry KVEntry
		var updatedAt int64
		if err := rows.Scan(&entry.Key, &entry.Value, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan kv row: %w", err)
		}
		entry.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		entries[entry.Key] = entry
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating kv rows: %w", err)
	}

	return entries, nil
}

// PutAll writes every value in one transaction; either all keys change or none.
func (r *SQLiteKVRepository) PutAll(ctx context.Context, values map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().UnixMilli()
	for key, value := range values {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO kv_store (key, value, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT (key) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at
		`, key, value, now)
		if err != nil {
			return fmt.Errorf("failed to put key %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
