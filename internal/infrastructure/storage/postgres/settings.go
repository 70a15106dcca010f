package postgres

import (
	"context"
	"fmt"
)

// SettingsStore reads the business settings key/value table.
type SettingsStore struct {
	txManager *TxManager
}

// NewSettingsStore creates a settings store.
func NewSettingsStore(txManager *TxManager) *SettingsStore {
	return &SettingsStore{txManager: txManager}
}

// Load returns every stored setting.
func (s *SettingsStore) Load(ctx context.Context) (map[string]string, error) {
	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[key] = value
	}
	return out, rows.Err()
}

// Put inserts or replaces one setting.
func (s *SettingsStore) Put(ctx context.Context, key, value string) error {
	sql := `
		INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, key, value); err != nil {
		return fmt.Errorf("put setting %s: %w", key, err)
	}
	return nil
}
