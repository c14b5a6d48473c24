package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/newsportal/internal/model"
)

// PostgresPreferenceRepo はPostgreSQLを使用したテーマ設定リポジトリ。
type PostgresPreferenceRepo struct {
	db *sql.DB
}

// NewPostgresPreferenceRepo はPostgresPreferenceRepoを生成する。
func NewPostgresPreferenceRepo(db *sql.DB) *PostgresPreferenceRepo {
	return &PostgresPreferenceRepo{db: db}
}

// FindTheme は保存済みのテーマを返す。
func (r *PostgresPreferenceRepo) FindTheme(ctx context.Context, subject string) (model.Theme, error) {
	var theme string
	err := r.db.QueryRowContext(ctx,
		`SELECT theme FROM portal_preferences WHERE subject = $1`,
		subject,
	).Scan(&theme)

	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find preference: %w", err)
	}
	return model.Theme(theme), nil
}

// SaveTheme はテーマをUPSERTする。
func (r *PostgresPreferenceRepo) SaveTheme(ctx context.Context, subject string, theme model.Theme) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO portal_preferences (subject, theme, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (subject) DO UPDATE SET theme = EXCLUDED.theme, updated_at = now()`,
		subject, string(theme),
	)
	if err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PreferenceRepository = (*PostgresPreferenceRepo)(nil)
