package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/socialdesk/internal/model"
)

// PostgresConnectionRepo はPostgreSQLを使用した外部SNS連携リポジトリ。
type PostgresConnectionRepo struct {
	db *sql.DB
}

// NewPostgresConnectionRepo はPostgresConnectionRepoを生成する。
func NewPostgresConnectionRepo(db *sql.DB) *PostgresConnectionRepo {
	return &PostgresConnectionRepo{db: db}
}

// Upsert は(user, platform)をキーに連携を冪等にUPSERTする。
// 既存行がある場合はトークン・ユーザー名を上書きし、is_activeをtrueに戻し、
// connected_atを現在時刻に更新する（最後の認可が優先）。
// 行IDは初回作成時のものが維持される。
func (r *PostgresConnectionRepo) Upsert(ctx context.Context, conn *model.Connection) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO connections (id, user_id, platform, external_id, username, access_token, token_expiry, is_active, connected_at, last_used)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $9)
		 ON CONFLICT (user_id, platform) DO UPDATE SET
		     external_id  = EXCLUDED.external_id,
		     username     = EXCLUDED.username,
		     access_token = EXCLUDED.access_token,
		     token_expiry = EXCLUDED.token_expiry,
		     is_active    = TRUE,
		     connected_at = EXCLUDED.connected_at,
		     last_used    = EXCLUDED.last_used`,
		conn.ID, conn.UserID, conn.Platform, conn.ExternalID, conn.Username,
		conn.AccessToken, conn.TokenExpiry, conn.ConnectedAt, conn.LastUsed,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert connection: %w", err)
	}
	return nil
}

// FindActive は指定ユーザー・プラットフォームの有効な連携を取得する。
// 連携が存在しない、または切断済みの場合はnilを返す。
func (r *PostgresConnectionRepo) FindActive(ctx context.Context, userID string, platform model.Platform) (*model.Connection, error) {
	conn := &model.Connection{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, platform, external_id, username, access_token, token_expiry, is_active, connected_at, last_used
		 FROM connections
		 WHERE user_id = $1 AND platform = $2 AND is_active = TRUE`,
		userID, platform,
	).Scan(
		&conn.ID, &conn.UserID, &conn.Platform, &conn.ExternalID, &conn.Username,
		&conn.AccessToken, &conn.TokenExpiry, &conn.IsActive, &conn.ConnectedAt, &conn.LastUsed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find connection: %w", err)
	}
	return conn, nil
}

// TouchLastUsed は連携のlast_usedを指定時刻に更新する。
func (r *PostgresConnectionRepo) TouchLastUsed(ctx context.Context, id string, usedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE connections SET last_used = $1 WHERE id = $2`,
		usedAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to touch last_used: %w", err)
	}
	return nil
}

// Deactivate は連携をソフトデリートする（is_activeをfalseにする）。
// 行自体は監査履歴として残す。対象行が存在しない場合はfalseを返す。
// 既に切断済みの行も対象外として扱う。
func (r *PostgresConnectionRepo) Deactivate(ctx context.Context, userID string, platform model.Platform) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE connections SET is_active = FALSE
		 WHERE user_id = $1 AND platform = $2 AND is_active = TRUE`,
		userID, platform,
	)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate connection: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ ConnectionRepository = (*PostgresConnectionRepo)(nil)
