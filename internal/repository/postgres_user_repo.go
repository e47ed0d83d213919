package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/socialdesk/internal/model"
)

// uniqueViolation はPostgresの一意制約違反のエラーコード。
const uniqueViolation = "23505"

// isUniqueViolation はエラーがPostgresの一意制約違反かを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, name, email, password_hash, google_id, is_google_user, role, preferences, created_at, updated_at`

// scanUser は1行をmodel.Userにスキャンする。
func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var prefsJSON []byte
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.GoogleID,
		&user.IsGoogleUser, &user.Role, &prefsJSON, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(prefsJSON, &user.Preferences); err != nil {
		return nil, fmt.Errorf("failed to decode preferences: %w", err)
	}
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail は小文字正規化済みメールアドレスでユーザーを検索する。
// 見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。
// メールアドレスまたはgoogle_idの一意制約違反時はErrDuplicateを返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	prefsJSON, err := json.Marshal(user.Preferences)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, google_id, is_google_user, role, preferences, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.GoogleID,
		user.IsGoogleUser, user.Role, prefsJSON, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to insert user: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// AttachGoogleID は既存ユーザーにgoogle_idを紐付け、is_google_userをtrueにする。
// パスワードハッシュには触れない。
func (r *PostgresUserRepo) AttachGoogleID(ctx context.Context, userID, googleID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET google_id = $1, is_google_user = TRUE, updated_at = $2 WHERE id = $3`,
		googleID, time.Now(), userID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to attach google ID: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to attach google ID: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", userID)
	}
	return nil
}

// UpdateProfile は表示名と設定を更新し、更新後のユーザーを返す。
// nilのフィールドは変更しない部分更新を行う。見つからない場合はnilを返す。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, userID string, name *string, prefs *model.Preferences) (*model.User, error) {
	var prefsJSON []byte
	if prefs != nil {
		b, err := json.Marshal(prefs)
		if err != nil {
			return nil, fmt.Errorf("failed to encode preferences: %w", err)
		}
		prefsJSON = b
	}

	row := r.db.QueryRowContext(ctx,
		`UPDATE users
		 SET name = COALESCE($1, name),
		     preferences = COALESCE($2, preferences),
		     updated_at = $3
		 WHERE id = $4
		 RETURNING `+userColumns,
		name, prefsJSON, time.Now(), userID,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
