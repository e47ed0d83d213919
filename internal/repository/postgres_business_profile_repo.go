package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/socialdesk/internal/model"
)

// PostgresBusinessProfileRepo はPostgreSQLを使用した事業者プロフィールリポジトリ。
type PostgresBusinessProfileRepo struct {
	db *sql.DB
}

// NewPostgresBusinessProfileRepo はPostgresBusinessProfileRepoを生成する。
func NewPostgresBusinessProfileRepo(db *sql.DB) *PostgresBusinessProfileRepo {
	return &PostgresBusinessProfileRepo{db: db}
}

const businessProfileColumns = `id, user_id, business_name, description, contact_info, logo_url, website, social_links, industry, founded_year, employee_count, is_active, created_at, updated_at`

// scanBusinessProfile は1行をmodel.BusinessProfileにスキャンする。
func scanBusinessProfile(row *sql.Row) (*model.BusinessProfile, error) {
	profile := &model.BusinessProfile{}
	var contactJSON, linksJSON []byte
	err := row.Scan(
		&profile.ID, &profile.UserID, &profile.BusinessName, &profile.Description,
		&contactJSON, &profile.LogoURL, &profile.Website, &linksJSON,
		&profile.Industry, &profile.FoundedYear, &profile.EmployeeCount,
		&profile.IsActive, &profile.CreatedAt, &profile.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(contactJSON, &profile.ContactInfo); err != nil {
		return nil, fmt.Errorf("failed to decode contact_info: %w", err)
	}
	if err := json.Unmarshal(linksJSON, &profile.SocialLinks); err != nil {
		return nil, fmt.Errorf("failed to decode social_links: %w", err)
	}
	return profile, nil
}

// Create は事業者プロフィールを作成する。
// 同一ユーザーのプロフィールが既に存在する場合はErrDuplicateを返す。
func (r *PostgresBusinessProfileRepo) Create(ctx context.Context, profile *model.BusinessProfile) error {
	contactJSON, err := json.Marshal(profile.ContactInfo)
	if err != nil {
		return fmt.Errorf("failed to encode contact_info: %w", err)
	}
	linksJSON, err := json.Marshal(profile.SocialLinks)
	if err != nil {
		return fmt.Errorf("failed to encode social_links: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO business_profiles (id, user_id, business_name, description, contact_info, logo_url, website, social_links, industry, founded_year, employee_count, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		profile.ID, profile.UserID, profile.BusinessName, profile.Description,
		contactJSON, profile.LogoURL, profile.Website, linksJSON,
		profile.Industry, profile.FoundedYear, profile.EmployeeCount,
		profile.IsActive, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to insert business profile: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to insert business profile: %w", err)
	}
	return nil
}

// FindByUserID は指定ユーザーのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresBusinessProfileRepo) FindByUserID(ctx context.Context, userID string) (*model.BusinessProfile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+businessProfileColumns+` FROM business_profiles WHERE user_id = $1`, userID)
	profile, err := scanBusinessProfile(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find business profile: %w", err)
	}
	return profile, nil
}

// Update はプロフィールを上書き更新する。対象が存在しない場合はfalseを返す。
func (r *PostgresBusinessProfileRepo) Update(ctx context.Context, profile *model.BusinessProfile) (bool, error) {
	contactJSON, err := json.Marshal(profile.ContactInfo)
	if err != nil {
		return false, fmt.Errorf("failed to encode contact_info: %w", err)
	}
	linksJSON, err := json.Marshal(profile.SocialLinks)
	if err != nil {
		return false, fmt.Errorf("failed to encode social_links: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE business_profiles SET
		     business_name = $1, description = $2, contact_info = $3, logo_url = $4,
		     website = $5, social_links = $6, industry = $7, founded_year = $8,
		     employee_count = $9, is_active = $10, updated_at = $11
		 WHERE id = $12 AND user_id = $13`,
		profile.BusinessName, profile.Description, contactJSON, profile.LogoURL,
		profile.Website, linksJSON, profile.Industry, profile.FoundedYear,
		profile.EmployeeCount, profile.IsActive, profile.UpdatedAt,
		profile.ID, profile.UserID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update business profile: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Delete は指定ユーザーのプロフィールを削除する。対象が存在しない場合はfalseを返す。
func (r *PostgresBusinessProfileRepo) Delete(ctx context.Context, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM business_profiles WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete business profile: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ BusinessProfileRepository = (*PostgresBusinessProfileRepo)(nil)
