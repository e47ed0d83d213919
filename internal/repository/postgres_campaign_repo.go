package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/socialdesk/internal/model"
)

// PostgresCampaignRepo はPostgreSQLを使用したキャンペーンリポジトリ。
type PostgresCampaignRepo struct {
	db *sql.DB
}

// NewPostgresCampaignRepo はPostgresCampaignRepoを生成する。
func NewPostgresCampaignRepo(db *sql.DB) *PostgresCampaignRepo {
	return &PostgresCampaignRepo{db: db}
}

const campaignColumns = "id, user_id, name, description, status, start_date, end_date, platforms, metrics, created_at, updated_at"

func scanCampaign(scanner interface{ Scan(dest ...any) error }) (*model.Campaign, error) {
	campaign := &model.Campaign{}
	var metricsJSON []byte
	err := scanner.Scan(
		&campaign.ID, &campaign.UserID, &campaign.Name, &campaign.Description,
		&campaign.Status, &campaign.StartDate, &campaign.EndDate,
		pq.Array(&campaign.Platforms), &metricsJSON, &campaign.CreatedAt, &campaign.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan campaign: %w", err)
	}
	if err := json.Unmarshal(metricsJSON, &campaign.Metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
	}
	return campaign, nil
}

// Create はキャンペーンを作成する。
func (r *PostgresCampaignRepo) Create(ctx context.Context, campaign *model.Campaign) error {
	metricsJSON, err := json.Marshal(campaign.Metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO campaigns (`+campaignColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		campaign.ID, campaign.UserID, campaign.Name, campaign.Description,
		campaign.Status, campaign.StartDate, campaign.EndDate,
		pq.Array(campaign.Platforms), metricsJSON, campaign.CreatedAt, campaign.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

// FindByID は所有者スコープでキャンペーンを取得し、紐付く投稿IDも読み込む。
// 存在しない場合はnilを返す。
func (r *PostgresCampaignRepo) FindByID(ctx context.Context, userID, id string) (*model.Campaign, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	campaign, err := scanCampaign(row)
	if err != nil || campaign == nil {
		return campaign, err
	}

	postIDs, err := r.listPostIDs(ctx, campaign.ID)
	if err != nil {
		return nil, err
	}
	campaign.PostIDs = postIDs
	return campaign, nil
}

// ListByUserID は所有者の全キャンペーンを新しい順に返す。投稿IDも含む。
func (r *PostgresCampaignRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Campaign, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate campaigns: %w", err)
	}

	for _, campaign := range campaigns {
		postIDs, err := r.listPostIDs(ctx, campaign.ID)
		if err != nil {
			return nil, err
		}
		campaign.PostIDs = postIDs
	}
	return campaigns, nil
}

// Update はキャンペーンを全列更新する。所有者が一致しない場合はfalseを返す。
func (r *PostgresCampaignRepo) Update(ctx context.Context, campaign *model.Campaign) (bool, error) {
	metricsJSON, err := json.Marshal(campaign.Metrics)
	if err != nil {
		return false, fmt.Errorf("failed to marshal metrics: %w", err)
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE campaigns SET
		     name = $1, description = $2, status = $3,
		     start_date = $4, end_date = $5, platforms = $6, metrics = $7, updated_at = $8
		 WHERE id = $9 AND user_id = $10`,
		campaign.Name, campaign.Description, campaign.Status,
		campaign.StartDate, campaign.EndDate, pq.Array(campaign.Platforms),
		metricsJSON, campaign.UpdatedAt,
		campaign.ID, campaign.UserID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update campaign: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// AddPosts はキャンペーンに投稿を紐付ける。既に紐付いている投稿は無視する。
func (r *PostgresCampaignRepo) AddPosts(ctx context.Context, campaignID string, postIDs []string) error {
	if len(postIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO campaign_posts (campaign_id, post_id)
		 SELECT $1, unnest($2::text[])
		 ON CONFLICT DO NOTHING`,
		campaignID, pq.Array(postIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to add posts to campaign: %w", err)
	}
	return nil
}

// ListPosts はキャンペーンに紐付く投稿を新しい順に返す。
func (r *PostgresCampaignRepo) ListPosts(ctx context.Context, campaignID string) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts
		 JOIN campaign_posts ON campaign_posts.post_id = posts.id
		 WHERE campaign_posts.campaign_id = $1
		 ORDER BY posts.created_at DESC`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign posts: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

// Delete は所有者スコープでキャンペーンを削除する。紐付けはCASCADEで消える。
// 投稿本体は削除しない。対象が無い場合はfalseを返す。
func (r *PostgresCampaignRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM campaigns WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete campaign: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *PostgresCampaignRepo) listPostIDs(ctx context.Context, campaignID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT post_id FROM campaign_posts WHERE campaign_id = $1`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign post ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan post id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate post ids: %w", err)
	}
	return ids, nil
}

// compile-time interface check
var _ CampaignRepository = (*PostgresCampaignRepo)(nil)
