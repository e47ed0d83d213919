// Package campaign はマーケティングキャンペーン管理のビジネスロジックを提供する。
package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/socialdesk/internal/model"
	"github.com/hitoshi/socialdesk/internal/repository"
	"github.com/hitoshi/socialdesk/internal/security"
)

// CreateInput はキャンペーン作成の入力。
type CreateInput struct {
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	Platforms   []string
}

// UpdateInput はキャンペーン更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Name        *string
	Description *string
	Status      *model.CampaignStatus
	StartDate   *time.Time
	EndDate     *time.Time
	Platforms   []string
}

// Service はキャンペーンのビジネスロジックを提供する。
type Service struct {
	campaignRepo repository.CampaignRepository
	postRepo     repository.PostRepository
	sanitizer    security.ContentSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	campaignRepo repository.CampaignRepository,
	postRepo repository.PostRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		campaignRepo: campaignRepo,
		postRepo:     postRepo,
		sanitizer:    sanitizer,
	}
}

// Create はキャンペーンを作成する。初期ステータスはdraft、メトリクスはゼロ値。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Campaign, error) {
	name := strings.TrimSpace(s.sanitizer.Sanitize(input.Name))
	if name == "" {
		return nil, model.NewValidationError("キャンペーン名を入力してください")
	}
	if err := validatePlatforms(input.Platforms); err != nil {
		return nil, err
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return nil, model.NewValidationError("終了日は開始日より後にしてください")
	}

	now := time.Now()
	campaign := &model.Campaign{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        name,
		Description: s.sanitizer.Sanitize(input.Description),
		Status:      model.CampaignStatusDraft,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Platforms:   input.Platforms,
		PostIDs:     []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	slog.Info("campaign created",
		slog.String("campaign_id", campaign.ID),
		slog.String("user_id", userID),
	)

	return campaign, nil
}

// List は所有者の全キャンペーンを新しい順に返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Campaign, error) {
	campaigns, err := s.campaignRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

// Get は所有者スコープでキャンペーンを取得し、最新のメトリクスを計算して返す。
func (s *Service) Get(ctx context.Context, userID, id string) (*model.Campaign, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find campaign: %w", err)
	}
	if campaign == nil {
		return nil, model.NewCampaignNotFoundError(id)
	}

	if err := s.refreshMetrics(ctx, campaign); err != nil {
		return nil, err
	}

	return campaign, nil
}

// Update はキャンペーンを部分更新する。
func (s *Service) Update(ctx context.Context, userID, id string, input UpdateInput) (*model.Campaign, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find campaign: %w", err)
	}
	if campaign == nil {
		return nil, model.NewCampaignNotFoundError(id)
	}

	if input.Name != nil {
		name := strings.TrimSpace(s.sanitizer.Sanitize(*input.Name))
		if name == "" {
			return nil, model.NewValidationError("キャンペーン名を入力してください")
		}
		campaign.Name = name
	}
	if input.Description != nil {
		campaign.Description = s.sanitizer.Sanitize(*input.Description)
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, model.NewValidationError(fmt.Sprintf("不正なステータスです: %s", *input.Status))
		}
		campaign.Status = *input.Status
	}
	if input.StartDate != nil {
		campaign.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		campaign.EndDate = input.EndDate
	}
	if input.Platforms != nil {
		if err := validatePlatforms(input.Platforms); err != nil {
			return nil, err
		}
		campaign.Platforms = input.Platforms
	}
	campaign.UpdatedAt = time.Now()

	updated, err := s.campaignRepo.Update(ctx, campaign)
	if err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}
	if !updated {
		return nil, model.NewCampaignNotFoundError(id)
	}
	return campaign, nil
}

// AddPosts はキャンペーンに投稿を追加する。
// 所有していない投稿IDはValidationエラーとして拒否する。
// 既に追加済みの投稿は重複せずそのまま維持される。
func (s *Service) AddPosts(ctx context.Context, userID, id string, postIDs []string) (*model.Campaign, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find campaign: %w", err)
	}
	if campaign == nil {
		return nil, model.NewCampaignNotFoundError(id)
	}

	for _, postID := range postIDs {
		post, err := s.postRepo.FindByID(ctx, userID, postID)
		if err != nil {
			return nil, fmt.Errorf("failed to find post: %w", err)
		}
		if post == nil {
			return nil, model.NewPostNotFoundError(postID)
		}
	}

	if err := s.campaignRepo.AddPosts(ctx, campaign.ID, postIDs); err != nil {
		return nil, fmt.Errorf("failed to add posts: %w", err)
	}

	return s.Get(ctx, userID, id)
}

// ListPosts はキャンペーンに紐付く投稿を返す。
func (s *Service) ListPosts(ctx context.Context, userID, id string) ([]*model.Post, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find campaign: %w", err)
	}
	if campaign == nil {
		return nil, model.NewCampaignNotFoundError(id)
	}

	posts, err := s.campaignRepo.ListPosts(ctx, campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign posts: %w", err)
	}
	return posts, nil
}

// Delete はキャンペーンを削除する。紐付いていた投稿自体は削除されない。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	deleted, err := s.campaignRepo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	if !deleted {
		return model.NewCampaignNotFoundError(id)
	}

	slog.Info("campaign deleted",
		slog.String("campaign_id", id),
		slog.String("user_id", userID),
	)

	return nil
}

// refreshMetrics は紐付く投稿からキャンペーンの集計値を再計算する。
// エンゲージメント・リーチは外部連携が未実装のため投稿数ベースの概算値を使用する。
func (s *Service) refreshMetrics(ctx context.Context, campaign *model.Campaign) error {
	posts, err := s.campaignRepo.ListPosts(ctx, campaign.ID)
	if err != nil {
		return fmt.Errorf("failed to list campaign posts: %w", err)
	}

	published := 0
	for _, p := range posts {
		if p.Status == model.PostStatusPublished {
			published++
		}
	}

	campaign.Metrics = model.CampaignMetrics{
		TotalPosts:      len(posts),
		PublishedPosts:  published,
		TotalEngagement: campaign.Metrics.TotalEngagement,
		TotalReach:      campaign.Metrics.TotalReach,
	}
	return nil
}

func validatePlatforms(platforms []string) error {
	for _, p := range platforms {
		if !model.Platform(p).IsValid() {
			return model.NewUnsupportedPlatformError(p)
		}
	}
	return nil
}
