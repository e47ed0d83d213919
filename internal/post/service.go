// Package post は投稿の作成・検索・スケジュール管理のビジネスロジックを提供する。
package post

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/socialdesk/internal/model"
	"github.com/hitoshi/socialdesk/internal/repository"
	"github.com/hitoshi/socialdesk/internal/security"
)

// CreateInput は投稿作成の入力。
type CreateInput struct {
	Description string
	Caption     string
	Hashtags    string
	MediaURLs   []string
	Platforms   []string
	Status      model.PostStatus
	ScheduledAt *time.Time
}

// UpdateInput は投稿更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Description *string
	Caption     *string
	Hashtags    *string
	MediaURLs   []string
	Platforms   []string
	Status      *model.PostStatus
	ScheduledAt *time.Time
}

// Service は投稿のビジネスロジックを提供する。
// 保存前にテキストのサニタイズとメディアURLの安全性検証を行う。
type Service struct {
	postRepo  repository.PostRepository
	sanitizer security.ContentSanitizerService
	guard     security.MediaGuardService
}

// NewService はServiceを生成する。
func NewService(
	postRepo repository.PostRepository,
	sanitizer security.ContentSanitizerService,
	guard security.MediaGuardService,
) *Service {
	return &Service{
		postRepo:  postRepo,
		sanitizer: sanitizer,
		guard:     guard,
	}
}

// Create は投稿を作成する。
// ステータス未指定はdraftとして扱う。scheduledAtはscheduledの場合のみ保存される。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Post, error) {
	status := input.Status
	if status == "" {
		status = model.PostStatusDraft
	}
	if !status.IsValid() {
		return nil, model.NewValidationError(fmt.Sprintf("不正なステータスです: %s", status))
	}
	if err := validatePlatforms(input.Platforms); err != nil {
		return nil, err
	}
	if err := s.validateMediaURLs(input.MediaURLs); err != nil {
		return nil, err
	}

	var scheduledAt *time.Time
	if status == model.PostStatusScheduled {
		if input.ScheduledAt == nil {
			return nil, model.NewValidationError("予約投稿には予約日時が必要です")
		}
		scheduledAt = input.ScheduledAt
	}

	now := time.Now()
	post := &model.Post{
		ID:          uuid.New().String(),
		UserID:      userID,
		Description: s.sanitizer.Sanitize(input.Description),
		Caption:     s.sanitizer.Sanitize(input.Caption),
		Hashtags:    s.sanitizer.SanitizeHashtags(input.Hashtags),
		MediaURLs:   input.MediaURLs,
		Platforms:   input.Platforms,
		Status:      status,
		ScheduledAt: scheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	slog.Info("post created",
		slog.String("post_id", post.ID),
		slog.String("user_id", userID),
		slog.String("status", string(post.Status)),
	)

	return post, nil
}

// List は所有者の投稿をフィルタ付きで返す。
func (s *Service) List(ctx context.Context, userID string, filter model.PostFilter) ([]*model.Post, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, model.NewValidationError(fmt.Sprintf("不正なステータスです: %s", filter.Status))
	}
	posts, err := s.postRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// Get は所有者スコープで投稿を取得する。
func (s *Service) Get(ctx context.Context, userID, id string) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError(id)
	}
	return post, nil
}

// Update は投稿を部分更新する。
func (s *Service) Update(ctx context.Context, userID, id string, input UpdateInput) (*model.Post, error) {
	post, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Description != nil {
		post.Description = s.sanitizer.Sanitize(*input.Description)
	}
	if input.Caption != nil {
		post.Caption = s.sanitizer.Sanitize(*input.Caption)
	}
	if input.Hashtags != nil {
		post.Hashtags = s.sanitizer.SanitizeHashtags(*input.Hashtags)
	}
	if input.MediaURLs != nil {
		if err := s.validateMediaURLs(input.MediaURLs); err != nil {
			return nil, err
		}
		post.MediaURLs = input.MediaURLs
	}
	if input.Platforms != nil {
		if err := validatePlatforms(input.Platforms); err != nil {
			return nil, err
		}
		post.Platforms = input.Platforms
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, model.NewValidationError(fmt.Sprintf("不正なステータスです: %s", *input.Status))
		}
		post.Status = *input.Status
		if post.Status == model.PostStatusPublished && post.PublishedAt == nil {
			now := time.Now()
			post.PublishedAt = &now
		}
	}
	if input.ScheduledAt != nil {
		post.ScheduledAt = input.ScheduledAt
	}
	post.UpdatedAt = time.Now()

	updated, err := s.postRepo.Update(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	if !updated {
		return nil, model.NewPostNotFoundError(id)
	}
	return post, nil
}

// Reschedule は投稿の予約日時を変更し、ステータスをscheduledに戻す。
func (s *Service) Reschedule(ctx context.Context, userID, id string, scheduledAt time.Time) (*model.Post, error) {
	post, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	post.ScheduledAt = &scheduledAt
	post.Status = model.PostStatusScheduled
	post.UpdatedAt = time.Now()

	updated, err := s.postRepo.Update(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to reschedule post: %w", err)
	}
	if !updated {
		return nil, model.NewPostNotFoundError(id)
	}

	slog.Info("post rescheduled",
		slog.String("post_id", id),
		slog.Time("scheduled_at", scheduledAt),
	)

	return post, nil
}

// ListUpcoming は現在時刻以降に予約された投稿を予定時刻の昇順で返す。
func (s *Service) ListUpcoming(ctx context.Context, userID string) ([]*model.Post, error) {
	posts, err := s.postRepo.ListUpcoming(ctx, userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming posts: %w", err)
	}
	return posts, nil
}

// Delete は投稿を削除する。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	deleted, err := s.postRepo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if !deleted {
		return model.NewPostNotFoundError(id)
	}
	return nil
}

// BulkDelete は複数の投稿を削除し、削除件数を返す。
// 存在しないIDや他ユーザーのIDはエラーにせず削除対象から外す。
func (s *Service) BulkDelete(ctx context.Context, userID string, ids []string) (int, error) {
	count, err := s.postRepo.DeleteMany(ctx, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk delete posts: %w", err)
	}

	slog.Info("posts bulk deleted",
		slog.String("user_id", userID),
		slog.Int("requested", len(ids)),
		slog.Int("deleted", count),
	)

	return count, nil
}

// validateMediaURLs は各メディアURLの形式と安全性を検証する。
func (s *Service) validateMediaURLs(urls []string) error {
	for _, u := range urls {
		if err := s.guard.ValidateURL(u); err != nil {
			if errors.Is(err, security.ErrBlockedURL) {
				return model.NewMediaBlockedError()
			}
			return model.NewInvalidMediaURLError(u)
		}
	}
	return nil
}

// validatePlatforms は投稿先プラットフォームの妥当性を検証する。
func validatePlatforms(platforms []string) error {
	for _, p := range platforms {
		if !model.Platform(p).IsValid() {
			return model.NewUnsupportedPlatformError(p)
		}
	}
	return nil
}
