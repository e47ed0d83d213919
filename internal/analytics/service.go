// Package analytics は投稿パフォーマンスの集計を提供する。
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/socialdesk/internal/model"
	"github.com/hitoshi/socialdesk/internal/repository"
)

const topPostsLimit = 5

// Summary は投稿数のステータス別集計。
type Summary struct {
	TotalPosts int `json:"total_posts"`
	Scheduled  int `json:"scheduled"`
	Published  int `json:"published"`
}

// Metrics はエンゲージメント指標。
// 各SNSのインサイトAPI連携が未実装のため、現状は固定のプレースホルダー値を返す。
type Metrics struct {
	Engagement int `json:"engagement"`
	Reach      int `json:"reach"`
	Clicks     int `json:"clicks"`
	Shares     int `json:"shares"`
}

// TopPost はダッシュボード表示用の公開済み投稿の抜粋。
type TopPost struct {
	ID        string    `json:"id"`
	Caption   string    `json:"caption"`
	Platforms []string  `json:"platforms"`
	CreatedAt time.Time `json:"created_at"`
}

// Report はアナリティクスAPIのレスポンス本体。
type Report struct {
	Summary  Summary   `json:"summary"`
	Metrics  Metrics   `json:"metrics"`
	TopPosts []TopPost `json:"top_posts"`
}

// Service は投稿実績の集計を提供する。
type Service struct {
	postRepo repository.PostRepository
}

// NewService はServiceを生成する。
func NewService(postRepo repository.PostRepository) *Service {
	return &Service{postRepo: postRepo}
}

// GetReport はユーザーの投稿集計と直近の公開済み投稿を返す。
func (s *Service) GetReport(ctx context.Context, userID string) (*Report, error) {
	counts, err := s.postRepo.CountByStatus(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	recent, err := s.postRepo.ListRecentPublished(ctx, userID, topPostsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent posts: %w", err)
	}

	topPosts := make([]TopPost, 0, len(recent))
	for _, p := range recent {
		topPosts = append(topPosts, TopPost{
			ID:        p.ID,
			Caption:   p.Caption,
			Platforms: p.Platforms,
			CreatedAt: p.CreatedAt,
		})
	}

	return &Report{
		Summary: Summary{
			TotalPosts: total,
			Scheduled:  counts[model.PostStatusScheduled],
			Published:  counts[model.PostStatusPublished],
		},
		Metrics:  placeholderMetrics(),
		TopPosts: topPosts,
	}, nil
}

func placeholderMetrics() Metrics {
	return Metrics{
		Engagement: 1247,
		Reach:      45200,
		Clicks:     980,
		Shares:     312,
	}
}
