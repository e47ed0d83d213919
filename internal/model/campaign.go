package model

import "time"

// CampaignStatus はキャンペーンのライフサイクル状態を表す。
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
)

// IsValid はキャンペーンステータス値が定義済みのものかを返す。
func (s CampaignStatus) IsValid() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusActive, CampaignStatusPaused, CampaignStatusCompleted:
		return true
	}
	return false
}

// CampaignMetrics はキャンペーンの集計値を表す。
type CampaignMetrics struct {
	TotalPosts      int `json:"total_posts"`
	PublishedPosts  int `json:"published_posts"`
	TotalEngagement int `json:"total_engagement"`
	TotalReach      int `json:"total_reach"`
}

// Campaign は複数投稿をまとめるマーケティングキャンペーンを表す。
type Campaign struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Status      CampaignStatus
	StartDate   *time.Time
	EndDate     *time.Time
	Platforms   []string
	PostIDs     []string
	Metrics     CampaignMetrics
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
