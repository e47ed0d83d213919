package model

import "time"

// PostStatus は投稿のライフサイクル状態を表す。
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
)

// IsValid は投稿ステータス値が定義済みのものかを返す。
func (s PostStatus) IsValid() bool {
	switch s {
	case PostStatusDraft, PostStatusScheduled, PostStatusPublished:
		return true
	}
	return false
}

// Post はSNS投稿コンテンツのメタデータを表す。
// 実際の各プラットフォームへの配信は本システムの範囲外で、
// 下書き・予約・公開済みの状態管理と検索のみを担う。
type Post struct {
	ID          string
	UserID      string
	Description string
	Caption     string
	Hashtags    string
	MediaURLs   []string
	Platforms   []string // 例: ["instagram", "facebook"]
	Status      PostStatus
	ScheduledAt *time.Time
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PostFilter は投稿一覧取得時の絞り込み条件。
type PostFilter struct {
	Query    string // caption / description / hashtags の部分一致
	Status   PostStatus
	Platform string
}
