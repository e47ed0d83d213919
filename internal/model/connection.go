package model

import "time"

// Platform は連携対象の外部SNSプラットフォームを表す。
// ログインIdP（Google）とは別の、コンテンツ発信用アカウントの種別。
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformLinkedIn  Platform = "linkedin"
)

// IsValid はプラットフォーム値が定義済みのものかを返す。
func (p Platform) IsValid() bool {
	switch p {
	case PlatformInstagram, PlatformFacebook, PlatformLinkedIn:
		return true
	}
	return false
}

// Connection は外部SNSアカウントとの連携情報を表す。
// (user_id, platform) の組につき最大1行で、DBのユニーク制約で保証される。
// 切断時はIsActiveをfalseにするソフトデリートのみ行い、履歴として行は残す。
type Connection struct {
	ID          string
	UserID      string
	Platform    Platform
	ExternalID  string // プラットフォーム側のアカウントID
	Username    string
	AccessToken string // 不透明文字列として保存。ログには出力しない。
	TokenExpiry *time.Time
	IsActive    bool
	ConnectedAt time.Time
	LastUsed    time.Time
}
