// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限ロールを表す。
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// IsValid はロール値が定義済みのものかを返す。
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// Preferences はユーザーの通知・表示設定を表す。
// usersテーブルにJSONBとして格納される。
type Preferences struct {
	EmailNotifications bool   `json:"email_notifications"`
	Timezone           string `json:"timezone"`
	Theme              string `json:"theme"`
}

// DefaultPreferences は新規ユーザーの初期設定を返す。
func DefaultPreferences() Preferences {
	return Preferences{
		EmailNotifications: true,
		Timezone:           "UTC",
		Theme:              "light",
	}
}

// User はサービス利用ユーザーを表す。
// パスワード登録ユーザーとGoogle OAuth経由ユーザーの両方を1レコードで扱う。
// PasswordHashはOAuth経由で作成されたユーザーではnil、
// GoogleIDはパスワード登録のみのユーザーではnil（スパースユニーク）。
type User struct {
	ID           string
	Name         string
	Email        string // 小文字正規化済み。グローバルユニーク。
	PasswordHash *string
	GoogleID     *string
	IsGoogleUser bool
	Role         Role
	Preferences  Preferences
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword はパスワードログインが可能なユーザーかを返す。
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
