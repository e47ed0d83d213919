// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/socialdesk/internal/model"
)

// ErrDuplicate はユニーク制約違反を表すセンチネルエラー。
// Postgresの一意インデックス違反（23505）を各リポジトリがこのエラーに変換する。
// 登録時のメール重複を409にマップするためにサービス層でerrors.Isで判定する。
var ErrDuplicate = errors.New("duplicate key")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は小文字正規化済みメールアドレスでユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレスまたはgoogle_idの一意制約違反時はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// AttachGoogleID は既存ユーザーにgoogle_idを紐付け、is_google_userをtrueにする。
	// パスワードハッシュには触れない。
	AttachGoogleID(ctx context.Context, userID, googleID string) error

	// UpdateProfile は表示名と設定を更新し、更新後のユーザーを返す。
	// nilのフィールドは変更しない部分更新を行う。見つからない場合はnilを返す。
	UpdateProfile(ctx context.Context, userID string, name *string, prefs *model.Preferences) (*model.User, error)
}

// ConnectionRepository は外部SNS連携データの永続化インターフェース。
type ConnectionRepository interface {
	// Upsert は(user, platform)をキーに連携を冪等にUPSERTする。
	// 既存行がある場合はトークン・ユーザー名を上書きし、is_activeをtrueに戻し、
	// connected_atを現在時刻に更新する（最後の認可が優先）。
	Upsert(ctx context.Context, conn *model.Connection) error

	// FindActive は指定ユーザー・プラットフォームの有効な連携を取得する。
	// 連携が存在しない、または切断済みの場合はnilを返す。
	FindActive(ctx context.Context, userID string, platform model.Platform) (*model.Connection, error)

	// TouchLastUsed は連携のlast_usedを指定時刻に更新する。
	TouchLastUsed(ctx context.Context, id string, usedAt time.Time) error

	// Deactivate は連携をソフトデリートする（is_activeをfalseにする）。
	// 行自体は監査履歴として残す。対象行が存在しない場合はfalseを返す。
	Deactivate(ctx context.Context, userID string, platform model.Platform) (bool, error)
}

// PostRepository は投稿データの永続化インターフェース。
// 全操作は所有ユーザーでスコープされ、他ユーザーの投稿は見えない。
type PostRepository interface {
	// Create は投稿を作成する。
	Create(ctx context.Context, post *model.Post) error

	// FindByID は指定ユーザーの投稿を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID, id string) (*model.Post, error)

	// List はユーザーの投稿一覧をフィルタ付きで作成日時降順で返す。
	List(ctx context.Context, userID string, filter model.PostFilter) ([]*model.Post, error)

	// ListUpcoming は指定時刻以降に予約されている投稿を予約時刻昇順で返す。
	ListUpcoming(ctx context.Context, userID string, after time.Time) ([]*model.Post, error)

	// Update は投稿を上書き更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, post *model.Post) (bool, error)

	// Delete は指定ユーザーの投稿を削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, userID, id string) (bool, error)

	// DeleteMany は指定ユーザーの複数投稿を削除し、削除件数を返す。
	// 他ユーザーの投稿IDが混在していても無視される。
	DeleteMany(ctx context.Context, userID string, ids []string) (int, error)

	// CountByStatus はユーザーの投稿数をステータス別に集計する。
	CountByStatus(ctx context.Context, userID string) (map[model.PostStatus]int, error)

	// ListRecentPublished は公開済み投稿を作成日時降順で最大limit件返す。
	ListRecentPublished(ctx context.Context, userID string, limit int) ([]*model.Post, error)
}

// BusinessProfileRepository は事業者プロフィールの永続化インターフェース。
// プロフィールはユーザーごとに1件までで、一意インデックスで強制される。
type BusinessProfileRepository interface {
	// Create は事業者プロフィールを作成する。
	// 同一ユーザーのプロフィールが既に存在する場合はErrDuplicateを返す。
	Create(ctx context.Context, profile *model.BusinessProfile) error

	// FindByUserID は指定ユーザーのプロフィールを取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.BusinessProfile, error)

	// Update はプロフィールを上書き更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, profile *model.BusinessProfile) (bool, error)

	// Delete は指定ユーザーのプロフィールを削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, userID string) (bool, error)
}

// CampaignRepository はキャンペーンデータの永続化インターフェース。
type CampaignRepository interface {
	// Create はキャンペーンを作成する。
	Create(ctx context.Context, campaign *model.Campaign) error

	// FindByID は指定ユーザーのキャンペーンを取得する。
	// 紐付く投稿IDも読み込む。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID, id string) (*model.Campaign, error)

	// ListByUserID はユーザーのキャンペーン一覧を作成日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Campaign, error)

	// Update はキャンペーンを上書き更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, campaign *model.Campaign) (bool, error)

	// AddPosts はキャンペーンに投稿を追加する。既に追加済みの投稿は無視される。
	AddPosts(ctx context.Context, campaignID string, postIDs []string) error

	// ListPosts はキャンペーンに紐付く投稿を返す。
	ListPosts(ctx context.Context, campaignID string) ([]*model.Post, error)

	// Delete は指定ユーザーのキャンペーンを削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, userID, id string) (bool, error)
}
