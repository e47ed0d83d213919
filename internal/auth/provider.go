// Package auth はOAuth認証フロー、セッショントークン管理を提供する。
package auth

import (
	"context"
	"time"
)

// ProviderToken はOAuthプロバイダーから取得したアクセストークンを表す。
type ProviderToken struct {
	AccessToken  string
	RefreshToken string
	// ExpiresAt はトークンの有効期限。プロバイダーが期限を返さない場合はnil。
	ExpiresAt *time.Time
}

// ExternalIdentity はOAuthプロバイダーから取得したアカウント情報を表す。
type ExternalIdentity struct {
	// ExternalID はプロバイダー側のアカウントID。
	ExternalID string
	// Email はプロバイダーが返すメールアドレス。返さないプロバイダーでは空。
	Email string
	// Name は表示名。
	Name string
}

// OAuthProvider はOAuth認可コードフローのプロバイダーインターフェース。
// Google（ログイン用）とFacebook/Instagram/LinkedIn（連携用）で共通の抽象化。
type OAuthProvider interface {
	// Name はプロバイダー名（"google", "facebook" 等）を返す。
	Name() string
	// GetLoginURL はOAuth認可URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをアクセストークンに交換する。
	ExchangeCode(ctx context.Context, code string) (*ProviderToken, error)
	// FetchIdentity はアクセストークンでアカウント情報を取得する。
	FetchIdentity(ctx context.Context, accessToken string) (*ExternalIdentity, error)
}
