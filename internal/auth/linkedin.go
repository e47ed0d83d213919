package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultLinkedInAuthURL    = "https://www.linkedin.com/oauth/v2/authorization"
	defaultLinkedInTokenURL   = "https://www.linkedin.com/oauth/v2/accessToken"
	defaultLinkedInProfileURL = "https://api.linkedin.com/v2/me"

	// linkedinScopes はプロフィール取得とメンバー投稿に必要なスコープ。
	linkedinScopes = "r_liteprofile r_emailaddress w_member_social"
)

// LinkedInOAuthConfig はLinkedIn OAuthプロバイダーの設定。
type LinkedInOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なURL
	AuthURL    string
	TokenURL   string
	ProfileURL string

	// HTTPClient は省略時http.DefaultClientが使用される。
	HTTPClient *http.Client
}

// LinkedInOAuthProvider はLinkedIn OAuth 2.0による連携を提供する。
type LinkedInOAuthProvider struct {
	config LinkedInOAuthConfig
	client *http.Client
}

// NewLinkedInOAuthProvider はLinkedInOAuthProviderを生成する。
func NewLinkedInOAuthProvider(config LinkedInOAuthConfig) *LinkedInOAuthProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultLinkedInAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultLinkedInTokenURL
	}
	if config.ProfileURL == "" {
		config.ProfileURL = defaultLinkedInProfileURL
	}
	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &LinkedInOAuthProvider{config: config, client: client}
}

// Name はプロバイダー名を返す。
func (p *LinkedInOAuthProvider) Name() string {
	return "linkedin"
}

// GetLoginURL はLinkedIn OAuthの認可URLを生成する。
func (p *LinkedInOAuthProvider) GetLoginURL(state string) string {
	params := url.Values{
		"response_type": {"code"},
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURL},
		"scope":         {linkedinScopes},
		"state":         {state},
	}
	return p.config.AuthURL + "?" + params.Encode()
}

// linkedinTokenResponse はLinkedInのトークンエンドポイントのレスポンス。
type linkedinTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// linkedinLocalizedName はLinkedInのローカライズされた名前フィールド。
// 例: {"localized": {"en_US": "Taro"}, "preferredLocale": {...}}
type linkedinLocalizedName struct {
	Localized map[string]string `json:"localized"`
}

// linkedinProfile はLinkedInの /v2/me エンドポイントのレスポンス。
type linkedinProfile struct {
	ID        string                `json:"id"`
	FirstName linkedinLocalizedName `json:"firstName"`
	LastName  linkedinLocalizedName `json:"lastName"`
}

// ExchangeCode は認可コードをアクセストークンに交換する。
func (p *LinkedInOAuthProvider) ExchangeCode(ctx context.Context, code string) (*ProviderToken, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {p.config.RedirectURL},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp linkedinTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}

	token := &ProviderToken{AccessToken: tokenResp.AccessToken}
	if tokenResp.ExpiresIn > 0 {
		expiry := time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
		token.ExpiresAt = &expiry
	}
	return token, nil
}

// FetchIdentity はアクセストークンでLinkedInのプロフィールを取得する。
// 姓名はローカライズマップから任意のロケールの値を取り出して連結する。
func (p *LinkedInOAuthProvider) FetchIdentity(ctx context.Context, accessToken string) (*ExternalIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.ProfileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var profile linkedinProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile response: %w", err)
	}

	if profile.ID == "" {
		return nil, fmt.Errorf("empty id in profile response")
	}

	return &ExternalIdentity{
		ExternalID: profile.ID,
		Name:       flattenLinkedInName(profile),
	}, nil
}

// flattenLinkedInName はローカライズされた姓名を1つの表示名にまとめる。
// en_USがあれば優先し、なければマップ中の任意のロケールを使用する。
func flattenLinkedInName(profile linkedinProfile) string {
	first := pickLocalized(profile.FirstName.Localized)
	last := pickLocalized(profile.LastName.Localized)
	return strings.TrimSpace(first + " " + last)
}

func pickLocalized(localized map[string]string) string {
	if v, ok := localized["en_US"]; ok {
		return v
	}
	for _, v := range localized {
		return v
	}
	return ""
}

// compile-time interface check
var _ OAuthProvider = (*LinkedInOAuthProvider)(nil)
