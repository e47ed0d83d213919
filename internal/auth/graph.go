package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultGraphAuthURL     = "https://www.facebook.com/v18.0/dialog/oauth"
	defaultGraphTokenURL    = "https://graph.facebook.com/v18.0/oauth/access_token"
	defaultGraphUserInfoURL = "https://graph.facebook.com/v18.0/me"

	// facebookScopes はFacebookページへの投稿・エンゲージメント取得に必要なスコープ。
	facebookScopes = "pages_manage_posts,pages_read_engagement"
	// instagramScopes はInstagramビジネスアカウントへのアクセスに必要なスコープ。
	// InstagramのOAuthはFacebook Login経由で行われる。
	instagramScopes = "instagram_basic,instagram_content_publish,pages_show_list"
)

// GraphOAuthConfig はFacebook Graph API系プロバイダーの設定。
type GraphOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なURL
	AuthURL     string
	TokenURL    string
	UserInfoURL string

	// HTTPClient は省略時http.DefaultClientが使用される。
	HTTPClient *http.Client
}

// GraphOAuthProvider はFacebook Graph APIによるOAuth連携を提供する。
// FacebookとInstagramは同じ認可エンドポイントを共有し、スコープのみ異なる。
type GraphOAuthProvider struct {
	name   string
	scopes string
	config GraphOAuthConfig
	client *http.Client
}

// NewFacebookOAuthProvider はFacebook連携用のプロバイダーを生成する。
func NewFacebookOAuthProvider(config GraphOAuthConfig) *GraphOAuthProvider {
	return newGraphProvider("facebook", facebookScopes, config)
}

// NewInstagramOAuthProvider はInstagram連携用のプロバイダーを生成する。
// 認可フロー自体はFacebook Loginを使用する。
func NewInstagramOAuthProvider(config GraphOAuthConfig) *GraphOAuthProvider {
	return newGraphProvider("instagram", instagramScopes, config)
}

func newGraphProvider(name, scopes string, config GraphOAuthConfig) *GraphOAuthProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultGraphAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultGraphTokenURL
	}
	if config.UserInfoURL == "" {
		config.UserInfoURL = defaultGraphUserInfoURL
	}
	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &GraphOAuthProvider{
		name:   name,
		scopes: scopes,
		config: config,
		client: client,
	}
}

// Name はプロバイダー名を返す。
func (p *GraphOAuthProvider) Name() string {
	return p.name
}

// GetLoginURL はFacebook OAuthの認可URLを生成する。
func (p *GraphOAuthProvider) GetLoginURL(state string) string {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURL},
		"response_type": {"code"},
		"scope":         {p.scopes},
		"state":         {state},
	}
	return p.config.AuthURL + "?" + params.Encode()
}

// graphTokenResponse はGraph APIのトークンエンドポイントのレスポンス。
type graphTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// graphUserInfo はGraph APIの /me エンドポイントのレスポンス。
type graphUserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ExchangeCode は認可コードをアクセストークンに交換する。
// Graph APIのトークンエンドポイントはGETリクエストでパラメータを受け取る。
func (p *GraphOAuthProvider) ExchangeCode(ctx context.Context, code string) (*ProviderToken, error) {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {p.config.RedirectURL},
		"code":          {code},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.TokenURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

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

	var tokenResp graphTokenResponse
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

// FetchIdentity はアクセストークンでGraph APIのアカウント情報を取得する。
func (p *GraphOAuthProvider) FetchIdentity(ctx context.Context, accessToken string) (*ExternalIdentity, error) {
	params := url.Values{
		"fields":       {"id,name,email"},
		"access_token": {accessToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserInfoURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user info request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read user info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var userInfo graphUserInfo
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, fmt.Errorf("failed to parse user info response: %w", err)
	}

	if userInfo.ID == "" {
		return nil, fmt.Errorf("empty id in user info response")
	}

	return &ExternalIdentity{
		ExternalID: userInfo.ID,
		Email:      userInfo.Email,
		Name:       userInfo.Name,
	}, nil
}

// compile-time interface check
var _ OAuthProvider = (*GraphOAuthProvider)(nil)
