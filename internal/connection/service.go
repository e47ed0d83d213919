// Package connection は外部SNSアカウント連携のビジネスロジックを提供する。
package connection

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/socialdesk/internal/auth"
	"github.com/hitoshi/socialdesk/internal/model"
	"github.com/hitoshi/socialdesk/internal/repository"
)

// Status は連携状態の問い合わせ結果。
type Status struct {
	Connected bool   `json:"connected"`
	Username  string `json:"username,omitempty"`
}

// Service はSNSアカウント連携のビジネスロジックを提供する。
// 連携はログインとは独立しており、既存ユーザーのセッションを前提とする。
type Service struct {
	providers map[model.Platform]auth.OAuthProvider
	connRepo  repository.ConnectionRepository
	states    *auth.StateManager
}

// NewService はServiceを生成する。
// providersには連携対象プラットフォームのOAuthプロバイダーを登録する。
// 認証情報が設定されていないプラットフォームは登録せず、未対応として扱われる。
func NewService(
	providers map[model.Platform]auth.OAuthProvider,
	connRepo repository.ConnectionRepository,
	states *auth.StateManager,
) *Service {
	return &Service{
		providers: providers,
		connRepo:  connRepo,
		states:    states,
	}
}

// GetConnectURL は連携開始用のOAuth認可URLを生成する。
// stateに認証済みユーザーIDと対象プラットフォームを埋め込み、
// コールバック時にセッションなしで元のユーザーへ紐付けられるようにする。
func (s *Service) GetConnectURL(userID, platform string) (string, error) {
	p, provider, err := s.resolveProvider(platform)
	if err != nil {
		return "", err
	}

	state, err := s.states.Issue(auth.StatePurposeConnect, userID, string(p))
	if err != nil {
		return "", fmt.Errorf("failed to issue state: %w", err)
	}

	return provider.GetLoginURL(state), nil
}

// HandleCallback は連携フローのコールバックを処理し、連携を保存する。
// stateの検証はトークン交換より前に行い、検証に失敗した場合は交換を行わない。
// 同一ユーザー・同一プラットフォームの既存連携は新しい認可で上書きされる。
func (s *Service) HandleCallback(ctx context.Context, platform, code, state string) (*model.Connection, error) {
	p, provider, err := s.resolveProvider(platform)
	if err != nil {
		return nil, err
	}

	consumed, err := s.states.Consume(state, auth.StatePurposeConnect)
	if err != nil {
		return nil, model.NewInvalidOAuthStateError()
	}
	// stateに埋め込まれたプラットフォームとコールバック先の不一致は改ざんとみなす
	if consumed.Platform != string(p) || consumed.UserID == "" {
		return nil, model.NewInvalidOAuthStateError()
	}
	if code == "" {
		return nil, model.NewMissingAuthCodeError()
	}

	token, err := provider.ExchangeCode(ctx, code)
	if err != nil {
		slog.Error("connection token exchange failed",
			slog.String("platform", string(p)),
			slog.String("error", err.Error()),
		)
		return nil, model.NewProviderExchangeError(string(p))
	}

	identity, err := provider.FetchIdentity(ctx, token.AccessToken)
	if err != nil {
		slog.Error("connection identity fetch failed",
			slog.String("platform", string(p)),
			slog.String("error", err.Error()),
		)
		return nil, model.NewProviderIdentityError(string(p))
	}

	now := time.Now()
	conn := &model.Connection{
		ID:          uuid.New().String(),
		UserID:      consumed.UserID,
		Platform:    p,
		ExternalID:  identity.ExternalID,
		Username:    identity.Name,
		AccessToken: token.AccessToken,
		TokenExpiry: token.ExpiresAt,
		IsActive:    true,
		ConnectedAt: now,
		LastUsed:    now,
	}

	if err := s.connRepo.Upsert(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to save connection: %w", err)
	}

	slog.Info("platform connected",
		slog.String("user_id", conn.UserID),
		slog.String("platform", string(p)),
	)

	return conn, nil
}

// GetStatus は連携状態を返す。未連携はエラーではなくConnected=falseとして扱う。
func (s *Service) GetStatus(ctx context.Context, userID, platform string) (*Status, error) {
	p, err := parsePlatform(platform)
	if err != nil {
		return nil, err
	}

	conn, err := s.connRepo.FindActive(ctx, userID, p)
	if err != nil {
		return nil, fmt.Errorf("failed to find connection: %w", err)
	}
	if conn == nil {
		return &Status{Connected: false}, nil
	}
	return &Status{Connected: true, Username: conn.Username}, nil
}

// GetDetails は連携の詳細を返し、last_usedを現在時刻に更新する。
// 未連携の場合はConnectionNotFoundエラーを返す。
func (s *Service) GetDetails(ctx context.Context, userID, platform string) (*model.Connection, error) {
	p, err := parsePlatform(platform)
	if err != nil {
		return nil, err
	}

	conn, err := s.connRepo.FindActive(ctx, userID, p)
	if err != nil {
		return nil, fmt.Errorf("failed to find connection: %w", err)
	}
	if conn == nil {
		return nil, model.NewConnectionNotFoundError(p)
	}

	now := time.Now()
	if err := s.connRepo.TouchLastUsed(ctx, conn.ID, now); err != nil {
		return nil, fmt.Errorf("failed to touch last_used: %w", err)
	}
	conn.LastUsed = now

	return conn, nil
}

// Disconnect は連携を解除する。行は削除せず非アクティブにする。
// 未連携の場合はConnectionNotFoundエラーを返す。
func (s *Service) Disconnect(ctx context.Context, userID, platform string) error {
	p, err := parsePlatform(platform)
	if err != nil {
		return err
	}

	deactivated, err := s.connRepo.Deactivate(ctx, userID, p)
	if err != nil {
		return fmt.Errorf("failed to deactivate connection: %w", err)
	}
	if !deactivated {
		return model.NewConnectionNotFoundError(p)
	}

	slog.Info("platform disconnected",
		slog.String("user_id", userID),
		slog.String("platform", string(p)),
	)

	return nil
}

// resolveProvider はプラットフォーム名からプロバイダーを解決する。
// 認証情報未設定で登録されていないプラットフォームも未対応として扱う。
func (s *Service) resolveProvider(platform string) (model.Platform, auth.OAuthProvider, error) {
	p, err := parsePlatform(platform)
	if err != nil {
		return "", nil, err
	}
	provider, ok := s.providers[p]
	if !ok {
		return "", nil, model.NewUnsupportedPlatformError(platform)
	}
	return p, provider, nil
}

func parsePlatform(platform string) (model.Platform, error) {
	p := model.Platform(platform)
	if !p.IsValid() {
		return "", model.NewUnsupportedPlatformError(platform)
	}
	return p, nil
}
