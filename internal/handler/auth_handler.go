package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/socialdesk/internal/auth"
	"github.com/hitoshi/socialdesk/internal/metrics"
	"github.com/hitoshi/socialdesk/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, name, email, password string) (*auth.Session, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	VerifyToken(ctx context.Context, token string) (*model.User, error)
	GetGoogleLoginURL() (string, error)
	HandleGoogleCallback(ctx context.Context, code, state string) (*auth.Session, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	FrontendURL string // OAuthコールバック後のリダイレクト先ベースURL
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	config    AuthHandlerConfig
	collector metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig, collector metrics.MetricsCollector) *AuthHandler {
	return &AuthHandler{
		service:   service,
		config:    config,
		collector: collector,
	}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Role        string            `json:"role"`
	Preferences model.Preferences `json:"preferences"`
}

// sessionResponse はトークン発行を伴うAPIレスポンス。
type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// Register はパスワードによるユーザー登録を処理する。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	session, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

// Login はパスワードログインを処理する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.collector.RecordLogin("password", false)
		handleServiceError(w, err)
		return
	}

	h.collector.RecordLogin("password", true)
	writeJSON(w, http.StatusOK, sessionResponse{
		Token: session.Token,
		User:  toUserResponse(session.User),
	})
}

// Verify はBearerトークンを検証し、現在のユーザーを返す。
// GET /auth/verify
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeUnauthorized(w)
		return
	}

	user, err := h.service.VerifyToken(r.Context(), token)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]userResponse{"user": toUserResponse(user)})
}

// GoogleLogin はGoogle OAuthログインフローを開始する。
// GET /auth/google
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	loginURL, err := h.service.GetGoogleLoginURL()
	if err != nil {
		slog.Error("failed to build google login url", slog.String("error", err.Error()))
		handleServiceError(w, err)
		return
	}

	http.Redirect(w, r, loginURL, http.StatusTemporaryRedirect)
}

// GoogleCallback はGoogle OAuthコールバックを処理する。
// 成功時はフロントエンドのコールバックページへトークン付きでリダイレクトする。
// GET /auth/google/callback?code=xxx&state=yyy
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	session, err := h.service.HandleGoogleCallback(r.Context(), code, state)
	if err != nil {
		h.collector.RecordLogin("google", false)
		slog.Error("google oauth callback failed", slog.String("error", err.Error()))
		handleServiceError(w, err)
		return
	}

	h.collector.RecordLogin("google", true)

	// フロントエンドに渡すのはIDとメールアドレスのみ
	userJSON, err := json.Marshal(map[string]string{
		"id":    session.User.ID,
		"email": session.User.Email,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	redirectURL := h.config.FrontendURL + "/auth/callback?token=" + url.QueryEscape(session.Token) +
		"&user=" + url.QueryEscape(string(userJSON))
	http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// --- ヘルパー関数 ---

func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        string(user.Role),
		Preferences: user.Preferences,
	}
}

func toSessionResponse(session *auth.Session) sessionResponse {
	return sessionResponse{
		Token: session.Token,
		User:  toUserResponse(session.User),
	}
}
