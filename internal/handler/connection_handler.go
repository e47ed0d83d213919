package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/socialdesk/internal/connection"
	"github.com/hitoshi/socialdesk/internal/metrics"
	"github.com/hitoshi/socialdesk/internal/middleware"
	"github.com/hitoshi/socialdesk/internal/model"
)

// ConnectionServiceInterface は連携ハンドラーが必要とするサービスインターフェース。
type ConnectionServiceInterface interface {
	GetConnectURL(userID, platform string) (string, error)
	HandleCallback(ctx context.Context, platform, code, state string) (*model.Connection, error)
	GetStatus(ctx context.Context, userID, platform string) (*connection.Status, error)
	GetDetails(ctx context.Context, userID, platform string) (*model.Connection, error)
	Disconnect(ctx context.Context, userID, platform string) error
}

// ConnectionHandler はSNSアカウント連携のHTTPハンドラー。
type ConnectionHandler struct {
	service     ConnectionServiceInterface
	frontendURL string
	collector   metrics.MetricsCollector
}

// NewConnectionHandler はConnectionHandlerを生成する。
func NewConnectionHandler(service ConnectionServiceInterface, frontendURL string, collector metrics.MetricsCollector) *ConnectionHandler {
	return &ConnectionHandler{
		service:     service,
		frontendURL: frontendURL,
		collector:   collector,
	}
}

// connectionDetailsResponse は連携詳細のAPIレスポンス。
// アクセストークンは含めない。
type connectionDetailsResponse struct {
	Platform    string     `json:"platform"`
	Username    string     `json:"username"`
	ExternalID  string     `json:"external_id"`
	TokenExpiry *time.Time `json:"token_expiry,omitempty"`
	ConnectedAt time.Time  `json:"connected_at"`
	LastUsed    time.Time  `json:"last_used"`
}

// Connect は連携フローを開始する。認証済みユーザーのIDをstateに埋め込み、
// プロバイダーの認可画面へリダイレクトする。
// GET /auth/{platform}
func (h *ConnectionHandler) Connect(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	platform := chi.URLParam(r, "platform")

	connectURL, err := h.service.GetConnectURL(userID, platform)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	http.Redirect(w, r, connectURL, http.StatusTemporaryRedirect)
}

// Callback は連携コールバックを処理する。
// 連携先ユーザーはstateノンスから復元されるため、このエンドポイントは
// セッションなしでアクセスされる。成功時はダッシュボードへリダイレクトする。
// GET /auth/{platform}/callback?code=xxx&state=yyy
func (h *ConnectionHandler) Callback(w http.ResponseWriter, r *http.Request) {
	platform := chi.URLParam(r, "platform")
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	start := time.Now()
	conn, err := h.service.HandleCallback(r.Context(), platform, code, state)
	h.collector.RecordOAuthExchangeLatency(platform, time.Since(start))
	if err != nil {
		h.collector.RecordOAuthExchange(platform, false)
		slog.Error("connection callback failed",
			slog.String("platform", platform),
			slog.String("error", err.Error()),
		)
		handleServiceError(w, err)
		return
	}

	h.collector.RecordOAuthExchange(platform, true)
	h.collector.RecordConnection(platform)

	redirectURL := h.frontendURL + "/dashboard?" + platform + "_connected=true&username=" +
		url.QueryEscape(conn.Username)
	http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
}

// Status は連携状態を返す。未連携の場合も200で connected: false を返す。
// GET /auth/{platform}/status
func (h *ConnectionHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	platform := chi.URLParam(r, "platform")

	status, err := h.service.GetStatus(r.Context(), userID, platform)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// Details は連携詳細を返す。未連携の場合は404。
// GET /auth/{platform}/details
func (h *ConnectionHandler) Details(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	platform := chi.URLParam(r, "platform")

	conn, err := h.service.GetDetails(r.Context(), userID, platform)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, connectionDetailsResponse{
		Platform:    string(conn.Platform),
		Username:    conn.Username,
		ExternalID:  conn.ExternalID,
		TokenExpiry: conn.TokenExpiry,
		ConnectedAt: conn.ConnectedAt,
		LastUsed:    conn.LastUsed,
	})
}

// Disconnect は連携を切断する。行はソフトデリートされ履歴として残る。
// DELETE /auth/{platform}/disconnect
func (h *ConnectionHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	platform := chi.URLParam(r, "platform")

	if err := h.service.Disconnect(r.Context(), userID, platform); err != nil {
		handleServiceError(w, err)
		return
	}

	h.collector.RecordDisconnection(platform)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("%s の連携を解除しました。", platform),
	})
}
