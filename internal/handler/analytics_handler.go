package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/socialdesk/internal/analytics"
	"github.com/hitoshi/socialdesk/internal/middleware"
)

// AnalyticsServiceInterface は分析ハンドラーが必要とするサービスインターフェース。
type AnalyticsServiceInterface interface {
	GetReport(ctx context.Context, userID string) (*analytics.Report, error)
}

// AnalyticsHandler は分析レポートのHTTPハンドラー。
type AnalyticsHandler struct {
	service AnalyticsServiceInterface
}

// NewAnalyticsHandler はAnalyticsHandlerを生成する。
func NewAnalyticsHandler(service AnalyticsServiceInterface) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// Report は投稿サマリー・主要指標・直近公開投稿を返す。
// GET /api/analytics
func (h *AnalyticsHandler) Report(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	report, err := h.service.GetReport(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
