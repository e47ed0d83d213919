package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/socialdesk/internal/media"
	"github.com/hitoshi/socialdesk/internal/middleware"
)

// MediaServiceInterface はメディアハンドラーが必要とするサービスインターフェース。
type MediaServiceInterface interface {
	Import(ctx context.Context, rawURL string) (*media.ImportResult, error)
}

// MediaHandler はメディア取り込みのHTTPハンドラー。
type MediaHandler struct {
	service MediaServiceInterface
}

// NewMediaHandler はMediaHandlerを生成する。
func NewMediaHandler(service MediaServiceInterface) *MediaHandler {
	return &MediaHandler{service: service}
}

type importMediaRequest struct {
	URL string `json:"url"`
}

// Import は外部URLからメディアを取り込み、保存先の情報を返す。
// POST /api/media/import
func (h *MediaHandler) Import(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	var req importMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	result, err := h.service.Import(r.Context(), req.URL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}
