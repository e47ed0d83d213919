package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/socialdesk/internal/aicontent"
)

// AIContentServiceInterface はAIコンテンツハンドラーが必要とするサービスインターフェース。
type AIContentServiceInterface interface {
	GenerateInstagramContent(ctx context.Context, input aicontent.GenerateInput) (*aicontent.GeneratedContent, error)
	GenerateVariations(ctx context.Context, input aicontent.VariationsInput) ([]aicontent.Variation, error)
	SuggestHashtags(ctx context.Context, input aicontent.HashtagInput) ([]string, error)
}

// AIContentHandler はAIによる投稿コンテンツ生成のHTTPハンドラー。
type AIContentHandler struct {
	service AIContentServiceInterface
}

// NewAIContentHandler はAIContentHandlerを生成する。
func NewAIContentHandler(service AIContentServiceInterface) *AIContentHandler {
	return &AIContentHandler{service: service}
}

type generateContentRequest struct {
	Description string `json:"description"`
	Tone        string `json:"tone"`
	Industry    string `json:"industry"`
}

type generateVariationsRequest struct {
	Description string `json:"description"`
	Count       int    `json:"count"`
	Tone        string `json:"tone"`
}

type suggestHashtagsRequest struct {
	Description string `json:"description"`
	Industry    string `json:"industry"`
	Count       int    `json:"count"`
}

// GenerateContent はInstagram向けのキャプションとハッシュタグを生成する。
// POST /api/ai/instagram
func (h *AIContentHandler) GenerateContent(w http.ResponseWriter, r *http.Request) {
	var req generateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	content, err := h.service.GenerateInstagramContent(r.Context(), aicontent.GenerateInput{
		Description: req.Description,
		Tone:        req.Tone,
		Industry:    req.Industry,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, content)
}

// GenerateVariations は複数のコンテンツバリエーションを生成する。
// POST /api/ai/variations
func (h *AIContentHandler) GenerateVariations(w http.ResponseWriter, r *http.Request) {
	var req generateVariationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	variations, err := h.service.GenerateVariations(r.Context(), aicontent.VariationsInput{
		Description: req.Description,
		Count:       req.Count,
		Tone:        req.Tone,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"variations": variations})
}

// SuggestHashtags は説明文に合うハッシュタグを提案する。
// POST /api/ai/hashtags
func (h *AIContentHandler) SuggestHashtags(w http.ResponseWriter, r *http.Request) {
	var req suggestHashtagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	hashtags, err := h.service.SuggestHashtags(r.Context(), aicontent.HashtagInput{
		Description: req.Description,
		Industry:    req.Industry,
		Count:       req.Count,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"hashtags": hashtags})
}
