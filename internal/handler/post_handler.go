package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/socialdesk/internal/middleware"
	"github.com/hitoshi/socialdesk/internal/model"
	"github.com/hitoshi/socialdesk/internal/post"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	Create(ctx context.Context, userID string, input post.CreateInput) (*model.Post, error)
	List(ctx context.Context, userID string, filter model.PostFilter) ([]*model.Post, error)
	Get(ctx context.Context, userID, id string) (*model.Post, error)
	Update(ctx context.Context, userID, id string, input post.UpdateInput) (*model.Post, error)
	Reschedule(ctx context.Context, userID, id string, scheduledAt time.Time) (*model.Post, error)
	ListUpcoming(ctx context.Context, userID string) ([]*model.Post, error)
	Delete(ctx context.Context, userID, id string) error
	BulkDelete(ctx context.Context, userID string, ids []string) (int, error)
}

// PostHandler は投稿管理のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{service: service}
}

type createPostRequest struct {
	Description string     `json:"description"`
	Caption     string     `json:"caption"`
	Hashtags    string     `json:"hashtags"`
	MediaURLs   []string   `json:"media_urls"`
	Platforms   []string   `json:"platforms"`
	Status      string     `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

type updatePostRequest struct {
	Description *string    `json:"description"`
	Caption     *string    `json:"caption"`
	Hashtags    *string    `json:"hashtags"`
	MediaURLs   []string   `json:"media_urls"`
	Platforms   []string   `json:"platforms"`
	Status      *string    `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

type reschedulePostRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

type postResponse struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Caption     string     `json:"caption"`
	Hashtags    string     `json:"hashtags"`
	MediaURLs   []string   `json:"media_urls"`
	Platforms   []string   `json:"platforms"`
	Status      string     `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toPostResponse(p *model.Post) postResponse {
	return postResponse{
		ID:          p.ID,
		Description: p.Description,
		Caption:     p.Caption,
		Hashtags:    p.Hashtags,
		MediaURLs:   p.MediaURLs,
		Platforms:   p.Platforms,
		Status:      string(p.Status),
		ScheduledAt: p.ScheduledAt,
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toPostListResponse(posts []*model.Post) []postResponse {
	res := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		res = append(res, toPostResponse(p))
	}
	return res
}

// Create は投稿を作成する。
// POST /api/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	created, err := h.service.Create(r.Context(), userID, post.CreateInput{
		Description: req.Description,
		Caption:     req.Caption,
		Hashtags:    req.Hashtags,
		MediaURLs:   req.MediaURLs,
		Platforms:   req.Platforms,
		Status:      model.PostStatus(req.Status),
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPostResponse(created))
}

// List は投稿一覧を返す。q / status / platform クエリで絞り込める。
// GET /api/posts
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	filter := model.PostFilter{
		Query:    r.URL.Query().Get("q"),
		Status:   model.PostStatus(r.URL.Query().Get("status")),
		Platform: r.URL.Query().Get("platform"),
	}

	posts, err := h.service.List(r.Context(), userID, filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"posts": toPostListResponse(posts)})
}

// Upcoming は予約済み投稿を予約日時の昇順で返す。
// GET /api/posts/upcoming
func (h *PostHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	posts, err := h.service.ListUpcoming(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"posts": toPostListResponse(posts)})
}

// Get は投稿を1件取得する。
// GET /api/posts/{id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	p, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(p))
}

// Update は投稿を部分更新する。
// PATCH /api/posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req updatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	input := post.UpdateInput{
		Description: req.Description,
		Caption:     req.Caption,
		Hashtags:    req.Hashtags,
		MediaURLs:   req.MediaURLs,
		Platforms:   req.Platforms,
		ScheduledAt: req.ScheduledAt,
	}
	if req.Status != nil {
		status := model.PostStatus(*req.Status)
		input.Status = &status
	}

	updated, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(updated))
}

// Reschedule は投稿の予約日時を変更し、ステータスをscheduledにする。
// PATCH /api/posts/{id}/reschedule
func (h *PostHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req reschedulePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.Reschedule(r.Context(), userID, chi.URLParam(r, "id"), req.ScheduledAt)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(updated))
}

// Delete は投稿を削除する。
// DELETE /api/posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BulkDelete は複数の投稿をまとめて削除し、削除件数を返す。
// 他ユーザーの投稿IDが混ざっていても黙ってスキップされる。
// POST /api/posts/bulk-delete
func (h *PostHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req bulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	deleted, err := h.service.BulkDelete(r.Context(), userID, req.IDs)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}
