package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/socialdesk/internal/campaign"
	"github.com/hitoshi/socialdesk/internal/middleware"
	"github.com/hitoshi/socialdesk/internal/model"
)

// CampaignServiceInterface はキャンペーンハンドラーが必要とするサービスインターフェース。
type CampaignServiceInterface interface {
	Create(ctx context.Context, userID string, input campaign.CreateInput) (*model.Campaign, error)
	List(ctx context.Context, userID string) ([]*model.Campaign, error)
	Get(ctx context.Context, userID, id string) (*model.Campaign, error)
	Update(ctx context.Context, userID, id string, input campaign.UpdateInput) (*model.Campaign, error)
	AddPosts(ctx context.Context, userID, id string, postIDs []string) (*model.Campaign, error)
	ListPosts(ctx context.Context, userID, id string) ([]*model.Post, error)
	Delete(ctx context.Context, userID, id string) error
}

// CampaignHandler はキャンペーン管理のHTTPハンドラー。
type CampaignHandler struct {
	service CampaignServiceInterface
}

// NewCampaignHandler はCampaignHandlerを生成する。
func NewCampaignHandler(service CampaignServiceInterface) *CampaignHandler {
	return &CampaignHandler{service: service}
}

type createCampaignRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Platforms   []string   `json:"platforms"`
}

type updateCampaignRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Platforms   []string   `json:"platforms"`
}

type addCampaignPostsRequest struct {
	PostIDs []string `json:"post_ids"`
}

type campaignMetricsResponse struct {
	TotalPosts      int `json:"total_posts"`
	PublishedPosts  int `json:"published_posts"`
	TotalEngagement int `json:"total_engagement"`
	TotalReach      int `json:"total_reach"`
}

type campaignResponse struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Status      string                  `json:"status"`
	StartDate   *time.Time              `json:"start_date,omitempty"`
	EndDate     *time.Time              `json:"end_date,omitempty"`
	Platforms   []string                `json:"platforms"`
	PostIDs     []string                `json:"post_ids"`
	Metrics     campaignMetricsResponse `json:"metrics"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

func toCampaignResponse(c *model.Campaign) campaignResponse {
	return campaignResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Status:      string(c.Status),
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		Platforms:   c.Platforms,
		PostIDs:     c.PostIDs,
		Metrics: campaignMetricsResponse{
			TotalPosts:      c.Metrics.TotalPosts,
			PublishedPosts:  c.Metrics.PublishedPosts,
			TotalEngagement: c.Metrics.TotalEngagement,
			TotalReach:      c.Metrics.TotalReach,
		},
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// Create はキャンペーンを作成する。
// POST /api/campaigns
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	created, err := h.service.Create(r.Context(), userID, campaign.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Platforms:   req.Platforms,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCampaignResponse(created))
}

// List はキャンペーン一覧を返す。
// GET /api/campaigns
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	campaigns, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]campaignResponse, 0, len(campaigns))
	for _, c := range campaigns {
		res = append(res, toCampaignResponse(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"campaigns": res})
}

// campaignDetailResponse は詳細取得時のレスポンス。所属投稿を含める。
type campaignDetailResponse struct {
	campaignResponse
	Posts []postResponse `json:"posts"`
}

// Get はキャンペーンを1件取得する。メトリクスは取得時に再計算され、
// 所属する投稿も併せて返す。
// GET /api/campaigns/{id}
func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	id := chi.URLParam(r, "id")
	c, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	posts, err := h.service.ListPosts(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, campaignDetailResponse{
		campaignResponse: toCampaignResponse(c),
		Posts:            toPostListResponse(posts),
	})
}

// Update はキャンペーンを部分更新する。
// PATCH /api/campaigns/{id}
func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req updateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	input := campaign.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Platforms:   req.Platforms,
	}
	if req.Status != nil {
		status := model.CampaignStatus(*req.Status)
		input.Status = &status
	}

	updated, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCampaignResponse(updated))
}

// AddPosts はキャンペーンに投稿を紐付ける。投稿の所有権も検証される。
// POST /api/campaigns/{id}/posts
func (h *CampaignHandler) AddPosts(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req addCampaignPostsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.AddPosts(r.Context(), userID, chi.URLParam(r, "id"), req.PostIDs)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCampaignResponse(updated))
}

// ListPosts はキャンペーンに紐付く投稿一覧を返す。
// GET /api/campaigns/{id}/posts
func (h *CampaignHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	posts, err := h.service.ListPosts(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"posts": toPostListResponse(posts)})
}

// Delete はキャンペーンを削除する。紐付いた投稿自体は削除されない。
// DELETE /api/campaigns/{id}
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
