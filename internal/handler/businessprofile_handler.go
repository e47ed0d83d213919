package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/socialdesk/internal/businessprofile"
	"github.com/hitoshi/socialdesk/internal/middleware"
	"github.com/hitoshi/socialdesk/internal/model"
)

// BusinessProfileServiceInterface は事業者プロフィールハンドラーが必要とするサービスインターフェース。
type BusinessProfileServiceInterface interface {
	Create(ctx context.Context, userID string, input businessprofile.CreateInput) (*model.BusinessProfile, error)
	Get(ctx context.Context, userID string) (*model.BusinessProfile, error)
	Update(ctx context.Context, userID string, input businessprofile.UpdateInput) (*model.BusinessProfile, error)
	Delete(ctx context.Context, userID string) error
}

// BusinessProfileHandler は事業者プロフィールのHTTPハンドラー。
type BusinessProfileHandler struct {
	service BusinessProfileServiceInterface
}

// NewBusinessProfileHandler はBusinessProfileHandlerを生成する。
func NewBusinessProfileHandler(service BusinessProfileServiceInterface) *BusinessProfileHandler {
	return &BusinessProfileHandler{service: service}
}

type createBusinessProfileRequest struct {
	BusinessName  string            `json:"business_name"`
	Description   string            `json:"description"`
	ContactInfo   model.ContactInfo `json:"contact_info"`
	LogoURL       string            `json:"logo_url"`
	Website       string            `json:"website"`
	SocialLinks   model.SocialLinks `json:"social_links"`
	Industry      string            `json:"industry"`
	FoundedYear   *int              `json:"founded_year"`
	EmployeeCount string            `json:"employee_count"`
}

type updateBusinessProfileRequest struct {
	BusinessName  *string            `json:"business_name"`
	Description   *string            `json:"description"`
	ContactInfo   *model.ContactInfo `json:"contact_info"`
	LogoURL       *string            `json:"logo_url"`
	Website       *string            `json:"website"`
	SocialLinks   *model.SocialLinks `json:"social_links"`
	Industry      *string            `json:"industry"`
	FoundedYear   *int               `json:"founded_year"`
	EmployeeCount *string            `json:"employee_count"`
}

type businessProfileResponse struct {
	ID            string            `json:"id"`
	BusinessName  string            `json:"business_name"`
	Description   string            `json:"description"`
	ContactInfo   model.ContactInfo `json:"contact_info"`
	LogoURL       string            `json:"logo_url,omitempty"`
	Website       string            `json:"website,omitempty"`
	SocialLinks   model.SocialLinks `json:"social_links"`
	Industry      string            `json:"industry,omitempty"`
	FoundedYear   *int              `json:"founded_year,omitempty"`
	EmployeeCount string            `json:"employee_count,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func toBusinessProfileResponse(p *model.BusinessProfile) businessProfileResponse {
	return businessProfileResponse{
		ID:            p.ID,
		BusinessName:  p.BusinessName,
		Description:   p.Description,
		ContactInfo:   p.ContactInfo,
		LogoURL:       p.LogoURL,
		Website:       p.Website,
		SocialLinks:   p.SocialLinks,
		Industry:      p.Industry,
		FoundedYear:   p.FoundedYear,
		EmployeeCount: string(p.EmployeeCount),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// Create は事業者プロフィールを作成する。
// POST /api/business-profile
func (h *BusinessProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createBusinessProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	profile, err := h.service.Create(r.Context(), userID, businessprofile.CreateInput{
		BusinessName:  req.BusinessName,
		Description:   req.Description,
		ContactInfo:   req.ContactInfo,
		LogoURL:       req.LogoURL,
		Website:       req.Website,
		SocialLinks:   req.SocialLinks,
		Industry:      req.Industry,
		FoundedYear:   req.FoundedYear,
		EmployeeCount: req.EmployeeCount,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"profile": toBusinessProfileResponse(profile)})
}

// Get は自分の事業者プロフィールを返す。
// GET /api/business-profile
func (h *BusinessProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	profile, err := h.service.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"profile": toBusinessProfileResponse(profile)})
}

// Update は事業者プロフィールを部分更新する。
// PATCH /api/business-profile
func (h *BusinessProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req updateBusinessProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	profile, err := h.service.Update(r.Context(), userID, businessprofile.UpdateInput{
		BusinessName:  req.BusinessName,
		Description:   req.Description,
		ContactInfo:   req.ContactInfo,
		LogoURL:       req.LogoURL,
		Website:       req.Website,
		SocialLinks:   req.SocialLinks,
		Industry:      req.Industry,
		FoundedYear:   req.FoundedYear,
		EmployeeCount: req.EmployeeCount,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"profile": toBusinessProfileResponse(profile)})
}

// Delete は事業者プロフィールを削除する。
// DELETE /api/business-profile
func (h *BusinessProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.Delete(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
