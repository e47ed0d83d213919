// Package businessprofile は事業者プロフィールのCRUDを提供する。
// プロフィールはユーザーごとに1件までで、ロゴには取り込み済みの
// ローカルパスまたは検証済みの外部URLを指定できる。
package businessprofile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/socialdesk/internal/model"
	"github.com/hitoshi/socialdesk/internal/repository"
	"github.com/hitoshi/socialdesk/internal/security"
)

const (
	minBusinessNameLen = 2
	maxBusinessNameLen = 100
	minDescriptionLen  = 10
	maxDescriptionLen  = 1000
	minIndustryLen     = 2
	maxIndustryLen     = 50
	minFoundedYear     = 1800
)

// CreateInput は事業者プロフィール作成の入力。
type CreateInput struct {
	BusinessName  string
	Description   string
	ContactInfo   model.ContactInfo
	LogoURL       string
	Website       string
	SocialLinks   model.SocialLinks
	Industry      string
	FoundedYear   *int
	EmployeeCount string
}

// UpdateInput は事業者プロフィール更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	BusinessName  *string
	Description   *string
	ContactInfo   *model.ContactInfo
	LogoURL       *string
	Website       *string
	SocialLinks   *model.SocialLinks
	Industry      *string
	FoundedYear   *int
	EmployeeCount *string
}

// Service は事業者プロフィール操作を提供する。
type Service struct {
	repo      repository.BusinessProfileRepository
	sanitizer security.ContentSanitizerService
	guard     security.MediaGuardService
}

// NewService はServiceを生成する。
func NewService(
	repo repository.BusinessProfileRepository,
	sanitizer security.ContentSanitizerService,
	guard security.MediaGuardService,
) *Service {
	return &Service{repo: repo, sanitizer: sanitizer, guard: guard}
}

// Create は事業者プロフィールを作成する。
// 同一ユーザーのプロフィールが既に存在する場合はエラーを返す。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.BusinessProfile, error) {
	existing, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing profile: %w", err)
	}
	if existing != nil {
		return nil, model.NewBusinessProfileExistsError()
	}

	profile := &model.BusinessProfile{
		ID:            uuid.New().String(),
		UserID:        userID,
		BusinessName:  strings.TrimSpace(s.sanitizer.Sanitize(input.BusinessName)),
		Description:   strings.TrimSpace(s.sanitizer.Sanitize(input.Description)),
		ContactInfo:   input.ContactInfo,
		LogoURL:       input.LogoURL,
		Website:       input.Website,
		SocialLinks:   input.SocialLinks,
		Industry:      strings.TrimSpace(s.sanitizer.Sanitize(input.Industry)),
		FoundedYear:   input.FoundedYear,
		EmployeeCount: model.EmployeeRange(input.EmployeeCount),
		IsActive:      true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if err := s.validate(profile); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, profile); err != nil {
		// 一意インデックス違反は同時作成の競合。既存扱いにする。
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewBusinessProfileExistsError()
		}
		return nil, fmt.Errorf("failed to create business profile: %w", err)
	}

	slog.Info("business profile created",
		slog.String("user_id", userID),
		slog.String("profile_id", profile.ID),
	)

	return profile, nil
}

// Get は自分の事業者プロフィールを取得する。
func (s *Service) Get(ctx context.Context, userID string) (*model.BusinessProfile, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find business profile: %w", err)
	}
	if profile == nil {
		return nil, model.NewBusinessProfileNotFoundError()
	}
	return profile, nil
}

// Update は事業者プロフィールを部分更新し、更新後のプロフィールを返す。
func (s *Service) Update(ctx context.Context, userID string, input UpdateInput) (*model.BusinessProfile, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find business profile: %w", err)
	}
	if profile == nil {
		return nil, model.NewBusinessProfileNotFoundError()
	}

	if input.BusinessName != nil {
		profile.BusinessName = strings.TrimSpace(s.sanitizer.Sanitize(*input.BusinessName))
	}
	if input.Description != nil {
		profile.Description = strings.TrimSpace(s.sanitizer.Sanitize(*input.Description))
	}
	if input.ContactInfo != nil {
		profile.ContactInfo = *input.ContactInfo
	}
	if input.LogoURL != nil {
		profile.LogoURL = *input.LogoURL
	}
	if input.Website != nil {
		profile.Website = *input.Website
	}
	if input.SocialLinks != nil {
		profile.SocialLinks = *input.SocialLinks
	}
	if input.Industry != nil {
		profile.Industry = strings.TrimSpace(s.sanitizer.Sanitize(*input.Industry))
	}
	if input.FoundedYear != nil {
		profile.FoundedYear = input.FoundedYear
	}
	if input.EmployeeCount != nil {
		profile.EmployeeCount = model.EmployeeRange(*input.EmployeeCount)
	}
	profile.UpdatedAt = time.Now()

	if err := s.validate(profile); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to update business profile: %w", err)
	}
	if !updated {
		return nil, model.NewBusinessProfileNotFoundError()
	}

	return profile, nil
}

// Delete は事業者プロフィールを削除する。
func (s *Service) Delete(ctx context.Context, userID string) error {
	deleted, err := s.repo.Delete(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete business profile: %w", err)
	}
	if !deleted {
		return model.NewBusinessProfileNotFoundError()
	}

	slog.Info("business profile deleted", slog.String("user_id", userID))
	return nil
}

// validate はプロフィールのフィールド値を検証する。
func (s *Service) validate(profile *model.BusinessProfile) error {
	if l := len([]rune(profile.BusinessName)); l < minBusinessNameLen || l > maxBusinessNameLen {
		return model.NewValidationError(
			fmt.Sprintf("事業者名は%d〜%d文字で入力してください", minBusinessNameLen, maxBusinessNameLen))
	}
	if l := len([]rune(profile.Description)); l < minDescriptionLen || l > maxDescriptionLen {
		return model.NewValidationError(
			fmt.Sprintf("説明は%d〜%d文字で入力してください", minDescriptionLen, maxDescriptionLen))
	}
	if !isValidEmail(profile.ContactInfo.Email) {
		return model.NewValidationError("連絡先メールアドレスの形式が正しくありません")
	}
	if profile.Industry != "" {
		if l := len([]rune(profile.Industry)); l < minIndustryLen || l > maxIndustryLen {
			return model.NewValidationError(
				fmt.Sprintf("業種は%d〜%d文字で入力してください", minIndustryLen, maxIndustryLen))
		}
	}
	if profile.FoundedYear != nil {
		if y := *profile.FoundedYear; y < minFoundedYear || y > time.Now().Year() {
			return model.NewValidationError("設立年が不正です")
		}
	}
	if profile.EmployeeCount != "" && !profile.EmployeeCount.IsValid() {
		return model.NewValidationError("従業員数レンジが不正です")
	}
	if err := validateLinkURL("WebサイトURL", profile.Website); err != nil {
		return err
	}
	for label, link := range map[string]string{
		"FacebookのURL":  profile.SocialLinks.Facebook,
		"TwitterのURL":   profile.SocialLinks.Twitter,
		"InstagramのURL": profile.SocialLinks.Instagram,
		"LinkedInのURL":  profile.SocialLinks.LinkedIn,
	} {
		if err := validateLinkURL(label, link); err != nil {
			return err
		}
	}
	return s.validateLogoURL(profile.LogoURL)
}

// validateLogoURL はロゴURLを検証する。
// メディア取り込みで保存されたローカルパスはそのまま受け付け、
// 外部URLはSSRFガードを通す。
func (s *Service) validateLogoURL(logoURL string) error {
	if logoURL == "" || strings.HasPrefix(logoURL, "/uploads/") {
		return nil
	}
	if err := s.guard.ValidateURL(logoURL); err != nil {
		if errors.Is(err, security.ErrBlockedURL) {
			return model.NewMediaBlockedError()
		}
		return model.NewInvalidMediaURLError(logoURL)
	}
	return nil
}

// validateLinkURL は空を許容するリンクURLの形式検証を行う。
func validateLinkURL(label, link string) error {
	if link == "" {
		return nil
	}
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return model.NewValidationError(fmt.Sprintf("%sの形式が正しくありません", label))
	}
	return nil
}

// isValidEmail はメールアドレスの簡易な形式検証を行う。
func isValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(email, " \t\n")
}
