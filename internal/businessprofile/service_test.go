package businessprofile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/socialdesk/internal/model"
	"github.com/hitoshi/socialdesk/internal/repository"
	"github.com/hitoshi/socialdesk/internal/security"
)

// --- モック定義 ---

type mockBusinessProfileRepo struct {
	createFn       func(ctx context.Context, profile *model.BusinessProfile) error
	findByUserIDFn func(ctx context.Context, userID string) (*model.BusinessProfile, error)
	updateFn       func(ctx context.Context, profile *model.BusinessProfile) (bool, error)
	deleteFn       func(ctx context.Context, userID string) (bool, error)
}

func (m *mockBusinessProfileRepo) Create(ctx context.Context, profile *model.BusinessProfile) error {
	if m.createFn != nil {
		return m.createFn(ctx, profile)
	}
	return nil
}

func (m *mockBusinessProfileRepo) FindByUserID(ctx context.Context, userID string) (*model.BusinessProfile, error) {
	if m.findByUserIDFn != nil {
		return m.findByUserIDFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockBusinessProfileRepo) Update(ctx context.Context, profile *model.BusinessProfile) (bool, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, profile)
	}
	return true, nil
}

func (m *mockBusinessProfileRepo) Delete(ctx context.Context, userID string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID)
	}
	return false, nil
}

// --- compile-time interface check ---
var _ repository.BusinessProfileRepository = (*mockBusinessProfileRepo)(nil)

func newTestService(repo repository.BusinessProfileRepository) *Service {
	return NewService(repo, security.NewContentSanitizer(), security.NewMediaGuard())
}

func validCreateInput() CreateInput {
	return CreateInput{
		BusinessName: "ひとし商店",
		Description:  "こだわりの和菓子を製造販売しています。",
		ContactInfo:  model.ContactInfo{Email: "info@example.com"},
	}
}

func existingProfile(userID string) *model.BusinessProfile {
	now := time.Now()
	return &model.BusinessProfile{
		ID:           "bp-1",
		UserID:       userID,
		BusinessName: "ひとし商店",
		Description:  "こだわりの和菓子を製造販売しています。",
		ContactInfo:  model.ContactInfo{Email: "info@example.com"},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// --- テスト ---

func TestCreate_Succeeds(t *testing.T) {
	var created *model.BusinessProfile
	repo := &mockBusinessProfileRepo{
		createFn: func(ctx context.Context, profile *model.BusinessProfile) error {
			created = profile
			return nil
		},
	}
	svc := newTestService(repo)

	profile, err := svc.Create(context.Background(), "user-1", validCreateInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created == nil {
		t.Fatal("expected profile to be saved")
	}
	if profile.UserID != "user-1" {
		t.Errorf("userID = %q, want %q", profile.UserID, "user-1")
	}
	if !profile.IsActive {
		t.Error("expected new profile to be active")
	}
	if profile.ID == "" {
		t.Error("expected generated ID")
	}
}

// プロフィールがユーザーごとに1件までであることの検証
func TestCreate_AlreadyExists(t *testing.T) {
	repo := &mockBusinessProfileRepo{
		findByUserIDFn: func(ctx context.Context, userID string) (*model.BusinessProfile, error) {
			return existingProfile(userID), nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), "user-1", validCreateInput())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeBusinessProfileExists {
		t.Fatalf("error = %v, want %s", err, model.ErrCodeBusinessProfileExists)
	}
}

// 同時作成の競合で一意制約に当たった場合も既存扱いになることの検証
func TestCreate_RaceOnUniqueIndex(t *testing.T) {
	repo := &mockBusinessProfileRepo{
		createFn: func(ctx context.Context, profile *model.BusinessProfile) error {
			return repository.ErrDuplicate
		},
	}
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), "user-1", validCreateInput())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeBusinessProfileExists {
		t.Fatalf("error = %v, want %s", err, model.ErrCodeBusinessProfileExists)
	}
}

func TestCreate_SanitizesFields(t *testing.T) {
	var created *model.BusinessProfile
	repo := &mockBusinessProfileRepo{
		createFn: func(ctx context.Context, profile *model.BusinessProfile) error {
			created = profile
			return nil
		},
	}
	svc := newTestService(repo)

	input := validCreateInput()
	input.BusinessName = "ひとし商店<script>alert(1)</script>"
	_, err := svc.Create(context.Background(), "user-1", input)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.BusinessName != "ひとし商店" {
		t.Errorf("businessName = %q, want script removed", created.BusinessName)
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	year2100 := 2100
	tests := []struct {
		name   string
		mutate func(input *CreateInput)
	}{
		{"事業者名が短すぎる", func(in *CreateInput) { in.BusinessName = "あ" }},
		{"説明が短すぎる", func(in *CreateInput) { in.Description = "短い" }},
		{"メールアドレスが不正", func(in *CreateInput) { in.ContactInfo.Email = "not-an-email" }},
		{"従業員数レンジが不正", func(in *CreateInput) { in.EmployeeCount = "10000+" }},
		{"設立年が未来", func(in *CreateInput) { in.FoundedYear = &year2100 }},
		{"WebサイトURLが不正", func(in *CreateInput) { in.Website = "ftp://example.com" }},
		{"SNSリンクが不正", func(in *CreateInput) { in.SocialLinks.Twitter = "not-a-url" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&mockBusinessProfileRepo{})
			input := validCreateInput()
			tt.mutate(&input)

			_, err := svc.Create(context.Background(), "user-1", input)

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
				t.Fatalf("error = %v, want %s", err, model.ErrCodeValidationFailed)
			}
		})
	}
}

// 取り込み済みロゴのローカルパスがそのまま受け付けられることの検証
func TestCreate_AcceptsImportedLogoPath(t *testing.T) {
	svc := newTestService(&mockBusinessProfileRepo{})

	input := validCreateInput()
	input.LogoURL = "/uploads/logo-1234.png"
	if _, err := svc.Create(context.Background(), "user-1", input); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

// プライベートIPへのロゴURLがブロックされることの検証
func TestCreate_BlocksPrivateLogoURL(t *testing.T) {
	svc := newTestService(&mockBusinessProfileRepo{})

	input := validCreateInput()
	input.LogoURL = "http://192.168.1.1/logo.png"
	_, err := svc.Create(context.Background(), "user-1", input)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeMediaBlocked {
		t.Fatalf("error = %v, want %s", err, model.ErrCodeMediaBlocked)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := newTestService(&mockBusinessProfileRepo{})

	_, err := svc.Get(context.Background(), "user-1")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeBusinessProfileNotFound {
		t.Fatalf("error = %v, want %s", err, model.ErrCodeBusinessProfileNotFound)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	var updated *model.BusinessProfile
	repo := &mockBusinessProfileRepo{
		findByUserIDFn: func(ctx context.Context, userID string) (*model.BusinessProfile, error) {
			return existingProfile(userID), nil
		},
		updateFn: func(ctx context.Context, profile *model.BusinessProfile) (bool, error) {
			updated = profile
			return true, nil
		},
	}
	svc := newTestService(repo)

	industry := "食品製造"
	profile, err := svc.Update(context.Background(), "user-1", UpdateInput{Industry: &industry})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated == nil {
		t.Fatal("expected profile to be saved")
	}
	if profile.Industry != "食品製造" {
		t.Errorf("industry = %q", profile.Industry)
	}
	// 未指定フィールドは維持されること
	if profile.BusinessName != "ひとし商店" {
		t.Errorf("businessName = %q, want unchanged", profile.BusinessName)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newTestService(&mockBusinessProfileRepo{})

	name := "新しい商店"
	_, err := svc.Update(context.Background(), "user-1", UpdateInput{BusinessName: &name})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeBusinessProfileNotFound {
		t.Fatalf("error = %v, want %s", err, model.ErrCodeBusinessProfileNotFound)
	}
}

func TestDelete_Succeeds(t *testing.T) {
	repo := &mockBusinessProfileRepo{
		deleteFn: func(ctx context.Context, userID string) (bool, error) {
			return true, nil
		},
	}
	svc := newTestService(repo)

	if err := svc.Delete(context.Background(), "user-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc := newTestService(&mockBusinessProfileRepo{})

	err := svc.Delete(context.Background(), "user-1")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeBusinessProfileNotFound {
		t.Fatalf("error = %v, want %s", err, model.ErrCodeBusinessProfileNotFound)
	}
}
