package repository

import (
	"testing"
	"time"

	"github.com/hitoshi/socialdesk/internal/model"
)

// PostgresBusinessProfileRepoはBusinessProfileRepositoryインターフェースを満たすことを検証
func TestPostgresBusinessProfileRepo_ImplementsInterface(t *testing.T) {
	var _ BusinessProfileRepository = (*PostgresBusinessProfileRepo)(nil)
}

// NewPostgresBusinessProfileRepoが正しく初期化されることを検証
func TestNewPostgresBusinessProfileRepo_Initializes(t *testing.T) {
	repo := NewPostgresBusinessProfileRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// Createに渡すプロフィールが有効状態で構築されることの検証
func TestPostgresBusinessProfileRepo_Create_ActiveProfile(t *testing.T) {
	now := time.Now()
	year := 2015
	profile := &model.BusinessProfile{
		ID:           "bp-1",
		UserID:       "user-1",
		BusinessName: "ひとし商店",
		Description:  "こだわりの和菓子を製造販売しています。",
		ContactInfo: model.ContactInfo{
			Email: "info@example.com",
			Phone: "03-1234-5678",
		},
		EmployeeCount: model.EmployeeRange1To10,
		FoundedYear:   &year,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if !profile.EmployeeCount.IsValid() {
		t.Errorf("expected valid employee count, got %q", profile.EmployeeCount)
	}
	if !profile.IsActive {
		t.Error("expected new profile to be active")
	}
}

// 未定義の従業員数レンジが弾かれることの検証
func TestEmployeeRange_IsValid_RejectsUnknown(t *testing.T) {
	if model.EmployeeRange("10000+").IsValid() {
		t.Error("expected unknown range to be invalid")
	}
}
