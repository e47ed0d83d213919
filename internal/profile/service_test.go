package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/socialdesk/internal/model"
	"github.com/hitoshi/socialdesk/internal/repository"
)

type mockUserRepo struct {
	repository.UserRepository

	findByIDFn      func(ctx context.Context, id string) (*model.User, error)
	updateProfileFn func(ctx context.Context, userID string, name *string, prefs *model.Preferences) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, userID string, name *string, prefs *model.Preferences) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, userID, name, prefs)
	}
	return nil, nil
}

func TestGet(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Name: "Hitoshi", Email: "hitoshi@example.com"}, nil
		},
	}
	svc := NewService(repo)

	user, err := svc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if user.Name != "Hitoshi" {
		t.Errorf("name = %q", user.Name)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := NewService(&mockUserRepo{})

	_, err := svc.Get(context.Background(), "missing")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("error = %v, want %s", err, model.ErrCodeUserNotFound)
	}
}

func TestUpdate_TrimsName(t *testing.T) {
	var gotName *string
	repo := &mockUserRepo{
		updateProfileFn: func(ctx context.Context, userID string, name *string, prefs *model.Preferences) (*model.User, error) {
			gotName = name
			return &model.User{ID: userID, Name: *name}, nil
		},
	}
	svc := NewService(repo)

	name := "  Hitoshi  "
	user, err := svc.Update(context.Background(), "user-1", UpdateInput{Name: &name})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if gotName == nil || *gotName != "Hitoshi" {
		t.Errorf("name passed to repo = %v, want Hitoshi", gotName)
	}
	if user.Name != "Hitoshi" {
		t.Errorf("name = %q", user.Name)
	}
}

func TestUpdate_EmptyName(t *testing.T) {
	svc := NewService(&mockUserRepo{})

	name := "   "
	_, err := svc.Update(context.Background(), "user-1", UpdateInput{Name: &name})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Fatalf("error = %v, want %s", err, model.ErrCodeValidationFailed)
	}
}

func TestUpdate_PreferencesOnly(t *testing.T) {
	var gotPrefs *model.Preferences
	repo := &mockUserRepo{
		updateProfileFn: func(ctx context.Context, userID string, name *string, prefs *model.Preferences) (*model.User, error) {
			gotPrefs = prefs
			return &model.User{ID: userID, Preferences: *prefs}, nil
		},
	}
	svc := NewService(repo)

	prefs := model.Preferences{EmailNotifications: false, Timezone: "Asia/Tokyo", Theme: "dark"}
	if _, err := svc.Update(context.Background(), "user-1", UpdateInput{Preferences: &prefs}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if gotPrefs == nil || gotPrefs.Timezone != "Asia/Tokyo" {
		t.Errorf("prefs = %+v", gotPrefs)
	}
}
