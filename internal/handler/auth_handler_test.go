package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hitoshi/socialdesk/internal/auth"
	"github.com/hitoshi/socialdesk/internal/model"
)

func newAuthHandler(svc *mockAuthService, collector *recordingCollector) *AuthHandler {
	return NewAuthHandler(svc, AuthHandlerConfig{
		FrontendURL: "http://localhost:3000",
	}, collector)
}

func TestAuthHandler_Register_Returns201WithSession(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, name, email, password string) (*auth.Session, error) {
			if name != "Hitoshi" || email != "hitoshi@example.com" {
				t.Errorf("unexpected register args: %s %s", name, email)
			}
			return &auth.Session{Token: "jwt-token", User: testUser("user-1")}, nil
		},
	}
	h := newAuthHandler(svc, &recordingCollector{})

	body := strings.NewReader(`{"name":"Hitoshi","email":"hitoshi@example.com","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	w := httptest.NewRecorder()

	h.Register(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var res sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.Token != "jwt-token" {
		t.Errorf("token = %q, want %q", res.Token, "jwt-token")
	}
	if res.User.ID != "user-1" {
		t.Errorf("user id = %q, want %q", res.User.ID, "user-1")
	}
}

func TestAuthHandler_Register_EmailTaken_Returns409(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, name, email, password string) (*auth.Session, error) {
			return nil, model.NewEmailTakenError()
		},
	}
	h := newAuthHandler(svc, &recordingCollector{})

	body := strings.NewReader(`{"name":"A","email":"taken@example.com","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	w := httptest.NewRecorder()

	h.Register(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	if body := decodeErrorResponse(t, resp); body.Code != model.ErrCodeEmailTaken {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeEmailTaken)
	}
}

func TestAuthHandler_Register_InvalidJSON_Returns400(t *testing.T) {
	h := newAuthHandler(&mockAuthService{}, &recordingCollector{})

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestAuthHandler_Login_Success_RecordsMetric(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*auth.Session, error) {
			return &auth.Session{Token: "jwt-token", User: testUser("user-1")}, nil
		},
	}
	collector := &recordingCollector{}
	h := newAuthHandler(svc, collector)

	body := strings.NewReader(`{"email":"hitoshi@example.com","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if len(collector.logins) != 1 || collector.logins[0] != "password:success" {
		t.Errorf("logins = %v, want [password:success]", collector.logins)
	}
}

func TestAuthHandler_Login_WrongPassword_Returns400(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*auth.Session, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	collector := &recordingCollector{}
	h := newAuthHandler(svc, collector)

	body := strings.NewReader(`{"email":"hitoshi@example.com","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	w := httptest.NewRecorder()

	h.Login(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if len(collector.logins) != 1 || collector.logins[0] != "password:failure" {
		t.Errorf("logins = %v, want [password:failure]", collector.logins)
	}
}

func TestAuthHandler_Verify_ReturnsUser(t *testing.T) {
	svc := &mockAuthService{
		verifyTokenFn: func(ctx context.Context, token string) (*model.User, error) {
			if token != "valid-token" {
				return nil, model.NewInvalidTokenError()
			}
			return testUser("user-1"), nil
		},
	}
	h := newAuthHandler(svc, &recordingCollector{})

	req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	h.Verify(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var res map[string]userResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res["user"].ID != "user-1" {
		t.Errorf("user id = %q, want %q", res["user"].ID, "user-1")
	}
}

func TestAuthHandler_Verify_MissingHeader_Returns401(t *testing.T) {
	h := newAuthHandler(&mockAuthService{}, &recordingCollector{})

	req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
	w := httptest.NewRecorder()

	h.Verify(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestAuthHandler_GoogleLogin_Redirects(t *testing.T) {
	svc := &mockAuthService{
		getGoogleLoginURLFn: func() (string, error) {
			return "https://accounts.google.com/o/oauth2/v2/auth?state=abc", nil
		},
	}
	h := newAuthHandler(svc, &recordingCollector{})

	req := httptest.NewRequest(http.MethodGet, "/auth/google", nil)
	w := httptest.NewRecorder()

	h.GoogleLogin(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTemporaryRedirect)
	}
	if loc := resp.Header.Get("Location"); !strings.Contains(loc, "accounts.google.com") {
		t.Errorf("Location = %q, should contain google oauth URL", loc)
	}
}

func TestAuthHandler_GoogleCallback_RedirectsWithTokenAndUser(t *testing.T) {
	svc := &mockAuthService{
		handleGoogleCallbackFn: func(ctx context.Context, code, state string) (*auth.Session, error) {
			if code != "auth-code" || state != "state-nonce" {
				t.Errorf("unexpected callback args: %s %s", code, state)
			}
			return &auth.Session{Token: "jwt-token", User: testUser("user-1")}, nil
		},
	}
	collector := &recordingCollector{}
	h := newAuthHandler(svc, collector)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=auth-code&state=state-nonce", nil)
	w := httptest.NewRecorder()

	h.GoogleCallback(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTemporaryRedirect)
	}

	location, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("invalid Location header: %v", err)
	}
	if location.Path != "/auth/callback" {
		t.Errorf("path = %q, want /auth/callback", location.Path)
	}
	if token := location.Query().Get("token"); token != "jwt-token" {
		t.Errorf("token = %q, want jwt-token", token)
	}

	var userParam map[string]string
	if err := json.Unmarshal([]byte(location.Query().Get("user")), &userParam); err != nil {
		t.Fatalf("failed to parse user param: %v", err)
	}
	if userParam["id"] != "user-1" || userParam["email"] != "hitoshi@example.com" {
		t.Errorf("user param = %v", userParam)
	}
	// 名前やロールなどの追加情報がリダイレクトURLに載らないこと
	if _, ok := userParam["name"]; ok {
		t.Error("user param should not contain name")
	}

	if len(collector.logins) != 1 || collector.logins[0] != "google:success" {
		t.Errorf("logins = %v, want [google:success]", collector.logins)
	}
}

func TestAuthHandler_GoogleCallback_InvalidState_Returns400(t *testing.T) {
	svc := &mockAuthService{
		handleGoogleCallbackFn: func(ctx context.Context, code, state string) (*auth.Session, error) {
			return nil, model.NewInvalidOAuthStateError()
		},
	}
	collector := &recordingCollector{}
	h := newAuthHandler(svc, collector)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=auth-code&state=forged", nil)
	w := httptest.NewRecorder()

	h.GoogleCallback(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if len(collector.logins) != 1 || collector.logins[0] != "google:failure" {
		t.Errorf("logins = %v, want [google:failure]", collector.logins)
	}
}
