package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/socialdesk/internal/model"
	"github.com/hitoshi/socialdesk/internal/security"
)

// mockGuard はMediaGuardServiceのテスト用実装。
// httptestサーバーはループバックで動くため、検証をバイパスできるようにする。
type mockGuard struct {
	validateURLFn func(rawURL string) error
}

var _ security.MediaGuardService = (*mockGuard)(nil)

func (m *mockGuard) NewSafeClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (m *mockGuard) ValidateURL(rawURL string) error {
	if m.validateURLFn != nil {
		return m.validateURLFn(rawURL)
	}
	return nil
}

func newTestService(t *testing.T, guard *mockGuard, maxSize int64) *Service {
	t.Helper()
	return NewService(guard, t.TempDir(), maxSize, 5*time.Second)
}

func TestImport_SavesImage(t *testing.T) {
	payload := []byte("fake-png-bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer server.Close()

	svc := newTestService(t, &mockGuard{}, 1024)

	result, err := svc.Import(context.Background(), server.URL+"/cat.png")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if !strings.HasSuffix(result.Filename, ".png") {
		t.Errorf("expected .png filename, got %s", result.Filename)
	}
	if result.URL != "/uploads/"+result.Filename {
		t.Errorf("unexpected URL: %s", result.URL)
	}
	if result.ContentType != "image/png" {
		t.Errorf("expected image/png, got %s", result.ContentType)
	}
	if result.Size != int64(len(payload)) {
		t.Errorf("expected size %d, got %d", len(payload), result.Size)
	}

	saved, err := os.ReadFile(filepath.Join(svc.uploadDir, result.Filename))
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}
	if string(saved) != string(payload) {
		t.Error("saved file content does not match response body")
	}
}

func TestImport_ContentTypeWithCharset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg; charset=utf-8")
		w.Write([]byte("jpg"))
	}))
	defer server.Close()

	svc := newTestService(t, &mockGuard{}, 1024)

	result, err := svc.Import(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.ContentType != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.ContentType)
	}
}

func TestImport_RejectsNonImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	svc := newTestService(t, &mockGuard{}, 1024)

	_, err := svc.Import(context.Background(), server.URL)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidMediaURL {
		t.Errorf("expected INVALID_MEDIA_URL, got %v", err)
	}
}

func TestImport_RejectsOversizedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(make([]byte, 100))
	}))
	defer server.Close()

	svc := newTestService(t, &mockGuard{}, 10)

	_, err := svc.Import(context.Background(), server.URL)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Errorf("expected VALIDATION_FAILED, got %v", err)
	}

	// 上限超過で書きかけのファイルが残らないこと
	entries, readErr := os.ReadDir(svc.uploadDir)
	if readErr != nil {
		t.Fatalf("failed to read upload dir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Errorf("expected no files in upload dir, found %d", len(entries))
	}
}

func TestImport_BlockedURL(t *testing.T) {
	guard := &mockGuard{
		validateURLFn: func(rawURL string) error {
			return security.ErrBlockedURL
		},
	}
	svc := newTestService(t, guard, 1024)

	_, err := svc.Import(context.Background(), "http://169.254.169.254/latest/meta-data")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeMediaBlocked {
		t.Errorf("expected MEDIA_URL_BLOCKED, got %v", err)
	}
}

func TestImport_InvalidURL(t *testing.T) {
	guard := &mockGuard{
		validateURLFn: func(rawURL string) error {
			return errors.New("disallowed scheme: ftp")
		},
	}
	svc := newTestService(t, guard, 1024)

	_, err := svc.Import(context.Background(), "ftp://example.com/file.png")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidMediaURL {
		t.Errorf("expected INVALID_MEDIA_URL, got %v", err)
	}
}

func TestImport_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	svc := newTestService(t, &mockGuard{}, 1024)

	_, err := svc.Import(context.Background(), server.URL)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidMediaURL {
		t.Errorf("expected INVALID_MEDIA_URL, got %v", err)
	}
}
