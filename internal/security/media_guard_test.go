package security

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestNewMediaGuard はMediaGuardの生成をテストする。
func TestNewMediaGuard(t *testing.T) {
	guard := NewMediaGuard()
	if guard == nil {
		t.Fatal("NewMediaGuard() returned nil")
	}
}

// TestNewSafeClient はSSRF防止付きHTTPクライアントの生成をテストする。
func TestNewSafeClient(t *testing.T) {
	guard := NewMediaGuard()
	client := guard.NewSafeClient(10 * time.Second)
	if client == nil {
		t.Fatal("NewSafeClient() returned nil")
	}
}

// TestNewSafeClientTimeout はタイムアウト設定が反映されることをテストする。
func TestNewSafeClientTimeout(t *testing.T) {
	guard := NewMediaGuard()
	timeout := 5 * time.Second
	client := guard.NewSafeClient(timeout)
	if client.Timeout != timeout {
		t.Errorf("expected timeout %v, got %v", timeout, client.Timeout)
	}
}

// TestNewSafeClientBlocksLoopback はSafeClientがループバックへのリクエストをブロックすることをテストする。
// httptestサーバーは127.0.0.1で起動されるため、safeurlがブロックする。
func TestNewSafeClientBlocksLoopback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	guard := NewMediaGuard()
	client := guard.NewSafeClient(5 * time.Second)

	_, err := client.Get(ts.URL)
	if err == nil {
		t.Fatal("expected error for loopback address request, got nil")
	}
}

// TestValidateURL_PublicURL は公開メディアURLの検証が成功することをテストする。
func TestValidateURL_PublicURL(t *testing.T) {
	guard := NewMediaGuard()

	publicURLs := []string{
		"https://cdn.example.com/images/summer-sale.jpg",
		"https://media.example.org/video.mp4",
		"http://assets.example.net/banner.png",
	}

	for _, u := range publicURLs {
		t.Run(u, func(t *testing.T) {
			err := guard.ValidateURL(u)
			if err != nil {
				t.Errorf("ValidateURL(%q) returned error: %v", u, err)
			}
		})
	}
}

// TestValidateURL_PrivateIP はプライベートIPアドレスの拒否をテストする。
func TestValidateURL_PrivateIP(t *testing.T) {
	guard := NewMediaGuard()

	privateURLs := []string{
		"http://10.0.0.1/image.jpg",
		"http://172.16.0.1/image.jpg",
		"http://192.168.1.100/image.jpg",
	}

	for _, u := range privateURLs {
		t.Run(u, func(t *testing.T) {
			err := guard.ValidateURL(u)
			if err == nil {
				t.Errorf("ValidateURL(%q) should have returned error for private IP", u)
			}
		})
	}
}

// TestValidateURL_LoopbackAddress はループバックアドレスの拒否をテストする。
func TestValidateURL_LoopbackAddress(t *testing.T) {
	guard := NewMediaGuard()

	loopbackURLs := []string{
		"http://127.0.0.1/image.jpg",
		"http://localhost/image.jpg",
	}

	for _, u := range loopbackURLs {
		t.Run(u, func(t *testing.T) {
			err := guard.ValidateURL(u)
			if err == nil {
				t.Errorf("ValidateURL(%q) should have returned error for loopback address", u)
			}
		})
	}
}

// TestValidateURL_MetadataIP はクラウドメタデータIPアドレスの拒否をテストする。
func TestValidateURL_MetadataIP(t *testing.T) {
	guard := NewMediaGuard()

	err := guard.ValidateURL("http://169.254.169.254/latest/meta-data/")
	if err == nil {
		t.Error("expected error for metadata IP")
	}
	if !errors.Is(err, ErrBlockedURL) {
		t.Errorf("expected ErrBlockedURL, got %v", err)
	}
}

// TestValidateURL_InvalidURL は無効なURLの検証が失敗することをテストする。
func TestValidateURL_InvalidURL(t *testing.T) {
	guard := NewMediaGuard()

	invalidURLs := []string{
		"",
		"not-a-url",
		"ftp://example.com/image.jpg",
		"file:///etc/passwd",
		"javascript:alert(1)",
	}

	for _, u := range invalidURLs {
		t.Run(u, func(t *testing.T) {
			err := guard.ValidateURL(u)
			if err == nil {
				t.Errorf("ValidateURL(%q) should have returned error for invalid URL", u)
			}
		})
	}
}

// TestValidateURL_IPv6Loopback はIPv6ループバックアドレスの拒否をテストする。
func TestValidateURL_IPv6Loopback(t *testing.T) {
	guard := NewMediaGuard()

	err := guard.ValidateURL("http://[::1]/image.jpg")
	if err == nil {
		t.Error("expected error for IPv6 loopback")
	}
}

// TestMediaGuardInterface はMediaGuardがインターフェースを正しく実装していることをテストする。
func TestMediaGuardInterface(t *testing.T) {
	var _ MediaGuardService = NewMediaGuard()
}
