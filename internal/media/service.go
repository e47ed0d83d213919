// Package media は外部URLからのメディア取り込みを提供する。
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/socialdesk/internal/model"
	"github.com/hitoshi/socialdesk/internal/security"
)

// allowedContentTypes は取り込みを許可するContent-Typeと保存時の拡張子。
var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImportResult は取り込んだメディアの保存結果。
type ImportResult struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Service は外部URLからのメディア取り込みを提供する。
// 取得はSSRF防止機能付きHTTPクライアント経由でのみ行い、
// サイズ上限を超えるレスポンスは破棄する。
type Service struct {
	guard     security.MediaGuardService
	uploadDir string
	maxSize   int64
	timeout   time.Duration
}

// NewService はServiceを生成する。
func NewService(guard security.MediaGuardService, uploadDir string, maxSize int64, timeout time.Duration) *Service {
	return &Service{
		guard:     guard,
		uploadDir: uploadDir,
		maxSize:   maxSize,
		timeout:   timeout,
	}
}

// Import は外部URLからメディアを取得してアップロードディレクトリに保存する。
// URLは事前検証とDialerレベルの検証の二段階でチェックされる。
func (s *Service) Import(ctx context.Context, rawURL string) (*ImportResult, error) {
	if err := s.guard.ValidateURL(rawURL); err != nil {
		if errors.Is(err, security.ErrBlockedURL) {
			return nil, model.NewMediaBlockedError()
		}
		return nil, model.NewInvalidMediaURLError(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, model.NewInvalidMediaURLError(err.Error())
	}

	client := s.guard.NewSafeClient(s.timeout)
	resp, err := client.Do(req)
	if err != nil {
		// safeurlのDialer検証で弾かれた場合もここに来る
		return nil, model.NewMediaBlockedError()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, model.NewInvalidMediaURLError(fmt.Sprintf("取得先が %d を返しました", resp.StatusCode))
	}

	contentType := parseContentType(resp.Header.Get("Content-Type"))
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return nil, model.NewInvalidMediaURLError(fmt.Sprintf("対応していないContent-Typeです: %s", contentType))
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	filename := uuid.New().String() + ext
	path := filepath.Join(s.uploadDir, filename)

	size, err := s.saveBody(path, resp.Body)
	if err != nil {
		return nil, err
	}

	slog.Info("media imported",
		slog.String("filename", filename),
		slog.String("content_type", contentType),
		slog.Int64("size", size),
	)

	return &ImportResult{
		Filename:    filename,
		URL:         "/uploads/" + filename,
		ContentType: contentType,
		Size:        size,
	}, nil
}

// saveBody はレスポンスボディをサイズ上限付きでファイルに書き出す。
// 上限超過時はファイルを削除してエラーを返す。
func (s *Service) saveBody(path string, body io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	// 上限+1バイトまで読み、上限を超えたかを判定する
	size, err := io.Copy(f, io.LimitReader(body, s.maxSize+1))
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	if size > s.maxSize {
		os.Remove(path)
		return 0, model.NewValidationError(fmt.Sprintf("メディアサイズが上限（%dバイト）を超えています", s.maxSize))
	}

	return size, nil
}

func parseContentType(header string) string {
	if i := strings.IndexByte(header, ';'); i >= 0 {
		header = header[:i]
	}
	return strings.ToLower(strings.TrimSpace(header))
}
