// Package aicontent はOpenAI APIを使った投稿コンテンツの生成を提供する。
package aicontent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	defaultChatURL = "https://api.openai.com/v1/chat/completions"
	defaultModel   = "gpt-3.5-turbo"
)

// ErrNotConfigured はAPIキーが未設定のことを表す。
var ErrNotConfigured = errors.New("openai api key not configured")

// ErrQuotaExceeded はAPIの利用上限超過を表す。
var ErrQuotaExceeded = errors.New("openai quota exceeded")

// ChatCompleter はチャット補完の実行に必要なインターフェース。
type ChatCompleter interface {
	// Complete はsystem/userプロンプトを送信し、生成されたテキストを返す。
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
}

// OpenAIConfig はOpenAIクライアントの設定。
type OpenAIConfig struct {
	// APIKey が空の場合、生成リクエストはErrNotConfiguredで失敗する。
	APIKey string
	Model  string

	// テスト用にオーバーライド可能なURL
	ChatURL string

	// HTTPClient は省略時http.DefaultClientが使用される。
	HTTPClient *http.Client
}

// OpenAIClient はOpenAIのチャット補完APIクライアント。
type OpenAIClient struct {
	config OpenAIConfig
	client *http.Client
}

// NewOpenAIClient はOpenAIClientを生成する。
func NewOpenAIClient(config OpenAIConfig) *OpenAIClient {
	if config.ChatURL == "" {
		config.ChatURL = defaultChatURL
	}
	if config.Model == "" {
		config.Model = defaultModel
	}
	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenAIClient{config: config, client: client}
}

// chatMessage はチャット補完APIのメッセージ。
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest はチャット補完APIのリクエストボディ。
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

// chatResponse はチャット補完APIのレスポンスボディ。
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Complete はチャット補完を実行し、先頭choiceのテキストを返す。
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	if c.config.APIKey == "" {
		return "", ErrNotConfigured
	}

	reqBody, err := json.Marshal(chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.ChatURL, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read chat response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: %s", ErrQuotaExceeded, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completion failed with status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse chat response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// compile-time interface check
var _ ChatCompleter = (*OpenAIClient)(nil)
