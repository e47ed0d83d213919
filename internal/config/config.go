// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ProviderCredentials はOAuthプロバイダー1つ分のクライアント認証情報。
type ProviderCredentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// OAuth（ログインIdP + コンテンツプラットフォーム連携）
	Google    ProviderCredentials
	Facebook  ProviderCredentials
	Instagram ProviderCredentials
	LinkedIn  ProviderCredentials

	// Session token
	JWTSecret   string
	TokenMaxAge time.Duration // セッショントークンの有効期間
	StateMaxAge time.Duration // OAuth stateノンスの有効期間

	// Provider HTTP
	ProviderTimeout time.Duration

	// Rate Limit（req/min/user）
	RateLimitGeneral int
	RateLimitAuth    int

	// Media import
	UploadDir     string
	MaxImportSize int64

	// AI（OpenAIAPIKey未設定の場合コンテンツ生成APIは503を返す）
	OpenAIAPIKey string
	OpenAIModel  string

	// Mail（SMTPHost未設定の場合メール送信は無効）
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	MailFrom string

	// Server
	ServerPort  string
	BaseURL     string
	FrontendURL string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリにconfig.envが存在する場合は先に読み込む（起動用の
// ローカル設定ファイル。本番では環境変数を直接設定する想定）。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	// config.envが無いのは通常のケースなのでエラーは無視する
	_ = godotenv.Load("config.env")

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	cfg.FrontendURL = os.Getenv("FRONTEND_URL")
	if cfg.FrontendURL == "" {
		missing = append(missing, "FRONTEND_URL")
	}

	cfg.Google = ProviderCredentials{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
	}
	if cfg.Google.ClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if cfg.Google.ClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}
	if cfg.Google.RedirectURL == "" {
		missing = append(missing, "GOOGLE_REDIRECT_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// コンテンツプラットフォームの認証情報は任意。
	// 未設定のプラットフォームへの連携開始リクエストはプロバイダー側で失敗する。
	cfg.Facebook = ProviderCredentials{
		ClientID:     os.Getenv("FACEBOOK_APP_ID"),
		ClientSecret: os.Getenv("FACEBOOK_APP_SECRET"),
		RedirectURL:  os.Getenv("FACEBOOK_REDIRECT_URL"),
	}
	cfg.Instagram = ProviderCredentials{
		ClientID:     os.Getenv("INSTAGRAM_APP_ID"),
		ClientSecret: os.Getenv("INSTAGRAM_APP_SECRET"),
		RedirectURL:  os.Getenv("INSTAGRAM_REDIRECT_URL"),
	}
	cfg.LinkedIn = ProviderCredentials{
		ClientID:     os.Getenv("LINKEDIN_CLIENT_ID"),
		ClientSecret: os.Getenv("LINKEDIN_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("LINKEDIN_REDIRECT_URL"),
	}

	// Optional fields with defaults
	cfg.TokenMaxAge = getEnvDuration("TOKEN_MAX_AGE", 24*time.Hour)
	cfg.StateMaxAge = getEnvDuration("STATE_MAX_AGE", 10*time.Minute)
	cfg.ProviderTimeout = getEnvDuration("PROVIDER_TIMEOUT", 10*time.Second)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitAuth = getEnvInt("RATE_LIMIT_AUTH", 10)
	cfg.UploadDir = getEnvString("UPLOAD_DIR", "./uploads")
	cfg.MaxImportSize = getEnvInt64("MAX_IMPORT_SIZE", 10485760)
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIModel = os.Getenv("OPENAI_MODEL")
	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.SMTPPort = getEnvString("SMTP_PORT", "587")
	cfg.SMTPUser = os.Getenv("SMTP_USER")
	cfg.SMTPPass = os.Getenv("SMTP_PASS")
	cfg.MailFrom = getEnvString("MAIL_FROM", "no-reply@localhost")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// MailEnabled はSMTP設定が揃っておりメール送信が有効かを返す。
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// SMTPAddr はSMTPサーバーの接続先アドレスを返す。
func (c *Config) SMTPAddr() string {
	return c.SMTPHost + ":" + c.SMTPPort
}

// IsSecureBase はBaseURLがhttpsかを返す。
func (c *Config) IsSecureBase() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
