package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/socialdesk/internal/aicontent"
	"github.com/hitoshi/socialdesk/internal/analytics"
	"github.com/hitoshi/socialdesk/internal/auth"
	"github.com/hitoshi/socialdesk/internal/businessprofile"
	"github.com/hitoshi/socialdesk/internal/campaign"
	"github.com/hitoshi/socialdesk/internal/config"
	"github.com/hitoshi/socialdesk/internal/connection"
	"github.com/hitoshi/socialdesk/internal/database"
	"github.com/hitoshi/socialdesk/internal/handler"
	"github.com/hitoshi/socialdesk/internal/logger"
	"github.com/hitoshi/socialdesk/internal/mailer"
	"github.com/hitoshi/socialdesk/internal/media"
	"github.com/hitoshi/socialdesk/internal/metrics"
	"github.com/hitoshi/socialdesk/internal/middleware"
	"github.com/hitoshi/socialdesk/internal/model"
	"github.com/hitoshi/socialdesk/internal/post"
	"github.com/hitoshi/socialdesk/internal/profile"
	"github.com/hitoshi/socialdesk/internal/repository"
	"github.com/hitoshi/socialdesk/internal/security"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	connRepo := repository.NewPostgresConnectionRepo(db)
	postRepo := repository.NewPostgresPostRepo(db)
	campaignRepo := repository.NewPostgresCampaignRepo(db)
	businessProfileRepo := repository.NewPostgresBusinessProfileRepo(db)

	// 3. セキュリティ・トークン基盤の初期化
	sanitizer := security.NewContentSanitizer()
	mediaGuard := security.NewMediaGuard()
	states := auth.NewStateManager(cfg.JWTSecret, cfg.StateMaxAge)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenMaxAge)
	tokenCache := auth.NewTokenCache(cfg.TokenMaxAge)

	// 4. OAuthプロバイダーの初期化
	providerClient := &http.Client{Timeout: cfg.ProviderTimeout}

	googleProvider := auth.NewGoogleOAuthProvider(auth.GoogleOAuthConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		HTTPClient:   providerClient,
	})

	// 認証情報が設定されたプラットフォームのみ連携対象として登録する
	providers := map[model.Platform]auth.OAuthProvider{}
	if cfg.Instagram.ClientID != "" {
		providers[model.PlatformInstagram] = auth.NewInstagramOAuthProvider(auth.GraphOAuthConfig{
			ClientID:     cfg.Instagram.ClientID,
			ClientSecret: cfg.Instagram.ClientSecret,
			RedirectURL:  cfg.Instagram.RedirectURL,
			HTTPClient:   providerClient,
		})
	}
	if cfg.Facebook.ClientID != "" {
		providers[model.PlatformFacebook] = auth.NewFacebookOAuthProvider(auth.GraphOAuthConfig{
			ClientID:     cfg.Facebook.ClientID,
			ClientSecret: cfg.Facebook.ClientSecret,
			RedirectURL:  cfg.Facebook.RedirectURL,
			HTTPClient:   providerClient,
		})
	}
	if cfg.LinkedIn.ClientID != "" {
		providers[model.PlatformLinkedIn] = auth.NewLinkedInOAuthProvider(auth.LinkedInOAuthConfig{
			ClientID:     cfg.LinkedIn.ClientID,
			ClientSecret: cfg.LinkedIn.ClientSecret,
			RedirectURL:  cfg.LinkedIn.RedirectURL,
			HTTPClient:   providerClient,
		})
	}
	slog.Info("oauth providers configured", slog.Int("platform_count", len(providers)))

	// 5. メーラーの初期化（SMTP未設定の場合はスキップ）
	var welcomeMailer auth.WelcomeMailer
	if cfg.MailEnabled() {
		port, err := strconv.Atoi(cfg.SMTPPort)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT: %w", err)
		}
		welcomeMailer = mailer.NewSMTPMailer(mailer.Config{
			Host:     cfg.SMTPHost,
			Port:     port,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.MailFrom,
		})
		slog.Info("welcome mail enabled", slog.String("smtp_addr", cfg.SMTPAddr()))
	}

	// 6. ドメインサービスの初期化
	authService := auth.NewService(googleProvider, userRepo, states, issuer, tokenCache, welcomeMailer)
	connService := connection.NewService(providers, connRepo, states)
	postService := post.NewService(postRepo, sanitizer, mediaGuard)
	campaignService := campaign.NewService(campaignRepo, postRepo, sanitizer)
	profileService := profile.NewService(userRepo)
	analyticsService := analytics.NewService(postRepo)
	mediaService := media.NewService(mediaGuard, cfg.UploadDir, cfg.MaxImportSize, cfg.ProviderTimeout)
	businessProfileService := businessprofile.NewService(businessProfileRepo, sanitizer, mediaGuard)
	aiClient := aicontent.NewOpenAIClient(aicontent.OpenAIConfig{
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.OpenAIModel,
		HTTPClient: providerClient,
	})
	aiService := aicontent.NewService(aiClient)

	// 7. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 8. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	// configのレート値はreq/min単位なのでreq/secに変換する
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.AuthRate = rate.Limit(float64(cfg.RateLimitAuth) / 60.0)
	rateLimiterCfg.AuthBurst = cfg.RateLimitAuth
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)

	deps := &handler.RouterDeps{
		TokenVerifier:     authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),

		Collector:      collector,
		MetricsHandler: metrics.Handler(registry),
		HealthChecker:  db,

		AuthService:       authService,
		AuthConfig:        handler.AuthHandlerConfig{FrontendURL: cfg.FrontendURL},
		ConnectionService: connService,
		FrontendURL:       cfg.FrontendURL,

		PostService:            postService,
		CampaignService:        campaignService,
		ProfileService:         profileService,
		AnalyticsService:       analyticsService,
		MediaService:           mediaService,
		BusinessProfileService: businessProfileService,
		AIContentService:       aiService,
	}

	router := handler.NewRouter(deps)

	// 9. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	rateLimiter.Stop()
	states.Stop()
	tokenCache.Stop()

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
