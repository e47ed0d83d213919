package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/socialdesk/internal/metrics"
	"github.com/hitoshi/socialdesk/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 可観測性
	Collector      metrics.MetricsCollector
	MetricsHandler http.Handler
	HealthChecker  HealthChecker

	// 認証・連携
	AuthService       AuthServiceInterface
	AuthConfig        AuthHandlerConfig
	ConnectionService ConnectionServiceInterface
	FrontendURL       string

	// ドメインサービス
	PostService            PostServiceInterface
	CampaignService        CampaignServiceInterface
	ProfileService         ProfileServiceInterface
	AnalyticsService       AnalyticsServiceInterface
	MediaService           MediaServiceInterface
	BusinessProfileService BusinessProfileServiceInterface
	AIContentService       AIContentServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → CORS → SecurityHeaders →（保護ルートのみ）Auth → RateLimit(General)
//
// 認証フロー（/auth/register 等）と連携コールバックはトークンなしでアクセスされるため
// 認証ミドルウェアの外に配置し、ブルートフォース対策として認証用レート制限を適用する。
// /auth 配下は公開ルートと保護ルートが混在するためRoute()でのサブルーターマウントは使わず、
// フルパスで個別に登録する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewMetricsMiddleware(deps.Collector))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, deps.Collector)
	connHandler := NewConnectionHandler(deps.ConnectionService, deps.FrontendURL, deps.Collector)
	postHandler := NewPostHandler(deps.PostService)
	campaignHandler := NewCampaignHandler(deps.CampaignService)
	userHandler := NewUserHandler(deps.ProfileService)
	analyticsHandler := NewAnalyticsHandler(deps.AnalyticsService)
	mediaHandler := NewMediaHandler(deps.MediaService)
	businessProfileHandler := NewBusinessProfileHandler(deps.BusinessProfileService)
	aiHandler := NewAIContentHandler(deps.AIContentService)
	healthHandler := NewHealthHandler(deps.HealthChecker)

	// --- 認証不要のルート ---

	r.Get("/healthz", healthHandler.Healthz)
	r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)

	// パスワード認証（IP単位のレート制限付き）
	r.With(deps.RateLimiter.AuthMiddleware()).Post("/auth/register", authHandler.Register)
	r.With(deps.RateLimiter.AuthMiddleware()).Post("/auth/login", authHandler.Login)
	r.Get("/auth/verify", authHandler.Verify)

	// Google OAuthログインフロー
	r.Get("/auth/google", authHandler.GoogleLogin)
	r.Get("/auth/google/callback", authHandler.GoogleCallback)

	// SNS連携コールバック（ユーザーはstateノンスから復元される）
	r.Get("/auth/{platform}/callback", connHandler.Callback)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// SNS連携管理
		r.Get("/auth/{platform}", connHandler.Connect)
		r.Get("/auth/{platform}/status", connHandler.Status)
		r.Get("/auth/{platform}/details", connHandler.Details)
		r.Delete("/auth/{platform}/disconnect", connHandler.Disconnect)

		// 投稿管理
		r.Route("/api/posts", func(r chi.Router) {
			r.Post("/", postHandler.Create)
			r.Get("/", postHandler.List)
			r.Get("/upcoming", postHandler.Upcoming)
			r.Post("/bulk-delete", postHandler.BulkDelete)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", postHandler.Get)
				r.Patch("/", postHandler.Update)
				r.Patch("/reschedule", postHandler.Reschedule)
				r.Delete("/", postHandler.Delete)
			})
		})

		// キャンペーン管理
		r.Route("/api/campaigns", func(r chi.Router) {
			r.Post("/", campaignHandler.Create)
			r.Get("/", campaignHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", campaignHandler.Get)
				r.Patch("/", campaignHandler.Update)
				r.Delete("/", campaignHandler.Delete)
				r.Post("/posts", campaignHandler.AddPosts)
				r.Get("/posts", campaignHandler.ListPosts)
			})
		})

		// プロフィール
		r.Route("/api/user", func(r chi.Router) {
			r.Get("/me", userHandler.Me)
			r.Patch("/me", userHandler.UpdateMe)
		})

		// 分析
		r.Get("/api/analytics", analyticsHandler.Report)

		// メディア取り込み
		r.Post("/api/media/import", mediaHandler.Import)

		// 事業者プロフィール（ユーザーごとに1件）
		r.Route("/api/business-profile", func(r chi.Router) {
			r.Post("/", businessProfileHandler.Create)
			r.Get("/", businessProfileHandler.Get)
			r.Patch("/", businessProfileHandler.Update)
			r.Delete("/", businessProfileHandler.Delete)
		})

		// AIコンテンツ生成
		r.Route("/api/ai", func(r chi.Router) {
			r.Post("/instagram", aiHandler.GenerateContent)
			r.Post("/variations", aiHandler.GenerateVariations)
			r.Post("/hashtags", aiHandler.SuggestHashtags)
		})
	})

	return r
}
