package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/portfoliopro/portfoliopro/internal/middleware"
	"github.com/portfoliopro/portfoliopro/internal/storage"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	HTTPRecorder      middleware.HTTPRecorder

	// 認証・ユーザー
	AuthService AuthServiceInterface
	UserService UserServiceInterface

	// ポートフォリオ
	SiteService    SiteServiceInterface
	ProjectService ProjectServiceInterface
	AssetService   AssetServiceInterface

	// 公開サイト・ダッシュボード
	ContactService   ContactServiceInterface
	DashboardService DashboardServiceInterface

	// アップロード
	UploadDir     string
	MaxUploadSize int64

	// 運用
	HealthChecker  HealthChecker
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → Recovery → Metrics → Logging → SecurityHeaders → CORS
//	  (認証が必要なルート) → Auth → RateLimit(General)
//	  (問い合わせ送信)     → RateLimit(Contact)
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// ContactMiddlewareのクライアントIP判定はRealIPで書き換えたRemoteAddrを使う
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewMetricsMiddleware(deps.HTTPRecorder))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware(storage.URLPrefix))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService)
	siteHandler := NewSiteHandler(deps.SiteService)
	projectHandler := NewProjectHandler(deps.ProjectService, deps.MaxUploadSize)
	assetHandler := NewAssetHandler(deps.AssetService, deps.MaxUploadSize)
	contactHandler := NewContactHandler(deps.ContactService)
	dashboardHandler := NewDashboardHandler(deps.DashboardService)

	// --- 認証不要のルート ---

	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	r.Handle(storage.URLPrefix+"*", uploadsFileServer(deps.UploadDir))

	r.Post("/api/auth/register", authHandler.Register)
	r.Post("/api/auth/login", authHandler.Login)
	r.Get("/api/users/{id}", userHandler.GetProfile)
	r.Get("/api/help/docs", ListDocs)
	r.With(deps.RateLimiter.ContactMiddleware()).Post("/api/contact/submit", contactHandler.Submit)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/auth/me", authHandler.Me)
		r.Put("/api/users/me", userHandler.UpdateMe)

		r.Route("/api/sites", func(r chi.Router) {
			r.Get("/", siteHandler.ListSites)
			r.Post("/", siteHandler.CreateSite)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", siteHandler.GetSite)
				r.Put("/", siteHandler.UpdateSite)
				r.Put("/publish", siteHandler.PublishSite)
				r.Post("/export", siteHandler.ExportSite)

				r.Route("/projects", func(r chi.Router) {
					r.Get("/", projectHandler.ListProjects)
					r.Post("/", projectHandler.CreateProject)
					r.Put("/{pid}", projectHandler.UpdateProject)
					r.Delete("/{pid}", projectHandler.DeleteProject)
					r.Post("/{pid}/images", projectHandler.UploadImage)
				})

				r.Route("/assets", func(r chi.Router) {
					r.Get("/", assetHandler.ListAssets)
					r.Post("/", assetHandler.CreateAsset)
					r.Put("/{aid}", assetHandler.UpdateAsset)
					r.Delete("/{aid}", assetHandler.DeleteAsset)
				})

				// hero, about, seo, theme
				r.Put("/{section}", siteHandler.UpdateSection)
			})
		})

		r.Route("/api/dashboard", func(r chi.Router) {
			r.Get("/projects", dashboardHandler.Projects)
			r.Get("/submissions", dashboardHandler.Submissions)
			r.Get("/preview", dashboardHandler.Preview)
			r.Get("/export", dashboardHandler.Exports)
		})
	})

	return r
}

// uploadsFileServer はアップロードディレクトリを読み取り専用で配信する。
// ディレクトリ一覧は返さない。
func uploadsFileServer(dir string) http.Handler {
	fs := http.StripPrefix(storage.URLPrefix, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}
