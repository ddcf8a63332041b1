package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/portfoliopro/portfoliopro/internal/asset"
	"github.com/portfoliopro/portfoliopro/internal/auth"
	"github.com/portfoliopro/portfoliopro/internal/config"
	"github.com/portfoliopro/portfoliopro/internal/contact"
	"github.com/portfoliopro/portfoliopro/internal/dashboard"
	"github.com/portfoliopro/portfoliopro/internal/database"
	"github.com/portfoliopro/portfoliopro/internal/handler"
	"github.com/portfoliopro/portfoliopro/internal/logger"
	"github.com/portfoliopro/portfoliopro/internal/metrics"
	"github.com/portfoliopro/portfoliopro/internal/middleware"
	"github.com/portfoliopro/portfoliopro/internal/project"
	"github.com/portfoliopro/portfoliopro/internal/repository"
	"github.com/portfoliopro/portfoliopro/internal/security"
	"github.com/portfoliopro/portfoliopro/internal/site"
	"github.com/portfoliopro/portfoliopro/internal/storage"
	"github.com/portfoliopro/portfoliopro/internal/user"
	"github.com/portfoliopro/portfoliopro/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、LOG_LEVELに従ってJSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再セットアップ
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		slog.Warn("invalid LOG_LEVEL, falling back to info",
			slog.String("log_level", cfg.LogLevel),
		)
	}
	logger.SetupDefault(w, level)

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
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandCleanup:
		return runCleanup(cfg)
	default:
		return runServe(cfg)
	}
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.Ping(context.Background(), db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connection established")
	return db, nil
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	siteRepo := repository.NewPostgresSiteRepo(db)
	projectRepo := repository.NewPostgresProjectRepo(db)
	assetRepo := repository.NewPostgresAssetRepo(db)
	contactRepo := repository.NewPostgresContactRepo(db)

	// 3. 共通コンポーネントの初期化
	sanitizer := security.NewContentSanitizer()
	files := storage.NewStore(cfg.UploadDir, cfg.MaxUploadSize)
	if err := os.MkdirAll(files.Dir(), 0o755); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}
	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	// 4. ドメインサービスの初期化
	authService := auth.NewService(
		userRepo,
		auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry),
		cfg.BcryptCost,
	)
	userService := user.NewService(userRepo)
	siteService := site.NewService(siteRepo, userRepo, sanitizer, files, collector)
	projectService := project.NewService(projectRepo, siteRepo, files, collector)
	assetService := asset.NewService(assetRepo, projectRepo, siteRepo, files, collector)
	contactService := contact.NewService(contactRepo, siteRepo, sanitizer, collector)
	dashboardService := dashboard.NewService(siteRepo, projectRepo, assetRepo, contactRepo)

	// 5. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.PerMinuteRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitContact),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		TokenVerifier:     authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		HTTPRecorder:      collector,

		AuthService:      authService,
		UserService:      userService,
		SiteService:      siteService,
		ProjectService:   projectService,
		AssetService:     assetService,
		ContactService:   contactService,
		DashboardService: dashboardService,

		UploadDir:     files.Dir(),
		MaxUploadSize: files.MaxSize(),

		HealthChecker:  handler.NewDBHealthChecker(db),
		MetricsHandler: metrics.Handler(prometheus.DefaultGatherer),
	})

	// 6. 問い合わせクリーンアップを日次でバックグラウンド実行
	jobCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()
	cleanupJob := cleanup.NewCleanupJob(contactRepo, slog.Default())
	cleanupJob.RetentionDays = cfg.ContactRetentionDays
	go cleanupJob.Start(jobCtx, 24*time.Hour)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	latest, err := database.LatestVersion()
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		slog.Uint64("target_version", uint64(latest)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runCleanup は保持期間を超過した問い合わせを1回削除して終了する。
func runCleanup(cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	job := cleanup.NewCleanupJob(repository.NewPostgresContactRepo(db), slog.Default())
	job.RetentionDays = cfg.ContactRetentionDays

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	return job.Run(ctx)
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
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
