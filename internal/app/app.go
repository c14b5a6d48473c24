// Package app はnewsportalバイナリのエントリーポイントを提供する。
// サーバー用のサブコマンド（serve, migrate, cleanup, healthcheck）を処理し、それ以外はCLIに渡す。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/newsportal/internal/cli"
	"github.com/hitoshi/newsportal/internal/config"
	"github.com/hitoshi/newsportal/internal/database"
	"github.com/hitoshi/newsportal/internal/handler"
	"github.com/hitoshi/newsportal/internal/logger"
	"github.com/hitoshi/newsportal/internal/metrics"
	"github.com/hitoshi/newsportal/internal/middleware"
	"github.com/hitoshi/newsportal/internal/portal"
	"github.com/hitoshi/newsportal/internal/repository"
	"github.com/hitoshi/newsportal/internal/session"
	"github.com/hitoshi/newsportal/internal/worker/cleanup"
)

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、LOG_LEVELに従ったJSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, *slog.Logger, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel)), nil
}

// Run はアプリケーションのメインエントリーポイント。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	switch cmd {
	case CommandCLI:
		env := cli.DefaultEnv()
		env.Out = w
		return cli.Execute(env, args)
	case CommandHealthcheck:
		// 軽量サブコマンドのため、フル初期化をスキップする
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(fmt.Sprintf("http://localhost:%s/health", port))
	}

	cfg, log, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	log.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("backend", cfg.BackendBaseURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandServe:
		return runServe(ctx, cfg, log)
	case CommandMigrate:
		action, ok := ParseMigrateAction(args)
		if !ok {
			return fmt.Errorf("unknown migrate action %q (want up, down or version)", args[1])
		}
		return runMigrate(cfg, action, log)
	case CommandCleanup:
		return runCleanup(ctx, cfg, log)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// openStores はDATABASE_URLが設定されていればPostgreSQL、なければインメモリのストアを返す。
// PostgreSQLの場合は返された*sql.DBを呼び出し元が閉じる。
func openStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (portal.Stores, *sql.DB, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL is not set; sessions and preferences are kept in memory")
		return portal.Stores{
			Sessions:    repository.NewMemorySessionRepo(),
			Preferences: repository.NewMemoryPreferenceRepo(),
		}, nil, nil
	}

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return portal.Stores{}, nil, err
	}
	log.Info("database connection established")

	return portal.Stores{
		Sessions:    repository.NewPostgresSessionRepo(db),
		Preferences: repository.NewPostgresPreferenceRepo(db),
	}, db, nil
}

// runServe はポータルゲートウェイを起動する。
// 全依存関係をワイヤリングし、ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// 1. ストア
	stores, db, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	// 2. メトリクスとサービス
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	svc := portal.NewServices(cfg, stores, collector, log)

	// 3. 期限切れセッションの削除ジョブ
	job := cleanup.NewCleanupJob(svc.Sessions, collector, log)
	go job.Start(ctx)

	// 4. ルーター
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitEngagement), log,
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger:        log,
		SessionFinder: svc.Sessions,
		Cookies: middleware.CookieConfig{
			Secure: cfg.CookieSecure,
			Domain: cfg.CookieDomain,
			MaxAge: cfg.SessionMaxAge,
		},
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		MetricsHandler:    metrics.Handler(registry),

		Sessions:  svc.Sessions,
		News:      svc.News,
		Likes:     svc.Likes,
		Comments:  svc.Comments,
		Themes:    svc.Themes,
		Dashboard: svc.Dashboard,
	}
	if db != nil {
		deps.HealthChecker = db
	}

	// 5. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handler.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("portal gateway starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down portal gateway...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("portal gateway stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
func runMigrate(cfg *config.Config, action MigrateAction, log *slog.Logger) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for migrate")
	}
	log.Info("running database migrations",
		slog.String("action", string(action)),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	switch action {
	case MigrateDown:
		if err := database.RollbackMigration(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration rollback failed: %w", err)
		}
	case MigrateVersion:
		version, dirty, err := database.MigrationVersion(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		log.Info("database migration version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
		return nil
	default:
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	log.Info("database migrations completed successfully")
	return nil
}

// runCleanup は期限切れセッションの削除を1回実行する。cron等からの実行を想定する。
func runCleanup(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for cleanup")
	}
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	// 削除のみのため認証APIは使わない
	manager := session.NewManager(nil, repository.NewPostgresSessionRepo(db), session.ManagerConfig{
		MaxAge: cfg.SessionMaxAge,
	}, log)
	return cleanup.NewCleanupJob(manager, nil, log).Run(ctx)
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
func runHealthcheck(url string) error {
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
