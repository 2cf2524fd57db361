package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"gift_with_purchase/config"
	"gift_with_purchase/events"
	"gift_with_purchase/handlers"
	"gift_with_purchase/metrics"
	"gift_with_purchase/models"
	"gift_with_purchase/services"
)

type publisher interface {
	services.GiftEventPublisher
	services.GiftRuleEventPublisher
	Close() error
}

type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	engine    *gin.Engine
	publisher publisher
	removals  *services.TTLStore
}

func newLogger(cfg config.Log) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

// openDatabase 依設定選擇資料庫並自動遷移資料表
func openDatabase(cfg config.Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := models.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func newApp(cfg *config.Config) (*App, error) {
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	var pub publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		pub = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.RuleTopic)
	}

	// 初始化服務層
	catalogService := services.NewCatalogService(db)
	giftRuleService := services.NewGiftRuleService(db)
	giftRuleService.SetPublisher(pub)
	cartService := services.NewCartService(db, catalogService, logger)

	evaluator := services.NewRuleEvaluator(time.Now)
	synchronizer := services.NewGiftSynchronizer(evaluator, catalogService, catalogService, logger)
	removals := services.NewTTLStore(cfg.Removal.TTL)
	tracker := services.NewRemovalTracker(removals)
	enforcer := services.NewPriceEnforcer(giftRuleService, logger)

	giftCartService := services.NewGiftCartService(giftRuleService, synchronizer, tracker, enforcer, cartService, services.GiftCartOptions{
		Publisher: pub,
		Metrics:   metrics.NewGiftMetrics(prometheus.DefaultRegisterer),
		Logger:    logger,
	})
	cartService.SetHooks(giftCartService)

	// 初始化路由
	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	handlers.RegisterRoutes(r,
		handlers.NewGiftRuleHandler(giftRuleService),
		handlers.NewCartHandler(cartService),
		[]byte(cfg.Auth.JWTSecret),
	)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &App{cfg: cfg, logger: logger, engine: r, publisher: pub, removals: removals}, nil
}

// Run 啟動 HTTP 服務，ctx 結束時優雅關閉
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPServer.Addr(),
		Handler:           a.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP 服務啟動", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.logger.Info("HTTP 服務關閉中")
	return srv.Shutdown(shutdownCtx)
}

func (a *App) Close() {
	a.removals.Close()
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("關閉事件發送器失敗", "error", err)
	}
}
