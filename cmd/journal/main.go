package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"tradejournal/internal/auth"
	"tradejournal/internal/changefeed"
	"tradejournal/internal/config"
	cronrunner "tradejournal/internal/cron"
	"tradejournal/internal/db"
	"tradejournal/internal/handler"
	"tradejournal/internal/logger"
	gormrepository "tradejournal/internal/repository/gorm"
	"tradejournal/internal/service"
	"tradejournal/internal/stats"
	"tradejournal/internal/storage"
	"tradejournal/internal/vision"

	_ "tradejournal/docs"
)

func main() {
	cfgPath := os.Getenv("TJ_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("TJ_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	decimal.MarshalJSONWithoutQuotes = true

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	settingsSvc := &service.SystemSettingsService{Repo: store}
	if err := settingsSvc.EnsureDefaultSwitches(context.Background()); err != nil {
		logger.Warn("init default system switches failed", zap.Error(err))
	}

	rdb := openRedis(cfg.Redis, logger)
	if rdb != nil {
		defer rdb.Close()
	}

	var dedup stats.Deduper
	if rdb != nil {
		dedup = &changefeed.RedisDeduper{Client: rdb, TTL: cfg.ChangeFeed.DedupTTL}
	}
	processor := &stats.ChangeProcessor{
		Trades:   store,
		Stats:    store,
		Dedup:    dedup,
		Flags:    settingsSvc,
		Logger:   logger.Named("stats"),
		PageSize: cfg.Stats.PageSize,
	}
	rebuilder := &stats.PeriodicRebuilder{
		Trades:   store,
		Stats:    store,
		Flags:    settingsSvc,
		Logger:   logger.Named("rebuild"),
		PageSize: cfg.Stats.ScanPageSize,
	}

	images, err := storage.New(cfg.Storage, nil)
	if err != nil {
		logger.Fatal("image storage init failed", zap.Error(err))
	}
	if !images.Enabled() {
		logger.Warn("image storage disabled: storage.bucket is empty")
	}
	visionClient := vision.New(cfg.Vision)

	tradeSvc := &service.TradeService{
		Repo:          store,
		Images:        images,
		Logger:        logger.Named("trades"),
		MaxBulk:       cfg.Trades.MaxBulk,
		MaxBulkDelete: cfg.Trades.MaxBulkDelete,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(handler.CORS())
	engine.Use(handler.RequestLogger(logger))

	healthHandler := &handler.HealthHandler{DB: store}
	healthHandler.Register(engine)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if cfg.Auth.Disabled {
		logger.Warn("auth disabled: user taken from " + auth.DevUserHeader)
	}
	verifier := auth.Verifier{Secret: []byte(cfg.Auth.JWTSecret), Issuer: cfg.Auth.Issuer}
	api := engine.Group("/api/v1", auth.Middleware(verifier, cfg.Auth.Disabled))

	tradesHandler := &handler.TradesHandler{
		Trades: tradeSvc,
		Extract: &service.ExtractService{
			Extractor:      visionClient,
			MaxImageBase64: cfg.Vision.MaxImageBase64,
			Logger:         logger.Named("extract"),
		},
		Images: images,
	}
	tradesHandler.Register(api)
	statsHandler := &handler.StatsHandler{Stats: &service.StatsService{Stats: store, Rebuilder: processor}}
	statsHandler.Register(api)
	accountsHandler := &handler.AccountsHandler{Accounts: &service.AccountService{Repo: store}}
	accountsHandler.Register(api)
	goalsHandler := &handler.GoalsHandler{Goals: &service.GoalService{Repo: store}}
	goalsHandler.Register(api)
	rulesHandler := &handler.RulesHandler{Rules: &service.RuleService{Repo: store}}
	rulesHandler.Register(api)
	uploadsHandler := &handler.UploadsHandler{Uploads: &service.UploadService{Trades: store, Images: images}}
	uploadsHandler.Register(api)
	switchesHandler := &handler.SwitchesHandler{Settings: settingsSvc}
	switchesHandler.Register(api)
	analyticsHandler := &handler.AnalyticsHandler{Analytics: &service.AnalyticsService{Trades: store}}
	analyticsHandler.Register(api)
	planHandler := &handler.PlanHandler{Plan: &service.PlanService{Rules: store, Goals: store}}
	planHandler.Register(api)
	profileHandler := &handler.ProfileHandler{Profiles: &service.ProfileService{Repo: store}}
	profileHandler.Register(api)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.Add("stats-rebuild", cfg.Cron.StatsRebuild, func(ctx context.Context) error {
			_, err := rebuilder.RunOnce(ctx)
			return err
		})
		if err != nil {
			logger.Warn("cron register stats rebuild failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	if cfg.ChangeFeed.Enabled {
		startChangeFeed(ctx, cfg.ChangeFeed, store, rdb, processor, logger)
	}

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown failed", zap.Error(err))
	}
}

func openRedis(cfg config.RedisConfig, logger *zap.Logger) *redis.Client {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, continuing without it", zap.String("addr", cfg.Addr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}

// startChangeFeed runs the outbox relay and, in redis mode, the stream consumer.
// Without redis the relay hands records straight to the processor.
func startChangeFeed(ctx context.Context, cfg config.ChangeFeedConfig, store *gormrepository.Store, rdb *redis.Client, processor *stats.ChangeProcessor, logger *zap.Logger) {
	feedLogger := logger.Named("changefeed")
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "redis" && rdb == nil {
		feedLogger.Warn("changefeed mode redis without a redis client, falling back to direct")
		mode = "direct"
	}

	var publisher changefeed.Publisher = &changefeed.DirectPublisher{Handler: processor}
	if mode == "redis" {
		publisher = &changefeed.RedisPublisher{
			Client: rdb,
			Stream: cfg.Stream,
			MaxLen: cfg.MaxLen,
			Logger: feedLogger,
		}
		consumer := &changefeed.RedisConsumer{
			Client:       rdb,
			Stream:       cfg.Stream,
			Group:        cfg.Group,
			Consumer:     cfg.Consumer,
			BatchSize:    cfg.BatchSize,
			Block:        cfg.Block,
			ClaimMinIdle: cfg.ClaimMinIdle,
			Handler:      processor,
			Logger:       feedLogger,
		}
		go func() {
			if err := consumer.EnsureGroup(ctx); err != nil {
				feedLogger.Error("create consumer group failed", zap.Error(err))
				return
			}
			err := consumer.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				feedLogger.Warn("change consumer stopped", zap.Error(err))
			}
		}()
	}

	relay := &changefeed.Relay{
		Changes:     store,
		Publisher:   publisher,
		BatchSize:   cfg.RelayBatch,
		MaxAttempts: cfg.MaxAttempts,
		Logger:      feedLogger,
	}
	go func() {
		err := relay.Run(ctx, cfg.RelayInterval)
		if err != nil && !errors.Is(err, context.Canceled) {
			feedLogger.Warn("change relay stopped", zap.Error(err))
		}
	}()
	feedLogger.Info("change feed started", zap.String("mode", mode))
}
