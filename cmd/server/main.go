package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"case-server/internal/assets"
	"case-server/internal/config"
	apphttp "case-server/internal/http"
	"case-server/internal/repository/sqlite"
	"case-server/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.SessionSecret) == "" {
		logger.Fatalf("auth session secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	progressRepo := sqlite.NewProgressRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := progressRepo.Init(ctx); err != nil {
		logger.Fatalf("init progress repository: %v", err)
	}
	if err := sessionRepo.Init(ctx); err != nil {
		logger.Fatalf("init session repository: %v", err)
	}

	sessionTTL := time.Duration(cfg.Auth.SessionTTLMinutes) * time.Minute
	userService := service.NewUserService(userRepo)
	progressService := service.NewProgressService(progressRepo)
	sessionService := service.NewSessionService(sessionRepo, cfg.Auth.SessionSecret, sessionTTL)

	if err := os.MkdirAll(cfg.Assets.Dir, 0o755); err != nil {
		logger.Fatalf("create asset dir: %v", err)
	}
	if cfg.Storage.Bucket != "" {
		if err := syncAssets(ctx, cfg, logger); err != nil {
			logger.Fatalf("sync scenario assets: %v", err)
		}
	}
	resolver := assets.NewResolver(cfg.Assets.Dir)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		userService,
		progressService,
		sessionService,
		resolver,
		int(sessionTTL/time.Second),
		logger,
	)
	handler.RegisterRoutes(router)
	apphttp.RegisterStatic(router, cfg.Static.Dir)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func syncAssets(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})

	syncer := assets.NewS3Syncer(client)
	fetched, err := syncer.Sync(ctx, cfg.Storage.Bucket, cfg.Storage.KeyPrefix, cfg.Assets.Dir)
	if err != nil {
		return err
	}
	logger.Infof("synced %d scenario databases from s3 bucket %s", fetched, cfg.Storage.Bucket)
	return nil
}
