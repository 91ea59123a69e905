package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	grpchealth "google.golang.org/grpc/health"

	grpcHealth "github.com/dtroode/userhub/internal/api/grpc/health"
	grpcRouter "github.com/dtroode/userhub/internal/api/grpc/router"
	grpcServer "github.com/dtroode/userhub/internal/api/grpc/server"
	httpctx "github.com/dtroode/userhub/internal/api/http/context"
	httpRouter "github.com/dtroode/userhub/internal/api/http/router"
	httpServer "github.com/dtroode/userhub/internal/api/http/server"
	"github.com/dtroode/userhub/internal/config"
	"github.com/dtroode/userhub/internal/idgen"
	"github.com/dtroode/userhub/internal/logger"
	"github.com/dtroode/userhub/internal/mailer"
	"github.com/dtroode/userhub/internal/model"
	"github.com/dtroode/userhub/internal/repository/postgres"
	"github.com/dtroode/userhub/internal/server"
	"github.com/dtroode/userhub/internal/service"
	storage "github.com/dtroode/userhub/internal/storage/minio"
	"github.com/dtroode/userhub/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize database", "error", err)
	}
	defer db.Close()

	storage.DisableSDKRetries()
	storageClient, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatal("failed to create storage client", "error", err)
	}
	if err := storageClient.EnsureBucket(ctx); err != nil {
		// Uploads retry bucket creation, so an unreachable store only degrades readiness.
		logger.Warn("failed to ensure storage bucket", "bucket", storageClient.Bucket(), "error", err)
	}

	userRepo := postgres.NewUserRepository(db)
	verificationRepo := postgres.NewVerificationRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)
	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	tokenService := service.NewTokenService(tokenManager, refreshTokenRepo, userRepo, cfg.JWT.RefreshTTL, logger)
	authService := service.NewAuth(
		userRepo,
		verificationRepo,
		tokenService,
		service.NewPasswordHasher(cfg.Auth.BcryptCost),
		mailer.New(cfg.SMTP, logger),
		cfg.Auth,
		cfg.BaseURL,
		logger,
	)
	profileService := service.NewProfile(userRepo, logger)
	pictureService := service.NewPicture(
		storageClient,
		userRepo,
		service.NewImageValidator(cfg.Upload),
		idgen.New(),
		cfg.BaseURL,
		logger,
	)
	healthService := service.NewHealth(logger,
		service.NewProbe("database", db.Ping),
		service.NewProbe("schema", db.CheckSchema),
		service.NewProbe("storage", storageClient.Ready),
	)

	version := buildVersion
	r := httpRouter.New(httpRouter.Services{
		Auth:    authService,
		Tokens:  tokenService,
		Profile: profileService,
		Picture: pictureService,
		Health:  healthService,
	}, httpctx.NewManager(), cfg, version, logger)

	healthServer := grpchealth.NewServer()
	watcher := grpcHealth.NewWatcher(healthService, healthServer, cfg.HealthPeriod, logger)

	servers := []struct {
		server model.Server
		layer  model.SecurityLayer
	}{
		{
			server: httpServer.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port), cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout),
			layer:  server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName),
		},
		{
			server: grpcServer.NewGRPCServer(grpcRouter.New(healthServer, logger).Register(), fmt.Sprintf(":%s", cfg.GRPC.Port)),
			layer:  server.NewSecurityLayer(cfg.GRPC.EnableHTTPS, cfg.GRPC.CertFileName, cfg.GRPC.PrivateKeyFileName),
		},
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		watcher.Run(ctx)
	}()

	for _, s := range servers {
		wg.Add(1)
		go func(s model.Server, sl model.SecurityLayer) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}(s.server, s.layer)
	}

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.server.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.server.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
