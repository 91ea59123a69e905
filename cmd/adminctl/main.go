// Command adminctl performs operator tasks against the userhub database.
//
//	adminctl create-admin -email root@example.com [-nickname root]
//	adminctl set-role -user-id <uuid> -role MANAGER
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dtroode/userhub/internal/config"
	"github.com/dtroode/userhub/internal/logger"
	"github.com/dtroode/userhub/internal/mailer"
	"github.com/dtroode/userhub/internal/repository/postgres"
	"github.com/dtroode/userhub/internal/service"
	"github.com/dtroode/userhub/internal/token"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "adminctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	// Service logs go to stderr so command output stays clean.
	lg := logger.NewWithWriter(os.Stderr, cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	tokenService := service.NewTokenService(tokenManager, postgres.NewRefreshTokenRepository(db), userRepo, cfg.JWT.RefreshTTL, lg)

	cli := &CLI{
		Admins: service.NewAuth(
			userRepo,
			postgres.NewVerificationRepository(db),
			tokenService,
			service.NewPasswordHasher(cfg.Auth.BcryptCost),
			mailer.NewLogMailer(lg),
			cfg.Auth,
			cfg.BaseURL,
			lg,
		),
		Roles:    service.NewProfile(userRepo, lg),
		Password: terminalPassword(os.Stdin, os.Stderr),
		Out:      os.Stdout,
	}

	return cli.Run(ctx, args)
}
