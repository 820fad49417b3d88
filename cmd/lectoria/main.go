package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lectoria/lectoria/internal/app"
	"github.com/lectoria/lectoria/internal/auth"
	"github.com/lectoria/lectoria/internal/observability"
	"github.com/lectoria/lectoria/internal/platform/cache"
	"github.com/lectoria/lectoria/internal/platform/db"
	"github.com/lectoria/lectoria/internal/rbac"
	"github.com/lectoria/lectoria/internal/roles"
	"github.com/lectoria/lectoria/internal/textbooks"
	"github.com/lectoria/lectoria/internal/token"
	"github.com/lectoria/lectoria/internal/users"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, permission cache disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	rbacService := rbac.NewService(dbpool)
	resolver := rbac.NewResolver(rbacService, redisClient, cfg.PermissionsCache, logger)

	// The catalog is seeded before the server accepts traffic so every
	// permission check runs against a complete grant table.
	seeder := rbac.NewSeeder(dbpool, rbac.DefaultCatalog(), logger)
	if err := seeder.Seed(ctx); err != nil {
		logger.Error("seed rbac catalog", slog.Any("error", err))
		os.Exit(1)
	}
	resolver.InvalidateAll(ctx)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, rbacService)
	if err := usersService.EnsureSuperuser(ctx, cfg.FirstSuperuserEmail, cfg.FirstSuperuserPassword); err != nil {
		logger.Error("ensure first superuser", slog.Any("error", err))
		os.Exit(1)
	}

	codec := token.NewCodec(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authService := auth.NewService(usersRepo, codec)
	authenticator := auth.NewAuthenticator(codec, usersRepo, resolver, logger)
	authHandler := auth.NewHandler(logger, authService, authenticator)

	usersHandler := users.NewHandler(logger, usersService)
	rolesHandler := roles.NewHandler(logger, rbacService)
	permissionsHandler := rbac.NewPermissionsHandler(logger, rbacService)

	textbookStore := textbooks.NewStore(dbpool)
	textbookEndpoints := textbooks.NewEndpoints(textbookStore, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Authenticator:      authenticator,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		RolesHandler:       rolesHandler,
		PermissionsHandler: permissionsHandler,
		TextbookEndpoints:  textbookEndpoints,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
