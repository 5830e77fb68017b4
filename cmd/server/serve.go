package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"shop-service/internal/auth"
	"shop-service/internal/config"
	httpctl "shop-service/internal/controllers/http"
	"shop-service/internal/infra/cache"
	mmysql "shop-service/internal/infra/mysql"
	mysqlrepo "shop-service/internal/repository/mysql"
	"shop-service/internal/services"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE:  serveCommand,
	}
}

func serveCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(commonFlags[envFileFlag].GetString())
	if err != nil {
		return err
	}
	log.Printf("Starting with %s", cfg)
	gin.SetMode(cfg.GinMode)

	db, err := mmysql.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := mmysql.Close(db); err != nil {
			log.Printf("db: close: %v", err)
		}
	}()

	if cfg.AutoMigrate {
		if err := mmysql.Migrate(db); err != nil {
			return err
		}
	}

	orderRepo := mysqlrepo.NewOrderRepository(db)
	catalogRepo := mysqlrepo.NewCatalogRepository(db)
	userRepo := mysqlrepo.NewUserRepository(db)

	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	tokens := auth.NewTokenManager(cfg.JWTKey, cfg.TokenTTL)

	orders := services.NewOrderService(orderRepo, cfg.Database.Timeout)
	catalog := services.NewCatalogService(catalogRepo, cfg.Database.Timeout)
	registry := services.NewRegistryService(catalogRepo, userRepo, hasher, cfg.Database.Timeout)
	accounts := services.NewAccountService(userRepo, hasher, tokens, cfg.Database.Timeout)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.DB))
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("Redis at %s not reachable yet: %v", cfg.Redis.Addr, err)
		}

		orders.SetCache(redisCache)
		catalog.SetCache(redisCache, cfg.Redis.TTL)
		registry.SetCache(redisCache)

		go func() {
			if err := catalog.WarmupCategories(ctx); err != nil {
				log.Printf("Failed to warm up cache: %v", err)
			} else {
				log.Println("Cache warmed up successfully")
			}
		}()
	}

	handler := httpctl.NewHandler(catalog, orders, accounts, registry, tokens)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           httpctl.NewRouter(handler, cfg.StaticDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting shop service on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Println("Shutting down shop service")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
