package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/table_order/internal/cache"
	"github.com/Skotchmaster/table_order/internal/cart"
	"github.com/Skotchmaster/table_order/internal/config"
	"github.com/Skotchmaster/table_order/internal/es"
	"github.com/Skotchmaster/table_order/internal/httpserver"
	"github.com/Skotchmaster/table_order/internal/middleware/csrf"
	"github.com/Skotchmaster/table_order/internal/models"
	"github.com/Skotchmaster/table_order/internal/mykafka"
	"github.com/Skotchmaster/table_order/internal/payment"
	"github.com/Skotchmaster/table_order/internal/repo"
	"github.com/Skotchmaster/table_order/internal/search"
	"github.com/Skotchmaster/table_order/internal/seed"
	"github.com/Skotchmaster/table_order/internal/service"
	"github.com/Skotchmaster/table_order/pkg/db"
	"github.com/Skotchmaster/table_order/pkg/logging"
	loggingmw "github.com/Skotchmaster/table_order/pkg/middleware/logging"
)

const cacheTTL = 5 * time.Minute

func main() {
	seedDemo := flag.Bool("seed", false, "create the demo restaurant and index its products")
	flag.Parse()

	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("app", cfg.ServiceName)
	slog.SetDefault(logger)

	if err := run(cfg, logger, *seedDemo); err != nil {
		logger.Error("server_exit", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.ServiceConfig, logger *slog.Logger, seedDemo bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := gdb.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Warn("db_close_error", "error", err)
			}
		}
	}()
	if err := models.AutoMigrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	r := &repo.GormRepo{DB: gdb}

	var (
		rcache      *cache.Cache
		carts       cart.Store
		invalidator service.Invalidator
	)
	if cfg.CacheEnabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		rcache = cache.NewRedisCache(rdb, cacheTTL)
		carts = cart.NewRedisStore(rdb, cfg.SessionTTL)
		invalidator = rcache
	} else {
		logger.Warn("redis_disabled", "reason", "REDIS_ADDR is empty; caching and cart sessions are off")
	}

	var publisher service.Publisher
	if cfg.KafkaEnabled() {
		prod, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			return err
		}
		defer func() {
			if err := prod.Close(); err != nil {
				logger.Warn("kafka_close_error", "error", err)
			}
		}()
		publisher = prod
	}

	var (
		searcher service.Searcher
		indexer  seed.Indexer
	)
	if cfg.SearchEnabled() {
		esClient, err := es.NewClient(ctx, es.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
		if err != nil {
			return err
		}
		sc := search.New(esClient, cfg.ESIndex)
		searcher, indexer = sc, sc
	}

	if seedDemo {
		if _, err := seed.Demo(ctx, r, indexer); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	orders := &service.OrderService{Repo: r, Publisher: publisher, Invalidator: invalidator, Topic: cfg.KafkaTopic}
	deps := &httpserver.Deps{
		DB:             gdb,
		CatalogHandler: &httpserver.CatalogHTTP{Svc: &service.CatalogService{Repo: r, Cache: rcache, Search: searcher}},
		OrderHandler:   &httpserver.OrderHTTP{Orders: orders, Lookup: &service.LookupService{Repo: r, Cache: rcache}},
		SessionSecret:  cfg.SessionSecret,
	}
	if carts != nil {
		csrfCfg := csrf.DefaultConfig()
		csrfCfg.Secure = strings.HasPrefix(cfg.PublicBaseURL, "https://")
		deps.CSRF = &csrfCfg
		deps.CartHandler = &httpserver.CartHTTP{Svc: &service.CartService{Repo: r, Store: carts, Secret: cfg.SessionSecret, TTL: cfg.SessionTTL}}
	}

	if cfg.PaymentEnabled() {
		gw, err := payment.NewStripeGateway(payment.StripeConfig{
			SecretKey:     cfg.StripeSecretKey,
			APIURL:        cfg.StripeAPIURL,
			PublicBaseURL: cfg.PublicBaseURL,
			Timeout:       cfg.PaymentTimeout,
		})
		if err != nil {
			return err
		}
		verifier, err := payment.NewStripeVerifier(cfg.StripeWebhookSecret)
		if err != nil {
			return err
		}
		deps.PaymentHandler = &httpserver.PaymentHTTP{
			Checkout:   &service.CheckoutService{Repo: r, Orders: orders, Gateway: gw, Carts: carts},
			Verifier:   verifier,
			Reconciler: &service.Reconciler{Repo: r, Invalidator: invalidator, Publisher: publisher, Topic: cfg.KafkaTopic},
		}
	} else {
		logger.Warn("payments_disabled", "reason", "STRIPE_SECRET_KEY or STRIPE_WEBHOOK_SECRET is empty")
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger), middleware.CORS())
	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_server_start", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	logger.Info("shutdown_complete")
	return nil
}
