package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/atmx/listing-engine/internal/catalog"
	"github.com/atmx/listing-engine/internal/config"
	"github.com/atmx/listing-engine/internal/db"
	"github.com/atmx/listing-engine/internal/events"
	"github.com/atmx/listing-engine/internal/fees"
	"github.com/atmx/listing-engine/internal/metrics"
	"github.com/atmx/listing-engine/internal/migrations"
	"github.com/atmx/listing-engine/internal/model"
	"github.com/atmx/listing-engine/internal/pricing"
	"github.com/atmx/listing-engine/internal/quote"
	"github.com/atmx/listing-engine/internal/ratelimit"
)

const limiterExpiry = 3 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Catalog ---
	cat, cleanup, err := openCatalog(ctx, cfg.Catalog)
	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()
	if err != nil {
		slog.Error("catalog setup failed", "err", err)
		os.Exit(1)
	}

	// --- Pricing engine ---
	pcfg, err := pricingConfig(cfg.Pricing)
	if err != nil {
		slog.Error("pricing configuration failed", "err", err)
		os.Exit(1)
	}
	engine, err := pricing.NewEngine(pcfg, cat)
	if err != nil {
		slog.Error("pricing engine setup failed", "err", err)
		os.Exit(1)
	}

	// --- Quote events ---
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.QuotesTopic)
		slog.Info("publishing quote events to Kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.QuotesTopic)
	}

	// --- WebSocket hub ---
	hubCtx, stopHub := context.WithCancel(context.Background())
	wsHub := quote.NewWSHub()
	go wsHub.Run(hubCtx)

	svc := quote.NewService(engine, cat, publisher, wsHub)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS for the product form, which may be served from another origin.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"listing-engine"}`))
	})

	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if cfg.RateLimit.RPS > 0 {
			limiter := ratelimit.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, limiterExpiry)
			r.Use(limiter.Middleware)
			slog.Info("rate limiting enabled", "rps", cfg.RateLimit.RPS, "burst", cfg.RateLimit.Burst)
		}

		r.Route("/api/v1", func(r chi.Router) {
			// Live feed of computed quotes.
			r.Get("/ws", wsHub.HandleWS)

			r.Post("/quotes", svc.CreateQuote)
			r.Get("/products", svc.ListProducts)
			r.Get("/products/{sku}", svc.GetProduct)
			r.Get("/fees", svc.GetFees)
		})

		// Endpoints the original product form posts to.
		r.Post("/calcular", svc.LegacyQuote)
		r.Get("/produto/{sku}", svc.LegacyProduct)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("listing-engine listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down listing-engine...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	stopHub()
	svc.Wait()
	if err := publisher.Close(); err != nil {
		slog.Error("close publisher", "err", err)
	}
	fmt.Println("listing-engine stopped")
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openCatalog selects the catalog backend: PostgreSQL, then SQLite, then the
// spreadsheet file. SQL backends are migrated and seeded from the spreadsheet
// when one is configured. Cleanup functions are returned even on error.
func openCatalog(ctx context.Context, cfg config.CatalogConfig) (catalog.Catalog, []func(), error) {
	var (
		cat     catalog.Catalog
		backend string
		cleanup []func()
	)

	switch {
	case cfg.DatabaseURL != "":
		pool, err := db.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = append(cleanup, pool.Close)
		if cfg.AutoMigrate {
			if err := migrations.Up(db.PoolDB(pool), migrations.DialectPostgres); err != nil {
				return nil, cleanup, err
			}
		}
		pg := catalog.NewPostgresCatalog(pool)
		if err := seed(ctx, cfg, pg); err != nil {
			return nil, cleanup, err
		}
		cat, backend = pg, "postgres"
		slog.Info("connected to PostgreSQL")

	case cfg.SQLitePath != "":
		sqlDB, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = append(cleanup, func() { sqlDB.Close() })
		if cfg.AutoMigrate {
			if err := migrations.Up(sqlDB, migrations.DialectSQLite); err != nil {
				return nil, cleanup, err
			}
		}
		lite := catalog.NewSQLCatalog(sqlDB)
		if err := seed(ctx, cfg, lite); err != nil {
			return nil, cleanup, err
		}
		cat, backend = lite, "sqlite"
		slog.Info("opened SQLite catalog", "path", cfg.SQLitePath)

	case cfg.Path != "":
		fc, err := catalog.NewFileCatalog(cfg.Path, cfg.Sheet)
		if err != nil {
			return nil, cleanup, err
		}
		cat, backend = fc, "file"
		slog.Info("loaded spreadsheet catalog", "path", cfg.Path, "columns", fc.Columns())

	default:
		slog.Warn("no catalog configured, every SKU lookup will miss")
		cat, backend = catalog.NewMemoryCatalog(), "memory"
	}

	// Wrap with Redis read-through cache if configured.
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opt)
		cleanup = append(cleanup, func() { rdb.Close() })
		cat = catalog.NewCachedCatalog(cat, rdb, cfg.CacheTTL)
		slog.Info("Redis cache enabled", "ttl", cfg.CacheTTL)
	}

	return catalog.Instrument(cat, backend), cleanup, nil
}

// seed copies the spreadsheet into a SQL catalog when a path is configured.
func seed(ctx context.Context, cfg config.CatalogConfig, dst catalog.Writer) error {
	if cfg.Path == "" {
		return nil
	}
	src, err := catalog.NewFileCatalog(cfg.Path, cfg.Sheet)
	if err != nil {
		return err
	}
	n, err := catalog.Import(ctx, src, dst)
	if err != nil {
		return err
	}
	slog.Info("seeded catalog from spreadsheet", "path", cfg.Path, "entries", n)
	return nil
}

// pricingConfig starts from the built-in rates and tables and applies any
// overrides from the environment.
func pricingConfig(p config.PricingConfig) (pricing.Config, error) {
	cfg := pricing.DefaultConfig()

	if p.FeeTablesPath != "" {
		tables, err := fees.LoadTablesFile(p.FeeTablesPath)
		if err != nil {
			return cfg, err
		}
		cfg.Tables = tables
		slog.Info("loaded fee tables", "path", p.FeeTablesPath)
	}
	if p.TaxRate.Valid {
		cfg.Rates.Tax = p.TaxRate.Decimal
	}
	if p.CommissionStandard.Valid {
		cfg.Rates.Commission[model.TierStandard] = p.CommissionStandard.Decimal
	}
	if p.CommissionPremium.Valid {
		cfg.Rates.Commission[model.TierPremium] = p.CommissionPremium.Decimal
	}
	if p.CommissionDefault.Valid {
		cfg.Rates.DefaultCommission = p.CommissionDefault.Decimal
	}
	if p.ShippingThreshold.Valid {
		cfg.ShippingThreshold = p.ShippingThreshold.Decimal
	}
	return cfg, nil
}
