package app

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gsmmotor/storefront/internal/api"
	"github.com/gsmmotor/storefront/internal/cache"
	"github.com/gsmmotor/storefront/internal/domain/auth"
	"github.com/gsmmotor/storefront/internal/domain/cart"
	"github.com/gsmmotor/storefront/internal/domain/order"
	"github.com/gsmmotor/storefront/internal/notify"
	"github.com/gsmmotor/storefront/internal/repository"
	"github.com/gsmmotor/storefront/internal/shipping"
	"github.com/gsmmotor/storefront/pkg/health"
	"github.com/gsmmotor/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return errors.Wrap(err, "create upload dir")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc-pause", time.Second, health.GCMaxPauseCheck(time.Second))

	// Optional Redis-backed checkout guard.
	var guard order.Guard = order.NopGuard{}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return errors.Wrap(err, "parse redis url")
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		guard = cache.NewCheckoutGuard(rdb)
		healthSvc.AddReadinessCheck("redis", 5*time.Second, func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	productRepo := repository.NewProductRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	bannerRepo := repository.NewBannerRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	apikeyRepo := repository.NewAPIKeyRepository(pool)

	// Domain services.
	cartSvc := cart.NewService(cartRepo, productRepo)
	checkoutSvc := order.NewCheckoutService(cartRepo, orderRepo, guard)
	fulfillSvc := order.NewFulfillmentService(orderRepo)

	// Collaborators.
	rates := shipping.NewRajaOngkirClient(cfg.Shipping.BaseURL, cfg.Shipping.APIKey, cfg.Shipping.OriginID)
	var notifier notify.Notifier = notify.Nop{}
	if cfg.SMTP.Host != "" {
		notifier = notify.NewMailer(notify.MailerConfig{
			Host:            cfg.SMTP.Host,
			Port:            cfg.SMTP.Port,
			Username:        cfg.SMTP.Username,
			Password:        cfg.SMTP.Password,
			From:            cfg.SMTP.From,
			AdminRecipients: cfg.SMTP.AdminRecipients,
			BankName:        cfg.Bank.Name,
			BankAccount:     cfg.Bank.Account,
			BankNumber:      cfg.Bank.Number,
		})
	}

	// HTTP handlers.
	h := api.NewHandler(
		api.HandlerConfig{
			UploadDir: cfg.UploadDir,
			Bank: api.BankAccount{
				Bank:   cfg.Bank.Name,
				Holder: cfg.Bank.Account,
				Number: cfg.Bank.Number,
			},
		},
		productRepo, categoryRepo, bannerRepo, userRepo,
		cartSvc, checkoutSvc, fulfillSvc, orderRepo,
		rates, notifier,
		auth.NewVerifier(apikeyRepo, []byte(cfg.APIKeyPepper)),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "X-User-ID", "X-API-Key"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("storefront-api", m),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
