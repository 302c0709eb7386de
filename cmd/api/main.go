package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/slotwise/slotwise/internal/canceltoken"
	"github.com/slotwise/slotwise/internal/http/handlers"
	ratelimit "github.com/slotwise/slotwise/internal/http/middleware"
	"github.com/slotwise/slotwise/internal/mailer"
	"github.com/slotwise/slotwise/internal/payments"
	"github.com/slotwise/slotwise/internal/repo/postgres"
	"github.com/slotwise/slotwise/internal/service"
	"github.com/slotwise/slotwise/pkg/config"
	"github.com/slotwise/slotwise/pkg/database"
	"github.com/slotwise/slotwise/pkg/events"
	"github.com/slotwise/slotwise/pkg/logger"
	mw "github.com/slotwise/slotwise/pkg/middleware"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Failed to parse Redis URL", "error", err)
		os.Exit(1)
	}
	if cfg.Redis.Password != "" {
		redisOpts.Password = cfg.Redis.Password
	}
	redisOpts.DB = cfg.Redis.DB
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	// Repositories
	eventRepo := postgres.NewEventRepository(pool)
	tenantRepo := postgres.NewTenantRepository(pool)
	webinarRepo := postgres.NewWebinarRepository(pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(pool)

	// Collaborators
	codec := canceltoken.New(cfg.Auth.CancelSecret)
	refunds := payments.NewStripeClient(cfg.Stripe.SecretKey)
	var mail mailer.Service
	switch {
	case cfg.Email.DevMode:
		mail = mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		mail = mailer.NewMailerSend(cfg.Email.MailerSendKey, "Slotwise", cfg.Email.SMTPFrom)
	default:
		mail = mailer.NewSMTPMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPFrom,
			cfg.Email.SMTPUser, cfg.Email.SMTPPass, cfg.Email.SMTPUseTLS)
	}

	// Services
	bookingService := service.NewBookingService(eventRepo, tenantRepo, webinarRepo, idempotencyRepo,
		refunds, mail, eventBus, codec, cfg)
	webinarService := service.NewWebinarService(webinarRepo, tenantRepo, refunds, mail, eventBus, codec, cfg)

	h := handlers.New(bookingService, webinarService, tenantRepo, cfg)

	limiter := ratelimit.NewRateLimiter(rdb, ratelimit.RateLimitConfig{
		Requests: 60,
		Window:   time.Minute,
		KeyFunc:  ratelimit.BookingRateLimitKeyFunc,
	})

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("api"))
	r.Use(mw.Logging)
	r.Use(mw.CORS)
	r.Use(mw.Health)

	// Cancellation links from emails; the token is the only credential.
	r.Get("/booking/cancel", h.CancelBooking)
	r.Get("/webinar/cancel", h.CancelWebinarSignUp)

	r.Route("/tenants/{tenantID}", func(r chi.Router) {
		// Visitor-facing booking routes
		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware())
			r.Get("/slots", h.ListSlots)
			r.Post("/bookings", h.CreateBooking)
			r.Get("/webinars/{productID}/sessions", h.ListWebinarSessions)
			r.Get("/webinars/{productID}/sessions.ics", h.WebinarSessionFeed)
			r.Post("/webinars/{productID}/registrations", h.RegisterForWebinar)
		})

		// Tenant-admin routes (JWT or API key)
		r.Route("/admin", func(r chi.Router) {
			r.Use(h.RequireTenantAuth)
			r.Get("/config", h.GetTenantConfig)
			r.Put("/config", h.UpdateTenantConfig)
			r.Post("/api-key", h.RotateAPIKey)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting API server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigChan:
		case <-gctx.Done():
		}

		logger.Info("Shutting down API server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("API server error", "error", err)
		os.Exit(1)
	}
}
