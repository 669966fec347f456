package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"subtrack/internal/metrics"
	reminderservice "subtrack/internal/reminder/service"
	subscriptionservice "subtrack/internal/subscription/service"
	subscriptionhttp "subtrack/internal/subscription/transport/http"
	userservice "subtrack/internal/user/service"
	userhttp "subtrack/internal/user/transport/http"
	"subtrack/pkg/jwt"
	"subtrack/pkg/middleware"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the daily reminder scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		return serve(ctx, a)
	},
}

func serve(ctx context.Context, a *app) error {
	cfg, log := a.cfg, a.logger
	metrics.InitMetrics()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// --- ИНИЦИАЛИЗАЦИЯ СЛОЁВ ---
	jwtManager := jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	userService := userservice.NewUserService(a.users, a.tokens, jwtManager, a.mailer,
		userservice.Options{FrontendURL: cfg.FrontendURL, RefreshTTL: cfg.RefreshTTL}, log)
	subService := subscriptionservice.NewService(a.subscriptions, cfg.StatsCacheTTL, log)

	userHandler := userhttp.NewHandler(userService, log)
	subHandler := subscriptionhttp.NewSubscriptionHandler(subService, log)

	jobs := reminderservice.NewJobs(a.subscriptions, a.users, a.mailer, log)
	scheduler := reminderservice.NewScheduler(jobs, cfg.ReminderSchedule, loc, log)

	// --- РОУТЕР ---
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.MetricsMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.With(middleware.BasicAuth(cfg.MetricsUser, cfg.MetricsPassword)).Handle("/metrics", promhttp.Handler())

	authLimiter := middleware.NewRateLimiter(cfg.RateLimit, time.Minute, log)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.ValidateRequest)

		// Публичные роуты
		api.Group(func(pub chi.Router) {
			pub.Use(authLimiter.Middleware)
			userHandler.PublicRoutes(pub)
		})

		// Защищённая группа маршрутов
		api.Group(func(pr chi.Router) {
			pr.Use(middleware.JWTAuth(jwtManager))
			userHandler.Routes(pr)
			subHandler.Routes(pr)
		})
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := scheduler.Start(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", zap.String("addr", server.Addr), zap.String("env", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		scheduler.Stop()
		return err
	case <-ctx.Done():
		log.Info("shutdown signal received, starting graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn("reminder job did not finish before shutdown timeout")
	}

	log.Info("server stopped")
	return nil
}
