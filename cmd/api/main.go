package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwalitptl/bookmed-api/config"
	"github.com/jwalitptl/bookmed-api/internal/handler"
	appointmentHandler "github.com/jwalitptl/bookmed-api/internal/handler/appointment"
	authHandler "github.com/jwalitptl/bookmed-api/internal/handler/auth"
	doctorHandler "github.com/jwalitptl/bookmed-api/internal/handler/doctor"
	"github.com/jwalitptl/bookmed-api/internal/middleware"
	"github.com/jwalitptl/bookmed-api/internal/repository/postgres"
	"github.com/jwalitptl/bookmed-api/internal/router"
	appointmentService "github.com/jwalitptl/bookmed-api/internal/service/appointment"
	authService "github.com/jwalitptl/bookmed-api/internal/service/auth"
	directoryService "github.com/jwalitptl/bookmed-api/internal/service/directory"
	eventService "github.com/jwalitptl/bookmed-api/internal/service/event"
	jwtauth "github.com/jwalitptl/bookmed-api/pkg/auth"
	"github.com/jwalitptl/bookmed-api/pkg/logger"
	"github.com/jwalitptl/bookmed-api/pkg/security"
)

func main() {
	log := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	eventSvc := eventService.NewService(outboxRepo)
	jwtSvc := jwtauth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	hasher := security.NewBcryptHasher(0)

	authSvc := authService.NewService(userRepo, hasher, jwtSvc)
	directorySvc := directoryService.NewService(userRepo)
	appointmentSvc := appointmentService.NewService(appointmentRepo, userRepo, eventSvc, log)

	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	h := handler.NewHandler(db)
	authH := authHandler.NewHandler(authSvc)
	doctorH := doctorHandler.NewHandler(directorySvc)
	appointmentH := appointmentHandler.NewHandler(appointmentSvc)

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.Security.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Security.AllowedOrigins
	}
	if len(cfg.Security.AllowedMethods) > 0 {
		corsConfig.AllowMethods = cfg.Security.AllowedMethods
	}
	if len(cfg.Security.AllowedHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.Security.AllowedHeaders
	}

	r := router.NewRouter(authMiddleware, authH, doctorH, appointmentH, h, router.Config{
		RateLimit:     cfg.RateLimit.ToLimiterConfig(),
		CORSConfig:    corsConfig,
		Timeout:       cfg.Server.RequestTimeout,
		MetricsPrefix: "bookmed_api",
	})
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "forced shutdown")
	}

	log.Info("server exited")
}
