package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ctam-data/common/logger"
	"ctam-data/internal/app"
	"ctam-data/internal/config"
	httpapi "ctam-data/internal/http"
	"ctam-data/internal/service"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "ctam-data")
	if err != nil {
		log, _ = zap.NewProduction()
	}
	defer log.Sync()

	repos, err := app.OpenRepositories(cfg, log)
	if err != nil {
		log.Fatal("Failed to open repositories", zap.String("store_mode", cfg.StoreMode), zap.Error(err))
	}
	defer repos.Close()

	sessions, sessionsCloser, err := app.OpenSessionStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to open session store", zap.Error(err))
	}
	defer sessionsCloser.Close()

	publisher, stopPublisher, err := app.OpenPublisher(cfg, log)
	if err != nil {
		log.Fatal("Failed to open event publisher", zap.Error(err))
	}
	defer stopPublisher()

	if cfg.Bootstrap.SeedAdmin {
		if err := app.SeedAdmin(context.Background(), repos, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword, log); err != nil {
			log.Warn("Admin bootstrap failed", zap.Error(err))
		}
	}

	authSvc := service.NewAuthService(repos.Profiles, repos.Credentials, sessions, service.AuthConfig{
		Secret:     []byte(cfg.Session.JWTSecret),
		Issuer:     cfg.Session.Issuer,
		AccessTTL:  cfg.Session.AccessTTL,
		RefreshTTL: cfg.Session.RefreshTTL,
	}, log)
	assessmentSvc := service.NewAssessmentService(repos.Assessments, repos.History, repos.Organizations, publisher, log)
	qualitativeSvc := service.NewQualitativeService(repos.Assessments, repos.Qualitative, repos.Organizations, log)
	reportSvc := service.NewReportService(repos.Assessments, repos.Organizations, repos.Policies, log)
	provisioningSvc := service.NewProvisioningService(repos.Profiles, repos.Credentials, repos.Organizations, cfg.Provision.EmailDomain, log)

	mw := httpapi.NewAuthMiddleware(authSvc, log)
	router := httpapi.NewRouter(log)
	router.RegisterHealthRoutes()
	router.RegisterAuthRoutes(httpapi.NewAuthHandler(authSvc, log), mw)
	router.RegisterAssessmentRoutes(httpapi.NewAssessmentHandler(assessmentSvc, qualitativeSvc, reportSvc, log), mw)
	router.RegisterReportRoutes(httpapi.NewReportHandler(reportSvc, log), mw)
	router.RegisterAdminRoutes(httpapi.NewAdminHandler(provisioningSvc, log), mw)

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("HTTP server stopped", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}
