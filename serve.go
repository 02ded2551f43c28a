package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mess-management-api/config"
	"mess-management-api/handlers"
	"mess-management-api/jobs"
	"mess-management-api/logger"
	"mess-management-api/mailer"
	"mess-management-api/metrics"
	"mess-management-api/middleware"
	"mess-management-api/notify"
	"mess-management-api/realtime"
	"mess-management-api/routes"
	"mess-management-api/services"
	"mess-management-api/store"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return serve(cmd.Context(), cfg, log)
		},
	}
}

func newMailer(ctx context.Context, cfg config.MailConfig, log *logger.Logger) (mailer.Mailer, error) {
	switch cfg.Provider {
	case "ses":
		return mailer.NewSESMailer(ctx, cfg.AWSRegion, cfg.From)
	default:
		return mailer.NewLogMailer(log), nil
	}
}

func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.OpenDB(cfg.Database, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	st := store.NewGormStore(db)

	m := metrics.New()
	hub := realtime.NewHub(log, m)

	mail, err := newMailer(ctx, cfg.Mail, log)
	if err != nil {
		return fmt.Errorf("init mailer: %w", err)
	}
	var poster notify.ChannelPoster
	if cfg.Discord.Token != "" {
		dp, err := notify.NewDiscordPoster(cfg.Discord.Token, cfg.Discord.ChannelID)
		if err != nil {
			return err
		}
		poster = dp
	}
	dispatcher := notify.NewDispatcher(mail, st, poster, log, m)

	activity := services.NewActivityService(st, cfg.Log.Retention, log, m)
	otp := services.NewOTPService(st, mail, activity, log, m)
	auth := services.NewAuthService(st, otp, activity, cfg.Auth.SessionDuration, log)
	h := handlers.New(handlers.Services{
		Auth:        auth,
		OTP:         otp,
		Menu:        services.NewMenuService(st, dispatcher, activity, hub, log),
		Reviews:     services.NewReviewService(st, activity, hub, log, m),
		Suggestions: services.NewSuggestionService(st, activity, hub, log, m),
		Attendance:  services.NewAttendanceService(st, activity, log),
	}, []byte(cfg.Auth.JWTSecret), cfg.Auth.SecureCookies, log)

	scheduler, err := jobs.NewScheduler(cfg.Log.CleanupSchedule, activity, log)
	if err != nil {
		return err
	}
	scheduler.Start()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.Metrics(m), middleware.CORS())
	routes.SetupRoutes(r, routes.Deps{
		Handler: h,
		Auth:    middleware.NewAuthenticator([]byte(cfg.Auth.JWTSecret), auth, cfg.Auth.SecureCookies),
		Hub:     hub,
		Metrics: m,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server listening", "addr", "http://localhost:"+cfg.Port, "env", cfg.Environment, "db", cfg.Database.Driver)
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
		log.Infow("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("http shutdown", "error", err)
	}
	scheduler.Stop(shutdownCtx)
	dispatcher.Wait()
	log.Infow("server stopped")
	return nil
}
