package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimitrije/flowaborate-api/internal/config"
	"github.com/dimitrije/flowaborate-api/internal/database"
	"github.com/dimitrije/flowaborate-api/internal/handlers"
	authmw "github.com/dimitrije/flowaborate-api/internal/middleware"
	"github.com/dimitrije/flowaborate-api/internal/services"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	thresholds := cfg.Sweep.Thresholds()

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry)
	userService := services.NewUserService(db)
	workspaceService := services.NewWorkspaceService(db)
	collaborationService := services.NewCollaborationService(db)
	notificationLog := services.NewNotificationLogService(db)
	emailService := services.NewEmailService(cfg.SMTP)
	notifier := services.NewNotificationService(emailService, services.NewTemplateService(cfg.AppURL), notificationLog)
	sweepService := services.NewSweepService(collaborationService, notifier, notificationLog, thresholds, cfg.Sweep.Dedup())

	if !emailService.IsConfigured() {
		log.Println("SMTP is not configured; notifications will be skipped")
	}

	userHandler := handlers.NewUserHandler(userService)
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceService, userService)
	collaborationHandler := handlers.NewCollaborationHandler(collaborationService, workspaceService, notifier, thresholds, cfg.AppURL)
	inviteHandler := handlers.NewInviteHandler(collaborationService, notifier, thresholds)
	dashboardHandler := handlers.NewDashboardHandler(collaborationService, thresholds, cfg.AppURL)
	sweepHandler := handlers.NewSweepHandler(sweepService)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.AppURL},
		AllowMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})
	api.Get("/statuses", handlers.ListStatuses)
	api.Get("/invites/:token", inviteHandler.View)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Get("/users/me", userHandler.GetMe)

	protected.Get("/workspaces", workspaceHandler.List)
	protected.Post("/workspaces", workspaceHandler.Create)
	protected.Patch("/workspaces/:workspaceId/policy", workspaceHandler.UpdatePolicy)
	protected.Post("/workspaces/:workspaceId/members", workspaceHandler.AddMember)
	protected.Post("/workspaces/:workspaceId/collaborations", collaborationHandler.Create)

	protected.Get("/collaborations", collaborationHandler.List)
	protected.Get("/collaborations/:id", collaborationHandler.Get)
	protected.Get("/collaborations/:id/transitions", collaborationHandler.Transitions)
	protected.Get("/collaborations/:id/history", collaborationHandler.History)
	protected.Post("/collaborations/:id/status", collaborationHandler.UpdateStatus)
	protected.Post("/collaborations/:id/schedule", collaborationHandler.Schedule)

	protected.Post("/invites/:token/intake", inviteHandler.SubmitIntake)
	protected.Get("/dashboard", dashboardHandler.Get)

	internal := api.Group("/internal")
	internal.Use(authmw.CronKeyAuth(cfg.CronSecret))
	internal.Post("/sweep", sweepHandler.Run)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Sweep.Enabled {
		g.Go(func() error {
			ticker := time.NewTicker(cfg.Sweep.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case now := <-ticker.C:
					if _, err := sweepService.Run(gctx, now); err != nil {
						log.Printf("sweep: run failed: %v", err)
					}
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
