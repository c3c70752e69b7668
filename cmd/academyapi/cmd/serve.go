package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/wallacemaster800-spec/acameria-academy/internal/auth"
	"github.com/wallacemaster800-spec/acameria-academy/internal/db/bunx"
	"github.com/wallacemaster800-spec/acameria-academy/internal/mail"
	"github.com/wallacemaster800-spec/acameria-academy/internal/repository"
	"github.com/wallacemaster800-spec/acameria-academy/internal/server"
	"github.com/wallacemaster800-spec/acameria-academy/internal/services/access"
	"github.com/wallacemaster800-spec/acameria-academy/internal/services/catalog"
	"github.com/wallacemaster800-spec/acameria-academy/internal/services/iam"
	"github.com/wallacemaster800-spec/acameria-academy/internal/storage"
)

const (
	roleRefreshInterval    = 5 * time.Minute
	sessionCleanupInterval = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Academy API server",
	Long:  `Starts the HTTP server hosting the auth, catalog, progress, and admin endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := bunx.NewDB(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		log.Printf("Connected to database")

		userRepo := repository.NewBunUserRepository(db)
		userRoleRepo := repository.NewBunUserRoleRepository(db)
		sessionRepo := repository.NewBunSessionRepository(db)
		courseRepo := repository.NewBunCourseRepository(db)
		progressRepo := repository.NewBunProgressRepository(db)
		enrollmentRepo := repository.NewBunEnrollmentRepository(db)
		requestRepo := repository.NewBunAccessRequestRepository(db)

		iamService, err := iam.NewService(iam.Deps{
			Users:    userRepo,
			Roles:    userRoleRepo,
			Sessions: sessionRepo,
		}, cfg.SessionTTL)
		if err != nil {
			return fmt.Errorf("create IAM service: %w", err)
		}

		var mailer mail.Mailer
		if cfg.Mail.SendGridKey != "" {
			mailer = mail.NewSendGridMailer(cfg.Mail.SendGridKey, cfg.Mail.FromName, cfg.Mail.FromEmail)
			log.Printf("Outbound mail via SendGrid as %s", cfg.Mail.FromEmail)
		} else {
			mailer = mail.NewConsoleMailer(cfg.Mail.FromName, cfg.Mail.FromEmail)
			log.Printf("No SendGrid key configured, logging outbound mail to console")
		}

		catalogService := catalog.NewService(courseRepo, progressRepo)
		accessService := access.NewService(access.Deps{
			Enrollments: enrollmentRepo,
			Requests:    requestRepo,
			Users:       userRepo,
			Courses:     courseRepo,
			Mailer:      mailer,
		})

		enforcer, err := auth.InitEnforcer()
		if err != nil {
			return fmt.Errorf("configure casbin enforcer: %w", err)
		}

		routerOpts := server.RouterOptions{
			Cfg:      cfg,
			IAM:      iamService,
			Catalog:  catalogService,
			Access:   accessService,
			Users:    userRepo,
			Enforcer: enforcer,
			Mailer:   mailer,
		}

		if cfg.Media.Enabled() {
			media, err := storage.NewMedia(cmd.Context(), cfg.Media)
			if err != nil {
				return fmt.Errorf("configure object storage: %w", err)
			}
			routerOpts.Media = media
			log.Printf("Object storage configured for bucket %s", cfg.Media.Bucket)
		} else {
			log.Printf("No object storage configured, media references pass through")
		}

		r := server.NewRouter(routerOpts)

		// h2c lets HTTP/2 clients connect without TLS behind the proxy.
		h2cHandler := h2c.NewHandler(r, &http2.Server{})

		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      h2cHandler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Background maintenance: keep the role cache fresh and sweep
		// expired sessions.
		jobCtx, cancelJobs := context.WithCancel(cmd.Context())
		defer cancelJobs()
		go func() {
			roleTicker := time.NewTicker(roleRefreshInterval)
			defer roleTicker.Stop()
			cleanupTicker := time.NewTicker(sessionCleanupInterval)
			defer cleanupTicker.Stop()

			for {
				select {
				case <-roleTicker.C:
					if err := iamService.RefreshRoles(jobCtx); err != nil {
						log.Printf("ERROR: Background role cache refresh failed: %v", err)
					}
				case <-cleanupTicker.C:
					if err := iamService.CleanupExpiredSessions(jobCtx); err != nil {
						log.Printf("ERROR: Expired session cleanup failed: %v", err)
					}
				case <-jobCtx.Done():
					return
				}
			}
		}()

		serverErrors := make(chan error, 1)
		go func() {
			log.Printf("Starting server on %s", cfg.ServerAddr)
			log.Printf("Server URL: %s", cfg.ServerURL)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// SIGHUP triggers a role cache refresh without a restart.
		cacheRefresh := make(chan os.Signal, 1)
		signal.Notify(cacheRefresh, syscall.SIGHUP)

		for {
			select {
			case err := <-serverErrors:
				return fmt.Errorf("server error: %w", err)

			case sig := <-cacheRefresh:
				log.Printf("Received signal %v, refreshing role cache", sig)
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := iamService.RefreshRoles(ctx); err != nil {
					log.Printf("ERROR: Manual role cache refresh failed: %v", err)
				}
				cancel()

			case sig := <-shutdown:
				log.Printf("Received signal %v, shutting down gracefully", sig)

				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := srv.Shutdown(ctx); err != nil {
					srv.Close()
					return fmt.Errorf("graceful shutdown failed: %w", err)
				}

				log.Printf("Server stopped")
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
