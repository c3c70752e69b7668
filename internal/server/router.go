// Package server assembles the HTTP API: router, handlers, and the
// JSON error surface.
package server

import (
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/wallacemaster800-spec/acameria-academy/internal/auth"
	"github.com/wallacemaster800-spec/acameria-academy/internal/config"
	"github.com/wallacemaster800-spec/acameria-academy/internal/mail"
	academymw "github.com/wallacemaster800-spec/acameria-academy/internal/middleware"
	"github.com/wallacemaster800-spec/acameria-academy/internal/repository"
	"github.com/wallacemaster800-spec/acameria-academy/internal/services/access"
	"github.com/wallacemaster800-spec/acameria-academy/internal/services/catalog"
	"github.com/wallacemaster800-spec/acameria-academy/internal/services/iam"
)

// RouterOptions carries everything the router mounts. Media and Mailer may
// be nil; the corresponding routes degrade (pass-through URLs, 503 on the
// repair job, no reset emails).
type RouterOptions struct {
	Cfg      *config.Config
	IAM      *iam.Service
	Catalog  *catalog.Service
	Access   *access.Service
	Users    repository.UserRepository
	Enforcer casbin.IEnforcer
	Media    interface {
		PlaybackURLResolver
		MIMEFixer
	}
	Mailer      mail.Mailer
	CORSOptions *cors.Options
}

// DefaultCORSOptions returns the development CORS policy for the Vite
// frontend ports.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

// NewRouter assembles the chi router with the shared middleware chain and
// every API route mounted behind its casbin route class.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))
	r.Use(academymw.NewAuthn(opts.IAM))

	var media PlaybackURLResolver
	var fixer MIMEFixer
	if opts.Media != nil {
		media = opts.Media
		fixer = opts.Media
	}

	var mailer mail.Mailer = opts.Mailer
	if mailer == nil {
		mailer = mail.NewConsoleMailer(opts.Cfg.Mail.FromName, opts.Cfg.Mail.FromEmail)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", HandleRegister(opts.IAM))
		r.Post("/auth/login", HandleLogin(opts.IAM))
		r.Post("/auth/forgot-password", HandleForgotPassword(opts.Cfg, opts.Users, mailer))
		r.Post("/auth/reset-password", HandleResetPassword(opts.Cfg, opts.IAM))

		r.Group(func(r chi.Router) {
			r.Use(academymw.RequireAuth)
			r.Post("/auth/logout", HandleLogout(opts.IAM))
			r.Get("/auth/whoami", HandleWhoAmI(opts.Users))
		})

		r.Group(func(r chi.Router) {
			r.Use(academymw.Require(opts.Enforcer, auth.ObjectCatalog, auth.ActionRead))
			r.Get("/courses", HandleListCourses(opts.Catalog, opts.Access, opts.Users))
			r.Get("/courses/{slug}", HandleGetCourse(opts.Catalog, opts.Access, opts.Users, media))
		})

		r.Group(func(r chi.Router) {
			r.Use(academymw.Require(opts.Enforcer, auth.ObjectProgress, auth.ActionWrite))
			r.Put("/progress/{lessonID}", HandleRecordProgress(opts.Catalog, opts.Users))
		})

		r.Group(func(r chi.Router) {
			r.Use(academymw.Require(opts.Enforcer, auth.ObjectRequests, auth.ActionWrite))
			r.Post("/courses/{courseID}/request-access", HandleRequestAccess(opts.Access, opts.Users))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(academymw.Require(opts.Enforcer, auth.ObjectAdmin, auth.ActionManage))

			r.Get("/users", HandleAdminListUsers(opts.Users, opts.IAM))
			r.Post("/users", HandleAdminCreateUser(opts.IAM))
			r.Post("/users/{userID}/promote", HandleAdminPromote(opts.IAM))
			r.Post("/users/{userID}/demote", HandleAdminDemote(opts.IAM))
			r.Post("/users/{userID}/disable", HandleAdminDisableUser(opts.IAM))
			r.Put("/users/{userID}/access-expiry", HandleAdminSetExpiry(opts.IAM))

			r.Get("/courses", HandleAdminListCourses(opts.Catalog))
			r.Post("/courses/import", HandleAdminImportCourse(opts.Catalog))
			r.Get("/courses/{courseID}/roster", HandleAdminRoster(opts.Access))
			r.Post("/courses/{courseID}/grants", HandleAdminGrant(opts.Access))
			r.Delete("/courses/{courseID}/grants/{userID}", HandleAdminRevokeGrant(opts.Access))

			r.Post("/requests/{requestID}/approve", HandleAdminApproveRequest(opts.Access))
			r.Post("/requests/{requestID}/deny", HandleAdminDenyRequest(opts.Access))

			r.Post("/cache/refresh", HandleAdminCacheRefresh(opts.IAM))
			r.Post("/storage/fix-mime", HandleAdminFixMIME(fixer))
		})
	})

	return r
}
