package server

import (
	"context"
	"fmt"
	"log"
	netmail "net/mail"
	"net/http"
	"time"

	"github.com/wallacemaster800-spec/acameria-academy/internal/auth"
	"github.com/wallacemaster800-spec/acameria-academy/internal/config"
	"github.com/wallacemaster800-spec/acameria-academy/internal/db/models"
	"github.com/wallacemaster800-spec/acameria-academy/internal/mail"
	"github.com/wallacemaster800-spec/acameria-academy/internal/services/iam"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
	Password string `json:"password" validate:"required,min=10"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	FullName        string     `json:"full_name"`
	AccessExpiresAt *time.Time `json:"access_expires_at"`
	IsAdmin         bool       `json:"is_admin"`
	Roles           []string   `json:"roles"`
}

func userToResponse(user *models.User, roles []string) userResponse {
	isAdmin := false
	for _, role := range roles {
		if role == models.RoleAdmin {
			isAdmin = true
		}
	}
	if roles == nil {
		roles = []string{}
	}
	return userResponse{
		ID:              user.ID,
		Email:           user.Email,
		FullName:        user.FullName,
		AccessExpiresAt: user.AccessExpiresAt,
		IsAdmin:         isAdmin,
		Roles:           roles,
	}
}

// HandleRegister creates an account and signs it in.
func HandleRegister(svc *iam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		user, err := svc.CreateUser(r.Context(), req.Email, req.FullName, req.Password)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_, session, token, err := svc.Authenticate(r.Context(), user.Email, req.Password, userAgent(r), clientIP(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		setSessionCookie(w, r, token, session.ExpiresAt)
		writeJSON(w, http.StatusCreated, map[string]any{
			"token": token,
			"user":  userToResponse(user, svc.ResolveRoles(user.ID)),
		})
	}
}

// HandleLogin authenticates with email and password and issues a bearer
// session, delivered both in the body and as an HttpOnly cookie.
func HandleLogin(svc *iam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		user, session, token, err := svc.Authenticate(r.Context(), req.Email, req.Password, userAgent(r), clientIP(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		setSessionCookie(w, r, token, session.ExpiresAt)
		writeJSON(w, http.StatusOK, map[string]any{
			"token": token,
			"user":  userToResponse(user, svc.ResolveRoles(user.ID)),
		})
	}
}

// HandleLogout revokes the calling session and clears the cookie.
func HandleLogout(svc *iam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if err := svc.RevokeSession(r.Context(), principal.SessionID); err != nil {
			writeServiceError(w, err)
			return
		}
		clearSessionCookie(w, r)
		w.WriteHeader(http.StatusNoContent)
	}
}

// userGetter is the slice of the user repository the auth handlers need.
type userGetter interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// HandleWhoAmI returns the caller's profile and roles in one read. Clients
// resolve their whole auth snapshot from this response.
func HandleWhoAmI(users userGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		user, err := users.GetByID(r.Context(), principal.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, userToResponse(user, principal.Roles))
	}
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=10"`
}

// HandleForgotPassword emails a reset link. The response is the same
// whether or not the address has an account.
func HandleForgotPassword(cfg *config.Config, users userGetter, mailer mail.Mailer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forgotPasswordRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		user, err := users.GetByEmail(r.Context(), req.Email)
		if err == nil && !user.Disabled() {
			token, err := auth.GenerateResetToken(cfg.SecretKey, user.ID, cfg.ResetTokenTTL)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			msg := &mail.Message{
				To:      netmail.Address{Name: user.FullName, Address: user.Email},
				Subject: "Reset your password",
				TextBody: fmt.Sprintf(
					"Hi %s,\n\nFollow this link to choose a new password:\n\n%s/reset-password?token=%s\n\nThe link expires in %s.\n",
					user.FullName, cfg.ServerURL, token, cfg.ResetTokenTTL),
			}
			if err := mailer.Send(r.Context(), msg); err != nil {
				log.Printf("send reset email to %s: %v", user.Email, err)
			}
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleResetPassword exchanges a valid reset token for a new password.
func HandleResetPassword(cfg *config.Config, svc *iam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetPasswordRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		userID, err := auth.ParseResetToken(cfg.SecretKey, req.Token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired reset token")
			return
		}
		if err := svc.ResetPassword(r.Context(), userID, req.Password); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func userAgent(r *http.Request) *string {
	if ua := r.UserAgent(); ua != "" {
		return &ua
	}
	return nil
}

func clientIP(r *http.Request) *string {
	if r.RemoteAddr != "" {
		addr := r.RemoteAddr
		return &addr
	}
	return nil
}
