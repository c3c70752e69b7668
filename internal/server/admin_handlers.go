package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wallacemaster800-spec/acameria-academy/internal/auth"
	"github.com/wallacemaster800-spec/acameria-academy/internal/db/models"
	"github.com/wallacemaster800-spec/acameria-academy/internal/repository"
	"github.com/wallacemaster800-spec/acameria-academy/internal/services/access"
	"github.com/wallacemaster800-spec/acameria-academy/internal/services/catalog"
	"github.com/wallacemaster800-spec/acameria-academy/internal/services/iam"
)

// MIMEFixer runs the bucket content-type repair job.
type MIMEFixer interface {
	FixMIMETypes(ctx context.Context, prefix string) (int, error)
}

// maxManifestSize bounds course manifest uploads.
const maxManifestSize = 1 << 20

// HandleAdminListUsers returns every account with its roles.
func HandleAdminListUsers(users repository.UserRepository, svc *iam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := users.List(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := make([]userResponse, 0, len(list))
		for i := range list {
			resp = append(resp, userToResponse(&list[i], svc.ResolveRoles(list[i].ID)))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type adminCreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
	Password string `json:"password" validate:"required,min=10"`
	Admin    bool   `json:"admin"`
}

// HandleAdminCreateUser creates an account, optionally with the admin role.
func HandleAdminCreateUser(svc *iam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req adminCreateUserRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		principal, _ := auth.PrincipalFromContext(r.Context())

		user, err := svc.CreateUser(r.Context(), req.Email, req.FullName, req.Password)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if req.Admin {
			if err := svc.AssignRole(r.Context(), user.ID, models.RoleAdmin, principal.UserID); err != nil {
				writeServiceError(w, err)
				return
			}
		}
		writeJSON(w, http.StatusCreated, userToResponse(user, svc.ResolveRoles(user.ID)))
	}
}

// HandleAdminPromote grants the admin role.
func HandleAdminPromote(svc *iam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := auth.PrincipalFromContext(r.Context())
		if err := svc.AssignRole(r.Context(), chi.URLParam(r, "userID"), models.RoleAdmin, principal.UserID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleAdminDemote removes the admin role.
func HandleAdminDemote(svc *iam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.RemoveRole(r.Context(), chi.URLParam(r, "userID"), models.RoleAdmin); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleAdminDisableUser disables the account and kills its sessions.
func HandleAdminDisableUser(svc *iam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DisableUser(r.Context(), chi.URLParam(r, "userID")); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type setExpiryRequest struct {
	// ExpiresAt clears the platform expiry when null.
	ExpiresAt *time.Time `json:"expires_at"`
}

// HandleAdminSetExpiry sets or clears a user's platform access expiry.
func HandleAdminSetExpiry(svc *iam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setExpiryRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		if err := svc.SetAccessExpiry(r.Context(), chi.URLParam(r, "userID"), req.ExpiresAt); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type adminCourseResponse struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
}

// HandleAdminListCourses returns the full catalog, drafts included.
func HandleAdminListCourses(catalogSvc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courses, err := catalogSvc.ListAll(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := make([]adminCourseResponse, 0, len(courses))
		for _, c := range courses {
			resp = append(resp, adminCourseResponse{
				ID:          c.ID,
				Slug:        c.Slug,
				Title:       c.Title,
				Description: c.Description,
				IsPublished: c.IsPublished,
				CreatedAt:   c.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleAdminImportCourse creates or replaces a course from a manifest.
func HandleAdminImportCourse(catalogSvc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(io.LimitReader(r.Body, maxManifestSize))
		if err != nil {
			writeError(w, http.StatusBadRequest, "read manifest")
			return
		}
		course, err := catalogSvc.ImportManifest(r.Context(), data)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, courseResponse{
			ID:           course.ID,
			Slug:         course.Slug,
			Title:        course.Title,
			Description:  course.Description,
			ThumbnailURL: course.ThumbnailURL,
			Enrolled:     true,
			Modules:      buildModules(r.Context(), course, nil, true, nil),
		})
	}
}

type enrollmentResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	CourseID  string    `json:"course_id"`
	ExpiresAt time.Time `json:"expires_at"`
	GrantedAt time.Time `json:"granted_at"`
}

type accessRequestResponse struct {
	ID        string               `json:"id"`
	UserID    string               `json:"user_id"`
	Email     string               `json:"email,omitempty"`
	FullName  string               `json:"full_name,omitempty"`
	CourseID  string               `json:"course_id"`
	Status    models.RequestStatus `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
}

func enrollmentToResponse(e *models.Enrollment) enrollmentResponse {
	resp := enrollmentResponse{
		UserID:    e.UserID,
		CourseID:  e.CourseID,
		ExpiresAt: e.ExpiresAt,
		GrantedAt: e.GrantedAt,
	}
	if e.User != nil {
		resp.Email = e.User.Email
		resp.FullName = e.User.FullName
	}
	return resp
}

// HandleAdminRoster returns a course's enrollments and pending requests.
func HandleAdminRoster(accessSvc *access.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enrollments, pending, err := accessSvc.Roster(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		enrolled := make([]enrollmentResponse, 0, len(enrollments))
		for i := range enrollments {
			enrolled = append(enrolled, enrollmentToResponse(&enrollments[i]))
		}
		requests := make([]accessRequestResponse, 0, len(pending))
		for _, request := range pending {
			item := accessRequestResponse{
				ID:        request.ID,
				UserID:    request.UserID,
				CourseID:  request.CourseID,
				Status:    request.Status,
				CreatedAt: request.CreatedAt,
			}
			if request.User != nil {
				item.Email = request.User.Email
				item.FullName = request.User.FullName
			}
			requests = append(requests, item)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"enrollments":      enrolled,
			"pending_requests": requests,
		})
	}
}

type grantRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	// ExpiresAt defaults to thirty days out when omitted.
	ExpiresAt *time.Time `json:"expires_at"`
}

// HandleAdminGrant grants or refreshes course access for a user.
func HandleAdminGrant(accessSvc *access.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req grantRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		principal, _ := auth.PrincipalFromContext(r.Context())

		enrollment, err := accessSvc.Grant(r.Context(), req.UserID, chi.URLParam(r, "courseID"), principal.UserID, req.ExpiresAt)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, enrollmentToResponse(enrollment))
	}
}

// HandleAdminRevokeGrant removes a user's course access.
func HandleAdminRevokeGrant(accessSvc *access.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := accessSvc.Revoke(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "courseID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleAdminApproveRequest approves an access request.
func HandleAdminApproveRequest(accessSvc *access.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := auth.PrincipalFromContext(r.Context())
		enrollment, err := accessSvc.Approve(r.Context(), chi.URLParam(r, "requestID"), principal.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, enrollmentToResponse(enrollment))
	}
}

// HandleAdminDenyRequest denies an access request.
func HandleAdminDenyRequest(accessSvc *access.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := auth.PrincipalFromContext(r.Context())
		if err := accessSvc.Deny(r.Context(), chi.URLParam(r, "requestID"), principal.UserID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleAdminCacheRefresh reloads the role cache from the database.
func HandleAdminCacheRefresh(svc *iam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.RefreshRoles(r.Context()); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleAdminFixMIME rewrites segment content types under an optional
// ?prefix=. 503 when no bucket is configured.
func HandleAdminFixMIME(fixer MIMEFixer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if fixer == nil {
			writeError(w, http.StatusServiceUnavailable, "object storage not configured")
			return
		}
		fixed, err := fixer.FixMIMETypes(r.Context(), r.URL.Query().Get("prefix"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"fixed": fixed})
	}
}
