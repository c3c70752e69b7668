package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wallacemaster800-spec/acameria-academy/internal/auth"
	"github.com/wallacemaster800-spec/acameria-academy/internal/db/models"
	"github.com/wallacemaster800-spec/acameria-academy/internal/services/access"
	"github.com/wallacemaster800-spec/acameria-academy/internal/services/catalog"
	"github.com/wallacemaster800-spec/acameria-academy/pkg/authstate"
)

// PlaybackURLResolver turns stored media references into fetchable URLs.
// Nil means no object storage is configured; references pass through.
type PlaybackURLResolver interface {
	PlaybackURL(ctx context.Context, ref string) (string, error)
}

type courseListItem struct {
	ID              string           `json:"id"`
	Slug            string           `json:"slug"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	ThumbnailURL    string           `json:"thumbnail_url"`
	Enrolled        bool             `json:"enrolled"`
	AccessExpiresAt *time.Time       `json:"access_expires_at,omitempty"`
	Progress        *progressSummary `json:"progress,omitempty"`
}

type progressSummary struct {
	TotalLessons     int `json:"total_lessons"`
	CompletedLessons int `json:"completed_lessons"`
	PercentComplete  int `json:"percent_complete"`
}

type lessonResponse struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	DurationSeconds     int    `json:"duration_seconds"`
	VideoURL            string `json:"video_url,omitempty"`
	ResourcesURL        string `json:"resources_url,omitempty"`
	LastWatchedPosition int    `json:"last_watched_position"`
	IsCompleted         bool   `json:"is_completed"`
}

type moduleResponse struct {
	ID      string           `json:"id"`
	Title   string           `json:"title"`
	Lessons []lessonResponse `json:"lessons"`
}

type courseResponse struct {
	ID              string           `json:"id"`
	Slug            string           `json:"slug"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	ThumbnailURL    string           `json:"thumbnail_url"`
	Enrolled        bool             `json:"enrolled"`
	AccessExpiresAt *time.Time       `json:"access_expires_at,omitempty"`
	Modules         []moduleResponse `json:"modules"`
}

// guardSnapshot rebuilds the client-side access snapshot from the request
// principal, so server-side gating runs the exact same decision function
// the clients run.
func guardSnapshot(user *models.User, principal auth.Principal) authstate.Snapshot {
	identity := authstate.Identity{ID: user.ID, Email: user.Email}
	return authstate.Snapshot{
		User:    &identity,
		Session: &authstate.Session{User: identity},
		Profile: &authstate.Profile{
			Email:           user.Email,
			FullName:        user.FullName,
			AccessExpiresAt: user.AccessExpiresAt,
		},
		ProfileResolved: true,
		IsAdmin:         principal.IsAdmin(),
	}
}

// requireStudentAccess loads the caller and evaluates the student route
// policy. Returns nil after writing the response when access is denied.
func requireStudentAccess(w http.ResponseWriter, r *http.Request, users userGetter) (*models.User, *auth.Principal) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return nil, nil
	}
	user, err := users.GetByID(r.Context(), principal.UserID)
	if err != nil {
		writeServiceError(w, err)
		return nil, nil
	}

	switch authstate.Decide(guardSnapshot(user, principal), authstate.Route{RequiresAuth: true}, time.Now()) {
	case authstate.DecisionAllow:
		return user, &principal
	case authstate.DecisionRedirectUpgrade:
		writeError(w, http.StatusForbidden, "platform access expired")
		return nil, nil
	default:
		writeError(w, http.StatusUnauthorized, "authentication required")
		return nil, nil
	}
}

// HandleListCourses returns the published catalog with the caller's
// enrollment state and progress rollups.
func HandleListCourses(catalogSvc *catalog.Service, accessSvc *access.Service, users userGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := requireStudentAccess(w, r, users)
		if user == nil {
			return
		}
		ctx := r.Context()

		courses, err := catalogSvc.ListPublished(ctx)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		summaries, err := catalogSvc.Summaries(ctx, user.ID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		enrollments, err := accessSvc.ListForUser(ctx, user.ID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		byCourse := make(map[string]models.Enrollment, len(enrollments))
		for _, e := range enrollments {
			byCourse[e.CourseID] = e
		}

		now := time.Now()
		items := make([]courseListItem, 0, len(courses))
		for _, course := range courses {
			item := courseListItem{
				ID:           course.ID,
				Slug:         course.Slug,
				Title:        course.Title,
				Description:  course.Description,
				ThumbnailURL: course.ThumbnailURL,
			}
			if e, ok := byCourse[course.ID]; ok && e.Active(now) {
				expires := e.ExpiresAt
				item.Enrolled = true
				item.AccessExpiresAt = &expires
			}
			if s, ok := summaries[course.ID]; ok {
				item.Progress = &progressSummary{
					TotalLessons:     s.TotalLessons,
					CompletedLessons: s.CompletedLessons,
					PercentComplete:  s.PercentComplete,
				}
			}
			items = append(items, item)
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// HandleGetCourse returns one course with modules and lessons. Playback
// and resource URLs are included only for admins and actively enrolled
// students; everyone else sees the outline.
func HandleGetCourse(catalogSvc *catalog.Service, accessSvc *access.Service, users userGetter, media PlaybackURLResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, principal := requireStudentAccess(w, r, users)
		if user == nil {
			return
		}
		ctx := r.Context()

		course, progress, err := catalogSvc.GetContent(ctx, chi.URLParam(r, "slug"), user.ID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if !course.IsPublished && !principal.IsAdmin() {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		now := time.Now()
		resp := courseResponse{
			ID:           course.ID,
			Slug:         course.Slug,
			Title:        course.Title,
			Description:  course.Description,
			ThumbnailURL: course.ThumbnailURL,
			Modules:      []moduleResponse{},
		}

		entitled := principal.IsAdmin()
		if !entitled {
			active, err := accessSvc.HasActiveAccess(ctx, user.ID, course.ID, now)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			entitled = active
		}
		resp.Enrolled = entitled
		if enrollment, err := accessSvc.ListForUser(ctx, user.ID); err == nil {
			for _, e := range enrollment {
				if e.CourseID == course.ID {
					expires := e.ExpiresAt
					resp.AccessExpiresAt = &expires
				}
			}
		}

		resp.Modules = buildModules(ctx, course, progress, entitled, media)
		writeJSON(w, http.StatusOK, resp)
	}
}

// buildModules shapes a course's content for the wire. Playback and
// resource URLs are only included when the caller is entitled.
func buildModules(ctx context.Context, course *models.Course, progress map[string]models.LessonProgress, entitled bool, media PlaybackURLResolver) []moduleResponse {
	modules := make([]moduleResponse, 0, len(course.Modules))
	for _, module := range course.Modules {
		m := moduleResponse{ID: module.ID, Title: module.Title, Lessons: []lessonResponse{}}
		for _, lesson := range module.Lessons {
			l := lessonResponse{
				ID:              lesson.ID,
				Title:           lesson.Title,
				Description:     lesson.Description,
				DurationSeconds: lesson.DurationSeconds,
			}
			if row, ok := progress[lesson.ID]; ok {
				l.LastWatchedPosition = row.LastWatchedPosition
				l.IsCompleted = row.IsCompleted
			}
			if entitled {
				l.VideoURL = resolvePlayback(ctx, media, lesson.VideoURLHLS)
				l.ResourcesURL = resolvePlayback(ctx, media, lesson.ResourcesURL)
			}
			m.Lessons = append(m.Lessons, l)
		}
		modules = append(modules, m)
	}
	return modules
}

func resolvePlayback(ctx context.Context, media PlaybackURLResolver, ref string) string {
	if ref == "" {
		return ""
	}
	if media == nil {
		return ref
	}
	url, err := media.PlaybackURL(ctx, ref)
	if err != nil {
		log.Printf("resolve playback url for %s: %v", ref, err)
		return ""
	}
	return url
}

type recordProgressRequest struct {
	Position  int  `json:"position" validate:"min=0"`
	Completed bool `json:"completed"`
}

// HandleRecordProgress upserts the caller's watch position for a lesson.
func HandleRecordProgress(catalogSvc *catalog.Service, users userGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := requireStudentAccess(w, r, users)
		if user == nil {
			return
		}
		var req recordProgressRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		err := catalogSvc.RecordProgress(r.Context(), user.ID, chi.URLParam(r, "lessonID"), req.Position, req.Completed)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleRequestAccess files an access request for a course.
func HandleRequestAccess(accessSvc *access.Service, users userGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := requireStudentAccess(w, r, users)
		if user == nil {
			return
		}
		request, err := accessSvc.RequestAccess(r.Context(), user.ID, chi.URLParam(r, "courseID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{
			"id":     request.ID,
			"status": request.Status,
		})
	}
}
