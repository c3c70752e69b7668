package repository

import (
	"context"
	"time"

	"github.com/wallacemaster800-spec/acameria-academy/internal/db/models"
)

// UserRepository exposes persistence operations for platform accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id string) error
	SetAccessExpiry(ctx context.Context, id string, expiresAt *time.Time) error
	SetPassword(ctx context.Context, id string, passwordHash string) error
	Disable(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.User, error)
}

// UserRoleRepository exposes role assignment operations. The original
// backend modelled this as a has_role RPC over a user_roles table.
type UserRoleRepository interface {
	Assign(ctx context.Context, role *models.UserRole) error
	Remove(ctx context.Context, userID, role string) error
	RolesForUser(ctx context.Context, userID string) ([]string, error)
	HasRole(ctx context.Context, userID, role string) (bool, error)
	List(ctx context.Context) ([]models.UserRole, error)
}

// SessionRepository exposes persistence operations for bearer sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	GetByID(ctx context.Context, id string) (*models.Session, error)
	UpdateLastUsed(ctx context.Context, id string) error
	Revoke(ctx context.Context, id string) error
	RevokeByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) error
}

// CourseRepository exposes persistence operations for the course catalog,
// including modules and lessons.
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	SetPublished(ctx context.Context, id string, published bool) error
	GetByID(ctx context.Context, id string) (*models.Course, error)
	GetBySlug(ctx context.Context, slug string) (*models.Course, error)
	// GetContent loads the course with modules and lessons ordered by
	// order_index at both levels.
	GetContent(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, publishedOnly bool) ([]models.Course, error)

	CreateModule(ctx context.Context, module *models.CourseModule) error
	DeleteModule(ctx context.Context, id string) error
	CreateLesson(ctx context.Context, lesson *models.Lesson) error
	DeleteLesson(ctx context.Context, id string) error
	GetLesson(ctx context.Context, id string) (*models.Lesson, error)
	// CourseIDForLesson resolves the owning course of a lesson.
	CourseIDForLesson(ctx context.Context, lessonID string) (string, error)
	// LessonIDsByCourse returns every lesson id per course in one query,
	// used for dashboard progress summaries.
	LessonIDsByCourse(ctx context.Context) (map[string][]string, error)
}

// ProgressRepository exposes persistence operations for lesson progress.
type ProgressRepository interface {
	// Upsert inserts or updates the (user, lesson) progress row.
	Upsert(ctx context.Context, progress *models.LessonProgress) error
	ListByUser(ctx context.Context, userID string) ([]models.LessonProgress, error)
	ListByUserAndLessons(ctx context.Context, userID string, lessonIDs []string) ([]models.LessonProgress, error)
}

// EnrollmentRepository exposes persistence operations for per-course grants.
type EnrollmentRepository interface {
	// Upsert inserts or refreshes the (user, course) grant.
	Upsert(ctx context.Context, enrollment *models.Enrollment) error
	Get(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	UpdateExpiry(ctx context.Context, userID, courseID string, expiresAt time.Time) error
	Delete(ctx context.Context, userID, courseID string) error
	ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error)
	ListByUser(ctx context.Context, userID string) ([]models.Enrollment, error)
}

// AccessRequestRepository exposes persistence operations for access requests.
type AccessRequestRepository interface {
	Create(ctx context.Context, request *models.AccessRequest) error
	GetByID(ctx context.Context, id string) (*models.AccessRequest, error)
	GetPending(ctx context.Context, userID, courseID string) (*models.AccessRequest, error)
	ListByCourse(ctx context.Context, courseID string, status models.RequestStatus) ([]models.AccessRequest, error)
	// Decide flips every matching pending request to the given status.
	Decide(ctx context.Context, userID, courseID string, status models.RequestStatus, decidedBy string) error
}
