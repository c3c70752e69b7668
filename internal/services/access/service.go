// Package access manages per-course entitlement: time-boxed enrollment
// grants and the student request/approve flow around them.
package access

import (
	"context"
	"errors"
	"fmt"
	"log"
	netmail "net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/wallacemaster800-spec/acameria-academy/internal/db/models"
	"github.com/wallacemaster800-spec/acameria-academy/internal/mail"
	"github.com/wallacemaster800-spec/acameria-academy/internal/repository"
)

// DefaultGrantDuration is applied when a grant or approval carries no
// explicit expiry.
const DefaultGrantDuration = 30 * 24 * time.Hour

// ErrAlreadyDecided is returned when approving or denying a request that
// is no longer pending.
var ErrAlreadyDecided = errors.New("access request already decided")

// Deps collects the service's dependencies. Mailer may be nil; decision
// notices are then skipped.
type Deps struct {
	Enrollments repository.EnrollmentRepository
	Requests    repository.AccessRequestRepository
	Users       repository.UserRepository
	Courses     repository.CourseRepository
	Mailer      mail.Mailer
}

// Service manages enrollment grants and access requests.
type Service struct {
	enrollments repository.EnrollmentRepository
	requests    repository.AccessRequestRepository
	users       repository.UserRepository
	courses     repository.CourseRepository
	mailer      mail.Mailer
}

func NewService(deps Deps) *Service {
	return &Service{
		enrollments: deps.Enrollments,
		requests:    deps.Requests,
		users:       deps.Users,
		courses:     deps.Courses,
		mailer:      deps.Mailer,
	}
}

// Grant gives userID access to courseID until expiresAt, or for
// DefaultGrantDuration when expiresAt is nil. Granting again refreshes the
// existing row.
func (s *Service) Grant(ctx context.Context, userID, courseID, grantedBy string, expiresAt *time.Time) (*models.Enrollment, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, fmt.Errorf("lookup course: %w", err)
	}

	until := time.Now().Add(DefaultGrantDuration)
	if expiresAt != nil {
		until = *expiresAt
	}

	enrollment := &models.Enrollment{
		ID:        uuid.NewString(),
		UserID:    userID,
		CourseID:  courseID,
		ExpiresAt: until,
		GrantedBy: grantedBy,
	}
	if err := s.enrollments.Upsert(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("upsert enrollment: %w", err)
	}
	return s.enrollments.Get(ctx, userID, courseID)
}

// Renew extends an existing grant to the given expiry.
func (s *Service) Renew(ctx context.Context, userID, courseID string, until time.Time) error {
	return s.enrollments.UpdateExpiry(ctx, userID, courseID, until)
}

// Revoke removes the grant outright.
func (s *Service) Revoke(ctx context.Context, userID, courseID string) error {
	return s.enrollments.Delete(ctx, userID, courseID)
}

// HasActiveAccess reports whether userID holds an unexpired grant for
// courseID at the given instant.
func (s *Service) HasActiveAccess(ctx context.Context, userID, courseID string, now time.Time) (bool, error) {
	enrollment, err := s.enrollments.Get(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("lookup enrollment: %w", err)
	}
	return enrollment.Active(now), nil
}

// ListForUser returns the user's grants.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]models.Enrollment, error) {
	return s.enrollments.ListByUser(ctx, userID)
}

// Roster returns a course's enrollments and pending requests for the admin
// roster view.
func (s *Service) Roster(ctx context.Context, courseID string) ([]models.Enrollment, []models.AccessRequest, error) {
	enrollments, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, nil, fmt.Errorf("list enrollments: %w", err)
	}
	pending, err := s.requests.ListByCourse(ctx, courseID, models.RequestPending)
	if err != nil {
		return nil, nil, fmt.Errorf("list pending requests: %w", err)
	}
	return enrollments, pending, nil
}

// RequestAccess files a request for courseID on behalf of userID. While a
// pending request exists, filing again returns it instead of stacking
// duplicates.
func (s *Service) RequestAccess(ctx context.Context, userID, courseID string) (*models.AccessRequest, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, fmt.Errorf("lookup course: %w", err)
	}

	if existing, err := s.requests.GetPending(ctx, userID, courseID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup pending request: %w", err)
	}

	request := &models.AccessRequest{
		ID:       uuid.NewString(),
		UserID:   userID,
		CourseID: courseID,
		Status:   models.RequestPending,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return request, nil
}

// Approve marks the request approved and grants course access for
// DefaultGrantDuration. The requester is notified by email, best-effort.
func (s *Service) Approve(ctx context.Context, requestID, adminID string) (*models.Enrollment, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("lookup request: %w", err)
	}
	if request.Status != models.RequestPending {
		return nil, ErrAlreadyDecided
	}

	if err := s.requests.Decide(ctx, request.UserID, request.CourseID, models.RequestApproved, adminID); err != nil {
		return nil, fmt.Errorf("decide request: %w", err)
	}
	enrollment, err := s.Grant(ctx, request.UserID, request.CourseID, adminID, nil)
	if err != nil {
		return nil, err
	}

	s.notifyDecision(ctx, request.UserID, request.CourseID, true, enrollment.ExpiresAt)
	return enrollment, nil
}

// Deny marks the request denied and notifies the requester, best-effort.
func (s *Service) Deny(ctx context.Context, requestID, adminID string) error {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("lookup request: %w", err)
	}
	if request.Status != models.RequestPending {
		return ErrAlreadyDecided
	}

	if err := s.requests.Decide(ctx, request.UserID, request.CourseID, models.RequestDenied, adminID); err != nil {
		return fmt.Errorf("decide request: %w", err)
	}
	s.notifyDecision(ctx, request.UserID, request.CourseID, false, time.Time{})
	return nil
}

func (s *Service) notifyDecision(ctx context.Context, userID, courseID string, approved bool, until time.Time) {
	if s.mailer == nil {
		return
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		log.Printf("access: notify %s: %v", userID, err)
		return
	}
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		log.Printf("access: notify %s: %v", userID, err)
		return
	}

	msg := &mail.Message{
		To: netmail.Address{Name: user.FullName, Address: user.Email},
	}
	if approved {
		msg.Subject = fmt.Sprintf("Access to %q approved", course.Title)
		msg.TextBody = fmt.Sprintf(
			"Hi %s,\n\nYour access request for %q was approved. You have access until %s.\n",
			user.FullName, course.Title, until.Format("January 2, 2006"))
	} else {
		msg.Subject = fmt.Sprintf("Access request for %q", course.Title)
		msg.TextBody = fmt.Sprintf(
			"Hi %s,\n\nYour access request for %q was not approved. Reply to this email if you think this is a mistake.\n",
			user.FullName, course.Title)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		log.Printf("access: notify %s: %v", user.Email, err)
	}
}
