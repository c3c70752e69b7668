package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/wallacemaster800-spec/acameria-academy/internal/db/models"
)

// BunCourseRepository implements CourseRepository using Bun ORM
type BunCourseRepository struct {
	db *bun.DB
}

// NewBunCourseRepository creates a new Bun-based course repository
func NewBunCourseRepository(db *bun.DB) *BunCourseRepository {
	return &BunCourseRepository{db: db}
}

// Create inserts a new course
func (r *BunCourseRepository) Create(ctx context.Context, course *models.Course) error {
	_, err := r.db.NewInsert().
		Model(course).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update persists course metadata changes
func (r *BunCourseRepository) Update(ctx context.Context, course *models.Course) error {
	_, err := r.db.NewUpdate().
		Model(course).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete removes a course; modules, lessons, enrollments, and requests
// cascade at the schema level.
func (r *BunCourseRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().
		Model((*models.Course)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

// SetPublished toggles catalog visibility
func (r *BunCourseRepository) SetPublished(ctx context.Context, id string, published bool) error {
	_, err := r.db.NewUpdate().
		Model((*models.Course)(nil)).
		Set("is_published = ?", published).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set published: %w", err)
	}
	return nil
}

// GetByID retrieves a course by id
func (r *BunCourseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	course := new(models.Course)
	err := r.db.NewSelect().
		Model(course).
		Where("c.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("course %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	return course, nil
}

// GetBySlug retrieves a course by slug
func (r *BunCourseRepository) GetBySlug(ctx context.Context, slug string) (*models.Course, error) {
	course := new(models.Course)
	err := r.db.NewSelect().
		Model(course).
		Where("slug = ?", slug).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("course %s: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("get course by slug: %w", err)
	}
	return course, nil
}

// GetContent loads the course with modules and lessons, both ordered by
// order_index. This feeds the player sidebar.
func (r *BunCourseRepository) GetContent(ctx context.Context, id string) (*models.Course, error) {
	course := new(models.Course)
	err := r.db.NewSelect().
		Model(course).
		Where("c.id = ?", id).
		Relation("Modules", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("order_index ASC")
		}).
		Relation("Modules.Lessons", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("order_index ASC")
		}).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("course %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get course content: %w", err)
	}
	return course, nil
}

// List retrieves courses, newest first. publishedOnly hides drafts from
// the student catalog.
func (r *BunCourseRepository) List(ctx context.Context, publishedOnly bool) ([]models.Course, error) {
	var courses []models.Course
	q := r.db.NewSelect().
		Model(&courses).
		Order("created_at DESC")
	if publishedOnly {
		q = q.Where("is_published = ?", true)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// CreateModule inserts a module
func (r *BunCourseRepository) CreateModule(ctx context.Context, module *models.CourseModule) error {
	_, err := r.db.NewInsert().
		Model(module).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create module: %w", err)
	}
	return nil
}

// DeleteModule removes a module and its lessons (cascade)
func (r *BunCourseRepository) DeleteModule(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().
		Model((*models.CourseModule)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	return nil
}

// CreateLesson inserts a lesson
func (r *BunCourseRepository) CreateLesson(ctx context.Context, lesson *models.Lesson) error {
	_, err := r.db.NewInsert().
		Model(lesson).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// DeleteLesson removes a lesson
func (r *BunCourseRepository) DeleteLesson(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().
		Model((*models.Lesson)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	return nil
}

// GetLesson retrieves a lesson by id
func (r *BunCourseRepository) GetLesson(ctx context.Context, id string) (*models.Lesson, error) {
	lesson := new(models.Lesson)
	err := r.db.NewSelect().
		Model(lesson).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lesson %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	return lesson, nil
}

// CourseIDForLesson resolves the owning course of a lesson via its module.
func (r *BunCourseRepository) CourseIDForLesson(ctx context.Context, lessonID string) (string, error) {
	var courseID string
	err := r.db.NewSelect().
		Model((*models.Lesson)(nil)).
		Column("m.course_id").
		Join("JOIN course_modules AS m ON m.id = l.module_id").
		Where("l.id = ?", lessonID).
		Scan(ctx, &courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("lesson %s: %w", lessonID, ErrNotFound)
		}
		return "", fmt.Errorf("course for lesson: %w", err)
	}
	return courseID, nil
}

// LessonIDsByCourse returns every lesson id grouped by course id.
func (r *BunCourseRepository) LessonIDsByCourse(ctx context.Context) (map[string][]string, error) {
	var rows []struct {
		CourseID string `bun:"course_id"`
		LessonID string `bun:"lesson_id"`
	}
	err := r.db.NewSelect().
		Model((*models.Lesson)(nil)).
		ColumnExpr("m.course_id AS course_id").
		ColumnExpr("l.id AS lesson_id").
		Join("JOIN course_modules AS m ON m.id = l.module_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("lesson ids by course: %w", err)
	}

	byCourse := make(map[string][]string)
	for _, row := range rows {
		byCourse[row.CourseID] = append(byCourse[row.CourseID], row.LessonID)
	}
	return byCourse, nil
}
