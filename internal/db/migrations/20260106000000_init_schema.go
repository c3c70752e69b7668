package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/wallacemaster800-spec/acameria-academy/internal/db/models"
)

func init() {
	Migrations.MustRegister(up_20260106000000, down_20260106000000)
}

// up_20260106000000 creates the full platform schema: accounts, sessions,
// roles, catalog, progress, and access control tables.
//
// SQLite only enforces foreign keys declared inline at table creation, so
// those go through ForeignKey on the create. PostgreSQL gets named
// constraints added afterwards instead.
func up_20260106000000(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating users table...")
	_, err := db.NewCreateTable().
		Model((*models.User)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	if _, err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email)`); err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating user_roles table...")
	q := db.NewCreateTable().
		Model((*models.UserRole)(nil)).
		IfNotExists()
	if IsSQLite(db) {
		q = q.ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`)
	}
	if _, err = q.Exec(ctx); err != nil {
		return fmt.Errorf("create user_roles table: %w", err)
	}
	if IsPostgreSQL(db) {
		db.Exec(`ALTER TABLE user_roles ADD CONSTRAINT fk_user_roles_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE`)
	}
	if _, err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_user_roles_user_role ON user_roles(user_id, role)`); err != nil {
		return fmt.Errorf("create user_roles index: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating sessions table...")
	q = db.NewCreateTable().
		Model((*models.Session)(nil)).
		IfNotExists()
	if IsSQLite(db) {
		q = q.ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`)
	}
	if _, err = q.Exec(ctx); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	if IsPostgreSQL(db) {
		db.Exec(`ALTER TABLE sessions ADD CONSTRAINT fk_sessions_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE`)
	}
	if _, err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_token_hash ON sessions(token_hash)`); err != nil {
		return fmt.Errorf("create sessions token index: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating courses table...")
	_, err = db.NewCreateTable().
		Model((*models.Course)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create courses table: %w", err)
	}
	if _, err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_courses_slug ON courses(slug)`); err != nil {
		return fmt.Errorf("create courses slug index: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating course_modules table...")
	q = db.NewCreateTable().
		Model((*models.CourseModule)(nil)).
		IfNotExists()
	if IsSQLite(db) {
		q = q.ForeignKey(`("course_id") REFERENCES "courses" ("id") ON DELETE CASCADE`)
	}
	if _, err = q.Exec(ctx); err != nil {
		return fmt.Errorf("create course_modules table: %w", err)
	}
	if IsPostgreSQL(db) {
		db.Exec(`ALTER TABLE course_modules ADD CONSTRAINT fk_course_modules_course FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE`)
	}
	if _, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_course_modules_course ON course_modules(course_id, order_index)`); err != nil {
		return fmt.Errorf("create course_modules index: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating lessons table...")
	q = db.NewCreateTable().
		Model((*models.Lesson)(nil)).
		IfNotExists()
	if IsSQLite(db) {
		q = q.ForeignKey(`("module_id") REFERENCES "course_modules" ("id") ON DELETE CASCADE`)
	}
	if _, err = q.Exec(ctx); err != nil {
		return fmt.Errorf("create lessons table: %w", err)
	}
	if IsPostgreSQL(db) {
		db.Exec(`ALTER TABLE lessons ADD CONSTRAINT fk_lessons_module FOREIGN KEY (module_id) REFERENCES course_modules(id) ON DELETE CASCADE`)
	}
	if _, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_lessons_module ON lessons(module_id, order_index)`); err != nil {
		return fmt.Errorf("create lessons index: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating lesson_progress table...")
	q = db.NewCreateTable().
		Model((*models.LessonProgress)(nil)).
		IfNotExists()
	if IsSQLite(db) {
		q = q.ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
			ForeignKey(`("lesson_id") REFERENCES "lessons" ("id") ON DELETE CASCADE`)
	}
	if _, err = q.Exec(ctx); err != nil {
		return fmt.Errorf("create lesson_progress table: %w", err)
	}
	if IsPostgreSQL(db) {
		db.Exec(`ALTER TABLE lesson_progress ADD CONSTRAINT fk_lesson_progress_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE`)
		db.Exec(`ALTER TABLE lesson_progress ADD CONSTRAINT fk_lesson_progress_lesson FOREIGN KEY (lesson_id) REFERENCES lessons(id) ON DELETE CASCADE`)
	}
	if _, err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_lesson_progress_user_lesson ON lesson_progress(user_id, lesson_id)`); err != nil {
		return fmt.Errorf("create lesson_progress index: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating enrollments table...")
	q = db.NewCreateTable().
		Model((*models.Enrollment)(nil)).
		IfNotExists()
	if IsSQLite(db) {
		q = q.ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
			ForeignKey(`("course_id") REFERENCES "courses" ("id") ON DELETE CASCADE`)
	}
	if _, err = q.Exec(ctx); err != nil {
		return fmt.Errorf("create enrollments table: %w", err)
	}
	if IsPostgreSQL(db) {
		db.Exec(`ALTER TABLE enrollments ADD CONSTRAINT fk_enrollments_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE`)
		db.Exec(`ALTER TABLE enrollments ADD CONSTRAINT fk_enrollments_course FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE`)
	}
	if _, err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_enrollments_user_course ON enrollments(user_id, course_id)`); err != nil {
		return fmt.Errorf("create enrollments index: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating access_requests table...")
	q = db.NewCreateTable().
		Model((*models.AccessRequest)(nil)).
		IfNotExists()
	if IsSQLite(db) {
		q = q.ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
			ForeignKey(`("course_id") REFERENCES "courses" ("id") ON DELETE CASCADE`)
	}
	if _, err = q.Exec(ctx); err != nil {
		return fmt.Errorf("create access_requests table: %w", err)
	}
	if IsPostgreSQL(db) {
		db.Exec(`ALTER TABLE access_requests ADD CONSTRAINT fk_access_requests_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE`)
		db.Exec(`ALTER TABLE access_requests ADD CONSTRAINT fk_access_requests_course FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE`)
	}
	if _, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_access_requests_course_status ON access_requests(course_id, status)`); err != nil {
		return fmt.Errorf("create access_requests index: %w", err)
	}
	fmt.Println(" OK")

	return nil
}

// down_20260106000000 drops all platform tables in reverse dependency order.
func down_20260106000000(ctx context.Context, db *bun.DB) error {
	tables := []string{
		"access_requests",
		"enrollments",
		"lesson_progress",
		"lessons",
		"course_modules",
		"courses",
		"sessions",
		"user_roles",
		"users",
	}
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table)); err != nil {
			return fmt.Errorf("drop %s table: %w", table, err)
		}
	}
	return nil
}
