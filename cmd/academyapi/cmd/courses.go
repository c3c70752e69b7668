package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/wallacemaster800-spec/acameria-academy/internal/db/bunx"
	"github.com/wallacemaster800-spec/acameria-academy/internal/repository"
	"github.com/wallacemaster800-spec/acameria-academy/internal/services/catalog"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "Course catalog management commands",
}

var coursesImportCmd = &cobra.Command{
	Use:   "import <manifest.json>",
	Short: "Create or replace a course from a manifest file",
	Long: `Imports a course manifest. An existing course with the same slug is
replaced in place: its modules and lessons are rebuilt from the manifest
while enrollments and the course ID survive.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read manifest: %w", err)
		}

		db, err := bunx.NewDB(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		svc := catalog.NewService(
			repository.NewBunCourseRepository(db),
			repository.NewBunProgressRepository(db),
		)

		course, err := svc.ImportManifest(context.Background(), data)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		lessons := 0
		for _, m := range course.Modules {
			lessons += len(m.Lessons)
		}
		log.Printf("Imported course %q (%s): %d modules, %d lessons",
			course.Slug, course.ID, len(course.Modules), lessons)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(coursesCmd)
	coursesCmd.AddCommand(coursesImportCmd)
}
