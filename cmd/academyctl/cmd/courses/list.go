package courses

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List published courses",
	Long:  `Lists the published catalog with your enrollment state and progress.`,
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		client, err := api(cobraCmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cobraCmd.Context(), 10*time.Second)
		defer cancel()

		courses, err := client.ListCourses(ctx)
		if err != nil {
			return fmt.Errorf("failed to list courses: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SLUG\tTITLE\tENROLLED\tPROGRESS")

		for _, course := range courses {
			enrolled := "no"
			if course.Enrolled {
				enrolled = "yes"
				if course.AccessExpiresAt != nil {
					enrolled = fmt.Sprintf("until %s", course.AccessExpiresAt.Format("2006-01-02"))
				}
			}

			progress := "-"
			if course.Progress != nil && course.Progress.TotalLessons > 0 {
				progress = fmt.Sprintf("%d/%d (%d%%)",
					course.Progress.CompletedLessons,
					course.Progress.TotalLessons,
					course.Progress.PercentComplete)
			}

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", course.Slug, course.Title, enrolled, progress)
		}

		w.Flush()

		return nil
	},
}
