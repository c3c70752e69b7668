package courses

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Show a course's modules and lessons",
	Args:  cobra.ExactArgs(1),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		client, err := api(cobraCmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cobraCmd.Context(), 10*time.Second)
		defer cancel()

		course, err := client.GetCourse(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get course: %w", err)
		}

		pterm.DefaultSection.Println(course.Title)
		if course.Description != "" {
			fmt.Println(course.Description)
		}
		if !course.Enrolled {
			pterm.Warning.Println("Not enrolled; lesson videos are hidden. Use `academyctl courses request` to ask for access.")
		}

		for _, module := range course.Modules {
			pterm.DefaultSection.WithLevel(2).Println(module.Title)
			for _, lesson := range module.Lessons {
				marker := " "
				if lesson.IsCompleted {
					marker = "x"
				}
				duration := time.Duration(lesson.DurationSeconds) * time.Second
				fmt.Printf("  [%s] %s (%s)  id=%s\n", marker, lesson.Title, duration, lesson.ID)
			}
		}

		return nil
	},
}
