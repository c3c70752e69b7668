package courses

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	positionFlag  int
	completedFlag bool
)

var progressCmd = &cobra.Command{
	Use:   "progress <lesson-id>",
	Short: "Record watch progress for a lesson",
	Args:  cobra.ExactArgs(1),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		client, err := api(cobraCmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cobraCmd.Context(), 10*time.Second)
		defer cancel()

		if err := client.RecordProgress(ctx, args[0], positionFlag, completedFlag); err != nil {
			return fmt.Errorf("failed to record progress: %w", err)
		}

		pterm.Success.Println("Progress recorded")
		return nil
	},
}

func init() {
	progressCmd.Flags().IntVar(&positionFlag, "position", 0, "Watch position in seconds")
	progressCmd.Flags().BoolVar(&completedFlag, "completed", false, "Mark the lesson completed")
}
