package courses

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var requestCmd = &cobra.Command{
	Use:   "request <course-id>",
	Short: "Request access to a course",
	Long: `Files an access request for a course. An administrator reviews the
request; you are notified by email when it is decided.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		client, err := api(cobraCmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cobraCmd.Context(), 10*time.Second)
		defer cancel()

		receipt, err := client.RequestAccess(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to request access: %w", err)
		}

		pterm.Success.Printf("Access request filed (id %s, status %s)\n", receipt.ID, receipt.Status)
		return nil
	},
}
