// Package courses holds the catalog browsing and progress commands.
package courses

import (
	"github.com/spf13/cobra"

	"github.com/wallacemaster800-spec/acameria-academy/cmd/academyctl/internal/config"
	apiclient "github.com/wallacemaster800-spec/acameria-academy/pkg/client"
)

// CoursesCmd is the parent command for catalog operations
var CoursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "Browse the course catalog",
	Long:  `Commands for listing courses, viewing content, and tracking progress.`,
}

func init() {
	CoursesCmd.AddCommand(listCmd)
	CoursesCmd.AddCommand(showCmd)
	CoursesCmd.AddCommand(requestCmd)
	CoursesCmd.AddCommand(progressCmd)
}

func api(cmd *cobra.Command) (*apiclient.Client, error) {
	cfg := config.MustFromContext(cmd.Context())
	return cfg.Provider.API()
}
