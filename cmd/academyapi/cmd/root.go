package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wallacemaster800-spec/acameria-academy/cmd/academyapi/cmd/users"
	"github.com/wallacemaster800-spec/acameria-academy/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "academyapi",
	Short: "Acameria Academy API server",
	Long: `Acameria Academy API server hosts the video course platform:
authentication, the course catalog, lesson progress, and time-boxed
course access managed by administrators.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(users.UsersCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
