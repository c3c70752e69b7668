package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wallacemaster800-spec/acameria-academy/cmd/academyctl/cmd/auth"
	"github.com/wallacemaster800-spec/acameria-academy/cmd/academyctl/cmd/courses"
	"github.com/wallacemaster800-spec/acameria-academy/cmd/academyctl/internal/client"
	"github.com/wallacemaster800-spec/acameria-academy/cmd/academyctl/internal/config"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "academyctl",
	Short: "Academy CLI - video course platform client",
	Long: `academyctl is the command-line interface for the Acameria Academy
video course platform. Use it to log in, browse the catalog, and track
lesson progress.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if env := os.Getenv("ACADEMY_SERVER_URL"); env != "" && !cmd.Flags().Changed("server") {
			serverURL = env
		}

		cfg := &config.GlobalConfig{
			ServerURL: serverURL,
			Provider:  client.NewProvider(serverURL),
		}
		cmd.SetContext(config.InjectConfig(cmd.Context(), cfg))
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Academy API server URL (also set via ACADEMY_SERVER_URL)")
	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(courses.CoursesCmd)
}
