package auth

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/wallacemaster800-spec/acameria-academy/cmd/academyctl/internal/config"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and delete the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		backend, err := cfg.Provider.Backend()
		if err != nil {
			return err
		}

		// Local credentials are cleared even when the server-side
		// revocation fails.
		if err := backend.SignOut(cmd.Context()); err != nil {
			pterm.Warning.Printf("Server session revocation failed: %v\n", err)
		}
		pterm.Success.Println("Logged out")
		return nil
	},
}
