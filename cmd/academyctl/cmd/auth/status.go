package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/wallacemaster800-spec/acameria-academy/cmd/academyctl/internal/config"
	"github.com/wallacemaster800-spec/acameria-academy/pkg/authstate"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display authentication and platform access status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		backend, err := cfg.Provider.Backend()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		manager := authstate.NewManager(backend, backend)

		settled := make(chan authstate.Snapshot, 1)
		unsubscribe := manager.SubscribeSnapshot(func(snap authstate.Snapshot) {
			if snap.Loading || (snap.User != nil && !snap.ProfileResolved) {
				return
			}
			select {
			case settled <- snap:
			default:
			}
		})
		defer unsubscribe()

		if err := manager.Start(ctx); err != nil {
			return err
		}

		var snap authstate.Snapshot
		select {
		case snap = <-settled:
		case <-ctx.Done():
			return fmt.Errorf("timed out resolving session state")
		}

		pterm.DefaultSection.Println("Authentication Status")

		if snap.User == nil {
			pterm.Warning.Println("Not logged in")
			return nil
		}

		pterm.Info.Printf("Logged in as: %s\n", snap.User.Email)
		if snap.Profile != nil {
			pterm.Info.Printf("Name: %s\n", snap.Profile.FullName)
			if snap.Profile.AccessExpiresAt != nil {
				pterm.Info.Printf("Platform access until: %s\n", snap.Profile.AccessExpiresAt.Format(time.RFC1123))
			}
		}
		if snap.IsAdmin {
			pterm.Info.Println("Role: admin")
		}

		switch authstate.Decide(snap, authstate.Route{RequiresAuth: true}, time.Now()) {
		case authstate.DecisionAllow:
			pterm.Success.Println("Platform access: active")
		case authstate.DecisionRedirectUpgrade:
			pterm.Warning.Println("Platform access: expired")
		default:
			pterm.Warning.Println("Platform access: unavailable")
		}
		return nil
	},
}
