package auth

import (
	"bufio"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/wallacemaster800-spec/acameria-academy/cmd/academyctl/internal/config"
)

var (
	emailFlag    string
	passwordFlag string
	stdinFlag    bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with the Academy server",
	Long: `Authenticates with email and password and stores the issued session
token under ~/.academy for later commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		if emailFlag == "" {
			return fmt.Errorf("--email flag is required")
		}

		password := passwordFlag
		if stdinFlag {
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Print("Enter password: ")
			if scanner.Scan() {
				password = scanner.Text()
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
		}
		if password == "" {
			return fmt.Errorf("password is required (use --password or --stdin)")
		}

		backend, err := cfg.Provider.Backend()
		if err != nil {
			return err
		}

		user, err := backend.SignIn(cmd.Context(), emailFlag, password)
		if err != nil {
			return err
		}

		pterm.Success.Printf("Logged in as %s (%s)\n", user.FullName, user.Email)
		if user.IsAdmin {
			pterm.Info.Println("Account has the admin role")
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&emailFlag, "email", "", "Email address (required)")
	loginCmd.Flags().StringVar(&passwordFlag, "password", "", "Password")
	loginCmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read password from stdin")
}
