package users

import (
	"bufio"
	"context"
	"fmt"
	"net/mail"
	"os"

	"github.com/spf13/cobra"

	"github.com/wallacemaster800-spec/acameria-academy/internal/config"
	"github.com/wallacemaster800-spec/acameria-academy/internal/db/bunx"
	"github.com/wallacemaster800-spec/acameria-academy/internal/db/models"
)

var (
	emailFlag    string
	fullNameFlag string
	passwordFlag string
	stdinFlag    bool
	adminFlag    bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if emailFlag == "" {
			return fmt.Errorf("--email flag is required")
		}
		if fullNameFlag == "" {
			return fmt.Errorf("--name flag is required")
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

		if _, err := mail.ParseAddress(emailFlag); err != nil {
			return fmt.Errorf("invalid email format: %w", err)
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := bunx.NewDB(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		svc, err := newIAMService(db, cfg)
		if err != nil {
			return err
		}

		ctx := context.Background()
		user, err := svc.CreateUser(ctx, emailFlag, fullNameFlag, password)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		if adminFlag {
			// Bootstrap case: the first admin has nobody to assign them,
			// so the assignment is recorded against their own ID.
			if err := svc.AssignRole(ctx, user.ID, models.RoleAdmin, user.ID); err != nil {
				return fmt.Errorf("failed to assign admin role: %w", err)
			}
		}

		fmt.Printf("Created user %s (%s)\n", user.Email, user.ID)
		if adminFlag {
			fmt.Println("Assigned role: admin")
		}
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&emailFlag, "email", "", "Email address (required)")
	createCmd.Flags().StringVar(&fullNameFlag, "name", "", "Full name (required)")
	createCmd.Flags().StringVar(&passwordFlag, "password", "", "Password")
	createCmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read password from stdin")
	createCmd.Flags().BoolVar(&adminFlag, "admin", false, "Assign the admin role")
}
