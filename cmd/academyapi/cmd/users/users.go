// Package users holds the operator CLI for account management. It talks
// to the database directly, so it works before the server is up; the
// create command with --admin is how the first administrator gets
// bootstrapped.
package users

import "github.com/spf13/cobra"

// UsersCmd is the parent command for user management.
var UsersCmd = &cobra.Command{
	Use:   "users",
	Short: "User account management commands",
	Long:  `Commands for creating accounts and managing roles without going through the API.`,
}

func init() {
	UsersCmd.AddCommand(createCmd)
	UsersCmd.AddCommand(promoteCmd)
	UsersCmd.AddCommand(demoteCmd)
	UsersCmd.AddCommand(disableCmd)
}
