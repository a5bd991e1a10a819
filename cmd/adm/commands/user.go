package commands

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"wastereport/internal/models"
	"wastereport/internal/observability"
	"wastereport/internal/services"
	contextutils "wastereport/internal/utils"

	"github.com/spf13/cobra"
)

// PasswordPrompt reads a secret after printing label
type PasswordPrompt func(label string) (string, error)

// TerminalPasswordPrompt reads a password from the terminal without echoing it
func TerminalPasswordPrompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to read password: %v", err)
	}
	return string(passwordBytes), nil
}

// UserCommands returns the user management commands
func UserCommands(userService services.UserServiceInterface, logger *observability.Logger, prompt PasswordPrompt) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "users",
		Short: "User management commands",
		Long: `User management commands for the waste reporting service.

Available commands:
  list           - List all users
  create         - Create a citizen or authority account
  reset-password - Reset password for a specific user`,
	}

	userCmd.AddCommand(listUsersCmd(userService, logger))
	userCmd.AddCommand(createUserCmd(userService, logger, prompt))
	userCmd.AddCommand(resetPasswordCmd(userService, logger, prompt))

	return userCmd
}

func listUsersCmd(userService services.UserServiceInterface, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			users, err := userService.ListUsers(ctx)
			if err != nil {
				logger.Error(ctx, "Failed to list users", err)
				return contextutils.WrapError(err, "failed to list users")
			}

			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, "No users found")
				return nil
			}

			fmt.Fprintf(out, "%-5s %-35s %-25s %-10s %-10s\n", "ID", "Email", "Name", "Role", "Created")
			fmt.Fprintln(out, strings.Repeat("-", 89))
			for _, user := range users {
				fmt.Fprintf(out, "%-5d %-35s %-25s %-10s %-10s\n",
					user.ID,
					user.Email,
					user.Name,
					user.Role,
					user.CreatedAt.Format("2006-01-02"),
				)
			}

			logger.Info(ctx, "Listed users", map[string]interface{}{"total": len(users)})
			return nil
		},
	}
}

func createUserCmd(userService services.UserServiceInterface, logger *observability.Logger, prompt PasswordPrompt) *cobra.Command {
	var email, name, role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Long:  `Create a user account. The password is prompted for twice.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			userRole, err := models.ParseUserRole(role)
			if err != nil {
				return err
			}

			password, err := promptNewPassword(prompt)
			if err != nil {
				return err
			}

			user, err := userService.CreateUser(ctx, email, password, name, userRole)
			if err != nil {
				logger.Error(ctx, "Failed to create user", err, map[string]interface{}{"email": email})
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %s (ID: %d)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleCitizen), "Role: citizen or authority")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func resetPasswordCmd(userService services.UserServiceInterface, logger *observability.Logger, prompt PasswordPrompt) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <email>",
		Short: "Reset password for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			email := args[0]

			user, err := userService.GetUserByEmail(ctx, email)
			if err != nil {
				if contextutils.IsError(err, contextutils.ErrRecordNotFound) {
					return contextutils.ErrorWithContextf("user '%s' not found", email)
				}
				return contextutils.WrapErrorf(err, "failed to get user '%s'", email)
			}

			password, err := promptNewPassword(prompt)
			if err != nil {
				return err
			}

			if err := userService.UpdateUserPassword(ctx, user.ID, password); err != nil {
				logger.Error(ctx, "Failed to update password", err, map[string]interface{}{"user_id": user.ID})
				return contextutils.WrapErrorf(err, "failed to update password for '%s'", email)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Password reset for %s (ID: %d)\n", user.Email, user.ID)
			logger.Info(ctx, "Password reset successful", map[string]interface{}{"user_id": user.ID})
			return nil
		},
	}
}

// promptNewPassword asks for a password and its confirmation
func promptNewPassword(prompt PasswordPrompt) (string, error) {
	password, err := prompt("Enter new password: ")
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", contextutils.ErrorWithContextf("password cannot be empty")
	}

	confirm, err := prompt("Confirm new password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", contextutils.ErrorWithContextf("passwords do not match")
	}
	return password, nil
}

