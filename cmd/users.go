package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ardiansyahn/crm-backoffice/internal"
	"github.com/ardiansyahn/crm-backoffice/internal/core/datamodel"
	"github.com/ardiansyahn/crm-backoffice/internal/session"
)

var (
	userName     string
	userEmail    string
	userPassword string
	userPhone    string
	userRole     string
	userManager  string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage staff accounts",
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a staff account (admin only)",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fail(err)
		}
		defer app.Close()

		ctx := context.Background()
		if _, err := app.requireSession(ctx); err != nil {
			fail(err)
		}
		if !app.Sessions.HasPermission(session.ModuleUsers, session.ActionCreate) {
			fail(internal.NewForbiddenError("only admins can create accounts", internal.ErrCodePermissionDenied))
		}

		user, err := app.Sessions.CreateUser(ctx, session.CreateUserInput{
			Name:      userName,
			Email:     userEmail,
			Password:  userPassword,
			Phone:     userPhone,
			Role:      datamodel.Role(userRole),
			ManagerID: datamodel.ID(userManager),
		})
		if err != nil {
			fail(err)
		}

		fmt.Printf("Created %s <%s> as %s\n", user.DisplayName(), user.Email, user.Role)
	},
}

func init() {
	usersCreateCmd.Flags().StringVar(&userName, "name", "", "display name")
	usersCreateCmd.Flags().StringVar(&userEmail, "email", "", "account email")
	usersCreateCmd.Flags().StringVar(&userPassword, "password", "", "initial password")
	usersCreateCmd.Flags().StringVar(&userPhone, "phone", "", "contact phone")
	usersCreateCmd.Flags().StringVar(&userRole, "role", "employee", "admin, manager or employee")
	usersCreateCmd.Flags().StringVar(&userManager, "manager", "", "manager user id for employees")
	usersCreateCmd.MarkFlagRequired("name")
	usersCreateCmd.MarkFlagRequired("email")
	usersCreateCmd.MarkFlagRequired("password")

	usersCmd.AddCommand(usersCreateCmd)
	rootCmd.AddCommand(usersCmd)
}
