package cmd

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ardiansyahn/crm-backoffice/internal/session"
)

var (
	loginEmail    string
	loginPassword string

	signupName  string
	signupPhone string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the CRM backend",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fail(err)
		}
		defer app.Close()

		password := loginPassword
		if password == "" {
			fmt.Print("Password: ")
			raw, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Println()
			if err != nil {
				fail(err)
			}
			password = string(raw)
		}

		sess, err := app.Sessions.Login(context.Background(), session.LoginInput{
			Email:    loginEmail,
			Password: password,
		})
		if err != nil {
			fail(err)
		}

		fmt.Printf("Logged in as %s (%s)\n", sess.DisplayName, sess.Role)
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and log in",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fail(err)
		}
		defer app.Close()

		password := loginPassword
		if password == "" {
			fmt.Print("Password: ")
			raw, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Println()
			if err != nil {
				fail(err)
			}
			password = string(raw)
		}

		sess, err := app.Sessions.Register(context.Background(), session.SignupInput{
			Name:     signupName,
			Email:    loginEmail,
			Password: password,
			Phone:    signupPhone,
		})
		if err != nil {
			fail(err)
		}

		fmt.Printf("Account created, logged in as %s (%s)\n", sess.DisplayName, sess.Role)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fail(err)
		}
		defer app.Close()

		if err := app.Sessions.Logout(context.Background()); err != nil {
			fail(err)
		}
		fmt.Println("Logged out")
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the active session",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fail(err)
		}
		defer app.Close()

		sess, err := app.requireSession(context.Background())
		if err != nil {
			fail(err)
		}

		fmt.Printf("%s <%s>\nrole: %s\n", sess.DisplayName, sess.Email, sess.Role)
		if claims, err := session.ParseAccessClaims(app.Tokens.AccessToken()); err == nil {
			if remaining := claims.ExpiresIn(time.Now()); remaining > 0 {
				fmt.Printf("access token expires in %s\n", remaining.Round(time.Second))
			} else {
				fmt.Println("access token expired, will refresh on next request")
			}
		}
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (prompted when omitted)")
	loginCmd.MarkFlagRequired("email")

	signupCmd.Flags().StringVar(&signupName, "name", "", "display name")
	signupCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	signupCmd.Flags().StringVar(&loginPassword, "password", "", "account password (prompted when omitted)")
	signupCmd.Flags().StringVar(&signupPhone, "phone", "", "contact phone")
	signupCmd.MarkFlagRequired("name")
	signupCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
