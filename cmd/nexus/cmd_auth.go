package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/nexus/app/models"
)

var loginFlags struct{ username, password string }

// nexus login
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and remember the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ask("Username:", &loginFlags.username); err != nil {
			return err
		}
		if err := askSecret("Password:", &loginFlags.password); err != nil {
			return err
		}
		user, err := nx.Session.Login(cmd.Context(), loginFlags.username, loginFlags.password)
		if err != nil {
			return reported(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user.DisplayName())
		return nil
	},
}

// nexus logout
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		nx.Session.Logout(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var registerFlags models.Registration

// nexus register
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := &registerFlags
		if err := ask("Username:", &r.Username); err != nil {
			return err
		}
		if err := ask("Email:", &r.Email); err != nil {
			return err
		}
		if err := askSecret("Password:", &r.Password); err != nil {
			return err
		}
		user, err := nx.Session.Register(cmd.Context(), *r)
		if err != nil {
			return reported(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Welcome to NovaMart, %s!\n", user.DisplayName())
		return nil
	},
}

// nexus whoami
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, ok := nx.Session.User()
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
			return nil
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Username:  %s\n", user.Username)
		fmt.Fprintf(w, "Name:      %s\n", user.DisplayName())
		fmt.Fprintf(w, "Email:     %s\n", user.Email)
		if user.Phone != "" {
			fmt.Fprintf(w, "Phone:     %s\n", user.Phone)
		}
		if user.IsStaff {
			fmt.Fprintln(w, "Role:      admin")
		}
		return nil
	},
}

var profileFlags models.ProfileUpdate

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your profile",
}

// nexus profile update --first-name … --phone …
var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change name, email or phone",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := nx.Session.UpdateProfile(cmd.Context(), profileFlags)
		if err != nil {
			return reported(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Profile saved for %s\n", user.DisplayName())
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginFlags.username, "username", "u", "", "account username")
	loginCmd.Flags().StringVarP(&loginFlags.password, "password", "p", "", "account password (prompted when omitted)")

	registerCmd.Flags().StringVarP(&registerFlags.Username, "username", "u", "", "username, 3 to 30 characters")
	registerCmd.Flags().StringVar(&registerFlags.Email, "email", "", "email address")
	registerCmd.Flags().StringVarP(&registerFlags.Password, "password", "p", "", "password (prompted when omitted)")
	registerCmd.Flags().StringVar(&registerFlags.FirstName, "first-name", "", "first name")
	registerCmd.Flags().StringVar(&registerFlags.LastName, "last-name", "", "last name")

	pf := profileUpdateCmd.Flags()
	pf.StringVar(&profileFlags.FirstName, "first-name", "", "first name")
	pf.StringVar(&profileFlags.LastName, "last-name", "", "last name")
	pf.StringVar(&profileFlags.Email, "email", "", "email address")
	pf.StringVar(&profileFlags.Phone, "phone", "", "phone number, +254… or 07…")
	profileCmd.AddCommand(profileUpdateCmd)
}
