package cmd

import (
	"context"
	"errors"
	"fmt"

	"musicapp/core/account"
	"musicapp/server"

	"github.com/spf13/cobra"
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin [name] [email] [password]",
	Short: "Create an admin user",
	Long:  `Create an admin user. Missing arguments fall back to "Admin User", admin@example.com and admin123.`,
	Args:  cobra.MaximumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, email, password := "Admin User", "admin@example.com", "admin123"
		if len(args) > 0 {
			name = args[0]
		}
		if len(args) > 1 {
			email = args[1]
		}
		if len(args) > 2 {
			password = args[2]
		}

		ctx := context.Background()
		app, err := server.Bootstrap(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		admin, err := app.Accounts.CreateAdmin(ctx, name, email, password)
		if errors.Is(err, account.ErrAdminExists) {
			fmt.Println("Admin user already exists with this email.")
			fmt.Println("To create a new admin, use a different email.")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Println("Admin user created successfully!")
		fmt.Printf("  Name:  %s\n", admin.Name)
		fmt.Printf("  Email: %s\n", admin.Email)
		fmt.Printf("  Role:  %s\n", admin.Role)
		fmt.Println("Please change the password after first login.")
		fmt.Printf("Login at: http://localhost%s/admin/login.html\n", cfg.Addr())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createAdminCmd)
}
