package cli

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/muhammedkisla/deryailetisim/internal/repository"
	"github.com/muhammedkisla/deryailetisim/internal/service"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin accounts",
}

var adminCreateFlags struct {
	email    string
	name     string
	password string
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account",
	Long: `Create an admin account with a confirmed email address.

Examples:
  deryactl admin create --email derya@deryailetisim.com --name Derya --password '...'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *sqlx.DB) error {
			user, err := service.CreateAdmin(cmd.Context(), repository.NewAdminUserRepository(db),
				adminCreateFlags.email, adminCreateFlags.password, adminCreateFlags.name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %d <%s>\n", user.ID, user.Email)
			return nil
		})
	},
}

func init() {
	adminCreateCmd.Flags().StringVar(&adminCreateFlags.email, "email", "", "login email")
	adminCreateCmd.Flags().StringVar(&adminCreateFlags.name, "name", "", "display name")
	adminCreateCmd.Flags().StringVar(&adminCreateFlags.password, "password", "", "initial password (min 6 characters)")
	_ = adminCreateCmd.MarkFlagRequired("email")
	_ = adminCreateCmd.MarkFlagRequired("password")
	adminCmd.AddCommand(adminCreateCmd)
}
