package main

import (
	"fmt"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/spf13/cobra"
)

var (
	promoteAdmin  bool
	promoteRevoke bool
)

var promoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Grant or revoke moderator (or admin) rights for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := args[0]

		var user models.User
		if err := database.DB.Where("email = ?", email).First(&user).Error; err != nil {
			return fmt.Errorf("no user with email %s", email)
		}

		role := "moderator"
		column := "is_moderator"
		if promoteAdmin {
			role = "admin"
			column = "is_admin"
		}

		if err := database.DB.Model(&user).Update(column, !promoteRevoke).Error; err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		verb := "granted to"
		if promoteRevoke {
			verb = "revoked from"
		}
		fmt.Printf("%s role %s %s (@%s)\n", role, verb, user.Email, user.Username)
		return nil
	},
}

func init() {
	promoteCmd.Flags().BoolVar(&promoteAdmin, "admin", false, "Grant admin instead of moderator")
	promoteCmd.Flags().BoolVar(&promoteRevoke, "revoke", false, "Revoke the role instead of granting it")
}
