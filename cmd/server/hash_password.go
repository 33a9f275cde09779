package main

import (
	"fmt"

	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/service/auth"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

// newHashPasswordCmd prints a bcrypt hash for seeding users.password_hash.
func newHashPasswordCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash of a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := domain.ValidatePassword(args[0]); err != nil {
				return err
			}
			hash, err := auth.HashPassword(args[0], cost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}
