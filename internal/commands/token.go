package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"taskflow/internal/recordapi"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the record service",
	Long:  "Sign a token with JWT_SECRET. A zero --ttl issues a token that never expires.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required to issue tokens")
		}

		token, err := recordapi.IssueToken([]byte(cfg.JWTSecret), subject, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("subject", "taskflow", "Token subject")
	tokenCmd.Flags().Duration("ttl", 30*24*time.Hour, "Token lifetime")
}
