package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/raysh454/sitecheck/internal/model"
	"github.com/raysh454/sitecheck/internal/server"
)

func newTokenCommand(flags *Flags) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with server.jwt_secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cfg.Server.JWTSecret == "" {
				return errors.New("server.jwt_secret is not set")
			}
			r := model.Role(role)
			if r != model.RoleUser && r != model.RoleAdmin {
				return fmt.Errorf("role must be %q or %q", model.RoleUser, model.RoleAdmin)
			}
			tok, err := server.IssueToken(cfg.Server.JWTSecret, model.Caller{ID: subject, Role: r}, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "caller id (token subject)")
	cmd.Flags().StringVar(&role, "role", string(model.RoleUser), "user or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
