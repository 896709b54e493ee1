package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jwttoken "datagate/internal/jwt_token"
	"datagate/internal/platform/config"
)

func newTokenCmd() *cobra.Command {
	var (
		address string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a caller token",
		Long: `Mint a bearer token whose address claim identifies the caller.

The token is signed with JWT_SIGNING_KEY, so it is only accepted by servers
sharing that key.

Examples:
  datagate token --address a1
  datagate token --address creator --ttl 15m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive, got %s", ttl)
			}
			cfg := config.FromEnv()
			svc := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
			token, err := svc.GenerateCallerToken(address, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "Caller address carried by the token")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}
