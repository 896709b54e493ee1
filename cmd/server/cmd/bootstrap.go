package cmd

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"datagate/internal/platform/config"
	"datagate/internal/platform/logger"
	"datagate/internal/user"
)

func newBootstrapCmd() *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Seed the SYSTEM user into the configured store",
		Long: `Seed the SYSTEM user that is allowed to register every other user.

Running it again against a durable store leaves the existing user untouched.

Examples:
  datagate bootstrap --address creator
  DATAGATE_STORE=sqlite SQLITE_PATH=/var/lib/datagate.db datagate bootstrap --address creator`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if address == "" {
				address = cfg.SystemAddress
			}
			if address == "" {
				return errors.New("--address or DATAGATE_SYSTEM_ADDRESS is required")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			log := logger.New(cmd.ErrOrStderr(), cfg.LogLevel)
			d, err := openBackend(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer d.Close()

			system, err := user.SeedSystemUser(ctx, d.backend, address)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), system)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "Address of the SYSTEM user")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
