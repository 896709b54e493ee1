// Package cmd holds the datagate commands.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "datagate",
		Short: "Permissioned registry of users and data-sharing applications",
		Long: `datagate stores users and their roles, and the data-sharing applications
enterprises submit. Every change is authorized against the caller's roles or
the application's permission list.

Configuration is read from the environment (DATAGATE_STORE, DATABASE_URL,
REDIS_URL, KAFKA_BROKERS, JWT_SIGNING_KEY, ...).`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newBootstrapCmd())
	root.AddCommand(newTokenCmd())
	return root
}
