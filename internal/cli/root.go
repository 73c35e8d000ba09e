// Package cli is the cinepwa command line client.
package cli

import (
	"cinepwa/proj/internal/cli/appctx"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. dial opens the local store and the backend.
func NewRootCmd(dial appctx.Dialer) *cobra.Command {
	root := &cobra.Command{
		Use:   "cinepwa",
		Short: "Shared movie and TV watchlists from the terminal",
		Long: `cinepwa keeps a personal watchlist and shared lists in sync with the
cinepwa backend. You start out anonymous; sign in by e-mail to keep your
data across devices.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("api", "", "Backend URL (overrides CINEPWA_API_URL)")
	root.PersistentFlags().String("data", "", "Local store path (overrides CINEPWA_DATA)")
	root.PersistentFlags().StringP("output", "o", "", "Output format: table, json or yaml")
	root.PersistentFlags().Bool("debug", false, "Log to stderr")

	root.AddCommand(
		newWhoamiCmd(dial),
		newLoginCmd(dial),
		newVerifyCmd(dial),
		newLogoutCmd(dial),
		newSyncCmd(dial),
		newWatchlistCmd(dial),
		newWatchedCmd(dial),
		newListsCmd(dial),
		newSearchCmd(dial),
	)
	return root
}

// Execute runs the client against the configured backend.
func Execute() error {
	return NewRootCmd(appctx.Dial).Execute()
}
