package cli

import (
	"strings"

	"cinepwa/proj/internal/cli/appctx"

	"github.com/spf13/cobra"
)

func newSearchCmd(dial appctx.Dialer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search movies and TV shows",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.RunE = appctx.WithApp(dial, withCache, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		out, err := newOutput(app)
		if err != nil {
			return err
		}
		results, err := app.Remote.Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(results))
		for _, item := range results {
			rows = append(rows, contentRow(item, yesNo(app.Cache.IsInList(item.ID)), yesNo(app.Cache.IsWatched(item.ID))))
		}
		return out.print(results, []string{"ID", "TYPE", "TITLE", "YEAR", "LISTED", "WATCHED"}, rows)
	})
	return cmd
}
