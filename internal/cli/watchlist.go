package cli

import (
	"cinepwa/proj/internal/cli/appctx"
	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/services/sharing"

	"github.com/spf13/cobra"
)

var withCache = appctx.Options{NeedsCache: true}

func newSyncCmd(dial appctx.Dialer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push local changes and pull your watchlist",
		Args:  cobra.NoArgs,
	}
	// Bootstrap already synced.
	cmd.RunE = appctx.WithApp(dial, withCache, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		out, err := newOutput(app)
		if err != nil {
			return err
		}
		st := app.Cache.Snapshot()
		summary := map[string]int{"watchlist": len(st.MyList), "watched": len(st.WatchedIDs)}
		return out.print(summary, []string{"WATCHLIST", "WATCHED"}, [][]string{
			{itoa(len(st.MyList)), itoa(len(st.WatchedIDs))},
		})
	})
	return cmd
}

func newWatchlistCmd(dial appctx.Dialer) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watchlist",
		Aliases: []string{"wl"},
		Short:   "Manage your personal watchlist",
	}

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List your watchlist",
		Args:  cobra.NoArgs,
	}
	ls.RunE = appctx.WithApp(dial, withCache, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		out, err := newOutput(app)
		if err != nil {
			return err
		}
		st := app.Cache.Snapshot()
		rows := make([][]string, 0, len(st.MyList))
		for _, item := range st.MyList {
			rows = append(rows, contentRow(item, yesNo(st.Watched(item.ID))))
		}
		return out.print(st, []string{"ID", "TYPE", "TITLE", "YEAR", "WATCHED"}, rows)
	})

	add := &cobra.Command{
		Use:   "add <tmdb id>",
		Short: "Add a title to your watchlist",
		Args:  cobra.ExactArgs(1),
	}
	addTypeFlag(add)
	add.RunE = appctx.WithApp(dial, withCache, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		id, err := parseTMDBID(args[0])
		if err != nil {
			return err
		}
		mediaType, err := typeFlag(cmd)
		if err != nil {
			return err
		}
		if app.Cache.IsInList(id) {
			app.Notify("Already in your watchlist", nil)
			return nil
		}
		details, err := app.Remote.GetDetails(cmd.Context(), id, mediaType)
		if err != nil {
			return err
		}
		app.Cache.AddToList(cmd.Context(), details.ContentItem)
		app.Notify("Added "+details.DisplayTitle(), nil)
		return nil
	})

	rm := &cobra.Command{
		Use:   "rm <tmdb id>",
		Short: "Remove a title from your watchlist",
		Args:  cobra.ExactArgs(1),
	}
	rm.RunE = appctx.WithApp(dial, withCache, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		id, err := parseTMDBID(args[0])
		if err != nil {
			return err
		}
		app.Cache.RemoveFromList(cmd.Context(), id)
		return nil
	})

	share := &cobra.Command{
		Use:   "share",
		Short: "Print a link that shows your watchlist to anyone",
		Args:  cobra.NoArgs,
	}
	share.RunE = appctx.WithApp(dial, withCache, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		out, err := newOutput(app)
		if err != nil {
			return err
		}
		st := app.Cache.Snapshot()
		refs := make([]models.ContentRef, len(st.MyList))
		for i, item := range st.MyList {
			refs[i] = item.Ref()
		}
		link := sharing.URL(app.Config.WebURL, refs)
		return out.print(map[string]string{"url": link}, []string{"URL"}, [][]string{{link}})
	})

	cmd.AddCommand(ls, add, rm, share)
	return cmd
}

func newWatchedCmd(dial appctx.Dialer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watched",
		Short: "Mark titles as watched or unwatched",
	}

	add := &cobra.Command{
		Use:   "add <tmdb id>",
		Short: "Mark a title as watched",
		Args:  cobra.ExactArgs(1),
	}
	add.RunE = appctx.WithApp(dial, withCache, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		id, err := parseTMDBID(args[0])
		if err != nil {
			return err
		}
		app.Cache.MarkAsWatched(cmd.Context(), id)
		return nil
	})

	rm := &cobra.Command{
		Use:   "rm <tmdb id>",
		Short: "Mark a title as not watched",
		Args:  cobra.ExactArgs(1),
	}
	rm.RunE = appctx.WithApp(dial, withCache, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		id, err := parseTMDBID(args[0])
		if err != nil {
			return err
		}
		app.Cache.MarkAsUnwatched(cmd.Context(), id)
		return nil
	})

	cmd.AddCommand(add, rm)
	return cmd
}
