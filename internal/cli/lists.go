package cli

import (
	"context"
	"errors"
	"fmt"

	"cinepwa/proj/internal/cli/appctx"
	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/join"
	"cinepwa/proj/internal/lib/batch"

	"github.com/spf13/cobra"
)

const detailsConcurrency = 4

func newListsCmd(dial appctx.Dialer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Manage shared lists",
	}
	cmd.AddCommand(
		newListsLsCmd(dial),
		newListsCreateCmd(dial),
		newListsShowCmd(dial),
		newListsRenameCmd(dial),
		newListsRmCmd(dial),
		newListsAddCmd(dial),
		newListsRemoveItemCmd(dial),
		newListsShareCmd(dial),
		newListsJoinCmd(dial),
		newListsLeaveCmd(dial),
	)
	return cmd
}

func listRows(lists ...models.List) [][]string {
	rows := make([][]string, 0, len(lists))
	for _, l := range lists {
		rows = append(rows, []string{l.ID, l.Name, string(l.Role), l.UpdatedAt.Format("2006-01-02")})
	}
	return rows
}

var listHeaders = []string{"ID", "NAME", "ROLE", "UPDATED"}

func newListsLsCmd(dial appctx.Dialer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List the lists you belong to",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().String("sort", "", "Sort by name, created_at or updated_at; prefix - for descending")
	cmd.RunE = appctx.WithApp(dial, appctx.Options{}, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		out, err := newOutput(app)
		if err != nil {
			return err
		}
		sort, _ := cmd.Flags().GetString("sort")
		lists, err := app.Remote.ListLists(cmd.Context(), sort)
		if err != nil {
			return err
		}
		return out.print(lists, listHeaders, listRows(lists...))
	})
	return cmd
}

func newListsCreateCmd(dial appctx.Dialer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a list you own",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = appctx.WithApp(dial, appctx.Options{}, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		out, err := newOutput(app)
		if err != nil {
			return err
		}
		list, err := app.Remote.CreateList(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return out.print(list, listHeaders, listRows(*list))
	})
	return cmd
}

func newListsShowCmd(dial appctx.Dialer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <list id>",
		Short: "Show a list with its members and titles",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = appctx.WithApp(dial, appctx.Options{}, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		out, err := newOutput(app)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		details, err := app.Remote.GetListDetails(ctx, args[0])
		if err != nil {
			return err
		}

		loader := batch.New(detailsConcurrency, func(ctx context.Context, ref models.ContentRef) (*models.ContentDetails, error) {
			return app.Remote.GetDetails(ctx, ref.ID, ref.MediaType)
		})
		refs := make([]models.ContentRef, len(details.Items))
		for i, item := range details.Items {
			refs[i] = models.ContentRef{ID: item.ContentID, MediaType: item.ContentType}
		}
		results, err := loader.Load(ctx, refs)
		if err != nil {
			return err
		}
		loaded := batch.Values(results)
		for i := range details.Items {
			if d, ok := loaded[refs[i]]; ok {
				details.Items[i].Content = &d.ContentItem
			}
		}

		out.message("%s (%s)", details.List.Name, details.List.Role)
		for _, m := range details.Members {
			out.message("  %-7s %s", m.Role, memberLabel(m))
		}
		out.message("")
		rows := make([][]string, 0, len(details.Items))
		for _, item := range details.Items {
			title := "(unavailable)"
			if item.Content != nil {
				title = item.Content.DisplayTitle()
			}
			rows = append(rows, []string{item.ID, fmt.Sprint(item.ContentID), string(item.ContentType), title})
		}
		return out.print(details, []string{"ITEM", "TMDB ID", "TYPE", "TITLE"}, rows)
	})
	return cmd
}

func memberLabel(m models.ListMember) string {
	if m.MemberName != "" {
		return m.MemberName
	}
	return m.UserID
}

func newListsRenameCmd(dial appctx.Dialer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <list id> <name>",
		Short: "Rename a list (owner only)",
		Args:  cobra.ExactArgs(2),
	}
	cmd.RunE = appctx.WithApp(dial, appctx.Options{}, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		out, err := newOutput(app)
		if err != nil {
			return err
		}
		list, err := app.Remote.RenameList(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return out.print(list, listHeaders, listRows(*list))
	})
	return cmd
}

func newListsRmCmd(dial appctx.Dialer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <list id>",
		Short: "Delete a list (owner only)",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = appctx.WithApp(dial, appctx.Options{}, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		return app.Remote.DeleteList(cmd.Context(), args[0])
	})
	return cmd
}

func newListsAddCmd(dial appctx.Dialer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <list id> <tmdb id>",
		Short: "Add a title to a list (owner or editor)",
		Args:  cobra.ExactArgs(2),
	}
	addTypeFlag(cmd)
	cmd.RunE = appctx.WithApp(dial, appctx.Options{}, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		out, err := newOutput(app)
		if err != nil {
			return err
		}
		id, err := parseTMDBID(args[1])
		if err != nil {
			return err
		}
		mediaType, err := typeFlag(cmd)
		if err != nil {
			return err
		}
		item, err := app.Remote.AddItem(cmd.Context(), args[0], models.ContentRef{ID: id, MediaType: mediaType})
		if err != nil {
			return err
		}
		return out.print(item, []string{"ITEM", "TMDB ID", "TYPE"}, [][]string{
			{item.ID, fmt.Sprint(item.ContentID), string(item.ContentType)},
		})
	})
	return cmd
}

func newListsRemoveItemCmd(dial appctx.Dialer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove-item <item id>",
		Short: "Remove an item from a list (owner or editor)",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = appctx.WithApp(dial, appctx.Options{}, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		return app.Remote.RemoveItem(cmd.Context(), args[0])
	})
	return cmd
}

func newListsShareCmd(dial appctx.Dialer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share <list id>",
		Short: "Print an invite link",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().String("role", string(models.RoleViewer), "Role granted by the link: viewer or editor")
	cmd.RunE = appctx.WithApp(dial, appctx.Options{}, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		out, err := newOutput(app)
		if err != nil {
			return err
		}
		role, _ := cmd.Flags().GetString("role")
		link, err := app.Remote.ShareURL(cmd.Context(), args[0], models.Role(role))
		if err != nil {
			return err
		}
		return out.print(map[string]string{"url": link}, []string{"URL"}, [][]string{{link}})
	})
	return cmd
}

func newListsJoinCmd(dial appctx.Dialer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join <invite link>",
		Short: "Join a list through an invite link",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().String("name", "", "Name shown to the other members")
	cmd.RunE = appctx.WithApp(dial, appctx.Options{}, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		invite, err := join.ParseInvite(args[0])
		if err != nil {
			return err
		}
		flow := join.NewFlow(app.Log, app.Remote, app.Session)
		prompt, err := flow.Prepare(cmd.Context(), invite)
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		if prompt.NeedsName && name == "" {
			return fmt.Errorf("joining %q: %w (pass --name)", prompt.ListName, join.ErrNameRequired)
		}
		outcome, err := flow.Confirm(cmd.Context(), prompt, name)
		if err != nil {
			if errors.Is(err, join.ErrJoinFailed) {
				app.Notify("See the lists you already belong to with: cinepwa lists ls", nil)
				return join.ErrJoinFailed
			}
			return err
		}
		app.Notify(fmt.Sprintf("Joined %q as %s (%s)", prompt.ListName, outcome.Member.Role, outcome.RedirectTo), nil)
		return nil
	})
	return cmd
}

func newListsLeaveCmd(dial appctx.Dialer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leave <list id>",
		Short: "Leave a list you were invited to",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = appctx.WithApp(dial, appctx.Options{}, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		return app.Remote.RemoveMember(cmd.Context(), args[0], app.UserID)
	})
	return cmd
}
