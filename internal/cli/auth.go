package cli

import (
	"net/url"
	"strings"

	"cinepwa/proj/internal/cli/appctx"

	"github.com/spf13/cobra"
)

func newWhoamiCmd(dial appctx.Dialer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Print the current identity",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = appctx.WithApp(dial, appctx.Options{}, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		out, err := newOutput(app)
		if err != nil {
			return err
		}
		user, err := app.Session.CurrentUser(cmd.Context())
		if err != nil {
			return err
		}
		if name, _ := cmd.Flags().GetString("set-name"); name != "" {
			if user, err = app.Remote.UpdateDisplayName(cmd.Context(), name); err != nil {
				return err
			}
		}
		kind := "e-mail"
		if user.IsAnonymous {
			kind = "anonymous"
		}
		return out.print(user, []string{"ID", "KIND", "EMAIL", "NAME"}, [][]string{
			{user.ID, kind, user.Email, user.DisplayName},
		})
	})
	cmd.Flags().String("set-name", "", "Change your display name")
	return cmd
}

func newLoginCmd(dial appctx.Dialer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Send a sign-in link to an e-mail address",
		Long: `Sends a magic link. Whatever you saved anonymously is moved to the
e-mail account once you finish with 'cinepwa verify'.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.RunE = appctx.WithApp(dial, appctx.Options{}, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		if err := app.Session.BeginEmailSignIn(cmd.Context(), args[0]); err != nil {
			return err
		}
		app.Notify("Check your inbox, then run: cinepwa verify <link or token>", nil)
		return nil
	})
	return cmd
}

func newVerifyCmd(dial appctx.Dialer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <link|token>",
		Short: "Finish e-mail sign-in",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = appctx.WithApp(dial, appctx.Options{}, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		userID, err := app.Session.CompleteEmailSignIn(cmd.Context(), linkToken(args[0]))
		if err != nil {
			return err
		}
		app.Notify("Signed in as "+userID, nil)
		return nil
	})
	return cmd
}

// linkToken accepts either the whole magic link or its token.
func linkToken(arg string) string {
	if !strings.Contains(arg, "token=") {
		return arg
	}
	u, err := url.Parse(arg)
	if err != nil {
		return arg
	}
	if t := u.Query().Get("token"); t != "" {
		return t
	}
	return arg
}

func newLogoutCmd(dial appctx.Dialer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and continue anonymously",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = appctx.WithApp(dial, appctx.Options{}, func(app *appctx.App, cmd *cobra.Command, args []string) error {
		userID, err := app.Session.SignOut(cmd.Context())
		if err != nil {
			return err
		}
		app.Notify("Signed out, new anonymous identity "+userID, nil)
		return nil
	})
	return cmd
}
