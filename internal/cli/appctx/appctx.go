// Package appctx bootstraps the shared state every cinepwa command runs with:
// config, local store, session and the identity's cache.
package appctx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cinepwa/proj/internal/api/tasks"
	"cinepwa/proj/internal/cache"
	"cinepwa/proj/internal/clients/api"
	"cinepwa/proj/internal/config"
	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/join"
	"cinepwa/proj/internal/lib/logger"
	"cinepwa/proj/internal/localstore"
	"cinepwa/proj/internal/session"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const drainTimeout = 10 * time.Second

// Remote is the backend surface the commands use.
type Remote interface {
	session.Remote
	session.Migrator
	cache.Remote
	join.Remote
	ListLists(ctx context.Context, sort string) ([]models.List, error)
	CreateList(ctx context.Context, name string) (*models.List, error)
	GetListDetails(ctx context.Context, listID string) (*models.ListDetails, error)
	RenameList(ctx context.Context, listID, name string) (*models.List, error)
	DeleteList(ctx context.Context, listID string) error
	ShareURL(ctx context.Context, listID string, role models.Role) (string, error)
	AddItem(ctx context.Context, listID string, ref models.ContentRef) (*models.ListItem, error)
	RemoveItem(ctx context.Context, itemID string) error
	RemoveMember(ctx context.Context, listID, userID string) error
	GetDetails(ctx context.Context, id int, mediaType models.MediaType) (*models.ContentDetails, error)
	Search(ctx context.Context, query string) ([]models.ContentItem, error)
}

// Deps are the external resources behind an App.
type Deps struct {
	Store  localstore.Store
	Remote Remote
	// Close is optional.
	Close func() error
}

// Dialer opens Deps for a loaded config.
type Dialer func(cfg *config.ClientConfig) (*Deps, error)

// Dial opens the SQLite store at cfg.DataPath and an HTTP client for cfg.APIURL.
func Dial(cfg *config.ClientConfig) (*Deps, error) {
	store, err := localstore.OpenSQLite(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	client := api.New(cfg.APIURL, &http.Client{Timeout: 15 * time.Second})
	return &Deps{Store: store, Remote: client, Close: store.Close}, nil
}

type App struct {
	Config  *config.ClientConfig
	Log     *slog.Logger
	Out     io.Writer
	Store   localstore.Store
	Remote  Remote
	Session *session.Service
	// UserID is the established identity.
	UserID string
	// Tasks and Cache are nil unless Options.NeedsCache.
	Tasks *tasks.BackgroundTasks
	Cache *cache.Cache

	notifier *Notifier
	close    func() error
}

// Close drains pending cache writes, reports the failed ones and releases the store.
// Safe to call multiple times.
func (a *App) Close() {
	if a.Tasks != nil {
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		_ = a.Tasks.Shutdown(ctx)
		cancel()
		a.Tasks = nil
	}
	if a.Cache != nil {
		a.reportEffects()
		a.Cache = nil
	}
	if a.close != nil {
		if err := a.close(); err != nil {
			a.Log.Warn("failed to close local store", "errMsg", err.Error())
		}
		a.close = nil
	}
}

func (a *App) reportEffects() {
	for {
		select {
		case r := <-a.Cache.Results():
			if r.Err == nil {
				continue
			}
			id := r.Action.ID
			if r.Action.Kind == cache.ActionAdd {
				id = r.Action.Item.ID
			}
			a.notifier.Notify(fmt.Sprintf("%s of %d was not saved remotely", r.Action.Kind, id), r.Err)
		default:
			return
		}
	}
}

// Notify shows msg to the user.
func (a *App) Notify(msg string, err error) {
	a.notifier.Notify(msg, err)
}

type Options struct {
	// NeedsCache opens the identity's cache and syncs it once.
	NeedsCache bool
}

type RunFunc func(app *App, cmd *cobra.Command, args []string) error

// WithApp wraps a command's run function with Bootstrap and Close.
func WithApp(dial Dialer, opts Options, fn RunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := Bootstrap(cmd, dial, opts)
		if err != nil {
			return err
		}
		defer app.Close()

		return fn(app, cmd, args)
	}
}

// Bootstrap loads config (flags win over the environment), opens the
// dependencies and establishes a session.
func Bootstrap(cmd *cobra.Command, dial Dialer, opts Options) (*App, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, cfg)

	app := &App{
		Config:   cfg,
		Out:      cmd.OutOrStdout(),
		notifier: NewNotifier(cmd.ErrOrStderr()),
	}
	app.Log = newLogger(cmd.ErrOrStderr(), cfg.Debug)

	deps, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	app.Store = deps.Store
	app.Remote = deps.Remote
	app.close = deps.Close

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app.Session = session.New(app.Log, app.Store, app.Remote, app.Remote, app.notifier)
	app.UserID, err = app.Session.EstablishSession(ctx)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to establish session: %w", err)
	}

	if opts.NeedsCache {
		if err := app.openCache(ctx); err != nil {
			app.Close()
			return nil, err
		}
	}
	return app, nil
}

func (a *App) openCache(ctx context.Context) error {
	a.Tasks = tasks.New(a.Log, a.Config.Workers, 32)
	a.Tasks.Run()
	c, err := cache.Open(ctx, a.Log, a.Store, a.UserID, a.Remote, a.Tasks)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	a.Cache = c
	if err := c.Sync(ctx); err != nil {
		a.notifier.Notify("working from the local copy", err)
	}
	return nil
}

func applyFlags(cmd *cobra.Command, cfg *config.ClientConfig) {
	str := func(name string, dst *string) {
		if f := cmd.Flag(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	str("api", &cfg.APIURL)
	str("data", &cfg.DataPath)
	str("output", &cfg.Output)
	if f := cmd.Flag("debug"); f != nil && f.Changed {
		cfg.Debug = f.Value.String() == "true"
	}
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	if debug {
		return logger.NewLogger(w, true)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Notifier prints transient messages on the terminal.
type Notifier struct {
	w    io.Writer
	info *color.Color
	warn *color.Color
}

func NewNotifier(w io.Writer) *Notifier {
	n := &Notifier{w: w, info: color.New(color.FgCyan), warn: color.New(color.FgYellow)}
	if _, ok := w.(*os.File); !ok {
		n.info.DisableColor()
		n.warn.DisableColor()
	}
	return n
}

func (n *Notifier) Notify(msg string, err error) {
	if err != nil {
		n.warn.Fprintf(n.w, "! %s: %v\n", msg, err)
		return
	}
	n.info.Fprintf(n.w, "%s\n", msg)
}
