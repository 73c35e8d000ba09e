package services

import (
	"log/slog"

	"cinepwa/proj/internal/config"
	"cinepwa/proj/internal/mails"
	"cinepwa/proj/internal/services/auth"
	"cinepwa/proj/internal/services/lists"
	"cinepwa/proj/internal/services/migration"
	"cinepwa/proj/internal/services/sharing"
	"cinepwa/proj/internal/services/watchlist"
	"cinepwa/proj/internal/storage/memory"
	pgmodels "cinepwa/proj/internal/storage/postgres/models"
)

type Tokens interface {
	auth.TokensStorage
	migration.GrantStorage
}

type Procedures interface {
	lists.NameLookup
	migration.Migrator
}

// Storage is the set of tables the services run on, satisfied by both the
// postgres and the in-memory models.
type Storage struct {
	Users       auth.UsersStorage
	Tokens      Tokens
	Lists       lists.ListsStorage
	Members     lists.MembersStorage
	Items       lists.ItemsStorage
	Watchlist   watchlist.WatchlistStorage
	Watched     watchlist.WatchedStorage
	Episodes    watchlist.EpisodesStorage
	SeriesCache watchlist.SeriesCacheStorage
	Procedures  Procedures
}

func PostgresStorage(m *pgmodels.Models) Storage {
	return Storage{
		Users:       m.Users,
		Tokens:      m.Tokens,
		Lists:       m.Lists,
		Members:     m.Members,
		Items:       m.Items,
		Watchlist:   m.Watchlist,
		Watched:     m.Watched,
		Episodes:    m.Episodes,
		SeriesCache: m.SeriesCache,
		Procedures:  m.Procedures,
	}
}

func MemoryStorage(m *memory.Models) Storage {
	return Storage{
		Users:       m.Users,
		Tokens:      m.Tokens,
		Lists:       m.Lists,
		Members:     m.Members,
		Items:       m.Items,
		Watchlist:   m.Watchlist,
		Watched:     m.Watched,
		Episodes:    m.Episodes,
		SeriesCache: m.SeriesCache,
		Procedures:  m.Procedures,
	}
}

type Services struct {
	Auth      *auth.AuthService
	Migration *migration.MigrationService
	Lists     *lists.ListService
	Watchlist *watchlist.WatchlistService
	Sharing   *sharing.SharingService
}

// NewMailer picks the HTTP sending API when a token is configured, SMTP when a
// host is, and otherwise logs the mail.
func NewMailer(log *slog.Logger, cfg config.SMTPServer) mails.Sender {
	switch {
	case cfg.APIToken != "":
		return &mails.ApiMailer{
			ApiURL:       cfg.APIURL,
			ApiToken:     cfg.APIToken,
			Sender:       cfg.Sender,
			RetriesCount: cfg.RetriesCount,
		}
	case cfg.Host != "":
		return mails.New(cfg.Host, cfg.Port, cfg.Timeout, cfg.Username, cfg.Password, cfg.Sender, cfg.RetriesCount)
	default:
		return &mails.LogMailer{Log: log}
	}
}

func New(
	log *slog.Logger,
	cfg *config.Config,
	storage Storage,
	content watchlist.ContentProvider,
	mailer mails.Sender,
	taskExecutor auth.TaskExecutor,
) *Services {
	return &Services{
		Auth: auth.New(log, storage.Users, storage.Tokens, mailer, taskExecutor, auth.Options{
			Secret:       cfg.AppSecret,
			SessionTTL:   cfg.Auth.SessionTTL,
			MagicLinkTTL: cfg.Auth.MagicLinkTTL,
			VerifyURL:    cfg.BaseURL + cfg.Auth.VerifyPath,
		}),
		Migration: migration.New(log, storage.Users, storage.Tokens, storage.Procedures),
		Lists: lists.New(log, lists.Storage{
			Lists:   storage.Lists,
			Members: storage.Members,
			Items:   storage.Items,
			Names:   storage.Procedures,
			Users:   storage.Users,
		}, cfg.BaseURL),
		Watchlist: watchlist.New(log, watchlist.Storage{
			Watchlist:   storage.Watchlist,
			Watched:     storage.Watched,
			Episodes:    storage.Episodes,
			SeriesCache: storage.SeriesCache,
		}, content, cfg.SeriesCache.TTL),
		Sharing: sharing.New(log, content),
	}
}
