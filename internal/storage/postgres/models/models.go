package models

import "cinepwa/proj/internal/storage/postgres"

type Models struct {
	Users       *UserModel
	Tokens      *TokenModel
	Lists       *ListModel
	Members     *MemberModel
	Items       *ItemModel
	Watchlist   *WatchlistModel
	Watched     *WatchedModel
	Episodes    *EpisodeModel
	SeriesCache *SeriesCacheModel
	Procedures  *ProcedureModel
}

func New(db *postgres.PostgresDB) *Models {
	return &Models{
		Users:       &UserModel{db.Conn},
		Tokens:      &TokenModel{db.Conn},
		Lists:       &ListModel{db.Conn},
		Members:     &MemberModel{db.Conn},
		Items:       &ItemModel{db.Conn},
		Watchlist:   &WatchlistModel{db.Conn},
		Watched:     &WatchedModel{db.Conn},
		Episodes:    &EpisodeModel{db.Conn},
		SeriesCache: &SeriesCacheModel{db.Conn},
		Procedures:  &ProcedureModel{db.Conn},
	}
}
