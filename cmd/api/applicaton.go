package main

import (
	"context"
	"log/slog"

	"cinepwa/proj/internal/clients/tmdb"
	"cinepwa/proj/internal/config"
	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/lib/validator"
	"cinepwa/proj/internal/services"

	govalidator "github.com/go-playground/validator/v10"
)

// ContentClient is the read-only content provider behind /content routes.
type ContentClient interface {
	GetDetails(ctx context.Context, id int, mediaType models.MediaType) (*models.ContentDetails, error)
	Search(ctx context.Context, query string) ([]models.ContentItem, error)
	Trending(ctx context.Context, window string) ([]models.ContentItem, error)
	Discover(ctx context.Context, f tmdb.DiscoverFilters) ([]models.ContentItem, error)
	SearchPerson(ctx context.Context, name string) (int, error)
}

type Application struct {
	cfg       *config.Config
	log       *slog.Logger
	Http      *Http
	Services  *services.Services
	content   ContentClient
	validator *govalidator.Validate
}

func NewApplication(cfg *config.Config, log *slog.Logger, svcs *services.Services, content ContentClient) *Application {
	return &Application{
		cfg:       cfg,
		log:       log,
		Services:  svcs,
		content:   content,
		validator: validator.New(),
		Http: &Http{
			log: log,
			cfg: cfg,
		},
	}
}
