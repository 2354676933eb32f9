package app

import (
	"context"

	"go.uber.org/multierr"

	"github.com/minjipark/recipebox/internal/cooking"
	"github.com/minjipark/recipebox/internal/favorites"
	"github.com/minjipark/recipebox/internal/ingredients"
	"github.com/minjipark/recipebox/internal/recipes"
	"github.com/minjipark/recipebox/pkg/config"
	"github.com/minjipark/recipebox/pkg/db"
	"github.com/minjipark/recipebox/pkg/logger"
	"github.com/minjipark/recipebox/pkg/migrate"
)

// App wires configuration, the database client, and every domain service
// together. Callers construct one App per process and pass the services on;
// nothing here is a singleton, so tests can build as many as they need.
type App struct {
	Config *config.Config
	Logger *logger.Logger
	DB     *db.Client

	Ingredients ingredients.Service
	Recipes     recipes.Service
	Cooking     cooking.Engine
	Favorites   favorites.Manager
}

// Options tweaks how New bootstraps the container.
type Options struct {
	ServiceName string
	// SkipMigrations disables the dev auto-migration pass even when the
	// feature flag enables it.
	SkipMigrations bool
}

// New loads config, connects the database, optionally runs dev migrations,
// and builds every service. On error the partially constructed container is
// cleaned up before returning.
func New(ctx context.Context, opts Options) (*App, error) {
	if opts.ServiceName == "" {
		opts.ServiceName = "recipebox"
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logg := logger.New(logger.Options{
		ServiceName: opts.ServiceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, err
	}

	if !opts.SkipMigrations {
		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			return nil, multierr.Append(err, dbClient.Close())
		}
	}

	app, err := build(cfg, logg, dbClient)
	if err != nil {
		return nil, multierr.Append(err, dbClient.Close())
	}
	return app, nil
}

func build(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*App, error) {
	ingredientRepo := ingredients.NewRepository(dbClient.DB())
	recipeRepo := recipes.NewRepository(dbClient.DB())

	ingredientSvc, err := ingredients.NewService(ingredients.ServiceParams{Repo: ingredientRepo})
	if err != nil {
		return nil, err
	}
	recipeSvc, err := recipes.NewService(recipes.ServiceParams{Repo: recipeRepo})
	if err != nil {
		return nil, err
	}
	cookEngine, err := cooking.NewEngine(cooking.EngineParams{
		Tx:          dbClient,
		Recipes:     recipeRepo,
		Ingredients: ingredientRepo,
		Logger:      logg,
	})
	if err != nil {
		return nil, err
	}
	favoriteMgr, err := favorites.NewManager(favorites.ManagerParams{Recipes: recipeRepo})
	if err != nil {
		return nil, err
	}

	return &App{
		Config:      cfg,
		Logger:      logg,
		DB:          dbClient,
		Ingredients: ingredientSvc,
		Recipes:     recipeSvc,
		Cooking:     cookEngine,
		Favorites:   favoriteMgr,
	}, nil
}

// Close releases every resource the container owns.
func (a *App) Close() error {
	var err error
	if a.DB != nil {
		err = multierr.Append(err, a.DB.Close())
	}
	return err
}
