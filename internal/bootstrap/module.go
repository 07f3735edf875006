package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"konbot/internal/bootstrap/config"
	"konbot/internal/bootstrap/database"
	"konbot/internal/bootstrap/logging"
	"konbot/internal/domain/beatmap"
	"konbot/internal/infrastructure/oracle"
	"konbot/internal/infrastructure/osuapi"
	sqliterepo "konbot/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "konbot/internal/infrastructure/persistence/sqlite/uow"
	"konbot/internal/ports"
	"konbot/internal/usecase/catalog"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewCatalogRepository,
			fx.As(new(ports.CatalogRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(provideBeatmapProvider),
	fx.Provide(provideClassifier),
	fx.Provide(provideAliases),
	fx.Provide(catalog.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideBeatmapProvider(cfg config.Config) (ports.BeatmapProvider, error) {
	httpClient, err := osuapi.NewHTTPClient(cfg.Osu.ProxyURL)
	if err != nil {
		return nil, err
	}
	tokens := osuapi.NewTokenSource(cfg.Osu.ClientID, cfg.Osu.ClientSecret, cfg.Osu.TokenURL, httpClient)
	return osuapi.NewClient(cfg.Osu.APIBaseURL, tokens, httpClient), nil
}

func provideClassifier(cfg config.Config) ports.Classifier {
	return oracle.NewClient(cfg.Oracle.PredictURL, cfg.Oracle.Timeout)
}

func provideAliases(cfg config.Config) (beatmap.AliasTable, error) {
	return catalog.LoadAliasProfile(cfg.Bot.AliasProfile)
}
