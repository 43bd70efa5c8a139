package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/cognicore/kinship/pkg/kinship"
	"github.com/cognicore/kinship/pkg/kinship/config"
	"github.com/cognicore/kinship/pkg/kinship/factstore"
	"github.com/cognicore/kinship/pkg/kinship/factstore/mangle"
	"github.com/cognicore/kinship/pkg/kinship/factstore/simple"
	"github.com/cognicore/kinship/pkg/kinship/factstore/sqlite"
	"github.com/cognicore/kinship/pkg/kinship/internalerr"
	"github.com/cognicore/kinship/pkg/kinship/title"
)

// buildStore opens the Mangle program with every configured ground fact
// source appended to it.
func buildStore(ctx context.Context, cfg config.Config, log *zap.Logger) (*mangle.Store, error) {
	var extra []factstore.Fact

	for _, path := range cfg.FactBase.Facts {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, internalerr.Wrapf(err, "read facts %s", path)
		}
		facts, err := simple.ParseFacts(string(data))
		if err != nil {
			return nil, internalerr.Wrapf(err, "parse facts %s", path)
		}
		extra = append(extra, facts...)
	}

	if cfg.FactBase.Database != "" {
		db, err := sqlite.OpenSQLite(ctx, cfg.FactBase.Database)
		if err != nil {
			return nil, internalerr.Wrap(err, "open fact database")
		}
		facts, err := db.LoadFacts(ctx)
		db.Close()
		if err != nil {
			return nil, internalerr.Wrap(err, "load fact database")
		}
		log.Debug("loaded fact database", zap.String("path", cfg.FactBase.Database), zap.Int("facts", len(facts)))
		extra = append(extra, facts...)
	}

	store, err := mangle.OpenFile(cfg.FactBase.Rules, mangle.Options{
		Facts:  extra,
		Logger: log.Named("mangle"),
	})
	if err != nil {
		return nil, internalerr.Wrap(err, "open fact base")
	}
	return store, nil
}

// buildEngine wires the answering engine. The returned cleanup closes the
// fact store.
func buildEngine(ctx context.Context, cfg config.Config, log *zap.Logger) (*kinship.Engine, func(), error) {
	store, err := buildStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	engine := kinship.New(kinship.Options{
		Store:  store,
		Logger: log,
		Honorifics: title.Honorifics{
			Male:   cfg.Titles.Male,
			Female: cfg.Titles.Female,
		},
		TitleCacheTTL: cfg.Titles.CacheTTL,
	})

	cleanup := func() {
		engine.Close()
	}

	return engine, cleanup, nil
}
