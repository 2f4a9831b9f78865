package main

import (
	"errors"
	"fmt"

	"github.com/jrsteele09/go-pkce-client/flowstate"
	"github.com/jrsteele09/go-pkce-client/internal/config"
	"github.com/jrsteele09/go-pkce-client/internal/database"
	"github.com/jrsteele09/go-pkce-client/internal/logging"
	"github.com/jrsteele09/go-pkce-client/token"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// app holds what every command needs: configuration and the two stores.
type app struct {
	config config.Config
	db     *gorm.DB
	flows  flowstate.Repo
	tokens token.Store
}

func loadApp() (*app, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}
	if err := logging.Setup(cfg.GetEnv(), cfg.GetLogLevel()); err != nil {
		return nil, err
	}
	if cfg.GetClientID() == "" || cfg.GetClientSecret() == "" {
		log.Warn().Msg("CLIENT_ID or CLIENT_SECRET is not set; authorization flows will fail until configured")
	}

	a := &app{config: cfg}
	if cfg.GetStoreDriver() == config.StoreDriverMemory {
		a.flows = flowstate.NewInMemoryRepo()
	} else {
		a.db, err = database.Open(cfg.GetStoreDriver(), cfg.GetStoreDSN())
		if err != nil {
			return nil, err
		}
		a.flows, err = flowstate.NewGormRepo(a.db)
		if err != nil {
			return nil, errors.Join(err, a.close())
		}
	}

	a.tokens, err = token.NewStore(cfg.GetTokenStore(), a.db)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("token store: %w", err), a.close())
	}
	log.Debug().Str("store_driver", cfg.GetStoreDriver()).Str("token_store", cfg.GetTokenStore()).Msg("stores ready")
	return a, nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	return database.Close(a.db)
}
