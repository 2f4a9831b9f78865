// Package database opens the gorm connection shared by the SQL flow state and token stores.
package database

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jrsteele09/go-pkce-client/internal/config"
	srverrors "github.com/jrsteele09/go-pkce-client/internal/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured driver. "memory" has no database and is rejected.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.StoreDriverSQLite:
		dialector = sqlite.Open(dsn)
	case config.StoreDriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, srverrors.Wrapf(srverrors.ErrUnknownStore, "[database.Open] %q", driver)
	}

	gormLog := log.Logger.With().Str("component", "gorm").Logger()
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(&gormLog, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("[database.Open] %s: %w", driver, err)
	}

	if driver == config.StoreDriverSQLite {
		// SQLite allows a single writer; serialise through one connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("[database.Open] sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
