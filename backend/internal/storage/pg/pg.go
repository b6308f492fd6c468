package pg

import (
	"context"

	"github.com/itchan-dev/askchan/shared/config"
	"github.com/itchan-dev/askchan/shared/logger"
	sharedpg "github.com/itchan-dev/askchan/shared/storage/pg"
	"github.com/jmoiron/sqlx"
)

type Storage struct {
	db *sqlx.DB
}

func New(cfg *config.Config, connCfg sharedpg.ConnectionConfig) (*Storage, error) {
	logger.Log.Info("connecting to database", "host", cfg.Private.Pg.Host, "dbname", cfg.Private.Pg.Dbname)
	db, err := sharedpg.Connect(cfg, connCfg)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("successfully connected to database")
	return &Storage{db: db}, nil
}

// NewFromDB wraps an already opened connection.
func NewFromDB(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// DB exposes the pool for migrations.
func (s *Storage) DB() *sqlx.DB {
	return s.db
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}
