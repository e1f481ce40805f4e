package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mehmetcc/people/internal/config"
	"go.uber.org/zap"
)

// Open connects to PostgreSQL through the pgx stdlib driver, applies the
// pool settings from cfg and verifies the connection with a ping.
func Open(ctx context.Context, cfg *config.DbConfig, logger *zap.Logger) (*Provider, error) {
	if cfg.DSN == "" {
		return nil, config.ErrMissingDSN
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("connected to database",
		zap.String("unit", cfg.PersistenceUnit),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
	)
	return NewProvider(db, cfg.PersistenceUnit, logger), nil
}
