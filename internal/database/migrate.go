package database

import (
	"context"
	"fmt"

	"github.com/mehmetcc/people/migrations"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migrate brings the persistence unit's schema up to the newest embedded
// migration and returns the version it ended on.
func (p *Provider) Migrate(ctx context.Context) (int64, error) {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(migrationLogger{s: p.migrationLog().Sugar()})
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("migrate %s: %w", p.unit, err)
	}

	if err := goose.UpContext(ctx, p.db, "."); err != nil {
		return 0, fmt.Errorf("migrate %s: %w", p.unit, err)
	}
	version, err := goose.GetDBVersionContext(ctx, p.db)
	if err != nil {
		return 0, fmt.Errorf("migrate %s: read version: %w", p.unit, err)
	}

	p.migrationLog().Info("schema up to date", zap.Int64("version", version))
	return version, nil
}

func (p *Provider) migrationLog() *zap.Logger {
	return p.logger.Named("migrate").With(zap.String("unit", p.unit))
}

type migrationLogger struct{ s *zap.SugaredLogger }

func (l migrationLogger) Printf(format string, v ...interface{}) {
	l.s.Infof(format, v...)
}

// Fatalf must not exit the process; goose calls it on recoverable errors.
func (l migrationLogger) Fatalf(format string, v ...interface{}) {
	l.s.Errorf(format, v...)
}
