package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Querier is the subset of *sql.Conn and *sql.Tx used by repositories.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Provider hands out sessions bound to one persistence unit. It is built
// once at startup and is safe for concurrent use.
type Provider struct {
	db     *sql.DB
	unit   string
	logger *zap.Logger
}

func NewProvider(db *sql.DB, unit string, logger *zap.Logger) *Provider {
	return &Provider{
		db:     db,
		unit:   unit,
		logger: logger,
	}
}

func (p *Provider) Unit() string {
	return p.unit
}

// DB exposes the pool for schema migrations.
func (p *Provider) DB() *sql.DB {
	return p.db
}

func (p *Provider) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Acquire returns a new session holding a dedicated connection. The caller
// owns the session and must Close it.
func (p *Provider) Acquire(ctx context.Context) (*Session, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		p.logger.Error("failed to acquire session", zap.String("unit", p.unit), zap.Error(err))
		return nil, fmt.Errorf("acquire session: %w", err)
	}
	return &Session{
		conn:   conn,
		logger: p.logger.With(zap.String("unit", p.unit)),
	}, nil
}

// WithSession runs fn on a fresh session and releases it on every exit
// path, panics included.
func (p *Provider) WithSession(ctx context.Context, fn func(s *Session) error) (err error) {
	s, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, s.Close())
	}()
	return fn(s)
}

func (p *Provider) Close() error {
	p.logger.Info("closing persistence unit", zap.String("unit", p.unit))
	return p.db.Close()
}

// Session is one unit-of-work scope. It is not safe for concurrent use.
type Session struct {
	conn   *sql.Conn
	logger *zap.Logger

	once     sync.Once
	closeErr error
}

// Querier runs statements directly on the session, outside any transaction.
func (s *Session) Querier() Querier {
	return s.conn
}

// Transaction wraps fn in begin → fn → commit. The transaction is rolled
// back if fn returns an error or panics.
func (s *Session) Transaction(ctx context.Context, fn func(q Querier) error) (err error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Warn("failed to roll back transaction", zap.Error(rbErr))
			err = multierr.Append(err, rbErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit transaction", zap.Error(err))
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// Close returns the connection to the pool. Calling it more than once is a
// no-op.
func (s *Session) Close() error {
	s.once.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
