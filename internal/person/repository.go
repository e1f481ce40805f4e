package person

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mehmetcc/people/internal/database"
	"go.uber.org/zap"
)

// PersonRepository is the typed data access for the people table. Every
// method runs on the Querier it is given, so the caller decides whether the
// call happens inside a transaction.
type PersonRepository interface {
	Insert(ctx context.Context, q database.Querier, person *Person) error
	FindByID(ctx context.Context, q database.Querier, id int64) (*Person, error)
	FindAll(ctx context.Context, q database.Querier) ([]Person, error)
	Update(ctx context.Context, q database.Querier, person *Person) error
	Delete(ctx context.Context, q database.Querier, id int64) error
}

type personRepository struct {
	logger *zap.Logger
}

func NewPersonRepository(logger *zap.Logger) PersonRepository {
	return &personRepository{
		logger: logger,
	}
}

// Insert stores person and sets its ID to the one assigned by the store.
func (p *personRepository) Insert(ctx context.Context, q database.Querier, person *Person) error {
	query, args, err := insertPersonQuery(person)
	if err != nil {
		return fmt.Errorf("build insert person query: %w", err)
	}

	var id int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return p.classify("insert person", err)
	}
	person.ID = id

	p.logger.Debug("person created", zap.Int64("id", id))
	return nil
}

func (p *personRepository) FindByID(ctx context.Context, q database.Querier, id int64) (*Person, error) {
	query, args, err := selectPersonByIDQuery(id)
	if err != nil {
		return nil, fmt.Errorf("build select person query: %w", err)
	}

	var person Person
	err = q.QueryRowContext(ctx, query, args...).
		Scan(&person.ID, &person.FirstName, &person.LastName, &person.Email, &person.Age)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, p.classify("find person", err)
	}
	return &person, nil
}

func (p *personRepository) FindAll(ctx context.Context, q database.Querier) ([]Person, error) {
	query, args, err := selectPeopleQuery()
	if err != nil {
		return nil, fmt.Errorf("build select people query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, p.classify("list people", err)
	}
	defer rows.Close()

	people := make([]Person, 0)
	for rows.Next() {
		var person Person
		if err := rows.Scan(&person.ID, &person.FirstName, &person.LastName, &person.Email, &person.Age); err != nil {
			p.logger.Error("failed to scan person row", zap.Error(err))
			return nil, fmt.Errorf("scan person row: %w", err)
		}
		people = append(people, person)
	}
	if err := rows.Err(); err != nil {
		return nil, p.classify("iterate people", err)
	}
	return people, nil
}

// Update overwrites the mutable columns of the row with person.ID and
// refreshes person from the stored row. A missing row is ErrNotFound and
// nothing is written.
func (p *personRepository) Update(ctx context.Context, q database.Querier, person *Person) error {
	query, args, err := updatePersonQuery(person)
	if err != nil {
		return fmt.Errorf("build update person query: %w", err)
	}

	err = q.QueryRowContext(ctx, query, args...).
		Scan(&person.ID, &person.FirstName, &person.LastName, &person.Email, &person.Age)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return p.classify("update person", err)
	}

	p.logger.Debug("person updated", zap.Int64("id", person.ID))
	return nil
}

func (p *personRepository) Delete(ctx context.Context, q database.Querier, id int64) error {
	query, args, err := deletePersonQuery(id)
	if err != nil {
		return fmt.Errorf("build delete person query: %w", err)
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return p.classify("delete person", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete person rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	p.logger.Debug("person deleted", zap.Int64("id", id))
	return nil
}

// classify maps driver errors onto the package sentinels. The original
// error stays in the chain for errors.As.
func (p *personRepository) classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		p.logger.Warn(op+" canceled/timed out", zap.Error(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		p.logger.Error("postgres error",
			zap.String("op", op),
			zap.String("code", pgErr.Code),
			zap.String("msg", pgErr.Message),
			zap.String("detail", pgErr.Detail),
		)
		switch {
		case pgerrcode.IsIntegrityConstraintViolation(pgErr.Code),
			pgerrcode.IsDataException(pgErr.Code):
			return fmt.Errorf("%s: %w: %w", op, ErrInvalidPerson, err)
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgErr.Code == pgerrcode.CannotConnectNow,
			pgErr.Code == pgerrcode.AdminShutdown:
			return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		p.logger.Error("connection lost", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}

	p.logger.Error("driver error", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}
