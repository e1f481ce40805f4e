package person

import (
	"context"

	"github.com/mehmetcc/people/internal/database"
	"go.uber.org/zap"
)

// PersonService runs each operation in its own session: acquire, act
// (inside a transaction for writes), release.
type PersonService interface {
	Create(ctx context.Context, person Person) (*Person, error)
	List(ctx context.Context) ([]Person, error)
	Get(ctx context.Context, id int64) (*Person, error)
	Update(ctx context.Context, id int64, person Person) (*Person, error)
	Delete(ctx context.Context, id int64) error
}

type personService struct {
	provider *database.Provider
	repo     PersonRepository
	logger   *zap.Logger
}

func NewPersonService(provider *database.Provider, repo PersonRepository, logger *zap.Logger) PersonService {
	return &personService{
		provider: provider,
		repo:     repo,
		logger:   logger,
	}
}

// Create ignores any ID carried by person; the store assigns one.
func (s *personService) Create(ctx context.Context, person Person) (*Person, error) {
	created := NewPerson(person.FirstName, person.LastName, person.Email, person.Age)

	err := s.provider.WithSession(ctx, func(sess *database.Session) error {
		return sess.Transaction(ctx, func(q database.Querier) error {
			return s.repo.Insert(ctx, q, created)
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *personService) List(ctx context.Context) ([]Person, error) {
	var people []Person
	err := s.provider.WithSession(ctx, func(sess *database.Session) error {
		var err error
		people, err = s.repo.FindAll(ctx, sess.Querier())
		return err
	})
	if err != nil {
		return nil, err
	}
	return people, nil
}

func (s *personService) Get(ctx context.Context, id int64) (*Person, error) {
	var found *Person
	err := s.provider.WithSession(ctx, func(sess *database.Session) error {
		var err error
		found, err = s.repo.FindByID(ctx, sess.Querier(), id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Update overwrites all four mutable fields of the person with the given
// id. On a miss it returns ErrNotFound and writes nothing.
func (s *personService) Update(ctx context.Context, id int64, person Person) (*Person, error) {
	updated := &Person{ID: id}
	updated.Overwrite(person)

	err := s.provider.WithSession(ctx, func(sess *database.Session) error {
		return sess.Transaction(ctx, func(q database.Querier) error {
			return s.repo.Update(ctx, q, updated)
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *personService) Delete(ctx context.Context, id int64) error {
	return s.provider.WithSession(ctx, func(sess *database.Session) error {
		return sess.Transaction(ctx, func(q database.Querier) error {
			return s.repo.Delete(ctx, q, id)
		})
	})
}
