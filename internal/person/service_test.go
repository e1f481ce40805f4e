package person

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mehmetcc/people/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, repo PersonRepository) (PersonService, sqlmock.Sqlmock, *database.Provider) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	provider := database.NewProvider(db, "personPU", zap.NewNop())
	return NewPersonService(provider, repo, zap.NewNop()), mock, provider
}

func TestService_CreateIsTransactional(t *testing.T) {
	repo := newMemoryRepository()
	svc, mock, provider := newTestService(t, repo)
	mock.ExpectBegin()
	mock.ExpectCommit()

	created, err := svc.Create(context.Background(), Person{ID: 77, FirstName: "Ann", LastName: "Lee", Email: "a@x.com", Age: 30})
	require.NoError(t, err)

	// client-supplied id is ignored
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Ann", created.FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 0, provider.DB().Stats().InUse)
}

func TestService_ReadsRunWithoutTransaction(t *testing.T) {
	repo := newMemoryRepository()
	repo.rows[1] = Person{ID: 1, FirstName: "Ann"}
	svc, mock, provider := newTestService(t, repo)

	people, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, people, 1)

	p, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Ann", p.FirstName)

	// no Begin expected: any transaction would fail the mock
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 0, provider.DB().Stats().InUse)
}

func TestService_GetMissing(t *testing.T) {
	svc, _, _ := newTestService(t, newMemoryRepository())

	p, err := svc.Get(context.Background(), 42)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_UpdateMissingRollsBack(t *testing.T) {
	repo := newMemoryRepository()
	svc, mock, provider := newTestService(t, repo)
	mock.ExpectBegin()
	mock.ExpectRollback()

	p, err := svc.Update(context.Background(), 42, Person{FirstName: "Ghost"})
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Zero(t, repo.writes)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 0, provider.DB().Stats().InUse)
}

func TestService_UpdateKeepsPathID(t *testing.T) {
	repo := newMemoryRepository()
	repo.rows[3] = Person{ID: 3, FirstName: "Ann", LastName: "Lee", Email: "a@x.com", Age: 30}
	repo.nextID = 3
	svc, mock, _ := newTestService(t, repo)
	mock.ExpectBegin()
	mock.ExpectCommit()

	updated, err := svc.Update(context.Background(), 3, Person{ID: 999, FirstName: "Anne"})
	require.NoError(t, err)

	assert.Equal(t, int64(3), updated.ID)
	assert.Equal(t, "Anne", updated.FirstName)
	// absent fields are overwritten with zero values
	assert.Empty(t, updated.LastName)
	assert.Empty(t, updated.Email)
	assert.Zero(t, updated.Age)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_DeleteMissing(t *testing.T) {
	repo := newMemoryRepository()
	svc, mock, _ := newTestService(t, repo)
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := svc.Delete(context.Background(), 8)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_RepositoryFailureReleasesSession(t *testing.T) {
	repo := newMemoryRepository()
	repo.err = errors.New("connection reset")
	svc, mock, provider := newTestService(t, repo)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), Person{FirstName: "Ann"})
	require.Error(t, err)

	_, err = svc.List(context.Background())
	require.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 0, provider.DB().Stats().InUse)
}

func TestService_AcquireFailure(t *testing.T) {
	svc, _, _ := newTestService(t, newMemoryRepository())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestService_Lifecycle walks create → get → update → delete → get for one
// person and checks list counts around the misses.
func TestService_Lifecycle(t *testing.T) {
	repo := newMemoryRepository()
	svc, mock, _ := newTestService(t, repo)
	ctx := context.Background()

	mock.ExpectBegin() // create
	mock.ExpectCommit()
	mock.ExpectBegin() // update
	mock.ExpectCommit()
	mock.ExpectBegin() // update miss
	mock.ExpectRollback()
	mock.ExpectBegin() // delete
	mock.ExpectCommit()
	mock.ExpectBegin() // delete miss
	mock.ExpectRollback()

	created, err := svc.Create(ctx, Person{FirstName: "Ann", LastName: "Lee", Email: "a@x.com", Age: 30})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	id := created.ID

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	updated, err := svc.Update(ctx, id, Person{FirstName: "Anne", LastName: "Lee", Email: "a@x.com", Age: 31})
	require.NoError(t, err)
	assert.Equal(t, id, updated.ID)
	assert.Equal(t, "Anne", updated.FirstName)
	assert.Equal(t, 31, updated.Age)

	_, err = svc.Update(ctx, id+100, Person{FirstName: "Nobody"})
	assert.ErrorIs(t, err, ErrNotFound)
	people, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, people, 1)

	require.NoError(t, svc.Delete(ctx, id))
	assert.ErrorIs(t, svc.Delete(ctx, id), ErrNotFound)

	_, err = svc.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	people, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, people)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_WithSQLRepository(t *testing.T) {
	svc, mock, _ := newTestService(t, NewPersonRepository(zap.NewNop()))
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO people").
		WithArgs("Ann", "Lee", "a@x.com", 30).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	created, err := svc.Create(context.Background(), Person{FirstName: "Ann", LastName: "Lee", Email: "a@x.com", Age: 30})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
