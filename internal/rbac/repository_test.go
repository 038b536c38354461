package rbac

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// passthroughConverter lets pgx-style args ([]string for ANY($n))
// through sqlmock's driver unchanged.
type passthroughConverter struct{}

func (passthroughConverter) ConvertValue(v any) (driver.Value, error) {
	return v, nil
}

func newMockRepository(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(
		sqlmock.ValueConverterOption(passthroughConverter{}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestSetRolePermissions_ReplacesInOneTransaction(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM role_permissions").
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO role_permissions").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := repo.SetRolePermissions(
		context.Background(),
		"r1",
		[]string{PermSeasonsView, PermSeasonsEdit},
	)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRolePermissions_FailedInsertRollsBack(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM role_permissions").
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO role_permissions").
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	err := repo.SetRolePermissions(
		context.Background(),
		"r1",
		[]string{PermSeasonsView},
	)
	require.Error(t, err)
	assert.ErrorContains(t, err, "set role permissions")

	// The rollback expectation proves the delete never commits on the
	// error branch.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRolePermissions_EmptyCodesClearsGrants(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM role_permissions").
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := repo.SetRolePermissions(context.Background(), "r1", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
