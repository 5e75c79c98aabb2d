package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/model"
)

func TestRoomRepo_ListFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRoomRepo(db)

	active := true
	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms WHERE location_id = $1 AND type = $2 AND is_active = $3 ORDER BY id")).
		WithArgs(int64(2), "STUDIO", true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	out, err := repo.List(context.Background(), model.RoomFilters{LocationID: 2, Type: model.RoomStudio, IsActive: &active})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepo_DeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRoomRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM rooms")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 9), ErrNotFound)
}
