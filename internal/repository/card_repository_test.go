package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCardRepoWithMock(t *testing.T) (*CardRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCardRepo(db), mock
}

func TestCardCreate(t *testing.T) {
	repo, mock := newCardRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO cards (user_id, balance) VALUES (?, 0)`)).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM cards WHERE id = ?`)).
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "balance", "created_at", "updated_at"}).
			AddRow(11, 7, "0.00", now, now))

	card, err := repo.Create(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), card.ID)
	assert.Equal(t, uint64(7), card.UserID)
	assert.True(t, card.Balance.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardCreate_Duplicate(t *testing.T) {
	repo, mock := newCardRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO cards`)).
		WithArgs(uint64(7)).
		WillReturnError(errors.New("Error 1062: Duplicate entry '7' for key 'cards.user_id'"))

	_, err := repo.Create(context.Background(), 7)
	assert.ErrorIs(t, err, ErrCardExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardGetByUserID_NotFound(t *testing.T) {
	repo, mock := newCardRepoWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM cards WHERE user_id = ?`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "balance", "created_at", "updated_at"}))

	_, err := repo.GetByUserID(context.Background(), 7)
	assert.ErrorIs(t, err, ErrCardNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardCredit(t *testing.T) {
	repo, mock := newCardRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE cards`)).
		WithArgs("500", uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM cards WHERE user_id = ?`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "balance", "created_at", "updated_at"}).
			AddRow(11, 7, "500.00", now, now))

	card, err := repo.Credit(context.Background(), 7, decimal.RequireFromString("500"))
	require.NoError(t, err)
	assert.Equal(t, "500", card.Balance.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardCredit_NoCard(t *testing.T) {
	repo, mock := newCardRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE cards`)).
		WithArgs("500", uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Credit(context.Background(), 7, decimal.RequireFromString("500"))
	assert.ErrorIs(t, err, ErrCardNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardDelete_NotFound(t *testing.T) {
	repo, mock := newCardRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM cards WHERE user_id = ?`)).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 7), ErrCardNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
