package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boleteria/cinema-api/internal/repository"
)

func newServiceWithMock(t *testing.T) (*TicketService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewTicketService(db,
		repository.NewFunctionRepo(db),
		repository.NewCardRepo(db),
		repository.NewTicketRepo(db),
		repository.NewMovieRepo(db))
	return svc, mock
}

var (
	lockFunctionQ = regexp.QuoteMeta(`FROM functions WHERE id = ? FOR UPDATE`)
	lockCardQ     = regexp.QuoteMeta(`SELECT id, user_id, balance FROM cards WHERE user_id = ? FOR UPDATE`)
	debitCardQ    = regexp.QuoteMeta(`UPDATE cards`)
	reserveQ      = regexp.QuoteMeta(`UPDATE functions`)
	movieTitleQ   = regexp.QuoteMeta(`SELECT title FROM movies WHERE id = ?`)
	insertTicketQ = regexp.QuoteMeta(`INSERT INTO tickets (user_id, function_id, price, purchased_at) VALUES (?, ?, ?, ?)`)
)

func functionRow(avail uint32) *sqlmock.Rows {
	return sqlmock.NewRows(
		[]string{"id", "cinema_id", "movie_id", "show_datetime", "total_capacity", "available_capacity"}).
		AddRow(9, 2, 4, time.Date(2026, 9, 1, 20, 0, 0, 0, time.UTC), 5, avail)
}

func cardRow(balance string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "balance"}).AddRow(11, 7, balance)
}

func TestBuyTickets_Success(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockFunctionQ).WithArgs(uint64(9)).WillReturnRows(functionRow(5))
	mock.ExpectQuery(lockCardQ).WithArgs(uint64(7)).WillReturnRows(cardRow("10000"))
	mock.ExpectExec(debitCardQ).WithArgs("7500", uint64(11), "7500").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(reserveQ).WithArgs(uint32(3), uint64(9), uint32(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(movieTitleQ).WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"title"}).AddRow("Interstellar"))
	mock.ExpectExec(insertTicketQ).WillReturnResult(sqlmock.NewResult(101, 1))
	mock.ExpectExec(insertTicketQ).WillReturnResult(sqlmock.NewResult(102, 1))
	mock.ExpectExec(insertTicketQ).WillReturnResult(sqlmock.NewResult(103, 1))
	mock.ExpectCommit()

	details, err := svc.BuyTickets(context.Background(), 7, 9, 3)
	require.NoError(t, err)
	require.Len(t, details, 3)

	for i, det := range details {
		assert.Equal(t, uint64(101+i), det.ID)
		assert.Equal(t, "Interstellar", det.MovieTitle)
		assert.Equal(t, uint64(2), det.CinemaID)
		assert.True(t, det.Price.Equal(TicketPrice))
	}
	// One purchase, one timestamp.
	assert.Equal(t, details[0].PurchaseDate, details[2].PurchaseDate)
	assert.Equal(t, details[0].PurchaseTime, details[2].PurchaseTime)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuyTickets_InsufficientCapacity(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockFunctionQ).WithArgs(uint64(9)).WillReturnRows(functionRow(2))
	mock.ExpectRollback()

	details, err := svc.BuyTickets(context.Background(), 7, 9, 3)
	assert.ErrorIs(t, err, repository.ErrInsufficientCapacity)
	assert.Nil(t, details)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuyTickets_InsufficientFunds(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockFunctionQ).WithArgs(uint64(9)).WillReturnRows(functionRow(5))
	mock.ExpectQuery(lockCardQ).WithArgs(uint64(7)).WillReturnRows(cardRow("2000"))
	mock.ExpectRollback()

	details, err := svc.BuyTickets(context.Background(), 7, 9, 1)
	assert.ErrorIs(t, err, repository.ErrInsufficientFunds)
	assert.Nil(t, details)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The two guard-trip tests model the concurrent-buyer race: a second
// purchase commits between this transaction's validation and its guarded
// UPDATE, so the re-check in the WHERE clause finds the funds or seats
// gone. Exactly one of two racing buyers can win; the loser rolls back
// with the same sentinel the up-front validation would have produced.

func TestBuyTickets_DebitGuardTrips(t *testing.T) {
	svc, mock := newServiceWithMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(lockFunctionQ).WithArgs(uint64(9)).WillReturnRows(functionRow(5))
	mock.ExpectQuery(lockCardQ).WithArgs(uint64(7)).WillReturnRows(cardRow("10000"))
	mock.ExpectExec(debitCardQ).WithArgs("2500", uint64(11), "2500").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	details, err := svc.BuyTickets(context.Background(), 7, 9, 1)
	assert.ErrorIs(t, err, repository.ErrInsufficientFunds)
	assert.Nil(t, details)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuyTickets_ReserveGuardTrips(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	// Capacity read as 5, but a rival purchase takes the remaining seats
	// before the decrement lands: zero rows affected, never two winners.
	mock.ExpectBegin()
	mock.ExpectQuery(lockFunctionQ).WithArgs(uint64(9)).WillReturnRows(functionRow(5))
	mock.ExpectQuery(lockCardQ).WithArgs(uint64(7)).WillReturnRows(cardRow("10000"))
	mock.ExpectExec(debitCardQ).WithArgs("5000", uint64(11), "5000").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(reserveQ).WithArgs(uint32(2), uint64(9), uint32(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	details, err := svc.BuyTickets(context.Background(), 7, 9, 2)
	assert.ErrorIs(t, err, repository.ErrInsufficientCapacity)
	assert.Nil(t, details)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuyTickets_FunctionNotFound(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockFunctionQ).WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "cinema_id", "movie_id", "show_datetime", "total_capacity", "available_capacity"}))
	mock.ExpectRollback()

	_, err := svc.BuyTickets(context.Background(), 7, 99, 1)
	assert.ErrorIs(t, err, repository.ErrFunctionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuyTickets_CardNotFound(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockFunctionQ).WithArgs(uint64(9)).WillReturnRows(functionRow(5))
	mock.ExpectQuery(lockCardQ).WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "balance"}))
	mock.ExpectRollback()

	_, err := svc.BuyTickets(context.Background(), 7, 9, 1)
	assert.ErrorIs(t, err, repository.ErrCardNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuyTickets_InvalidRequest(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	// No DB activity at all for malformed requests.
	for _, tc := range []struct {
		functionID uint64
		quantity   int
	}{{0, 1}, {9, 0}, {9, -3}} {
		_, err := svc.BuyTickets(context.Background(), 7, tc.functionID, tc.quantity)
		assert.ErrorIs(t, err, repository.ErrInvalidRequest)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindTicketByID_Ownership(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	q := regexp.QuoteMeta(`WHERE t.id = ?`)
	rows := sqlmock.NewRows([]string{"id", "user_id", "purchased_at", "title", "cinema_id", "price"}).
		AddRow(5, 99, time.Date(2026, 8, 30, 18, 30, 0, 0, time.UTC), "Interstellar", 2, "2500")
	mock.ExpectQuery(q).WithArgs(uint64(5)).WillReturnRows(rows)

	_, err := svc.FindTicketByID(context.Background(), 7, 5)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindTicketByID_Found(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	q := regexp.QuoteMeta(`WHERE t.id = ?`)
	rows := sqlmock.NewRows([]string{"id", "user_id", "purchased_at", "title", "cinema_id", "price"}).
		AddRow(5, 7, time.Date(2026, 8, 30, 18, 30, 0, 0, time.UTC), "Interstellar", 2, "2500")
	mock.ExpectQuery(q).WithArgs(uint64(5)).WillReturnRows(rows)

	det, err := svc.FindTicketByID(context.Background(), 7, 5)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-30", det.PurchaseDate)
	assert.Equal(t, "18:30:00", det.PurchaseTime)
	assert.Equal(t, "Interstellar", det.MovieTitle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindTicketByID_InvalidID(t *testing.T) {
	svc, _ := newServiceWithMock(t)
	_, err := svc.FindTicketByID(context.Background(), 7, 0)
	assert.ErrorIs(t, err, repository.ErrInvalidRequest)
}
