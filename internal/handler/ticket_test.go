package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boleteria/cinema-api/internal/repository"
	"github.com/boleteria/cinema-api/internal/service"
)

func newTicketHandlerWithMock(t *testing.T) (*TicketHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := service.NewTicketService(db,
		repository.NewFunctionRepo(db),
		repository.NewCardRepo(db),
		repository.NewTicketRepo(db),
		repository.NewMovieRepo(db))
	return NewTicketHandler(svc), mock
}

func postJSON(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/tickets", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", float64(7)) // as JWTAuth stores it
	return c, rec
}

func TestTicketBuy_Success(t *testing.T) {
	h, mock := newTicketHandlerWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM functions WHERE id = ? FOR UPDATE`)).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "cinema_id", "movie_id", "show_datetime", "total_capacity", "available_capacity"}).
			AddRow(9, 2, 4, time.Date(2026, 9, 1, 20, 0, 0, 0, time.UTC), 5, 5))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM cards WHERE user_id = ? FOR UPDATE`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "balance"}).AddRow(11, 7, "10000"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE cards`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE functions`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT title FROM movies WHERE id = ?`)).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"title"}).AddRow("Interstellar"))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tickets`)).WillReturnResult(sqlmock.NewResult(101, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tickets`)).WillReturnResult(sqlmock.NewResult(102, 1))
	mock.ExpectCommit()

	c, rec := postJSON(t, `{"function_id":9,"quantity":2}`)
	require.NoError(t, h.Buy(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var details []repository.TicketDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
	require.Len(t, details, 2)
	assert.Equal(t, "Interstellar", details[0].MovieTitle)
	assert.Equal(t, uint64(2), details[0].CinemaID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketBuy_InsufficientCapacity(t *testing.T) {
	h, mock := newTicketHandlerWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM functions WHERE id = ? FOR UPDATE`)).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "cinema_id", "movie_id", "show_datetime", "total_capacity", "available_capacity"}).
			AddRow(9, 2, 4, time.Date(2026, 9, 1, 20, 0, 0, 0, time.UTC), 5, 1))
	mock.ExpectRollback()

	c, rec := postJSON(t, `{"function_id":9,"quantity":2}`)
	require.NoError(t, h.Buy(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient capacity")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketBuy_InvalidBody(t *testing.T) {
	h, _ := newTicketHandlerWithMock(t)

	c, rec := postJSON(t, `{"function_id":0,"quantity":0}`)
	require.NoError(t, h.Buy(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTicketListMine_Empty(t *testing.T) {
	h, mock := newTicketHandlerWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE t.user_id = ? ORDER BY t.id`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "purchased_at", "title", "cinema_id", "price"}))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/tickets", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", float64(7))

	require.NoError(t, h.ListMine(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
