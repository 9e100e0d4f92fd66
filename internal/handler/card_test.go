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
)

func newCardHandlerWithMock(t *testing.T) (*CardHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCardHandler(repository.NewCardRepo(db)), mock
}

func cardRequest(t *testing.T, method, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/v1/card", nil)
	} else {
		req = httptest.NewRequest(method, "/v1/card", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", float64(7))
	return c, rec
}

func TestCardGet(t *testing.T) {
	h, mock := newCardHandlerWithMock(t)
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	updated := time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM cards WHERE user_id = ?`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "balance", "created_at", "updated_at"}).
			AddRow(11, 7, "2500.00", created, updated))

	c, rec := cardRequest(t, http.MethodGet, "")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ID        uint64 `json:"id"`
		UserID    uint64 `json:"user_id"`
		Balance   string `json:"balance"`
		CreatedAt string `json:"created_at"`
		UpdatedAt string `json:"updated_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(11), resp.ID)
	assert.Equal(t, uint64(7), resp.UserID)
	assert.Equal(t, "2500", resp.Balance)
	assert.Equal(t, "2026-08-01T12:00:00Z", resp.CreatedAt)
	assert.Equal(t, "2026-08-30T09:30:00Z", resp.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardGet_NotFound(t *testing.T) {
	h, mock := newCardHandlerWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM cards WHERE user_id = ?`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "balance", "created_at", "updated_at"}))

	c, rec := cardRequest(t, http.MethodGet, "")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRecharge_RejectsNonPositive(t *testing.T) {
	h, _ := newCardHandlerWithMock(t)

	for _, body := range []string{`{"amount":"0"}`, `{"amount":"-50"}`} {
		c, rec := cardRequest(t, http.MethodPatch, body)
		require.NoError(t, h.Recharge(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestCardUpdate_RejectsNegativeBalance(t *testing.T) {
	h, _ := newCardHandlerWithMock(t)

	c, rec := cardRequest(t, http.MethodPut, `{"balance":"-1"}`)
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
