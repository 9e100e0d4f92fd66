// Package handler defines the HTTP handlers. All protected handlers assume
// that JWT authentication and role validation have already been performed
// by middleware and read the authenticated identity from the Echo context.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/boleteria/cinema-api/internal/repository"
)

// getUserID extracts the user_id from echo.Context and converts it to
// uint64. JWT claims decode JSON numbers as float64, so several encodings
// are accepted.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a numeric path parameter; zero is treated as invalid.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// writeDomainError translates the repository sentinel errors into HTTP
// responses. Unknown errors become 500 with a generic message so internal
// details never leak to clients.
func writeDomainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	case errors.Is(err, repository.ErrMovieNotFound),
		errors.Is(err, repository.ErrCinemaNotFound),
		errors.Is(err, repository.ErrFunctionNotFound),
		errors.Is(err, repository.ErrCardNotFound),
		errors.Is(err, repository.ErrTicketNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrInsufficientCapacity):
		return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient capacity"})
	case errors.Is(err, repository.ErrInsufficientFunds):
		return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient funds"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting state"})
	case errors.Is(err, repository.ErrCardExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "card already exists"})
	case errors.Is(err, repository.ErrMovieExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "movie title already exists"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}
