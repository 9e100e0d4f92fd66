package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boleteria/cinema-api/internal/utils"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestJWTAuth(t *testing.T) {
	const secret = "test-secret"
	e := echo.New()
	mw := JWTAuth(secret)

	t.Run("valid token passes and sets identity", func(t *testing.T) {
		at, err := utils.NewAccessToken(secret, 7, "CLIENT", 15)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+at.Token)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := mw(func(c echo.Context) error {
			assert.Equal(t, float64(7), c.Get("user_id"))
			assert.Equal(t, "CLIENT", c.Get("role"))
			return c.String(http.StatusOK, "ok")
		})
		require.NoError(t, handler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, mw(okHandler)(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with another secret rejected", func(t *testing.T) {
		at, err := utils.NewAccessToken("other-secret", 7, "CLIENT", 15)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+at.Token)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, mw(okHandler)(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name     string
		allowed  []string
		role     interface{}
		wantCode int
	}{
		{"admin allowed", []string{"ADMIN"}, "ADMIN", http.StatusOK},
		{"client blocked from admin route", []string{"ADMIN"}, "CLIENT", http.StatusForbidden},
		{"either role accepted", []string{"ADMIN", "CLIENT"}, "CLIENT", http.StatusOK},
		{"missing role blocked", []string{"ADMIN"}, nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.role != nil {
				c.Set("role", tt.role)
			}
			require.NoError(t, RequireRole(tt.allowed...)(okHandler)(c))
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
