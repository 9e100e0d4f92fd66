package middleware

// identity.go provides the user identity helper shared by the rate limit
// and cache middleware. It reads the user id placed in the context by
// JWTAuth; unauthenticated requests are keyed as "guest".

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// userID extracts a user identifier from the request context. JWTAuth
// stores the raw "sub" claim which may be a float64 (JSON number) or a
// string; both are normalized here.
func userID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case nil:
		return "guest"
	case string:
		if v != "" {
			return v
		}
		return "guest"
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprint(v)
	}
}
