package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/studyroom/seat-tracker/internal/dto"
	"github.com/studyroom/seat-tracker/internal/utils"
)

// AdminAuth requires a Bearer token issued by utils.NewAdminToken. An empty
// secret leaves the admin routes open.
func AdminAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if secret == "" {
			return next
		}
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, dto.Result{Code: "UNAUTHORIZED", Message: "missing bearer token"})
			}
			if err := utils.ParseAdminToken(secret, strings.TrimPrefix(auth, "Bearer ")); err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, dto.Result{Code: "UNAUTHORIZED", Message: "invalid token"})
			}
			return next(c)
		}
	}
}
