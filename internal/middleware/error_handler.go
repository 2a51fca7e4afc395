package middleware

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/studyroom/seat-tracker/internal/dto"
)

// ErrorHandler renders every failure as {ok:false, code?, message}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := dto.Result{OK: false, Message: http.StatusText(code)}

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		switch m := he.Message.(type) {
		case dto.Result:
			body = m
		case string:
			body = dto.Result{OK: false, Message: m}
		default:
			body = dto.Result{OK: false, Message: http.StatusText(code)}
		}
		if he.Internal != nil {
			log.Printf("[HTTP] %s %s: %v", c.Request().Method, c.Path(), he.Internal)
		}
	} else {
		log.Printf("[HTTP] %s %s: unhandled error: %v", c.Request().Method, c.Path(), err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, body)
}
