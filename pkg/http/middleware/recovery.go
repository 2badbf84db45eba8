package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	applogger "ConsensusBot/pkg/logger"
)

// Recover logs a handler panic with its route and answers 500.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				perr, ok := r.(error)
				if !ok {
					perr = fmt.Errorf("%v", r)
				}
				l.Error("handler panic",
					applogger.String("route", c.Path()),
					applogger.Error(perr),
					applogger.String("stack", string(debug.Stack())),
				)
				if !c.Response().Committed {
					err = c.JSON(http.StatusInternalServerError, map[string]any{
						"status":  http.StatusInternalServerError,
						"message": http.StatusText(http.StatusInternalServerError),
					})
				}
			}()
			return next(c)
		}
	}
}
