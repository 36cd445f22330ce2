package middleware

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/toikobi401/SWP391-HotelManagement-sub002/internal/shared/apperr"
)

func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler converts errors recorded on the gin context into the
// `{success:false, message, ...}` envelope every endpoint answers with.
// Internal error detail is exposed only outside production.
func ErrorHandler(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := apperr.HTTPStatus(err)
		publicMsg := apperr.PublicMessage(err)
		rid := GetRequestID(c)

		l.LogAttrs(c.Request.Context(), slog.LevelError, "request_failed",
			slog.String("request_id", rid),
			slog.Int("status", status),
			slog.Any("err", err),
		)

		payload := gin.H{
			"success":    false,
			"message":    publicMsg,
			"request_id": rid,
		}
		if ae, ok := apperr.As(err); ok {
			if len(ae.Fields) > 0 {
				payload["fields"] = ae.Fields
			}
			if ae.Err != nil && os.Getenv("APP_ENV") != "production" {
				payload["error"] = ae.Err.Error()
			}
		}
		c.AbortWithStatusJSON(status, payload)
	}
}
