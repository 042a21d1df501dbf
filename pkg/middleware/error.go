package middleware

import (
	"errors"
	"net/http"

	"creatorlink-platform/pkg/errutil"

	"github.com/gin-gonic/gin"
)

// Error renders the last handler error as the API envelope. Errors never
// cross the boundary raw; unknown ones collapse to an internal status.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		err := c.Errors.Last()
		if err == nil || c.Writer.Written() {
			return
		}

		var base errutil.BaseError
		if errors.As(err.Err, &base) {
			c.JSON(base.Code.HTTPStatus(), gin.H{
				"success": false,
				"error":   base.Error(),
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
	}
}
