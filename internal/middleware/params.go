package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard-api/internal/constants"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
)

// RequireIDParam parses the :id path parameter and stores it in the
// context. Malformed ids are rejected with 400 before the handler runs.
func RequireIDParam() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || id == 0 {
			apierrors.BadRequest(c, "Invalid id")
			return
		}

		c.Set(constants.ContextKeyParamID, id)
		c.Next()
	}
}

// GetIDParam retrieves the id parsed by RequireIDParam
func GetIDParam(c *gin.Context) (uint64, bool) {
	v, exists := c.Get(constants.ContextKeyParamID)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}
