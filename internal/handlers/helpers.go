package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ManShanJu-JiShan/manshanspace/internal/middleware"
)

// tolerant to value type (int / int64 / float64 / string)
func getIntFromCtx(c *gin.Context, key string) (int, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n, true
		}
	}
	return 0, false
}

// requireOwner checks that the authenticated user is the owner of the
// resource addressed by the :id path param. Writes the error response
// itself; callers just bail out on false.
func requireOwner(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	callerID, ok := getIntFromCtx(c, middleware.CtxUserID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return 0, false
	}
	if callerID != id {
		c.JSON(http.StatusForbidden, gin.H{"error": "no permission to access another user's data"})
		return 0, false
	}
	return id, true
}
