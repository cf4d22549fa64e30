package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin lets through only callers whose external id is in ids. It must
// run after WithUser.
func RequireAdmin(ids []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := allowed[UserID(c)]; !ok {
			c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "admin access required", "kind": "forbidden"})
			c.Abort()
			return
		}
		c.Next()
	}
}
