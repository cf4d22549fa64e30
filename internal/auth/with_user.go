package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/marketplace-backend/internal/users"
)

type UserEnsurer interface {
	EnsureUser(ctx context.Context, u users.UpsertUser) (string, error)
}

// WithUser resolves the caller. An id already placed by FirebaseAuth wins;
// otherwise the X-User-Id header is trusted, which is only meant for
// deployments behind an authenticating gateway. Websocket clients that cannot
// set headers may pass ?user_id= instead. When repo is non-nil the caller is
// upserted into the user directory.
func WithUser(repo UserEnsurer) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := UserID(c)
		if uid == "" {
			uid = strings.TrimSpace(c.GetHeader("X-User-Id"))
		}
		if uid == "" {
			uid = strings.TrimSpace(c.Query("user_id"))
		}
		if uid == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not authenticated"})
			c.Abort()
			return
		}

		email := c.GetString(CtxEmail)
		if email == "" {
			email = c.GetHeader("X-User-Email")
		}

		if repo != nil {
			dbID, err := repo.EnsureUser(c.Request.Context(), users.UpsertUser{
				ExternalID:  uid,
				Email:       email,
				DisplayName: c.GetHeader("X-User-Name"),
			})
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "ensure user: " + err.Error()})
				c.Abort()
				return
			}
			c.Set(CtxUserDBID, dbID)
		}

		c.Set(CtxUserID, uid)
		c.Next()
	}
}
