package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/marketplace-backend/internal/auth"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/auth/domain"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/logging"
)

func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.profiles.Get(c.Request.Context(), auth.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}

// SyncUser records the signed-in caller's profile. The body is optional; the
// email falls back to the one carried by the identity token.
func (h *Handler) SyncUser(c *gin.Context) {
	uid := auth.UserID(c)

	var body struct {
		Email        string                 `json:"email,omitempty"`
		DisplayName  *string                `json:"display_name,omitempty"`
		PhotoURL     *string                `json:"photo_url,omitempty"`
		Organization *string                `json:"organization,omitempty"`
		Role         domain.Role            `json:"role,omitempty"`
		Preferences  map[string]interface{} `json:"preferences,omitempty"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid JSON body", "details": err.Error()})
			return
		}
	}

	email := body.Email
	if email == "" {
		email = c.GetString(auth.CtxEmail)
	}

	user, err := h.profiles.Sync(c.Request.Context(), &domain.SyncUserRequest{
		ExternalID:   uid,
		Email:        email,
		DisplayName:  body.DisplayName,
		PhotoURL:     body.PhotoURL,
		Organization: body.Organization,
		Role:         body.Role,
		Preferences:  body.Preferences,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.profiles.RecordLogin(c.Request.Context(), uid); err != nil {
		logging.FromContext(c.Request.Context()).WithError(err).Warn("record login")
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req struct {
		DisplayName  *string                `json:"display_name,omitempty"`
		PhotoURL     *string                `json:"photo_url,omitempty"`
		Organization *string                `json:"organization,omitempty"`
		Role         domain.Role            `json:"role,omitempty"`
		Preferences  map[string]interface{} `json:"preferences,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	user, err := h.profiles.Update(c.Request.Context(), auth.UserID(c), &domain.UpdateUserRequest{
		DisplayName:  req.DisplayName,
		PhotoURL:     req.PhotoURL,
		Organization: req.Organization,
		Role:         req.Role,
		Preferences:  req.Preferences,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
	case errors.Is(err, domain.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	default:
		logging.FromContext(c.Request.Context()).WithError(err).
			WithField("path", c.FullPath()).Error("profile request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}
