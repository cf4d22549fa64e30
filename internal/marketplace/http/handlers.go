package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/marketplace-backend/internal/auth"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/logging"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/marketplace/domain"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/marketplace/service"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/reminder"
)

// Sweeper triggers an out-of-schedule reminder sweep.
type Sweeper interface {
	Run(ctx context.Context) (reminder.Report, error)
}

type Handler struct {
	lifecycle *service.Lifecycle
	sweeper   Sweeper
}

func NewHandler(lifecycle *service.Lifecycle, sweeper Sweeper) *Handler {
	return &Handler{lifecycle: lifecycle, sweeper: sweeper}
}

type createProjectReq struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Budget      float64   `json:"budget"`
	Deadline    time.Time `json:"deadline"`
}

func (h *Handler) CreateProject(c *gin.Context) {
	var req createProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	p, err := h.lifecycle.CreateProject(c.Request.Context(), domain.CreateProjectRequest{
		OwnerID:     auth.UserID(c),
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Deadline:    req.Deadline,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) GetProject(c *gin.Context) {
	p, err := h.lifecycle.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

type submitBidReq struct {
	Amount       float64 `json:"amount"`
	DurationDays int     `json:"duration_days"`
	Message      string  `json:"message"`
}

func (h *Handler) SubmitBid(c *gin.Context) {
	var req submitBidReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	b, err := h.lifecycle.SubmitBid(c.Request.Context(), domain.SubmitBidRequest{
		ProjectID:    c.Param("id"),
		SellerID:     auth.UserID(c),
		Amount:       req.Amount,
		DurationDays: req.DurationDays,
		Message:      req.Message,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "bid": b})
}

func (h *Handler) ListBids(c *gin.Context) {
	bids, err := h.lifecycle.ListBids(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "bids": bids})
}

type selectSellerReq struct {
	BidID string `json:"bid_id"`
}

func (h *Handler) SelectSeller(c *gin.Context) {
	var req selectSellerReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.BidID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "bid_id is required", "kind": domain.KindValidation})
		return
	}

	p, err := h.lifecycle.SelectSeller(c.Request.Context(), auth.UserID(c), c.Param("id"), strings.TrimSpace(req.BidID))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

type uploadReq struct {
	ArtifactURL string `json:"artifact_url"`
	Note        string `json:"note"`
}

func (h *Handler) UploadDeliverable(c *gin.Context) {
	var req uploadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	d, err := h.lifecycle.UploadDeliverable(c.Request.Context(), auth.UserID(c), c.Param("id"), domain.Artifact{
		URL:  req.ArtifactURL,
		Note: req.Note,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "deliverable": d})
}

func (h *Handler) ListDeliverables(c *gin.Context) {
	items, err := h.lifecycle.ListDeliverables(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deliverables": items})
}

func (h *Handler) CompleteProject(c *gin.Context) {
	p, err := h.lifecycle.CompleteProject(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) SweepReminders(c *gin.Context) {
	if h.sweeper == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "reminder sweeper not configured"})
		return
	}

	rep, err := h.sweeper.Run(c.Request.Context())
	if errors.Is(err, reminder.ErrSweepInFlight) {
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error(), "kind": domain.KindConflict})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "report": rep})
}

func badBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body: " + err.Error(), "kind": domain.KindValidation})
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).WithError(err).
			WithField("path", c.FullPath()).Error("request failed")
		c.JSON(status, gin.H{"ok": false, "error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"ok": false, "error": err.Error(), "kind": kind})
}
