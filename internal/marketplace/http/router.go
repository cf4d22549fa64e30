package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	projects := rg.Group("/projects")
	projects.POST("", h.CreateProject)
	projects.GET("/:id", h.GetProject)
	projects.POST("/:id/bids", h.SubmitBid)
	projects.GET("/:id/bids", h.ListBids)
	projects.POST("/:id/select-seller", h.SelectSeller)
	projects.POST("/:id/deliverables", h.UploadDeliverable)
	projects.GET("/:id/deliverables", h.ListDeliverables)
	projects.POST("/:id/complete", h.CompleteProject)
}

// RegisterAdmin mounts operator routes. The caller gates rg.
func (h *Handler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.POST("/reminders/sweep", h.SweepReminders)
}
