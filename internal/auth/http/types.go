package http

import "github.com/GoSim-25-26J-441/marketplace-backend/internal/auth/service"

type Handler struct {
	profiles *service.ProfileService
}

func New(profiles *service.ProfileService) *Handler {
	return &Handler{profiles: profiles}
}
