package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/GoSim-25-26J-441/marketplace-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/auth"
	authhttp "github.com/GoSim-25-26J-441/marketplace-backend/internal/auth/http"
	mphttp "github.com/GoSim-25-26J-441/marketplace-backend/internal/marketplace/http"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/realtime"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	HealthChecks   map[string]httpapi.Check

	// Verifier enables Firebase ID-token auth when non-nil.
	Verifier auth.TokenVerifier
	// Users is optional; without it callers are not recorded.
	Users auth.UserEnsurer

	// AdminUserIDs may call /api/v1/admin routes.
	AdminUserIDs []string

	Profiles    *authhttp.Handler
	Marketplace *mphttp.Handler
	Realtime    *realtime.Handler
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(cors.New(corsConfig(dep.AllowedOrigins)))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.HealthChecks)
	healthHandler.RegisterRoutes(r)

	identity := []gin.HandlerFunc{}
	if dep.Verifier != nil {
		identity = append(identity, auth.FirebaseAuth(dep.Verifier))
	}
	identity = append(identity, auth.WithUser(dep.Users))

	api := r.Group("/api/v1")
	api.Use(identity...)
	if dep.Profiles != nil {
		dep.Profiles.Register(api.Group("/users"))
	}
	if dep.Marketplace != nil {
		dep.Marketplace.Register(api)
		dep.Marketplace.RegisterAdmin(api.Group("/admin", auth.RequireAdmin(dep.AdminUserIDs)))
	}

	if dep.Realtime != nil {
		rt := r.Group("/realtime")
		rt.Use(identity...)
		dep.Realtime.Register(rt)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-User-Id", "X-User-Email", "X-User-Name", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
