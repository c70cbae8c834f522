// internal/api/api.go
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/api/handlers"
	"github.com/andresuchdata/restock/backend-go/internal/api/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Replenishment handlers.ReplenishmentService
	// Ready reports whether backing stores answer; nil means always ready
	Ready func(ctx context.Context) error
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ready", func(c *gin.Context) {
		if services != nil && services.Ready != nil {
			if err := services.Ready(c.Request.Context()); err != nil {
				log.Warn().Err(err).Msg("readiness check failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil && services.Replenishment != nil {
		replenishmentHandler := handlers.NewReplenishmentHandler(services.Replenishment)
		replenishmentGroup := apiGroup.Group("/replenishment")
		{
			replenishmentGroup.POST("/batch", replenishmentHandler.GetBatchSuggestion)
			replenishmentGroup.POST("/:storeKey/suggestion", replenishmentHandler.GetSuggestion)
			replenishmentGroup.POST("/:storeKey/warehouse-suggestion", replenishmentHandler.GetWarehouseSuggestion)
		}
		apiGroup.GET("/warehouses", replenishmentHandler.ListWarehouses)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
