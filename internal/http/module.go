// Package http holds the contract between the router and the booking
// modules (scripts, operators, services, notifications).
package http

import (
	"marketplace_backend/platform/config"

	"github.com/gin-gonic/gin"
)

// Module mounts one bounded context's routes.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is passed to every Module.RegisterRoutes call.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is /api/v1 without authentication.
	V1 *gin.RouterGroup
	// Protected is /api/v1 behind AuthMiddleware.
	Protected      *gin.RouterGroup
	Config         config.JWTConfig
	AuthMiddleware gin.HandlerFunc
	// BookingRateLimit throttles session writes per client IP.
	BookingRateLimit gin.HandlerFunc
}
