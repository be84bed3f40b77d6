package auth

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the routes for the auth module
func RegisterRoutes(g *gin.RouterGroup) {
	group := g.Group("/auth")

	group.POST("/register", Register)
	group.POST("/login", Login)
	group.POST("/logout", Logout)
}
