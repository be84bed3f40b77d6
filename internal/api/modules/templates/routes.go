package templates

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the routes for the prompt-templates module
func RegisterRoutes(g *gin.RouterGroup) {
	group := g.Group("/prompt-templates")

	group.GET("", ListTemplates)
	group.POST("", CreateTemplate)
}
