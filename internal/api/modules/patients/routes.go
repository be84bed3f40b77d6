package patients

import (
	"github.com/gin-gonic/gin"

	auth_module "github.com/clinicvoice/server/internal/api/modules/auth"
)

// RegisterRoutes registers the routes for the patients module.
// Every patient operation requires a valid bearer token.
func RegisterRoutes(g *gin.RouterGroup) {
	group := g.Group("/patients")
	group.Use(auth_module.RequireAuth())

	group.POST("", CreatePatient)
	group.GET("", ListPatients)
	group.GET("/:id", GetPatient)
	group.PUT("/:id", UpdatePatient)
	group.DELETE("/:id", DeletePatient)
}
