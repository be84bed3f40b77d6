package appointments

import (
	"github.com/gin-gonic/gin"

	auth_module "github.com/clinicvoice/server/internal/api/modules/auth"
)

// RegisterRoutes registers the routes for the appointments module
func RegisterRoutes(g *gin.RouterGroup) {
	group := g.Group("/appointments")
	group.Use(auth_module.RequireAuth())

	group.POST("", CreateAppointment)
	group.GET("", ListAppointments)
	group.GET("/patient/:patient_id", ListAppointmentsForPatient)
	group.GET("/:id", GetAppointment)
	group.PUT("/:id", UpdateAppointment)
	group.DELETE("/:id", DeleteAppointment)
}
