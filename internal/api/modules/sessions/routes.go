package sessions

import (
	"github.com/gin-gonic/gin"

	auth_module "github.com/clinicvoice/server/internal/api/modules/auth"
)

// RegisterRoutes registers the routes for the sessions module. The multipart
// submission endpoint is open (the recording client supplies user_id in the
// form); everything touching stored sessions requires a bearer token.
func RegisterRoutes(g *gin.RouterGroup) {
	group := g.Group("/sessions")

	group.POST("", CreateSession)

	protected := group.Group("")
	protected.Use(auth_module.RequireAuth())
	protected.GET("", ListSessions)
	protected.GET("/:id", GetSession)
	protected.PUT("/:id", UpdateSession)
	protected.DELETE("/:id", DeleteSession)
}

// RegisterAudioRoutes registers stored-audio retrieval at the engine root,
// outside the /api prefix
func RegisterAudioRoutes(engine *gin.Engine) {
	engine.GET("/get-audio/:filename", GetAudio)
}
