package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// getStatus reports service liveness
func getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
