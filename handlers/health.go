package handlers

import (
	"net/http"

	"fadetogo/utils"

	"github.com/gin-gonic/gin"
)

// Healthz reports that the process is up.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm FadeToGo"})
}

// Readyz reports the last dependency check. 503 when any store is down.
func Readyz(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
