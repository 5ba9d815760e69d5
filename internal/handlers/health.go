// internal/handlers/health.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/applied-api/internal/database"
	"github.com/javajoker/applied-api/internal/i18n"
	"github.com/javajoker/applied-api/internal/utils"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// GET /health
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := database.Ping(ctx, h.db); err != nil {
		logrus.WithError(err).Warn("Readiness check failed")
		lang := utils.GetLangFromContext(c)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"message": i18n.T(lang, i18n.KeyServiceDegraded),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
}
