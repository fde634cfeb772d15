package server

import (
	"net/http"

	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/api"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/metrics"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/notification"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} api.HealthResponse
// @Router       /health [get]
func Health(notifier *notification.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if notifier != nil {
			metrics.NotificationQueueLength.Set(float64(notifier.QueueLength(c.Request.Context())))
		}
		c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
	}
}

// @Summary      Prometheus metrics
// @Description  Exposes Prometheus metrics in text format
// @Tags         system
// @Produce      text/plain
// @Success      200 {string} string
// @Router       /metrics [get]
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
