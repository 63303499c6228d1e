package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docuquery/internal/bootstrap"
)

// HealthHandler reports liveness of the service and its backing stores so
// orchestration can tell a wedged dependency apart from a dead process.
type HealthHandler struct {
	app *bootstrap.App
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := gin.H{
		"mysql":    h.pingMySQL(ctx),
		"redis":    h.pingRedis(ctx),
		"rabbitmq": h.pingRabbitMQ(),
	}

	statusCode := http.StatusOK
	for _, d := range deps {
		if d != "ok" {
			statusCode = http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(statusCode, gin.H{
		"app":          h.app.Config.App.Name,
		"env":          h.app.Config.App.Env,
		"uptime_sec":   int(time.Since(h.app.StartedAt).Seconds()),
		"dependencies": deps,
	})
}

func (h *HealthHandler) pingMySQL(ctx context.Context) string {
	sqlDB, err := h.app.MySQL.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		return err.Error()
	}
	return "ok"
}

func (h *HealthHandler) pingRedis(ctx context.Context) string {
	if err := h.app.Redis.Ping(ctx).Err(); err != nil {
		return err.Error()
	}
	return "ok"
}

func (h *HealthHandler) pingRabbitMQ() string {
	if h.app.MQConn == nil || h.app.MQConn.IsClosed() {
		return "connection closed"
	}
	return "ok"
}
