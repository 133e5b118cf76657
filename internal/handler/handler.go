package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler holds the cross-cutting endpoints that belong to no domain
// handler. Liveness and readiness live in the health package.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) MetricsHandler(c *gin.Context) {
	promhttp.Handler().ServeHTTP(c.Writer, c.Request)
}
