package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

const probeTimeout = 2 * time.Second

// Check is a named readiness probe for a dependency beyond the database,
// such as the Redis broker backing the push channels.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

type Handler struct {
	db     *sqlx.DB
	checks []Check
}

func NewHandler(db *sqlx.DB, checks ...Check) *Handler {
	return &Handler{
		db:     db,
		checks: checks,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

// ReadinessCheck pings the database and every registered probe. Any
// failure reports DOWN with the names of the dependencies that failed.
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	var failed []string
	if err := h.db.PingContext(ctx); err != nil {
		failed = append(failed, "database")
	}
	for _, check := range h.checks {
		if err := check.Probe(ctx); err != nil {
			failed = append(failed, check.Name)
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "DOWN",
			"failed": failed,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}
