package notification

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agora-ir/platform/internal/handler"
	"github.com/agora-ir/platform/internal/model"
	"github.com/agora-ir/platform/internal/repository"
	"github.com/agora-ir/platform/internal/service/dispatcher"
	"github.com/agora-ir/platform/internal/service/notification"
	"github.com/agora-ir/platform/pkg/apperror"
)

type Handler struct {
	notifSvc    notification.Service
	dispatchSvc *dispatcher.Service
	logRepo     repository.DeliveryLogRepository
}

func NewHandler(notifSvc notification.Service, dispatchSvc *dispatcher.Service, logRepo repository.DeliveryLogRepository) *Handler {
	return &Handler{
		notifSvc:    notifSvc,
		dispatchSvc: dispatchSvc,
		logRepo:     logRepo,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.POST("/dispatch", h.Dispatch)
		notifications.POST("/test", h.TestNotification)
		notifications.POST("/send", h.Send)
		notifications.GET("/logs", h.ListLogs)
	}
}

// Dispatch triggers a full run and waits for its summary. The body is an
// optional {"manual": true}; an empty body counts as a manual trigger too,
// since only the scheduler calls Run directly.
func (h *Handler) Dispatch(c *gin.Context) {
	req := model.DispatchRequest{Manual: true}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
	}

	summary, err := h.dispatchSvc.Run(c.Request.Context(), req.Manual)
	if err != nil {
		c.JSON(statusFor(err), handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(summary))
}

func (h *Handler) TestNotification(c *gin.Context) {
	var req model.TestNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.dispatchSvc.TestNotification(c.Request.Context(), req.UserID)
	if err != nil {
		c.JSON(statusFor(err), handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

// Send serves the per-delivery contract: one fully specified delivery for
// one user on one channel.
func (h *Handler) Send(c *gin.Context) {
	var req model.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.notifSvc.HandleRequest(c.Request.Context(), &req)
	if err != nil {
		if result != nil {
			// The send was attempted and logged; report the failure with
			// the structured result attached.
			c.JSON(statusFor(err), handler.NewErrorResponse(result.Error))
			return
		}
		c.JSON(statusFor(err), handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) ListLogs(c *gin.Context) {
	filters := model.AttemptFilters{Limit: 50}

	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user ID"))
			return
		}
		filters.UserID = &id
	}
	if raw := c.Query("channel"); raw != "" {
		ch := model.Channel(raw)
		if !ch.Valid() {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid channel"))
			return
		}
		filters.Channel = ch
	}
	if raw := c.Query("status"); raw != "" {
		filters.Status = model.AttemptStatus(raw)
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid limit"))
			return
		}
		filters.Limit = limit
	}

	attempts, err := h.logRepo.List(c.Request.Context(), filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(attempts))
}

func statusFor(err error) int {
	switch apperror.CodeOf(err) {
	case apperror.ErrNotFound:
		return http.StatusNotFound
	case apperror.ErrBadRequest:
		return http.StatusBadRequest
	case apperror.ErrDataUnavailable:
		return http.StatusServiceUnavailable
	case apperror.ErrChannelConfig:
		return http.StatusServiceUnavailable
	case apperror.ErrTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
