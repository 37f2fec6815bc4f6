// File: internal/notification/handler.go
package notification

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"donation_share_backend/internal/common"
)

// Handler struct holds dependencies for notification handlers.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new notification handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the routes for notification operations. All routes
// require an identified caller; the queue is scoped to the caller's identity.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, identityMW gin.HandlerFunc) {
	notifGroup := router.Group("/notifications")
	notifGroup.Use(identityMW)
	{
		notifGroup.GET("", h.list)
		notifGroup.PATCH("/:id/read", h.markRead)
		notifGroup.POST("/:id/respond", h.respond)
	}
}

func (h *Handler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid notification ID format."))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) list(c *gin.Context) {
	donorID := common.GetUserIDFromContext(c)
	page, pageSize := common.GetPaginationParams(c)
	notifs, pagination, err := h.service.ListForDonor(c.Request.Context(), donorID, common.PaginationQuery{Page: page, PageSize: pageSize})
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Notifications retrieved.", notifs, pagination)
}

func (h *Handler) markRead(c *gin.Context) {
	donorID := common.GetUserIDFromContext(c)
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), donorID, id); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Notification marked as read.", nil)
}

func (h *Handler) respond(c *gin.Context) {
	donorID := common.GetUserIDFromContext(c)
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(validationErrs)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	snapshot, err := h.service.Respond(c.Request.Context(), donorID, id, req.Decision)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Response recorded.", snapshot)
}
