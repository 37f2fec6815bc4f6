// File: internal/product/handler.go
package product

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"donation_share_backend/internal/common"
	"donation_share_backend/internal/config"
)

// Handler struct holds dependencies for product handlers.
type Handler struct {
	service *Service
	logger  *zap.Logger
	cfg     *config.Config
}

// NewHandler creates a new product handler.
func NewHandler(service *Service, logger *zap.Logger, cfg *config.Config) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		cfg:     cfg,
	}
}

// RegisterRoutes sets up the routes for product operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, identityMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	productGroup := router.Group("/products")
	{
		productGroup.GET("", h.listAvailable)
		productGroup.GET("/:id", h.getByID)

		identified := productGroup.Group("")
		identified.Use(identityMW)
		{
			identified.POST("", h.submit)
			identified.GET("/mine", h.listMine)
			identified.PUT("/:id", h.edit)
			identified.POST("/:id/request", h.request)
		}

		adminGroup := productGroup.Group("/admin")
		adminGroup.Use(adminMW)
		{
			adminGroup.GET("", h.adminList)
			adminGroup.PATCH("/:id/approve", h.approve)
			adminGroup.DELETE("/:id", h.reject)
			adminGroup.PATCH("/:id/hide", h.hide)
			adminGroup.PUT("/hide-rejected", h.hideRejected)
		}
	}
}

func (h *Handler) bindValidationError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(validationErrs)))
		return
	}
	common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
}

func (h *Handler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid product ID format."))
		return uuid.Nil, false
	}
	return id, true
}

// checkImage enforces the upload constraints before anything touches disk.
func (h *Handler) checkImage(fileHeader *multipart.FileHeader) error {
	maxBytes := int64(h.cfg.MaxImageSizeMB) << 20
	if fileHeader.Size > maxBytes {
		return fmt.Errorf("image exceeds the %d MB limit", h.cfg.MaxImageSizeMB)
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("only image uploads are accepted, got %q", contentType)
	}
	return nil
}

func (h *Handler) submit(c *gin.Context) {
	donorID := common.GetUserIDFromContext(c)

	var req SubmitProductRequest
	if err := c.ShouldBind(&req); err != nil {
		h.bindValidationError(c, err)
		return
	}

	fileHeader, err := c.FormFile("productImage")
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("A 'productImage' file is required."))
		return
	}
	if err := h.checkImage(fileHeader); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	resp, err := h.service.Submit(c.Request.Context(), donorID, req, fileHeader)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Product submitted and awaiting approval.", resp)
}

func (h *Handler) listAvailable(c *gin.Context) {
	page, pageSize := common.GetPaginationParams(c)
	products, pagination, err := h.service.ListAvailable(c.Request.Context(), common.PaginationQuery{Page: page, PageSize: pageSize})
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Available products retrieved.", products, pagination)
}

func (h *Handler) listMine(c *gin.Context) {
	donorID := common.GetUserIDFromContext(c)
	page, pageSize := common.GetPaginationParams(c)
	products, pagination, err := h.service.ListByDonor(c.Request.Context(), donorID, common.PaginationQuery{Page: page, PageSize: pageSize})
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Your products retrieved.", products, pagination)
}

func (h *Handler) getByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	resp, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Product retrieved.", resp)
}

func (h *Handler) edit(c *gin.Context) {
	donorID := common.GetUserIDFromContext(c)
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req EditProductRequest
	if err := c.ShouldBind(&req); err != nil {
		h.bindValidationError(c, err)
		return
	}

	var fileHeader *multipart.FileHeader
	if fh, err := c.FormFile("productImage"); err == nil {
		if err := h.checkImage(fh); err != nil {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
			return
		}
		fileHeader = fh
	}

	resp, err := h.service.EditAndResubmit(c.Request.Context(), id, donorID, req, fileHeader)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Product updated and resubmitted for approval.", resp)
}

func (h *Handler) request(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	// The requester defaults to the caller's identity; an explicit body value
	// is accepted for parity with the public API contract.
	requesterID := common.GetUserIDFromContext(c)
	var req RequestProductRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RequesterID != "" {
		requesterID = req.RequesterID
	}
	if requesterID == "" {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("A requester identity is required."))
		return
	}

	resp, err := h.service.Request(c.Request.Context(), id, requesterID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Product requested. The donor has been notified.", resp)
}

func (h *Handler) adminList(c *gin.Context) {
	var query AdminListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.bindValidationError(c, err)
		return
	}
	page, pageSize := common.GetPaginationParams(c)
	products, pagination, err := h.service.ListForAdmin(c.Request.Context(), query.Status, common.PaginationQuery{Page: page, PageSize: pageSize})
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Products retrieved.", products, pagination)
}

func (h *Handler) approve(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	resp, err := h.service.Approve(c.Request.Context(), id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Product approved.", resp)
}

func (h *Handler) reject(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.service.Reject(c.Request.Context(), id); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Product rejected.", nil)
}

func (h *Handler) hide(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.service.HideFromAdmin(c.Request.Context(), id); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Product hidden from admin views.", nil)
}

func (h *Handler) hideRejected(c *gin.Context) {
	count, err := h.service.HideAllRejected(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Rejected products hidden.", gin.H{"hidden_count": count})
}
