package handler

import (
	"net/http"

	"supplierportal/internal/middleware"
	"supplierportal/internal/service"
	"supplierportal/pkg/pagination"
	"supplierportal/pkg/response"

	"github.com/gin-gonic/gin"
)

type SupplierHandler struct {
	supplierService service.SupplierService
}

func NewSupplierHandler(supplierService service.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: supplierService}
}

func (h *SupplierHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Public: the registration form submits here, gated by a single-use token
	router.POST("/api/suppliers/register", h.Register)

	suppliers := router.Group("/api/suppliers")
	{
		suppliers.GET("", middleware.RequireRole("admin", "user", "viewer"), h.ListSuppliers)
		suppliers.GET("/:id", middleware.RequireRole("admin", "user", "viewer"), h.GetSupplier)
		suppliers.PUT("/:id", middleware.RequireRole("admin", "user"), h.UpdateSupplier)
		suppliers.DELETE("/:id", middleware.RequireRole("admin"), h.DeleteSupplier)

		suppliers.POST("/:id/approve", middleware.RequireRole("admin"), h.ApproveSupplier)
		suppliers.POST("/:id/reject", middleware.RequireRole("admin"), h.RejectSupplier)
		suppliers.POST("/:id/resend-integration", middleware.RequireRole("admin"), h.ResendIntegration)
		suppliers.GET("/:id/creditor-preview", middleware.RequireRole("admin", "user"), h.PreviewCreditor)

		suppliers.DELETE("/:id/documents/:docId", middleware.RequireRole("admin"), h.RemoveDocument)
	}
}

// Register handles the public registration form submission
// @Summary      Submit supplier registration
// @Description  Creates a supplier in UNDER_REVIEW status, consuming the single-use registration token
// @Tags         suppliers
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SubmitSupplierRequest  true  "Registration payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/suppliers/register [post]
func (h *SupplierHandler) Register(c *gin.Context) {
	var req service.SubmitSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	supplier, err := h.supplierService.Submit(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, supplier))
}

// ListSuppliers returns paginated suppliers with optional status/search filter
// @Summary      List suppliers
// @Tags         suppliers
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default: 1)"
// @Param        limit   query     int     false  "Items per page (default: 20)"
// @Param        status  query     string  false  "Filter by status: PENDING, UNDER_REVIEW, APPROVED, REJECTED, INTEGRATION_ERROR"
// @Param        search  query     string  false  "Search by company name, trade name, CNPJ, email"
// @Success      200     {object}  response.Response
// @Router       /api/suppliers [get]
func (h *SupplierHandler) ListSuppliers(c *gin.Context) {
	params := pagination.Parse(c)

	suppliers, total, err := h.supplierService.List(c.Request.Context(), service.SupplierFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   params.Page,
		Limit:  params.Limit,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, suppliers, params.Page, params.Limit, total))
}

// GetSupplier returns a single supplier with its uploaded documents
// @Summary      Get supplier by ID
// @Tags         suppliers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Supplier ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/suppliers/{id} [get]
func (h *SupplierHandler) GetSupplier(c *gin.Context) {
	supplier, err := h.supplierService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, supplier))
}

// UpdateSupplier patches supplier details
// @Summary      Update supplier
// @Tags         suppliers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                         true  "Supplier ID"
// @Param        payload  body  service.UpdateSupplierRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/suppliers/{id} [put]
func (h *SupplierHandler) UpdateSupplier(c *gin.Context) {
	var req service.UpdateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	supplier, err := h.supplierService.Update(c.Request.Context(), c.Param("id"), req, actorFrom(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, supplier))
}

// ApproveSupplier approves a supplier and pushes it to Sienge
// @Summary      Approve supplier
// @Description  Registers the supplier as a creditor in Sienge and marks it APPROVED. Idempotent: an existing creditor id short-circuits the push.
// @Tags         suppliers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Supplier ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      502  {object}  response.Response
// @Router       /api/suppliers/{id}/approve [post]
func (h *SupplierHandler) ApproveSupplier(c *gin.Context) {
	outcome, err := h.supplierService.Approve(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, outcome))
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectSupplier rejects a supplier with a mandatory reason
// @Summary      Reject supplier
// @Tags         suppliers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string         true  "Supplier ID"
// @Param        payload  body  rejectRequest  true  "Rejection reason"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/suppliers/{id}/reject [post]
func (h *SupplierHandler) RejectSupplier(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	supplier, err := h.supplierService.Reject(c.Request.Context(), c.Param("id"), req.Reason, actorFrom(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, supplier))
}

// ResendIntegration retries the Sienge push for an approved supplier
// @Summary      Resend Sienge integration
// @Tags         suppliers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Supplier ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      502  {object}  response.Response
// @Router       /api/suppliers/{id}/resend-integration [post]
func (h *SupplierHandler) ResendIntegration(c *gin.Context) {
	outcome, err := h.supplierService.ResendIntegration(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, outcome))
}

// PreviewCreditor returns the creditor payload Sienge would receive
// @Summary      Preview Sienge creditor payload
// @Tags         suppliers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Supplier ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/suppliers/{id}/creditor-preview [get]
func (h *SupplierHandler) PreviewCreditor(c *gin.Context) {
	creditor, err := h.supplierService.PreviewCreditor(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, creditor))
}

// DeleteSupplier removes a supplier and its documents
// @Summary      Delete supplier
// @Tags         suppliers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Supplier ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/suppliers/{id} [delete]
func (h *SupplierHandler) DeleteSupplier(c *gin.Context) {
	if err := h.supplierService.Delete(c.Request.Context(), c.Param("id"), actorFrom(c)); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Supplier deleted successfully"}))
}

// RemoveDocument deletes one uploaded document from a supplier
// @Summary      Remove uploaded document
// @Tags         suppliers
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true  "Supplier ID"
// @Param        docId  path      string  true  "Document ID"
// @Success      200    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Router       /api/suppliers/{id}/documents/{docId} [delete]
func (h *SupplierHandler) RemoveDocument(c *gin.Context) {
	if err := h.supplierService.RemoveDocument(c.Request.Context(), c.Param("id"), c.Param("docId"), actorFrom(c)); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Document removed successfully"}))
}
