package handler

import (
	"net/http"

	"tradeflow/internal/middleware"
	"tradeflow/internal/service"
	"tradeflow/pkg/pagination"
	"tradeflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type QuotationHandler struct {
	quotationService service.QuotationService
}

func NewQuotationHandler(quotationService service.QuotationService) *QuotationHandler {
	return &QuotationHandler{quotationService: quotationService}
}

func (h *QuotationHandler) RegisterRoutes(router *gin.RouterGroup) {
	quotations := router.Group("/api/quotations")
	{
		quotations.GET("", middleware.RequirePermission("quotations.read"), h.ListQuotations)
		quotations.GET("/:id", middleware.RequirePermission("quotations.read"), h.GetQuotation)
		quotations.POST("", middleware.RequirePermission("quotations.write"), h.CreateQuotation)
		quotations.PUT("/:id", middleware.RequirePermission("quotations.write"), h.UpdateQuotation)
		quotations.DELETE("/:id", middleware.RequirePermission("quotations.write"), h.DeleteQuotation)
		quotations.PUT("/:id/submit", middleware.RequirePermission("quotations.write"), h.SubmitQuotation)
		quotations.PUT("/:id/approve", middleware.RequirePermission("quotations.approve"), h.ApproveQuotation)
		quotations.PUT("/:id/reject", middleware.RequirePermission("quotations.approve"), h.RejectQuotation)
		quotations.PUT("/:id/resubmit", middleware.RequirePermission("quotations.write"), h.ResubmitQuotation)
	}
}

// ListQuotations returns quotations filtered by status and customer
// @Summary      List quotations
// @Description  Returns paginated quotations, optionally filtered by status and customer_id
// @Tags         quotations
// @Produce      json
// @Param        status       query  string  false  "Workflow status filter"
// @Param        customer_id  query  string  false  "Customer UUID filter"
// @Param        page         query  int     false  "Page number"
// @Param        limit        query  int     false  "Page size"
// @Success      200  {object}  response.Response
// @Router       /api/quotations [get]
func (h *QuotationHandler) ListQuotations(c *gin.Context) {
	params := pagination.Parse(c)

	quotations, total, err := h.quotationService.ListQuotations(c.Request.Context(), c.Query("status"), c.Query("customer_id"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, quotations, total, params.Page, params.Limit))
}

func (h *QuotationHandler) GetQuotation(c *gin.Context) {
	quotation, err := h.quotationService.GetQuotation(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// CreateQuotation creates a draft quotation with line items
// @Summary      Create quotation
// @Description  Creates a DRAFT quotation with line items and a fresh QT document number
// @Tags         quotations
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateQuotationRequest  true  "Quotation"
// @Success      201      {object}  response.Response{data=service.QuotationResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/quotations [post]
func (h *QuotationHandler) CreateQuotation(c *gin.Context) {
	var req service.CreateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := currentActor(c)
	quotation, err := h.quotationService.CreateQuotation(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, quotation))
}

func (h *QuotationHandler) UpdateQuotation(c *gin.Context) {
	var req service.UpdateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := currentActor(c)
	quotation, err := h.quotationService.UpdateQuotation(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

func (h *QuotationHandler) DeleteQuotation(c *gin.Context) {
	_, role := currentActor(c)
	if err := h.quotationService.DeleteQuotation(c.Request.Context(), c.Param("id"), role); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Message(http.StatusOK, "Quotation deleted"))
}

// SubmitQuotation moves a draft quotation into the approval queue
func (h *QuotationHandler) SubmitQuotation(c *gin.Context) {
	userID, role := currentActor(c)
	quotation, err := h.quotationService.SubmitQuotation(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

func (h *QuotationHandler) ApproveQuotation(c *gin.Context) {
	userID, role := currentActor(c)
	quotation, err := h.quotationService.ApproveQuotation(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

func (h *QuotationHandler) RejectQuotation(c *gin.Context) {
	var req service.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Rejection reason is required"))
		return
	}

	userID, role := currentActor(c)
	quotation, err := h.quotationService.RejectQuotation(c.Request.Context(), c.Param("id"), userID, role, req.Reason)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// ResubmitQuotation re-queues a rejected quotation under the next revision tag
func (h *QuotationHandler) ResubmitQuotation(c *gin.Context) {
	userID, _ := currentActor(c)
	quotation, err := h.quotationService.ResubmitQuotation(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}
