package handler

import (
	"net/http"

	"tradeflow/internal/middleware"
	"tradeflow/internal/service"
	"tradeflow/pkg/pagination"
	"tradeflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type SpecOrderHandler struct {
	specOrderService service.SpecOrderService
}

func NewSpecOrderHandler(specOrderService service.SpecOrderService) *SpecOrderHandler {
	return &SpecOrderHandler{specOrderService: specOrderService}
}

func (h *SpecOrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/spec-orders")
	{
		orders.GET("", middleware.RequirePermission("spec_orders.read"), h.ListSpecOrders)
		orders.GET("/:id", middleware.RequirePermission("spec_orders.read"), h.GetSpecOrder)
		orders.POST("", middleware.RequirePermission("spec_orders.write"), h.CreateSpecOrder)
		orders.PUT("/:id", middleware.RequirePermission("spec_orders.write"), h.UpdateSpecOrder)
		orders.DELETE("/:id", middleware.RequirePermission("spec_orders.write"), h.DeleteSpecOrder)
		orders.PUT("/:id/approve", middleware.RequirePermission("spec_orders.approve"), h.ApproveSpecOrder)
		orders.PUT("/:id/reject", middleware.RequirePermission("spec_orders.approve"), h.RejectSpecOrder)
		orders.PUT("/:id/resubmit", middleware.RequirePermission("spec_orders.write"), h.ResubmitSpecOrder)
	}
}

func (h *SpecOrderHandler) ListSpecOrders(c *gin.Context) {
	params := pagination.Parse(c)

	orders, total, err := h.specOrderService.ListSpecOrders(c.Request.Context(), c.Query("status"), c.Query("quotation_id"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, orders, total, params.Page, params.Limit))
}

func (h *SpecOrderHandler) GetSpecOrder(c *gin.Context) {
	order, err := h.specOrderService.GetSpecOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

func (h *SpecOrderHandler) CreateSpecOrder(c *gin.Context) {
	var req service.CreateSpecOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, role := currentActor(c)
	order, err := h.specOrderService.CreateSpecOrder(c.Request.Context(), userID, role, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

func (h *SpecOrderHandler) UpdateSpecOrder(c *gin.Context) {
	var req service.UpdateSpecOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := currentActor(c)
	order, err := h.specOrderService.UpdateSpecOrder(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

func (h *SpecOrderHandler) DeleteSpecOrder(c *gin.Context) {
	_, role := currentActor(c)
	if err := h.specOrderService.DeleteSpecOrder(c.Request.Context(), c.Param("id"), role); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Message(http.StatusOK, "Spec order deleted"))
}

func (h *SpecOrderHandler) ApproveSpecOrder(c *gin.Context) {
	userID, role := currentActor(c)
	order, err := h.specOrderService.ApproveSpecOrder(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

func (h *SpecOrderHandler) RejectSpecOrder(c *gin.Context) {
	var req service.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Rejection reason is required"))
		return
	}

	userID, role := currentActor(c)
	order, err := h.specOrderService.RejectSpecOrder(c.Request.Context(), c.Param("id"), userID, role, req.Reason)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

func (h *SpecOrderHandler) ResubmitSpecOrder(c *gin.Context) {
	userID, _ := currentActor(c)
	order, err := h.specOrderService.ResubmitSpecOrder(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
