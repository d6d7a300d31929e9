package handler

import (
	"net/http"

	"tradeflow/internal/middleware"
	"tradeflow/internal/service"
	"tradeflow/pkg/pagination"
	"tradeflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	purchaseService service.PurchaseService
}

func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

func (h *PurchaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	purchases := router.Group("/api/purchases")
	{
		purchases.GET("", middleware.RequirePermission("purchases.read"), h.ListPurchases)
		purchases.GET("/:id", middleware.RequirePermission("purchases.read"), h.GetPurchase)
		purchases.POST("", middleware.RequirePermission("purchases.write"), h.CreatePurchase)
		purchases.PUT("/:id", middleware.RequirePermission("purchases.write"), h.UpdatePurchase)
		purchases.DELETE("/:id", middleware.RequirePermission("purchases.write"), h.DeletePurchase)
		purchases.PUT("/:id/approve", middleware.RequirePermission("purchases.approve"), h.ApprovePurchase)
		purchases.PUT("/:id/reject", middleware.RequirePermission("purchases.approve"), h.RejectPurchase)
		purchases.PUT("/:id/resubmit", middleware.RequirePermission("purchases.write"), h.ResubmitPurchase)
	}
}

func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	params := pagination.Parse(c)

	purchases, total, err := h.purchaseService.ListPurchases(c.Request.Context(), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, purchases, total, params.Page, params.Limit))
}

func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	purchase, err := h.purchaseService.GetPurchase(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req service.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, role := currentActor(c)
	purchase, err := h.purchaseService.CreatePurchase(c.Request.Context(), userID, role, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, purchase))
}

func (h *PurchaseHandler) UpdatePurchase(c *gin.Context) {
	var req service.UpdatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := currentActor(c)
	purchase, err := h.purchaseService.UpdatePurchase(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

func (h *PurchaseHandler) DeletePurchase(c *gin.Context) {
	_, role := currentActor(c)
	if err := h.purchaseService.DeletePurchase(c.Request.Context(), c.Param("id"), role); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Message(http.StatusOK, "Purchase request deleted"))
}

// ApprovePurchase approves the request and generates the matching expense
func (h *PurchaseHandler) ApprovePurchase(c *gin.Context) {
	userID, role := currentActor(c)
	purchase, err := h.purchaseService.ApprovePurchase(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

func (h *PurchaseHandler) RejectPurchase(c *gin.Context) {
	var req service.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Rejection reason is required"))
		return
	}

	userID, role := currentActor(c)
	purchase, err := h.purchaseService.RejectPurchase(c.Request.Context(), c.Param("id"), userID, role, req.Reason)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

func (h *PurchaseHandler) ResubmitPurchase(c *gin.Context) {
	userID, _ := currentActor(c)
	purchase, err := h.purchaseService.ResubmitPurchase(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}
