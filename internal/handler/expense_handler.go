package handler

import (
	"net/http"

	"tradeflow/internal/middleware"
	"tradeflow/internal/service"
	"tradeflow/pkg/pagination"
	"tradeflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type ExpenseHandler struct {
	expenseService service.ExpenseService
}

func NewExpenseHandler(expenseService service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

func (h *ExpenseHandler) RegisterRoutes(router *gin.RouterGroup) {
	expenses := router.Group("/api/expenses")
	{
		expenses.GET("", middleware.RequirePermission("expenses.read"), h.ListExpenses)
		expenses.GET("/:id", middleware.RequirePermission("expenses.read"), h.GetExpense)
		expenses.POST("", middleware.RequirePermission("expenses.write"), h.CreateExpense)
		expenses.PUT("/:id", middleware.RequirePermission("expenses.write"), h.UpdateExpense)
		expenses.DELETE("/:id", middleware.RequirePermission("expenses.write"), h.DeleteExpense)
		expenses.PUT("/:id/approve", middleware.RequirePermission("expenses.approve"), h.ApproveExpense)
		expenses.PUT("/:id/reject", middleware.RequirePermission("expenses.approve"), h.RejectExpense)
		expenses.PUT("/:id/resubmit", middleware.RequirePermission("expenses.write"), h.ResubmitExpense)
	}
}

// ListExpenses returns expenses filtered by status and category
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	params := pagination.Parse(c)

	expenses, total, err := h.expenseService.ListExpenses(c.Request.Context(), c.Query("status"), c.Query("category"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, expenses, total, params.Page, params.Limit))
}

func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	expense, err := h.expenseService.GetExpense(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, expense))
}

func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req service.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, role := currentActor(c)
	expense, err := h.expenseService.CreateExpense(c.Request.Context(), userID, role, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, expense))
}

func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	var req service.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := currentActor(c)
	expense, err := h.expenseService.UpdateExpense(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, expense))
}

func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	_, role := currentActor(c)
	if err := h.expenseService.DeleteExpense(c.Request.Context(), c.Param("id"), role); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Message(http.StatusOK, "Expense deleted"))
}

func (h *ExpenseHandler) ApproveExpense(c *gin.Context) {
	userID, role := currentActor(c)
	expense, err := h.expenseService.ApproveExpense(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, expense))
}

func (h *ExpenseHandler) RejectExpense(c *gin.Context) {
	var req service.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Rejection reason is required"))
		return
	}

	userID, role := currentActor(c)
	expense, err := h.expenseService.RejectExpense(c.Request.Context(), c.Param("id"), userID, role, req.Reason)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, expense))
}

func (h *ExpenseHandler) ResubmitExpense(c *gin.Context) {
	userID, _ := currentActor(c)
	expense, err := h.expenseService.ResubmitExpense(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, expense))
}
