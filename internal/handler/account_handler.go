package handler

import (
	"net/http"

	"tradeflow/internal/middleware"
	"tradeflow/internal/service"
	"tradeflow/pkg/pagination"
	"tradeflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	accountService service.AccountService
}

func NewAccountHandler(accountService service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

func (h *AccountHandler) RegisterRoutes(router *gin.RouterGroup) {
	accounts := router.Group("/api/accounts")
	{
		accounts.GET("", middleware.RequirePermission("accounts.read"), h.ListAccounts)
		accounts.GET("/:id", middleware.RequirePermission("accounts.read"), h.GetAccount)
		accounts.POST("", middleware.RequirePermission("accounts.write"), h.CreateAccount)
		accounts.PUT("/:id", middleware.RequirePermission("accounts.write"), h.UpdateAccount)
		accounts.DELETE("/:id", middleware.RequirePermission("accounts.write"), h.DeleteAccount)
		accounts.PUT("/:id/approve", middleware.RequirePermission("accounts.approve"), h.ApproveAccount)
		accounts.PUT("/:id/reject", middleware.RequirePermission("accounts.approve"), h.RejectAccount)
		accounts.PUT("/:id/resubmit", middleware.RequirePermission("accounts.write"), h.ResubmitAccount)
	}
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	params := pagination.Parse(c)

	accounts, total, err := h.accountService.ListAccounts(c.Request.Context(), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, accounts, total, params.Page, params.Limit))
}

func (h *AccountHandler) GetAccount(c *gin.Context) {
	account, err := h.accountService.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, account))
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req service.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, role := currentActor(c)
	account, err := h.accountService.CreateAccount(c.Request.Context(), userID, role, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, account))
}

func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	var req service.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := currentActor(c)
	account, err := h.accountService.UpdateAccount(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, account))
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	_, role := currentActor(c)
	if err := h.accountService.DeleteAccount(c.Request.Context(), c.Param("id"), role); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Message(http.StatusOK, "Corporate account deleted"))
}

// ApproveAccount approves the application and activates the account
func (h *AccountHandler) ApproveAccount(c *gin.Context) {
	userID, role := currentActor(c)
	account, err := h.accountService.ApproveAccount(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, account))
}

func (h *AccountHandler) RejectAccount(c *gin.Context) {
	var req service.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Rejection reason is required"))
		return
	}

	userID, role := currentActor(c)
	account, err := h.accountService.RejectAccount(c.Request.Context(), c.Param("id"), userID, role, req.Reason)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, account))
}

func (h *AccountHandler) ResubmitAccount(c *gin.Context) {
	userID, _ := currentActor(c)
	account, err := h.accountService.ResubmitAccount(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, account))
}
