package handler

import (
	"context"
	"io"
	"net/http"

	"tradeflow/internal/middleware"
	"tradeflow/internal/service"
	"tradeflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type ImportHandler struct {
	importService service.ImportService
}

func NewImportHandler(importService service.ImportService) *ImportHandler {
	return &ImportHandler{importService: importService}
}

func (h *ImportHandler) RegisterRoutes(router *gin.RouterGroup) {
	imports := router.Group("/api/imports")
	imports.Use(middleware.RequirePermission("imports.write"))
	{
		imports.POST("/customers", h.ImportCustomers)
		imports.POST("/products", h.ImportProducts)
	}
}

// ImportCustomers ingests a customer CSV file
// @Summary      Import customers from CSV
// @Description  Uploads a CSV file and inserts the valid rows, returning a per-row error report
// @Tags         imports
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "CSV file"
// @Success      200   {object}  response.Response{data=service.ImportReport}
// @Failure      400   {object}  response.Response
// @Router       /api/imports/customers [post]
func (h *ImportHandler) ImportCustomers(c *gin.Context) {
	h.runImport(c, h.importService.ImportCustomers)
}

// ImportProducts ingests a product CSV file
// @Summary      Import products from CSV
// @Description  Uploads a CSV file and inserts the valid rows, returning a per-row error report
// @Tags         imports
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "CSV file"
// @Success      200   {object}  response.Response{data=service.ImportReport}
// @Failure      400   {object}  response.Response
// @Router       /api/imports/products [post]
func (h *ImportHandler) ImportProducts(c *gin.Context) {
	h.runImport(c, h.importService.ImportProducts)
}

func (h *ImportHandler) runImport(c *gin.Context, fn func(ctx context.Context, userID string, r io.Reader) (service.ImportReport, error)) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Missing file upload"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Unable to read uploaded file"))
		return
	}
	defer file.Close()

	userID, _ := currentActor(c)
	report, err := fn(c.Request.Context(), userID, file)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}
