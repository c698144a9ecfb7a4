package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	model "agentbay/internal/models"
	bidhelpers "agentbay/services/bidding/helpers"
	"agentbay/services/catalog/helpers"
	"agentbay/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=catalog_handler.go -destination=mock_catalog_service.go -package=handler

// maxImageSize caps listing photo uploads
const maxImageSize = 10 << 20

type CatalogServiceInterface interface {
	Create(ctx context.Context, fields model.ListingFields) (model.Product, error)
	CreateFromImage(ctx context.Context, image []byte, imageURL string) (model.Product, error)
	Get(ctx context.Context, productID int64) (model.Product, error)
	Update(ctx context.Context, productID int64, patch model.ProductPatch) (model.Product, error)
	Delete(ctx context.Context, productID int64) (bool, error)
	Search(ctx context.Context, filter model.SearchFilter) ([]model.Product, error)
}

type CatalogHandler struct {
	service CatalogServiceInterface
}

func NewCatalogHandler(service CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// CreateProductHandler handles POST /products
func (h *CatalogHandler) CreateProductHandler(c *gin.Context) {
	var req helpers.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bidhelpers.HandleBindError(c, "CreateProductHandler", err)
		return
	}

	product, err := h.service.Create(c.Request.Context(), req.ToListingFields())
	if err != nil {
		bidhelpers.RespondError(c, "CreateProductHandler", err, map[string]any{"title": req.Title})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, product, "product created successfully")
	bidhelpers.LogSuccess("CreateProductHandler", "product created successfully", map[string]any{
		"product_id": product.ID,
	})
}

// CreateListingHandler handles POST /listings with a multipart "image" field
func (h *CatalogHandler) CreateListingHandler(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		bidhelpers.HandleBindError(c, "CreateListingHandler", err)
		return
	}
	if file.Size > maxImageSize {
		bidhelpers.HandleBindError(c, "CreateListingHandler", fmt.Errorf("image larger than %d bytes", maxImageSize))
		return
	}

	f, err := file.Open()
	if err != nil {
		bidhelpers.HandleBindError(c, "CreateListingHandler", err)
		return
	}
	defer f.Close()

	image, err := io.ReadAll(io.LimitReader(f, maxImageSize))
	if err != nil {
		bidhelpers.HandleBindError(c, "CreateListingHandler", err)
		return
	}

	product, err := h.service.CreateFromImage(c.Request.Context(), image, c.PostForm("image_url"))
	if err != nil {
		bidhelpers.RespondError(c, "CreateListingHandler", err, map[string]any{"filename": file.Filename})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, product, "listing created successfully")
	bidhelpers.LogSuccess("CreateListingHandler", "listing created successfully", map[string]any{
		"product_id": product.ID,
		"filename":   file.Filename,
	})
}

// GetProductHandler handles GET /products/:id
func (h *CatalogHandler) GetProductHandler(c *gin.Context) {
	productID, err := bidhelpers.ParseID(c, "id")
	if err != nil {
		bidhelpers.HandleParamError(c, "GetProductHandler", err)
		return
	}

	product, err := h.service.Get(c.Request.Context(), productID)
	if err != nil {
		bidhelpers.RespondError(c, "GetProductHandler", err, map[string]any{"product_id": productID})
		return
	}
	utils.JSONResponse(c, http.StatusOK, product, "product retrieved successfully")
}

// UpdateProductHandler handles PATCH /products/:id
func (h *CatalogHandler) UpdateProductHandler(c *gin.Context) {
	productID, err := bidhelpers.ParseID(c, "id")
	if err != nil {
		bidhelpers.HandleParamError(c, "UpdateProductHandler", err)
		return
	}

	var req helpers.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bidhelpers.HandleBindError(c, "UpdateProductHandler", err)
		return
	}

	product, err := h.service.Update(c.Request.Context(), productID, req.ToPatch())
	if err != nil {
		bidhelpers.RespondError(c, "UpdateProductHandler", err, map[string]any{"product_id": productID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, product, "product updated successfully")
	bidhelpers.LogSuccess("UpdateProductHandler", "product updated successfully", map[string]any{
		"product_id": productID,
	})
}

// DeleteProductHandler handles DELETE /products/:id
func (h *CatalogHandler) DeleteProductHandler(c *gin.Context) {
	productID, err := bidhelpers.ParseID(c, "id")
	if err != nil {
		bidhelpers.HandleParamError(c, "DeleteProductHandler", err)
		return
	}

	deleted, err := h.service.Delete(c.Request.Context(), productID)
	if err != nil {
		bidhelpers.RespondError(c, "DeleteProductHandler", err, map[string]any{"product_id": productID})
		return
	}
	if !deleted {
		utils.JSONError(c, http.StatusNotFound, fmt.Errorf("product %d not found", productID), "product not found")
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"deleted": true}, "product deleted successfully")
	bidhelpers.LogSuccess("DeleteProductHandler", "product deleted successfully", map[string]any{
		"product_id": productID,
	})
}

// SearchProductsHandler handles GET /products
func (h *CatalogHandler) SearchProductsHandler(c *gin.Context) {
	filter, err := helpers.ParseSearchFilter(c)
	if err != nil {
		bidhelpers.HandleParamError(c, "SearchProductsHandler", err)
		return
	}

	products, err := h.service.Search(c.Request.Context(), filter)
	if err != nil {
		bidhelpers.RespondError(c, "SearchProductsHandler", err, map[string]any{"q": filter.Text})
		return
	}

	utils.JSONResponse(c, http.StatusOK, products, "products retrieved successfully")
	bidhelpers.LogSuccess("SearchProductsHandler", "products retrieved successfully", map[string]any{
		"q":     filter.Text,
		"count": len(products),
	})
}
