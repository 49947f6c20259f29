package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pos-service/models"
)

// ProductController serves product CRUD and one-shot listing requests.
type ProductController struct {
	products ProductServiceAPI
	timeout  time.Duration
}

func NewProductController(products ProductServiceAPI) *ProductController {
	return &ProductController{products: products, timeout: DefaultContextTimeout}
}

// GetProducts returns the filtered, sorted listing. When the remote store
// is unreachable the cached copy is served and X-Data-Source says so.
func (pc *ProductController) GetProducts(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	opt, err := models.ParseSortOption(c.Query("sort"))
	if err != nil {
		badRequest(c, err.Error(), err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	products, fromCache, err := pc.products.ListProducts(ctx, userID, c.Query("q"), opt)
	if err != nil {
		writeError(c, err)
		return
	}

	source := "remote"
	if fromCache {
		source = "cache"
	}
	c.Header("X-Data-Source", source)

	zap.L().Debug("Products fetched",
		zap.String("user_id", userID),
		zap.Int("count", len(products)),
		zap.String("source", source),
	)

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"meta": gin.H{
			"total":  len(products),
			"sort":   opt,
			"source": source,
		},
	})
}

func (pc *ProductController) GetProductByID(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	product, err := pc.products.GetProduct(ctx, userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (pc *ProductController) CreateProduct(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var in models.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	product, err := pc.products.AddProduct(ctx, userID, in)
	if err != nil {
		writeError(c, err)
		return
	}

	zap.L().Info("Product created", zap.String("user_id", userID), zap.String("product_id", product.ID))
	c.JSON(http.StatusCreated, product)
}

func (pc *ProductController) UpdateProduct(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var in models.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	product, err := pc.products.UpdateProduct(ctx, userID, c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct soft-deletes a product so it drops out of every listing.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	if err := pc.products.DeleteProduct(ctx, userID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	zap.L().Info("Product deleted", zap.String("user_id", userID), zap.String("product_id", c.Param("id")))
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}
