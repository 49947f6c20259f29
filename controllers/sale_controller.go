package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pos-service/models"
	"pos-service/services"
)

// SaleController drives the point-of-sale cart and checkout.
type SaleController struct {
	sales   SaleServiceAPI
	timeout time.Duration
}

func NewSaleController(sales SaleServiceAPI) *SaleController {
	return &SaleController{sales: sales, timeout: DefaultContextTimeout}
}

func (sc *SaleController) GetCart(c *gin.Context) {
	sc.respond(c, func(ctx context.Context, userID string) (models.Cart, error) {
		return sc.sales.Cart(ctx, userID)
	})
}

func (sc *SaleController) SelectProduct(c *gin.Context) {
	var req models.SelectProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "product_id is required", err)
		return
	}
	sc.respond(c, func(ctx context.Context, userID string) (models.Cart, error) {
		return sc.sales.SelectProduct(ctx, userID, req.ProductID)
	})
}

func (sc *SaleController) IncrementQuantity(c *gin.Context) {
	sc.respond(c, func(ctx context.Context, userID string) (models.Cart, error) {
		return sc.sales.IncrementQuantity(ctx, userID)
	})
}

func (sc *SaleController) DecrementQuantity(c *gin.Context) {
	sc.respond(c, func(ctx context.Context, userID string) (models.Cart, error) {
		return sc.sales.DecrementQuantity(ctx, userID)
	})
}

// AddItem adds the selected product at the pending quantity.
func (sc *SaleController) AddItem(c *gin.Context) {
	sc.respond(c, func(ctx context.Context, userID string) (models.Cart, error) {
		return sc.sales.AddItem(ctx, userID)
	})
}

func (sc *SaleController) RemoveItem(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		badRequest(c, "Invalid item index", err)
		return
	}
	sc.respond(c, func(ctx context.Context, userID string) (models.Cart, error) {
		return sc.sales.RemoveItem(ctx, userID, index)
	})
}

// Checkout records the cart as a transaction and decrements stock. An empty
// cart is a no-op and returns a null transaction.
func (sc *SaleController) Checkout(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), sc.timeout)
	defer cancel()

	txn, cart, err := sc.sales.Checkout(ctx, userID)
	if err != nil {
		var partial *services.PartialCheckoutError
		if errors.As(err, &partial) {
			zap.L().Error("Checkout partially applied",
				zap.String("user_id", userID),
				zap.Uint("transaction_id", partial.TransactionID),
				zap.Strings("applied", partial.Applied),
				zap.String("failed_product", partial.FailedProduct),
				zap.Error(partial.Err),
			)
			_ = c.Error(toAppError(err))
			c.JSON(http.StatusBadGateway, gin.H{
				"error":          "Transaction recorded but stock update did not complete",
				"transaction_id": partial.TransactionID,
				"applied":        partial.Applied,
				"failed_product": partial.FailedProduct,
				"cart":           cart,
			})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transaction": txn,
		"cart":        cart,
	})
}

func (sc *SaleController) respond(c *gin.Context, op func(ctx context.Context, userID string) (models.Cart, error)) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), sc.timeout)
	defer cancel()

	cart, err := op(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}
