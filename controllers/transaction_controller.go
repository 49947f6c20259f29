package controllers

import (
	"context"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
)

type TransactionController struct {
	txns TransactionLister
}

func NewTransactionController(txns TransactionLister) *TransactionController {
	return &TransactionController{txns: txns}
}

// GetTransactions returns the user's sales history, newest first.
func (tc *TransactionController) GetTransactions(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	page, limit, err := ParsePagination(c)
	if err != nil {
		badRequest(c, err.Error(), err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultContextTimeout)
	defer cancel()

	txns, total, err := tc.txns.FindByUser(ctx, userID, page, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": txns,
		"meta": gin.H{
			"page":       page,
			"perPage":    limit,
			"total":      total,
			"totalPages": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}
