package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	dashboard DashboardAPI
}

func NewDashboardController(dashboard DashboardAPI) *DashboardController {
	return &DashboardController{dashboard: dashboard}
}

func (dc *DashboardController) GetSummary(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultContextTimeout)
	defer cancel()

	summary, err := dc.dashboard.Summary(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
