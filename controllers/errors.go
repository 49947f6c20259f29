package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "pos-service/common/errors"
	"pos-service/common/logger"
	"pos-service/services"
)

// toAppError maps service errors onto HTTP application errors.
func toAppError(err error) *apperrors.Error {
	var appErr *apperrors.Error
	var verr *services.ValidationError
	var partial *services.PartialCheckoutError

	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.As(err, &verr):
		return apperrors.BadRequest(verr.Error(), err)
	case errors.As(err, &partial):
		return apperrors.Internal(partial.Error(), err)
	case errors.Is(err, services.ErrProductNotFound):
		return apperrors.NotFound("Product not found")
	case errors.Is(err, services.ErrProductUnavailable):
		return apperrors.BadRequest("Product is not available for sale", err)
	case errors.Is(err, services.ErrNoActiveProduct):
		return apperrors.BadRequest("No product selected", err)
	case errors.Is(err, services.ErrItemNotFound):
		return apperrors.NotFound("Cart item not found")
	case errors.Is(err, services.ErrCheckoutPending):
		return apperrors.Conflict("Finish the pending checkout before changing the cart")
	case errors.Is(err, services.ErrEmptyImport):
		return apperrors.BadRequest(err.Error(), err)
	case errors.Is(err, services.ErrImportInProgress):
		return apperrors.Conflict("An import is already in progress")
	case errors.Is(err, services.ErrAsyncUnavailable):
		return apperrors.Unavailable("Asynchronous import is not configured", err)
	case errors.Is(err, services.ErrCheckoutStopped):
		return apperrors.Unavailable("Service is shutting down", err)
	default:
		return apperrors.Internal("Internal server error", err)
	}
}

func writeError(c *gin.Context, err error) {
	appErr := toAppError(err)
	if appErr.Code >= 500 {
		logger.FromContext(c).Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(appErr)
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
}
