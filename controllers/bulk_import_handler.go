package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pos-service/models"
)

// BulkImportHandler handles CSV product imports and their progress state.
type BulkImportHandler struct {
	imports ImportServiceAPI
	timeout time.Duration
}

func NewBulkImportHandler(imports ImportServiceAPI) *BulkImportHandler {
	return &BulkImportHandler{imports: imports, timeout: DefaultContextTimeout}
}

// ImportProducts imports products from an uploaded CSV. With async=true the
// file is queued for the import worker and 202 is returned.
func (h *BulkImportHandler) ImportProducts(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	file, err := getUploadedCSV(c)
	if err != nil {
		badRequest(c, err.Error(), err)
		return
	}

	fileHandle, err := file.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer fileHandle.Close()

	if c.Query("async") == "true" {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()

		job, err := h.imports.Enqueue(ctx, userID, fileHandle)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"job_id":  job.ID,
			"status":  "queued",
			"message": "Import queued for processing",
		})
		return
	}

	zap.L().Info("Bulk import started",
		zap.String("user_id", userID),
		zap.String("filename", file.Filename),
		zap.Int64("size", file.Size),
	)

	result, err := h.imports.Import(c.Request.Context(), userID, fileHandle)
	if err != nil {
		appErr := toAppError(err)
		_ = c.Error(appErr)
		c.JSON(appErr.Code, gin.H{"error": appErr.Message, "result": result})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetImportState returns the user's current import state.
func (h *BulkImportHandler) GetImportState(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	state, err := h.imports.State(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	body, err := models.MarshalImportState(state)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// DismissImportState clears a finished or failed import back to idle.
func (h *BulkImportHandler) DismissImportState(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.imports.Dismiss(ctx, userID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
