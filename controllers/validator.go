package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"pos-service/auth"
	apperrors "pos-service/common/errors"
)

var allowedCSVExtensions = map[string]bool{
	".csv": true,
	".txt": true,
}

// ParsePagination validates page and limit query parameters.
func ParsePagination(c *gin.Context) (int, int, error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 0, 0, errors.New("invalid page number")
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		return 0, 0, errors.New("invalid page size")
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit, nil
}

func getUploadedCSV(c *gin.Context) (*multipart.FileHeader, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, errors.New("CSV file is required in the 'file' field")
	}
	if file.Size > MaxUploadSize {
		return nil, errors.New("file too large")
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedCSVExtensions[ext] {
		return nil, errors.New("only .csv files are accepted")
	}
	return file, nil
}

// requireUser returns the signed-in user or writes a 401.
func requireUser(c *gin.Context) (string, bool) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}

func badRequest(c *gin.Context, message string, err error) {
	writeError(c, apperrors.BadRequest(message, err))
}
