package controllers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/aaandrangom/biblioteca-api/utils"
	"github.com/gin-gonic/gin"
)

// UploadController serves cover images stored on local disk
type UploadController struct {
	dir string
}

// NewUploadController serves files from dir
func NewUploadController(dir string) *UploadController {
	return &UploadController{dir: dir}
}

// GetUploadedImage handles GET /api/v1/uploads/:filename - serves uploaded cover images
func (uc *UploadController) GetUploadedImage(c *gin.Context) {
	filename := c.Param("filename")

	// Security: Prevent directory traversal attacks
	if !utils.ValidFilename(filename) {
		respondFailure(c, http.StatusBadRequest, "INVALID_FILENAME", "Invalid filename")
		return
	}

	filePath := filepath.Join(uc.dir, filename)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		respondFailure(c, http.StatusNotFound, "FILE_NOT_FOUND", "Image not found")
		return
	}

	contentType, _ := utils.ContentType(filename)
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400") // Cache for 24 hours
	c.File(filePath)
}
