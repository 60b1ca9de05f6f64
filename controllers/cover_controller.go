package controllers

import (
	"net/http"

	"github.com/aaandrangom/biblioteca-api/services"
	"github.com/gin-gonic/gin"
)

// SaveCoverRequest represents the request body for resolving and storing a cover
type SaveCoverRequest struct {
	Title string `json:"title" binding:"required,max=500"`
}

// CoverController handles cover lookup and custom cover images
type CoverController struct {
	covers *services.CoverService
}

// NewCoverController creates a cover controller
func NewCoverController(covers *services.CoverService) *CoverController {
	return &CoverController{covers: covers}
}

// LookupCover handles GET /api/v1/covers/lookup/:title
func (cc *CoverController) LookupCover(c *gin.Context) {
	cover, err := cc.covers.Lookup(c.Request.Context(), c.Param("title"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, cover)
}

// SaveCover handles POST /api/v1/covers
func (cc *CoverController) SaveCover(c *gin.Context) {
	var req SaveCoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	cover, err := cc.covers.Save(c.Request.Context(), req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, cover)
}

// ListCovers handles GET /api/v1/covers?title=
func (cc *CoverController) ListCovers(c *gin.Context) {
	covers, err := cc.covers.List(c.Request.Context(), c.Query("title"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, covers)
}

// GetCover handles GET /api/v1/covers/:id
func (cc *CoverController) GetCover(c *gin.Context) {
	cover, err := cc.covers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, cover)
}

// UploadCoverImage handles POST /api/v1/covers/:id/image (staff only) with a multipart "image" field
func (cc *CoverController) UploadCoverImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondFailure(c, http.StatusBadRequest, "MISSING_FILE", "An image file is required in the \"image\" field")
		return
	}

	cover, err := cc.covers.UploadImage(c.Request.Context(), c.Param("id"), fileHeader)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, cover)
}
