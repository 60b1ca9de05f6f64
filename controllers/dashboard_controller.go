package controllers

import (
	"net/http"

	"github.com/aaandrangom/biblioteca-api/services"
	"github.com/gin-gonic/gin"
)

// DashboardController serves the staff dashboard
type DashboardController struct {
	dashboard *services.DashboardService
}

// NewDashboardController creates a dashboard controller
func NewDashboardController(dashboard *services.DashboardService) *DashboardController {
	return &DashboardController{dashboard: dashboard}
}

// GetDashboard handles GET /api/v1/dashboard (staff only)
func (dc *DashboardController) GetDashboard(c *gin.Context) {
	stats, err := dc.dashboard.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, stats)
}
