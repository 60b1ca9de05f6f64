package services

import (
	"context"
	"fmt"

	"github.com/aaandrangom/biblioteca-api/models"
	"gorm.io/gorm"
)

// DashboardStats holds the aggregate counts shown to staff
type DashboardStats struct {
	TotalBooks     int64 `json:"total_books"`
	EnabledBooks   int64 `json:"enabled_books"`
	DisabledBooks  int64 `json:"disabled_books"`
	WaitingOrders  int64 `json:"waiting_orders"`
	AcceptedOrders int64 `json:"accepted_orders"`
	Admins         int64 `json:"admins"`
	Librarians     int64 `json:"librarians"`
	Clients        int64 `json:"clients"`
	TotalUsers     int64 `json:"total_users"`
}

// DashboardService computes catalog, order and account counts
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates the dashboard service
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// Stats runs the dashboard counts
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &DashboardStats{}

	counts := []struct {
		name  string
		model interface{}
		where map[string]interface{}
		dst   *int64
	}{
		{"books", &models.Book{}, nil, &stats.TotalBooks},
		{"enabled books", &models.Book{}, map[string]interface{}{"li_estado": models.BookStatusEnabled}, &stats.EnabledBooks},
		{"disabled books", &models.Book{}, map[string]interface{}{"li_estado": models.BookStatusDisabled}, &stats.DisabledBooks},
		{"waiting orders", &models.Order{}, map[string]interface{}{"ped_estado": models.OrderStatusProcessing}, &stats.WaitingOrders},
		{"accepted orders", &models.Order{}, map[string]interface{}{"ped_estado": models.OrderStatusAccepted}, &stats.AcceptedOrders},
		{"admins", &models.User{}, map[string]interface{}{"usr_rol": models.RoleAdmin}, &stats.Admins},
		{"librarians", &models.User{}, map[string]interface{}{"usr_rol": models.RoleLibrarian}, &stats.Librarians},
		{"clients", &models.User{}, map[string]interface{}{"usr_rol": models.RoleClient}, &stats.Clients},
		{"users", &models.User{}, nil, &stats.TotalUsers},
	}

	for _, c := range counts {
		query := db.Model(c.model)
		if c.where != nil {
			query = query.Where(c.where)
		}
		if err := query.Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.name, err)
		}
	}

	return stats, nil
}
