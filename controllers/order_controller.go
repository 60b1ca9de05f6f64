package controllers

import (
	"net/http"
	"time"

	"github.com/aaandrangom/biblioteca-api/middleware"
	"github.com/aaandrangom/biblioteca-api/models"
	"github.com/aaandrangom/biblioteca-api/services"
	"github.com/gin-gonic/gin"
)

// returnDateLayout is the accepted format for order return dates
const returnDateLayout = "2006-01-02"

// CreateOrderRequest represents the request body for creating an order.
// UserID defaults to the caller; only staff may open orders for someone else
// or in a status past P.
type CreateOrderRequest struct {
	UserID     string             `json:"user_id"`
	BookID     uint               `json:"book_id" binding:"required,gt=0"`
	ReturnDate string             `json:"return_date" binding:"omitempty,datetime=2006-01-02"`
	Status     models.OrderStatus `json:"status"`
}

// UpdateOrderStatusRequest represents the request body for a status transition
type UpdateOrderStatusRequest struct {
	Status     models.OrderStatus `json:"status" binding:"required"`
	ReturnDate string             `json:"return_date" binding:"omitempty,datetime=2006-01-02"`
	BookID     *uint              `json:"book_id" binding:"omitempty,gt=0"`
	CopyID     *uint              `json:"copy_id" binding:"omitempty,gt=0"`
	Email      string             `json:"email" binding:"omitempty,email"`
}

// OrderController handles order routes
type OrderController struct {
	orders *services.OrderService
}

// NewOrderController creates an order controller
func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// CreateOrder handles POST /api/v1/orders - reserves a copy of the book for the user
func (oc *OrderController) CreateOrder(c *gin.Context) {
	callerID, err := middleware.GetUserID(c)
	if err != nil {
		respondFailure(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = callerID
	}
	if userID != callerID && !isStaff(c) {
		respondFailure(c, http.StatusForbidden, "FORBIDDEN", "You can only create orders for yourself")
		return
	}
	if req.Status.IsValid() && !req.Status.IsOpening() && !isStaff(c) {
		respondFailure(c, http.StatusForbidden, "FORBIDDEN", "Only staff can open an order in this status")
		return
	}

	returnDate, err := parseReturnDate(req.ReturnDate)
	if err != nil {
		respondValidation(c, err)
		return
	}

	order, err := oc.orders.Create(c.Request.Context(), services.CreateOrderInput{
		UserID:     userID,
		BookID:     req.BookID,
		ReturnDate: returnDate,
		Status:     req.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, order)
}

// UpdateOrderStatus handles PUT /api/v1/orders/:id/status (staff only)
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	returnDate, err := parseReturnDate(req.ReturnDate)
	if err != nil {
		respondValidation(c, err)
		return
	}

	order, err := oc.orders.UpdateStatus(c.Request.Context(), id, services.UpdateStatusInput{
		Status:     req.Status,
		ReturnDate: returnDate,
		BookID:     req.BookID,
		CopyID:     req.CopyID,
		Email:      req.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

// CancelOrder handles POST /api/v1/orders/:id/cancel. Clients can only cancel their own orders.
func (oc *OrderController) CancelOrder(c *gin.Context) {
	order, ok := oc.loadAccessible(c)
	if !ok {
		return
	}

	cancelled, err := oc.orders.Cancel(c.Request.Context(), order.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, cancelled)
}

// ListOrders handles GET /api/v1/orders (staff only)
func (oc *OrderController) ListOrders(c *gin.Context) {
	orders, err := oc.orders.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, orders)
}

// ListMyOrders handles GET /api/v1/orders/me?status=
func (oc *OrderController) ListMyOrders(c *gin.Context) {
	callerID, err := middleware.GetUserID(c)
	if err != nil {
		respondFailure(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}
	oc.listByUser(c, callerID)
}

// ListUserOrders handles GET /api/v1/orders/user/:cedula?status=
func (oc *OrderController) ListUserOrders(c *gin.Context) {
	cedula := c.Param("cedula")
	if !canAccessUser(c, cedula) {
		respondError(c, services.ErrForbidden)
		return
	}
	oc.listByUser(c, cedula)
}

func (oc *OrderController) listByUser(c *gin.Context, cedula string) {
	orders, err := oc.orders.ListByUser(c.Request.Context(), cedula, models.OrderStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, orders)
}

// GetOrder handles GET /api/v1/orders/:id
func (oc *OrderController) GetOrder(c *gin.Context) {
	order, ok := oc.loadAccessible(c)
	if !ok {
		return
	}
	respondOK(c, http.StatusOK, order)
}

// ListOrderLines handles GET /api/v1/orders/:id/lines
func (oc *OrderController) ListOrderLines(c *gin.Context) {
	order, ok := oc.loadAccessible(c)
	if !ok {
		return
	}
	respondOK(c, http.StatusOK, order.Lines)
}

// ListLines handles GET /api/v1/order-lines (staff only)
func (oc *OrderController) ListLines(c *gin.Context) {
	lines, err := oc.orders.ListLines(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, lines)
}

// GetLine handles GET /api/v1/order-lines/:id. Clients can only read lines of their own orders.
func (oc *OrderController) GetLine(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	line, err := oc.orders.GetLine(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	if !isStaff(c) {
		order, err := oc.orders.Get(c.Request.Context(), line.OrderID)
		if err != nil {
			respondError(c, err)
			return
		}
		if !canAccessUser(c, order.UserID) {
			respondError(c, services.ErrForbidden)
			return
		}
	}
	respondOK(c, http.StatusOK, line)
}

// loadAccessible loads the order named by the :id parameter, writing the error response when
// it does not exist or belongs to someone else
func (oc *OrderController) loadAccessible(c *gin.Context) (*models.Order, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}

	order, err := oc.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if !canAccessUser(c, order.UserID) {
		respondError(c, services.ErrForbidden)
		return nil, false
	}
	return order, true
}

func parseReturnDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(returnDateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
