package controllers

import (
	"github.com/aaandrangom/biblioteca-api/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers groups the controllers mounted under /api/v1
type Handlers struct {
	Books     *BookController
	Users     *UserController
	Auth      *AuthController
	Orders    *OrderController
	Covers    *CoverController
	Uploads   *UploadController
	Dashboard *DashboardController
}

// RegisterRoutes mounts every API route on v1. auth authenticates protected routes and
// limiter, when not nil, throttles the public account endpoints.
func RegisterRoutes(v1 *gin.RouterGroup, h *Handlers, auth gin.HandlerFunc, limiter *middleware.RateLimiter) {
	throttle := func(c *gin.Context) { c.Next() }
	if limiter != nil {
		throttle = limiter.Middleware()
	}
	staff := middleware.RequireStaff()

	// Public routes
	v1.POST("/users", throttle, h.Users.CreateUser)
	v1.POST("/users/verify", throttle, h.Users.VerifyUser)
	v1.POST("/auth/login", throttle, h.Auth.Login)
	v1.GET("/uploads/:filename", h.Uploads.GetUploadedImage)

	protected := v1.Group("", auth)

	books := protected.Group("/books")
	{
		books.GET("", h.Books.ListBooks)
		books.GET("/search", h.Books.SearchBooks)
		books.GET("/:id", h.Books.GetBook)
		books.POST("", staff, h.Books.CreateBook)
		books.PUT("/:id", staff, h.Books.UpdateBook)
		books.DELETE("/:id", staff, h.Books.DeleteBook)
		books.GET("/:id/copies", h.Books.ListCopies)
		books.POST("/:id/copies", staff, h.Books.CreateCopies)
	}

	users := protected.Group("/users")
	{
		users.GET("", staff, h.Users.ListUsers)
		users.GET("/filter", staff, h.Users.FilterUsers)
		users.GET("/:cedula", h.Users.GetUser)
		users.PUT("/:cedula", h.Users.UpdateUser)
		users.DELETE("/:cedula", staff, h.Users.DeleteUser)
	}

	orders := protected.Group("/orders")
	{
		orders.GET("", staff, h.Orders.ListOrders)
		orders.GET("/me", h.Orders.ListMyOrders)
		orders.GET("/user/:cedula", h.Orders.ListUserOrders)
		orders.GET("/:id", h.Orders.GetOrder)
		orders.GET("/:id/lines", h.Orders.ListOrderLines)
		orders.POST("", h.Orders.CreateOrder)
		orders.PUT("/:id/status", staff, h.Orders.UpdateOrderStatus)
		orders.POST("/:id/cancel", h.Orders.CancelOrder)
	}

	lines := protected.Group("/order-lines")
	{
		lines.GET("", staff, h.Orders.ListLines)
		lines.GET("/:id", h.Orders.GetLine)
	}

	covers := protected.Group("/covers")
	{
		covers.GET("", h.Covers.ListCovers)
		covers.GET("/lookup/:title", h.Covers.LookupCover)
		covers.GET("/:id", h.Covers.GetCover)
		covers.POST("", h.Covers.SaveCover)
		covers.POST("/:id/image", staff, h.Covers.UploadCoverImage)
	}

	protected.GET("/dashboard", staff, h.Dashboard.GetDashboard)
}
