package controllers

import (
	"net/http"

	"github.com/aaandrangom/biblioteca-api/services"
	"github.com/gin-gonic/gin"
)

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Nickname string `json:"nickname" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthController handles login
type AuthController struct {
	users *services.UserService
}

// NewAuthController creates an auth controller
func NewAuthController(users *services.UserService) *AuthController {
	return &AuthController{users: users}
}

// Login handles POST /api/v1/auth/login - exchanges nickname and password for a bearer token
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	result, err := ac.users.Login(c.Request.Context(), req.Nickname, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}
