package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aaandrangom/biblioteca-api/middleware"
	"github.com/aaandrangom/biblioteca-api/models"
	"github.com/aaandrangom/biblioteca-api/services"
	"github.com/gin-gonic/gin"
)

// birthDateLayout is the accepted format for birth dates
const birthDateLayout = "2006-01-02"

// CreateUserRequest represents the request body for signing up
type CreateUserRequest struct {
	Cedula         string `json:"cedula" binding:"required,numeric,min=10,max=13"`
	FirstName      string `json:"first_name" binding:"required,max=100"`
	MiddleName     string `json:"middle_name" binding:"max=100"`
	LastName       string `json:"last_name" binding:"required,max=100"`
	SecondLastName string `json:"second_last_name" binding:"max=100"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required"`
	BirthDate      string `json:"birth_date" binding:"required,datetime=2006-01-02"`
}

// VerifyUserRequest represents the request body for confirming an account
type VerifyUserRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

// UpdateUserRequest represents the request body for updating a user.
// Role and status are only honored for staff.
type UpdateUserRequest struct {
	FirstName      *string            `json:"first_name" binding:"omitempty,max=100"`
	MiddleName     *string            `json:"middle_name" binding:"omitempty,max=100"`
	LastName       *string            `json:"last_name" binding:"omitempty,max=100"`
	SecondLastName *string            `json:"second_last_name" binding:"omitempty,max=100"`
	Email          *string            `json:"email" binding:"omitempty,email"`
	Password       *string            `json:"password"`
	BirthDate      *string            `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
	Role           *models.Role       `json:"role"`
	Status         *models.UserStatus `json:"status"`
}

// UserController handles account routes
type UserController struct {
	users *services.UserService
}

// NewUserController creates a user controller
func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

// CreateUser handles POST /api/v1/users - public signup, the account starts unverified
func (uc *UserController) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	birthDate, err := time.Parse(birthDateLayout, req.BirthDate)
	if err != nil {
		respondValidation(c, err)
		return
	}

	user, err := uc.users.Create(c.Request.Context(), services.CreateUserInput{
		Cedula:         req.Cedula,
		FirstName:      req.FirstName,
		MiddleName:     req.MiddleName,
		LastName:       req.LastName,
		SecondLastName: req.SecondLastName,
		Email:          req.Email,
		Password:       req.Password,
		BirthDate:      birthDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, user)
}

// VerifyUser handles POST /api/v1/users/verify
func (uc *UserController) VerifyUser(c *gin.Context) {
	var req VerifyUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	user, err := uc.users.Verify(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}

// ListUsers handles GET /api/v1/users (staff only)
func (uc *UserController) ListUsers(c *gin.Context) {
	users, err := uc.users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, users)
}

// FilterUsers handles GET /api/v1/users/filter?role= (staff only)
func (uc *UserController) FilterUsers(c *gin.Context) {
	var role models.Role
	if raw := c.Query("role"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondFailure(c, http.StatusBadRequest, "INVALID_ROLE", "role must be 1, 2 or 3")
			return
		}
		role = models.Role(n)
	}

	users, err := uc.users.FilterByRole(c.Request.Context(), role)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, users)
}

// GetUser handles GET /api/v1/users/:cedula. Clients can only read their own account.
func (uc *UserController) GetUser(c *gin.Context) {
	cedula := c.Param("cedula")
	if !canAccessUser(c, cedula) {
		respondError(c, services.ErrForbidden)
		return
	}

	user, err := uc.users.Get(c.Request.Context(), cedula)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}

// UpdateUser handles PUT /api/v1/users/:cedula. Clients can only update their own account.
func (uc *UserController) UpdateUser(c *gin.Context) {
	cedula := c.Param("cedula")
	if !canAccessUser(c, cedula) {
		respondError(c, services.ErrForbidden)
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	if (req.Role != nil || req.Status != nil) && !isStaff(c) {
		respondFailure(c, http.StatusForbidden, "FORBIDDEN", "Only staff can change roles or account status")
		return
	}

	in := services.UpdateUserInput{
		FirstName:      req.FirstName,
		MiddleName:     req.MiddleName,
		LastName:       req.LastName,
		SecondLastName: req.SecondLastName,
		Email:          req.Email,
		Password:       req.Password,
		Role:           req.Role,
		Status:         req.Status,
	}
	if req.BirthDate != nil {
		birthDate, err := time.Parse(birthDateLayout, *req.BirthDate)
		if err != nil {
			respondValidation(c, err)
			return
		}
		in.BirthDate = &birthDate
	}

	user, err := uc.users.Update(c.Request.Context(), cedula, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/v1/users/:cedula (staff only). The account is disabled, not removed.
func (uc *UserController) DeleteUser(c *gin.Context) {
	user, err := uc.users.Disable(c.Request.Context(), c.Param("cedula"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}

// isStaff reports whether the caller is an admin or librarian
func isStaff(c *gin.Context) bool {
	role, err := middleware.GetUserRole(c)
	return err == nil && role.IsStaff()
}

// canAccessUser reports whether the caller may act on the account with this cedula
func canAccessUser(c *gin.Context, cedula string) bool {
	if isStaff(c) {
		return true
	}
	userID, err := middleware.GetUserID(c)
	return err == nil && userID == cedula
}
