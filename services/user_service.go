package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/aaandrangom/biblioteca-api/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MinPasswordLength is the shortest password accepted at signup or update
const MinPasswordLength = 6

var cedulaPattern = regexp.MustCompile(`^\d{10,13}$`)

// CreateUserInput holds the signup fields
type CreateUserInput struct {
	Cedula         string
	FirstName      string
	MiddleName     string
	LastName       string
	SecondLastName string
	Email          string
	Password       string
	BirthDate      time.Time
	Role           models.Role
}

// UpdateUserInput holds the fields a user update may change. Nil fields are left as they are.
type UpdateUserInput struct {
	FirstName      *string
	MiddleName     *string
	LastName       *string
	SecondLastName *string
	Email          *string
	Password       *string
	BirthDate      *time.Time
	Role           *models.Role
	Status         *models.UserStatus
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// UserService manages accounts, verification and login
type UserService struct {
	db       *gorm.DB
	notifier Notifier
	tokens   *TokenService
	hashCost int
}

// NewUserService creates the account service
func NewUserService(db *gorm.DB, notifier Notifier, tokens *TokenService) *UserService {
	return &UserService{
		db:       db,
		notifier: notifier,
		tokens:   tokens,
		hashCost: bcrypt.DefaultCost,
	}
}

// Create registers an unverified account and emails its verification code
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if !cedulaPattern.MatchString(in.Cedula) {
		return nil, validationError("INVALID_CEDULA", "cedula must have between 10 and 13 digits")
	}
	if in.Role == 0 {
		in.Role = models.RoleClient
	}
	if !in.Role.IsValid() {
		return nil, validationError("INVALID_ROLE", "role must be 1, 2 or 3")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, validationError("WEAK_PASSWORD", fmt.Sprintf("password must have at least %d characters", MinPasswordLength))
	}

	db := s.db.WithContext(ctx)

	var existing int64
	if err := db.Model(&models.User{}).Where("usr_cedula = ?", in.Cedula).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check cedula: %w", err)
	}
	if existing > 0 {
		return nil, ErrUserExists
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	code, err := generateVerificationCode()
	if err != nil {
		return nil, err
	}

	user := models.User{
		Cedula:           in.Cedula,
		FirstName:        strings.TrimSpace(in.FirstName),
		MiddleName:       strings.TrimSpace(in.MiddleName),
		LastName:         strings.TrimSpace(in.LastName),
		SecondLastName:   strings.TrimSpace(in.SecondLastName),
		Email:            strings.TrimSpace(in.Email),
		PasswordHash:     hash,
		BirthDate:        in.BirthDate,
		Role:             in.Role,
		Status:           models.UserStatusActive,
		VerificationCode: &code,
	}
	user.ApplyDerivedFields()

	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.notifier.SendVerificationCode(ctx, user.Email, code); err != nil {
		log.Printf("Failed to send verification code to %s: %v", user.Email, err)
	}

	return &user, nil
}

// Verify marks the account with this email and pending code as verified and clears the code
func (s *UserService) Verify(ctx context.Context, email, code string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("usr_email = ? AND usr_codigo_verificacion = ?", strings.TrimSpace(email), strings.TrimSpace(code)).
		First(&user).Error
	if err != nil {
		return nil, notFoundOr(err, ErrIncorrectCode)
	}

	err = s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"usr_verificado":          true,
		"usr_codigo_verificacion": nil,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}

	user.Verified = true
	user.VerificationCode = nil
	return &user, nil
}

// Login checks the credentials and issues an access token
func (s *UserService) Login(ctx context.Context, nickname, password string) (*LoginResult, error) {
	var candidates []models.User
	err := s.db.WithContext(ctx).
		Where("usr_nickname = ?", strings.ToLower(strings.TrimSpace(nickname))).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	// nicknames are derived, so two people can share one
	var user *models.User
	for i := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(candidates[i].PasswordHash), []byte(password)) == nil {
			user = &candidates[i]
			break
		}
	}
	if user == nil {
		return nil, ErrAuthFailed
	}
	if !user.Verified {
		return nil, ErrNotVerified
	}
	if user.Status == models.UserStatusDisabled {
		return nil, ErrAccountDisabled
	}

	token, expiresAt, err := s.tokens.Issue(user.Cedula, user.Role)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// List returns every user ordered by full name
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("usr_nombre_completo ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Get returns the user with this cedula
func (s *UserService) Get(ctx context.Context, cedula string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "usr_cedula = ?", cedula).Error; err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	return &user, nil
}

// Update changes the supplied fields, recomputing derived names and re-hashing a new password
func (s *UserService) Update(ctx context.Context, cedula string, in UpdateUserInput) (*models.User, error) {
	user, err := s.Get(ctx, cedula)
	if err != nil {
		return nil, err
	}

	assign := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	assign(&user.FirstName, in.FirstName)
	assign(&user.MiddleName, in.MiddleName)
	assign(&user.LastName, in.LastName)
	assign(&user.SecondLastName, in.SecondLastName)
	assign(&user.Email, in.Email)
	if in.BirthDate != nil {
		user.BirthDate = *in.BirthDate
	}
	if in.Role != nil {
		if !in.Role.IsValid() {
			return nil, validationError("INVALID_ROLE", "role must be 1, 2 or 3")
		}
		user.Role = *in.Role
	}
	if in.Status != nil {
		if !in.Status.IsValid() {
			return nil, validationError("INVALID_USER_STATUS", "status must be A or D")
		}
		user.Status = *in.Status
	}
	if in.Password != nil {
		if len(*in.Password) < MinPasswordLength {
			return nil, validationError("WEAK_PASSWORD", fmt.Sprintf("password must have at least %d characters", MinPasswordLength))
		}
		hash, err := s.hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if user.FirstName == "" || user.LastName == "" {
		return nil, validationError("INVALID_NAME", "first name and last name are required")
	}

	user.ApplyDerivedFields()

	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Disable soft deletes the user
func (s *UserService) Disable(ctx context.Context, cedula string) (*models.User, error) {
	user, err := s.Get(ctx, cedula)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("usr_estado", models.UserStatusDisabled).Error; err != nil {
		return nil, fmt.Errorf("failed to disable user: %w", err)
	}
	user.Status = models.UserStatusDisabled
	return user, nil
}

// FilterByRole returns the users with the given role
func (s *UserService) FilterByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	if role == 0 {
		return nil, ErrRoleRequired
	}
	if !role.IsValid() {
		return nil, validationError("INVALID_ROLE", "role must be 1, 2 or 3")
	}

	var users []models.User
	err := s.db.WithContext(ctx).Where("usr_rol = ?", role).Order("usr_nombre_completo ASC").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to filter users: %w", err)
	}
	if len(users) == 0 {
		return nil, ErrNoUsersForRole
	}
	return users, nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", validationError("PASSWORD_TOO_LONG", "password must have at most 72 bytes")
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// generateVerificationCode returns a random 6 digit code
func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
