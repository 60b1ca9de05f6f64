package services

import (
	"errors"
	"net/http"
)

// ErrorKind classifies service failures so handlers can pick a status code
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindConflict
	KindAuth
	KindForbidden
)

// HTTPStatus maps the kind to its response status
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// ServiceError is an expected failure of a service operation
type ServiceError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is matches service errors by kind and code so sentinels work with errors.Is
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func validationError(code, message string) *ServiceError {
	return &ServiceError{Kind: KindValidation, Code: code, Message: message}
}

func notFoundError(code, message string) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Code: code, Message: message}
}

func conflictError(code, message string) *ServiceError {
	return &ServiceError{Kind: KindConflict, Code: code, Message: message}
}

func authError(code, message string) *ServiceError {
	return &ServiceError{Kind: KindAuth, Code: code, Message: message}
}

var (
	ErrInvalidStatus       = validationError("INVALID_STATUS", "invalid order status")
	ErrUserNotFound        = notFoundError("USER_NOT_FOUND", "user not found")
	ErrBookNotFound        = notFoundError("BOOK_NOT_FOUND", "book not found")
	ErrOrderNotFound       = notFoundError("ORDER_NOT_FOUND", "order not found")
	ErrOrderLineNotFound   = notFoundError("ORDER_LINE_NOT_FOUND", "order line not found")
	ErrCopyNotFound        = notFoundError("COPY_NOT_FOUND", "inventory copy not found")
	ErrNoCopiesAvailable   = notFoundError("NO_COPIES_AVAILABLE", "no copies available")
	ErrOutOfStock          = conflictError("OUT_OF_STOCK", "book stock is already 0")
	ErrTransitionForbidden = conflictError("INVALID_TRANSITION", "order status transition not allowed")
	ErrUserExists          = conflictError("USER_EXISTS", "a user with this cedula already exists")
	ErrIncorrectCode       = validationError("INCORRECT_CODE", "incorrect verification code or user not found")
	ErrAuthFailed          = authError("AUTHENTICATION_FAILED", "authentication failed")
	ErrNotVerified         = authError("NOT_VERIFIED", "account is not verified")
	ErrAccountDisabled     = authError("ACCOUNT_DISABLED", "account is disabled")
	ErrNoSearchCriteria    = validationError("NO_SEARCH_CRITERIA", "at least one search criterion is required")
	ErrRoleRequired        = validationError("ROLE_REQUIRED", "role is required")
	ErrNoUsersForRole      = notFoundError("NO_USERS_FOUND", "no users found for this role")
	ErrCoverNotFound       = notFoundError("COVER_NOT_FOUND", "cover not found")
	ErrForbidden           = &ServiceError{Kind: KindForbidden, Code: "FORBIDDEN", Message: "not allowed to access this resource"}
)

// AsServiceError unwraps err into a ServiceError when it is one
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
