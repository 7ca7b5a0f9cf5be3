package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternalServer     = errors.New("internal server error")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// User errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidPassword   = errors.New("invalid password")
)

// Approval workflow errors
var (
	ErrPolicyNotFound      = errors.New("policy not found")
	ErrApprovalNotFound    = errors.New("approval not found")
	ErrManagerNotFound     = errors.New("manager not found")
	ErrInvalidState        = errors.New("operation not valid for current status")
	ErrInvalidManager      = errors.New("manager is not eligible for assignment")
	ErrConflict            = errors.New("approval was modified concurrently")
	ErrNotPolicyOwner      = errors.New("policy is not owned by this broker")
	ErrInvalidServiceType  = errors.New("invalid or inactive service type")
	ErrNoBrokersAvailable  = errors.New("no active brokers available")
	ErrNoManagersAvailable = errors.New("no active managers available")
	ErrReasonRequired      = errors.New("reason is required")
)

// DocumentsIncompleteError blocks submission and names the missing documents.
type DocumentsIncompleteError struct {
	Missing []string
}

func (e *DocumentsIncompleteError) Error() string {
	return fmt.Sprintf("required documents incomplete: %s", strings.Join(e.Missing, ", "))
}

// IsDocumentsIncomplete extracts a DocumentsIncompleteError if present.
func IsDocumentsIncomplete(err error) (*DocumentsIncompleteError, bool) {
	var de *DocumentsIncompleteError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
