// Package businessflow contains the core business logic and use cases for merchant insight workflows
package businessflow

import (
	"errors"
	"fmt"

	"github.com/storepulse/storepulse/app/services"
)

// Business flow error constants
var (
	// Shop-related errors
	ErrShopNotFound = errors.New("shop not found")
	ErrShopInactive = errors.New("shop is inactive")

	// Dashboard errors
	ErrUnknownMetricKey = errors.New("unknown metric key")

	// Saved list errors
	ErrSavedListNotFound        = errors.New("saved list not found")
	ErrSavedListNameRequired    = errors.New("saved list name is required")
	ErrSavedListAlreadyArchived = errors.New("saved list is already archived")
	ErrSavedListNotArchived     = errors.New("saved list is not archived")
	ErrSavedListUpdateRequired  = errors.New("at least one field must be provided for update")

	// Chat errors
	ErrChatSessionNotFound = errors.New("chat session not found")
	ErrChatMessageEmpty    = errors.New("chat message is empty")
	ErrChatQueryRequired   = errors.New("structured query is required")

	// Export errors
	ErrUnsupportedExportFormat = errors.New("unsupported export format")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsShopNotFound(err error) bool {
	return errors.Is(err, ErrShopNotFound)
}

func IsShopInactive(err error) bool {
	return errors.Is(err, ErrShopInactive)
}

func IsUnknownMetricKey(err error) bool {
	return errors.Is(err, ErrUnknownMetricKey)
}

func IsSavedListNotFound(err error) bool {
	return errors.Is(err, ErrSavedListNotFound)
}

func IsSavedListNameRequired(err error) bool {
	return errors.Is(err, ErrSavedListNameRequired)
}

func IsSavedListAlreadyArchived(err error) bool {
	return errors.Is(err, ErrSavedListAlreadyArchived)
}

func IsSavedListNotArchived(err error) bool {
	return errors.Is(err, ErrSavedListNotArchived)
}

func IsSavedListUpdateRequired(err error) bool {
	return errors.Is(err, ErrSavedListUpdateRequired)
}

func IsChatSessionNotFound(err error) bool {
	return errors.Is(err, ErrChatSessionNotFound)
}

func IsChatMessageEmpty(err error) bool {
	return errors.Is(err, ErrChatMessageEmpty)
}

func IsChatQueryRequired(err error) bool {
	return errors.Is(err, ErrChatQueryRequired)
}

func IsUnsupportedExportFormat(err error) bool {
	return errors.Is(err, ErrUnsupportedExportFormat)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}

// IsProtectedDataError reports whether err is a protected-data denial from a collaborator
func IsProtectedDataError(err error) bool {
	return services.IsProtectedDataError(err)
}

// IsRemoteQueryError reports whether err is a remote query failure from a collaborator
func IsRemoteQueryError(err error) bool {
	return services.IsRemoteQueryError(err)
}

// ProtectedDataKind extracts the denied-data kind from err, if it is one
func ProtectedDataKind(err error) (services.ProtectedDataKind, bool) {
	var pde *services.ProtectedDataError
	if errors.As(err, &pde) {
		return pde.Kind, true
	}
	return "", false
}
