// Package services provides external service integrations and technical concerns like remote store queries and tokens
package services

import (
	"errors"
	"fmt"
	"strings"
)

// ProtectedDataKind identifies which class of protected store data was denied
type ProtectedDataKind string

const (
	ProtectedCustomerData ProtectedDataKind = "customer_data"
	ProtectedOrderData    ProtectedDataKind = "order_data"
)

// ProtectedDataError indicates the app lacks approval for a protected data scope.
// Callers surface it as a permission problem, never as a generic failure.
type ProtectedDataError struct {
	Kind    ProtectedDataKind
	Message string
}

func (e *ProtectedDataError) Error() string {
	return fmt.Sprintf("protected %s access denied: %s", e.Kind, e.Message)
}

// RemoteQueryError carries the first error message returned by a remote collaborator
type RemoteQueryError struct {
	Message string
}

func (e *RemoteQueryError) Error() string {
	return fmt.Sprintf("remote query failed: %s", e.Message)
}

// classifyRemoteError maps a remote error message to a typed error.
// Protected-data denials are recognized by the phrases Shopify uses for
// unapproved scopes; everything else is a RemoteQueryError.
func classifyRemoteError(message string) error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "protected order data"):
		return &ProtectedDataError{Kind: ProtectedOrderData, Message: message}
	case strings.Contains(lower, "protected customer data"), strings.Contains(lower, "not approved"):
		return &ProtectedDataError{Kind: ProtectedCustomerData, Message: message}
	default:
		return &RemoteQueryError{Message: message}
	}
}

// IsProtectedDataError reports whether err is a protected-data denial
func IsProtectedDataError(err error) bool {
	var pde *ProtectedDataError
	return errors.As(err, &pde)
}

// IsRemoteQueryError reports whether err is a remote query failure
func IsRemoteQueryError(err error) bool {
	var rqe *RemoteQueryError
	return errors.As(err, &rqe)
}
