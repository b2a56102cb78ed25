package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/crowdfund/internal/contract"
	"github.com/rpggio/crowdfund/internal/transport"
)

// APIError represents an MCP tool error.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
}

// MapError maps contract and backend errors to tool error codes. Errors it
// does not recognise are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var schemaErr *contract.SchemaError
	if errors.As(err, &schemaErr) {
		return &APIError{Code: "INVALID_ARGUMENT", Message: schemaErr.Reason, RecoveryHint: "Check the tool input schema"}
	}

	var rpcErr *transport.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case transport.ErrNotFoundCode:
			return &APIError{Code: "NOT_FOUND", Message: rpcErr.Message, RecoveryHint: "Check ID spelling"}
		case transport.ErrUnauthorizedCode:
			return &APIError{Code: "UNAUTHENTICATED", Message: rpcErr.Message, RecoveryHint: "Connect with a bearer token"}
		case transport.ErrConflictCode:
			return &APIError{Code: "CONFLICT", Message: rpcErr.Message}
		case transport.ErrForbiddenCode:
			return &APIError{Code: "FORBIDDEN", Message: rpcErr.Message}
		case transport.ErrBadInputCode, transport.ErrInvalidParams:
			return &APIError{Code: "INVALID_ARGUMENT", Message: rpcErr.Message}
		}
	}

	if contract.IsRemoteCallError(err) {
		return &APIError{Code: "BACKEND_UNAVAILABLE", Message: err.Error(), RecoveryHint: "Retry later"}
	}
	return err
}
