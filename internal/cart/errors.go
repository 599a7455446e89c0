package cart

import (
	"errors"
	"fmt"
)

// Code classifies reducer failures.
type Code int

const (
	CodeInvalidAction Code = iota
	CodeItemNotFound
	CodeUnhandledAction
)

func (c Code) String() string {
	switch c {
	case CodeInvalidAction:
		return "INVALID_ACTION"
	case CodeItemNotFound:
		return "ITEM_NOT_FOUND"
	case CodeUnhandledAction:
		return "UNHANDLED_ACTION"
	default:
		return "UNKNOWN"
	}
}

// Sentinels for errors.Is matching against *ActionError.
var (
	ErrInvalidAction   = errors.New("invalid action")
	ErrItemNotFound    = errors.New("item not found")
	ErrUnhandledAction = errors.New("unhandled action")
)

// ActionError reports a contract violation by the caller of Reduce. None of
// them are transient; the caller is expected to surface them, not retry.
type ActionError struct {
	Code    Code
	Action  ActionType
	SKU     string
	Message string
}

func (e *ActionError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("cart: %s", e.Message)
	}
	return fmt.Sprintf("cart: %s: %s", e.Action, e.Message)
}

// Is lets errors.Is(err, ErrItemNotFound) and friends match by code.
func (e *ActionError) Is(target error) bool {
	switch target {
	case ErrInvalidAction:
		return e.Code == CodeInvalidAction
	case ErrItemNotFound:
		return e.Code == CodeItemNotFound
	case ErrUnhandledAction:
		return e.Code == CodeUnhandledAction
	}
	return false
}

// CodeOf extracts the failure code from err.
func CodeOf(err error) (Code, bool) {
	var actionErr *ActionError
	if errors.As(err, &actionErr) {
		return actionErr.Code, true
	}
	return 0, false
}

func missingPayload(action ActionType) *ActionError {
	return &ActionError{
		Code:    CodeInvalidAction,
		Action:  action,
		Message: fmt.Sprintf("missing payload in %s", action),
	}
}

func itemNotFound(action ActionType, sku string) *ActionError {
	return &ActionError{
		Code:    CodeItemNotFound,
		Action:  action,
		SKU:     sku,
		Message: fmt.Sprintf("item with sku %s does not exist", sku),
	}
}

func unhandled(kind string) *ActionError {
	return &ActionError{
		Code:    CodeUnhandledAction,
		Action:  ActionType(kind),
		Message: fmt.Sprintf("unhandled action type %q", kind),
	}
}
