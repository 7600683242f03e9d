package pricing

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeTierNotFound         ErrorCode = "TIER_NOT_FOUND"
	CodeImpositionNotFound   ErrorCode = "IMPOSITION_NOT_FOUND"
	CodeFixedPriceNotFound   ErrorCode = "FIXED_PRICE_NOT_FOUND"
	CodePackagePriceNotFound ErrorCode = "PACKAGE_PRICE_NOT_FOUND"
	CodeInvalidQuantity      ErrorCode = "INVALID_QUANTITY"
	CodeInvalidSize          ErrorCode = "INVALID_SIZE"
	CodeUnknownModel         ErrorCode = "UNKNOWN_MODEL"
	CodeMissingParams        ErrorCode = "MISSING_PARAMS"
)

// Error is returned for every caller-input or lookup-data problem. Context
// holds the search keys that failed to match.
type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, message string, context map[string]any) *Error {
	return &Error{Code: code, Message: message, Context: context}
}

// CodeOf returns the pricing error code carried by err, or "" when err is not
// a pricing error.
func CodeOf(err error) ErrorCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
