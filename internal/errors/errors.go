package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/solana-scout/internal/types"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategoryUserInput represents user input errors (4xx)
	CategoryUserInput ErrorCategory = "user_input"
	// CategoryValidation represents validation errors
	CategoryValidation ErrorCategory = "validation"
	// CategorySystem represents system errors (5xx)
	CategorySystem ErrorCategory = "system"
	// CategoryProvider represents RPC provider errors
	CategoryProvider ErrorCategory = "provider"
	// CategoryRateLimit represents rate limit errors
	CategoryRateLimit ErrorCategory = "rate_limit"
)

// Error codes surfaced to callers
const (
	CodeInvalidAddress     = "INVALID_ADDRESS"
	CodeNotAWallet         = "NOT_A_WALLET"
	CodeInvalidParameter   = "INVALID_PARAMETER"
	CodeRPCError           = "RPC_ERROR"
	CodeRPCBudgetExhausted = "RPC_BUDGET_EXHAUSTED"
	CodeRPCUnavailable     = "RPC_UNAVAILABLE"
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	CodeInternal           = "INTERNAL_ERROR"
)

// CategorizedError represents an error with category and HTTP status code
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// ToServiceError converts to a ServiceError
func (e *CategorizedError) ToServiceError() *types.ServiceError {
	return &types.ServiceError{
		Code:    e.Code,
		Message: e.Error(),
		Details: e.Details,
	}
}

// User Input Errors (4xx)

// NewInvalidAddressError reports a string that is not a valid public key
func NewInvalidAddressError(address string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUserInput,
		StatusCode: http.StatusBadRequest,
		Code:       CodeInvalidAddress,
		Message:    fmt.Sprintf("Invalid Solana address: %s", address),
		Details: map[string]interface{}{
			"address": address,
		},
	}
}

// NewNotAWalletError reports a valid key that lies off the ed25519 curve
func NewNotAWalletError(address string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUserInput,
		StatusCode: http.StatusUnprocessableEntity,
		Code:       CodeNotAWallet,
		Message:    fmt.Sprintf("Address is not a wallet (off-curve / program address): %s", address),
		Details: map[string]interface{}{
			"address": address,
		},
	}
}

// NewInvalidParameterError creates an invalid parameter error
func NewInvalidParameterError(param string, reason string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       CodeInvalidParameter,
		Message:    fmt.Sprintf("invalid parameter '%s': %s", param, reason),
		Details: map[string]interface{}{
			"parameter": param,
			"reason":    reason,
		},
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(retryAfter int) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryRateLimit,
		StatusCode: http.StatusTooManyRequests,
		Code:       CodeRateLimitExceeded,
		Message:    "rate limit exceeded",
		Details: map[string]interface{}{
			"retryAfter": retryAfter,
		},
	}
}

// RPC Errors

// NewRPCError wraps a failure of one RPC method
func NewRPCError(method string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryProvider,
		StatusCode: http.StatusBadGateway,
		Code:       CodeRPCError,
		Message:    fmt.Sprintf("rpc %s failed", method),
		Cause:      cause,
		Details: map[string]interface{}{
			"method": method,
		},
	}
}

// NewRPCBudgetExhaustedError reports a call refused by the shared request budget
func NewRPCBudgetExhaustedError(method string, retryAfterMs int64) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryRateLimit,
		StatusCode: http.StatusTooManyRequests,
		Code:       CodeRPCBudgetExhausted,
		Message:    fmt.Sprintf("rpc budget exhausted for %s", method),
		Details: map[string]interface{}{
			"method":       method,
			"retryAfterMs": retryAfterMs,
		},
	}
}

// NewRPCUnavailableError reports an endpoint whose circuit breaker is open
func NewRPCUnavailableError(endpoint string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryProvider,
		StatusCode: http.StatusServiceUnavailable,
		Code:       CodeRPCUnavailable,
		Message:    fmt.Sprintf("rpc endpoint unavailable: %s", endpoint),
		Cause:      cause,
		Details: map[string]interface{}{
			"endpoint": endpoint,
		},
	}
}

// System Errors (5xx)

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       CodeInternal,
		Message:    message,
		Cause:      cause,
	}
}

// Categorize categorizes an existing error
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	var catErr *CategorizedError
	if stderrors.As(err, &catErr) {
		return catErr
	}

	var svcErr *types.ServiceError
	if stderrors.As(err, &svcErr) {
		return categorizeServiceError(svcErr)
	}

	return NewInternalError("unexpected error", err)
}

// categorizeServiceError maps a ServiceError back onto a category by code
func categorizeServiceError(err *types.ServiceError) *CategorizedError {
	ce := &CategorizedError{
		Code:    err.Code,
		Message: err.Message,
		Details: err.Details,
	}
	switch err.Code {
	case CodeInvalidAddress:
		ce.Category, ce.StatusCode = CategoryUserInput, http.StatusBadRequest
	case CodeNotAWallet:
		ce.Category, ce.StatusCode = CategoryUserInput, http.StatusUnprocessableEntity
	case CodeInvalidParameter:
		ce.Category, ce.StatusCode = CategoryValidation, http.StatusBadRequest
	case CodeRPCError:
		ce.Category, ce.StatusCode = CategoryProvider, http.StatusBadGateway
	case CodeRPCUnavailable:
		ce.Category, ce.StatusCode = CategoryProvider, http.StatusServiceUnavailable
	case CodeRPCBudgetExhausted, CodeRateLimitExceeded:
		ce.Category, ce.StatusCode = CategoryRateLimit, http.StatusTooManyRequests
	default:
		ce.Category, ce.StatusCode = CategorySystem, http.StatusInternalServerError
	}
	return ce
}

func hasCode(err error, codes ...string) bool {
	var catErr *CategorizedError
	if !stderrors.As(err, &catErr) {
		return false
	}
	for _, c := range codes {
		if catErr.Code == c {
			return true
		}
	}
	return false
}

// IsInvalidAddress reports whether err is an InvalidAddress error
func IsInvalidAddress(err error) bool {
	return hasCode(err, CodeInvalidAddress)
}

// IsNotAWallet reports whether err is a NotAWallet error
func IsNotAWallet(err error) bool {
	return hasCode(err, CodeNotAWallet)
}

// IsRPCError reports whether err came from the RPC layer, including budget and breaker refusals
func IsRPCError(err error) bool {
	return hasCode(err, CodeRPCError, CodeRPCBudgetExhausted, CodeRPCUnavailable)
}

// IsBudgetExhausted reports whether err is a refusal by the shared RPC budget
func IsBudgetExhausted(err error) bool {
	return hasCode(err, CodeRPCBudgetExhausted)
}

// GetHTTPStatusCode returns the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}

// IsUserError determines if an error is a user error (4xx)
func IsUserError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}

	return catErr.StatusCode >= 400 && catErr.StatusCode < 500
}

// IsSystemError determines if an error is a system error (5xx)
func IsSystemError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}

	return catErr.StatusCode >= 500
}
