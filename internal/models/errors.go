package models

import (
	"errors"
	"fmt"
)

// Common marketplace errors
var (
	// Listing errors
	ErrListingNotFound     = errors.New("shared membership not found or inactive")
	ErrAlreadySharing      = errors.New("platform already being shared")
	ErrPlatformNotVerified = errors.New("platform not verified or not connected")
	ErrCannotRentOwn       = errors.New("cannot rent own membership")
	ErrMaxSharesReached    = errors.New("maximum shares reached")

	// Rental / transaction errors
	ErrTransactionHashRequired   = errors.New("transaction hash is required")
	ErrTransactionAlreadyUsed    = errors.New("transaction has already been used")
	ErrVerificationFailed        = errors.New("transaction verification failed")
	ErrSenderMismatch            = errors.New("transaction sender does not match renter address")
	ErrAdminAddressNotConfigured = errors.New("admin address not configured")

	// Auth errors
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidSignature = errors.New("invalid signature")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")

	// Storage errors
	ErrVerificationNotFound = errors.New("platform verification not found")
	ErrDatabaseQuery        = errors.New("database query error")
)

// MarketError represents a structured error with a stable code and a
// user-visible message
type MarketError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *MarketError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *MarketError) Unwrap() error {
	return e.Cause
}

// NewMarketError creates a new MarketError
func NewMarketError(code, message string, cause error) *MarketError {
	return &MarketError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithDetail adds a detail to the error
func (e *MarketError) WithDetail(key string, value interface{}) *MarketError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Error codes for structured error handling
const (
	ErrCodeListingNotFound     = "LISTING_NOT_FOUND"
	ErrCodeAlreadySharing      = "ALREADY_SHARING"
	ErrCodePlatformNotVerified = "PLATFORM_NOT_VERIFIED"
	ErrCodeCannotRentOwn       = "CANNOT_RENT_OWN_LISTING"
	ErrCodeMaxSharesReached    = "MAX_SHARES_REACHED"

	ErrCodeTransactionHashRequired = "TRANSACTION_HASH_REQUIRED"
	ErrCodeTransactionAlreadyUsed  = "TRANSACTION_ALREADY_USED"
	ErrCodeVerificationFailed      = "TRANSACTION_VERIFICATION_FAILED"
	ErrCodeSenderMismatch          = "SENDER_MISMATCH"
	ErrCodeAdminNotConfigured      = "ADMIN_ADDRESS_NOT_CONFIGURED"

	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInvalidSignature = "INVALID_SIGNATURE"
	ErrCodeDatabaseError    = "DATABASE_ERROR"
	ErrCodeChainError       = "CHAIN_ERROR"
)

// Common error constructors. Messages are the exact strings surfaced to API
// clients.

func NewListingNotFoundError(listingID string) *MarketError {
	return NewMarketError(ErrCodeListingNotFound, "Shared membership not found or inactive", ErrListingNotFound).
		WithDetail("listing_id", listingID)
}

func NewAlreadySharingError(platform string) *MarketError {
	return NewMarketError(ErrCodeAlreadySharing, "Platform already being shared", ErrAlreadySharing).
		WithDetail("platform", platform)
}

func NewPlatformNotVerifiedError(platform string) *MarketError {
	return NewMarketError(ErrCodePlatformNotVerified, "Platform not verified or not connected", ErrPlatformNotVerified).
		WithDetail("platform", platform)
}

func NewCannotRentOwnError(listingID string) *MarketError {
	return NewMarketError(ErrCodeCannotRentOwn, "Cannot rent your own membership", ErrCannotRentOwn).
		WithDetail("listing_id", listingID)
}

func NewMaxSharesReachedError(listingID string) *MarketError {
	return NewMarketError(ErrCodeMaxSharesReached, "Maximum shares reached for this membership", ErrMaxSharesReached).
		WithDetail("listing_id", listingID)
}

func NewTransactionHashRequiredError() *MarketError {
	return NewMarketError(ErrCodeTransactionHashRequired, "Transaction hash is required", ErrTransactionHashRequired)
}

func NewTransactionAlreadyUsedError(txHash string) *MarketError {
	return NewMarketError(ErrCodeTransactionAlreadyUsed, "Transaction has already been used", ErrTransactionAlreadyUsed).
		WithDetail("transaction_hash", txHash)
}

func NewVerificationFailedError(reason string) *MarketError {
	return NewMarketError(ErrCodeVerificationFailed, fmt.Sprintf("Transaction verification failed: %s", reason), ErrVerificationFailed).
		WithDetail("reason", reason)
}

func NewSenderMismatchError(sender, renter string) *MarketError {
	return NewMarketError(ErrCodeSenderMismatch, "Transaction sender does not match renter address", ErrSenderMismatch).
		WithDetail("sender", sender).
		WithDetail("renter", renter)
}

func NewAdminNotConfiguredError() *MarketError {
	return NewMarketError(ErrCodeAdminNotConfigured, "Admin address not configured", ErrAdminAddressNotConfigured)
}

func NewValidationError(message string) *MarketError {
	return NewMarketError(ErrCodeValidationFailed, message, ErrValidationFailed)
}

func NewUnauthorizedError(message string) *MarketError {
	return NewMarketError(ErrCodeUnauthorized, message, ErrUnauthorized)
}

func NewInvalidSignatureError() *MarketError {
	return NewMarketError(ErrCodeInvalidSignature, "Invalid signature", ErrInvalidSignature)
}

func NewDatabaseError(operation string, cause error) *MarketError {
	return NewMarketError(ErrCodeDatabaseError, "Database operation failed", cause).
		WithDetail("operation", operation)
}
