package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/monshare/monshare-backend/internal/models"
)

// writeJSONResponse writes a JSON response with the given status code
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeErrorResponse maps an error to an HTTP status and writes the
// user-visible message as {"error": message}. Anything that is not a
// MarketError collapses to a generic 500.
func writeErrorResponse(w http.ResponseWriter, logger *zap.Logger, err error) {
	var marketErr *models.MarketError
	if !errors.As(err, &marketErr) {
		logger.Error("Unhandled error", zap.Error(err))
		writeJSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	status := getHTTPStatusFromMarketError(marketErr)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("code", marketErr.Code),
			zap.Error(marketErr),
		)
		if marketErr.Code == models.ErrCodeDatabaseError || marketErr.Code == models.ErrCodeChainError {
			writeJSONResponse(w, status, map[string]string{"error": "Internal server error"})
			return
		}
	}

	writeJSONResponse(w, status, map[string]string{"error": marketErr.Message})
}

// getHTTPStatusFromMarketError maps error codes to HTTP status codes
func getHTTPStatusFromMarketError(err *models.MarketError) int {
	switch err.Code {
	case models.ErrCodeValidationFailed,
		models.ErrCodeTransactionHashRequired,
		models.ErrCodeVerificationFailed,
		models.ErrCodeSenderMismatch,
		models.ErrCodeCannotRentOwn,
		models.ErrCodePlatformNotVerified:
		return http.StatusBadRequest
	case models.ErrCodeListingNotFound:
		return http.StatusNotFound
	case models.ErrCodeAlreadySharing,
		models.ErrCodeMaxSharesReached,
		models.ErrCodeTransactionAlreadyUsed:
		return http.StatusConflict
	case models.ErrCodeUnauthorized, models.ErrCodeInvalidSignature:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSONBody decodes a request body into dst, rejecting malformed JSON.
func decodeJSONBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}
