package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/monshare/monshare-backend/internal/auth"
	"github.com/monshare/monshare-backend/internal/models"
)

// PlatformDirectory records platform verifications and lists them.
type PlatformDirectory interface {
	SaveVerification(ctx context.Context, address, platform string, attestation, verificationData json.RawMessage) error
	GetUserPlatforms(ctx context.Context, address string) ([]*models.PlatformData, error)
}

// AttestationSigner signs attestation request parameters for the zkTLS
// network.
type AttestationSigner interface {
	Sign(signParams string) string
}

type saveVerificationRequest struct {
	Platform         string          `json:"platform"`
	Attestation      json.RawMessage `json:"attestation"`
	VerificationData json.RawMessage `json:"verificationData"`
}

type signAttestationRequest struct {
	SignParams string `json:"signParams"`
}

// GetPlatformStatusHandler handles GET /platforms/status. The address comes
// from the bearer token, not the request.
func GetPlatformStatusHandler(svc PlatformDirectory, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, ok := auth.AddressFromContext(r.Context())
		if !ok {
			writeErrorResponse(w, logger, models.NewUnauthorizedError("Unauthorized"))
			return
		}

		platforms, err := svc.GetUserPlatforms(r.Context(), address)
		if err != nil {
			writeErrorResponse(w, logger, err)
			return
		}

		writeJSONResponse(w, http.StatusOK, map[string]interface{}{"platforms": platforms})
	}
}

// SaveVerificationHandler handles POST /platforms/verify.
func SaveVerificationHandler(svc PlatformDirectory, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, ok := auth.AddressFromContext(r.Context())
		if !ok {
			writeErrorResponse(w, logger, models.NewUnauthorizedError("Unauthorized"))
			return
		}

		var req saveVerificationRequest
		if err := decodeJSONBody(r, &req); err != nil {
			writeErrorResponse(w, logger, err)
			return
		}

		if req.Platform == "" || len(req.Attestation) == 0 {
			writeErrorResponse(w, logger, models.NewValidationError("Missing required fields"))
			return
		}

		if err := svc.SaveVerification(r.Context(), address, req.Platform, req.Attestation, req.VerificationData); err != nil {
			writeErrorResponse(w, logger, err)
			return
		}

		writeJSONResponse(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": fmt.Sprintf("%s verification saved successfully", req.Platform),
		})
	}
}

// SignAttestationHandler handles POST /attestation/sign.
func SignAttestationHandler(signer AttestationSigner, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.AddressFromContext(r.Context()); !ok {
			writeErrorResponse(w, logger, models.NewUnauthorizedError("Unauthorized"))
			return
		}

		var req signAttestationRequest
		if err := decodeJSONBody(r, &req); err != nil {
			writeErrorResponse(w, logger, err)
			return
		}

		if req.SignParams == "" {
			writeErrorResponse(w, logger, models.NewValidationError("signParams is required"))
			return
		}

		writeJSONResponse(w, http.StatusOK, map[string]string{
			"signResult": signer.Sign(req.SignParams),
		})
	}
}
