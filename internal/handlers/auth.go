package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/monshare/monshare-backend/internal/models"
)

// WalletAuthenticator verifies wallet signatures and issues session tokens.
type WalletAuthenticator interface {
	VerifySignature(address, message, signature string) (bool, error)
	IssueToken(address string) (string, error)
}

type verifyWalletRequest struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// VerifyWalletHandler handles POST /auth/verify.
func VerifyWalletHandler(svc WalletAuthenticator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyWalletRequest
		if err := decodeJSONBody(r, &req); err != nil {
			writeErrorResponse(w, logger, err)
			return
		}

		if req.Address == "" || req.Message == "" || req.Signature == "" {
			writeErrorResponse(w, logger, models.NewValidationError("Address, message, and signature are required"))
			return
		}

		valid, err := svc.VerifySignature(req.Address, req.Message, req.Signature)
		if err != nil || !valid {
			if err != nil {
				logger.Debug("Signature verification failed", zap.Error(err))
			}
			writeErrorResponse(w, logger, models.NewInvalidSignatureError())
			return
		}

		token, err := svc.IssueToken(req.Address)
		if err != nil {
			writeErrorResponse(w, logger, err)
			return
		}

		writeJSONResponse(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"token":   token,
			"address": req.Address,
		})
	}
}
