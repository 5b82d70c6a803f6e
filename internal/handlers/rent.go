package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/monshare/monshare-backend/internal/models"
)

// RentalAllocator books rentals and answers rental queries.
type RentalAllocator interface {
	CreateRental(ctx context.Context, listingID, renterAddress, transactionHash string) (*models.Rental, *models.Listing, error)
	GetUserRentals(ctx context.Context, renterAddress string) ([]*models.RentalWithListing, error)
}

type createRentalRequest struct {
	SharedMembershipID string `json:"sharedMembershipId"`
	RenterAddress      string `json:"renterAddress"`
	TransactionHash    string `json:"transactionHash"`
}

// CreateRentalHandler handles POST /rent.
func CreateRentalHandler(svc RentalAllocator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRentalRequest
		if err := decodeJSONBody(r, &req); err != nil {
			writeErrorResponse(w, logger, err)
			return
		}

		if req.SharedMembershipID == "" || req.RenterAddress == "" || req.TransactionHash == "" {
			writeErrorResponse(w, logger, models.NewValidationError(
				"Shared membership ID, renter address, and transaction hash are required"))
			return
		}

		rental, listing, err := svc.CreateRental(r.Context(), req.SharedMembershipID, req.RenterAddress, req.TransactionHash)
		if err != nil {
			writeErrorResponse(w, logger, err)
			return
		}

		writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
			"message":          "Membership rented successfully",
			"rental":           rental,
			"sharedMembership": listing,
		})
	}
}

// GetUserRentalsHandler handles GET /rent?address=.
func GetUserRentalsHandler(svc RentalAllocator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address := r.URL.Query().Get("address")
		if address == "" {
			writeErrorResponse(w, logger, models.NewValidationError("Address parameter is required"))
			return
		}

		rentals, err := svc.GetUserRentals(r.Context(), address)
		if err != nil {
			writeErrorResponse(w, logger, err)
			return
		}

		writeJSONResponse(w, http.StatusOK, map[string]interface{}{"rentals": rentals})
	}
}
