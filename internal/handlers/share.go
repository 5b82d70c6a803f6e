package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/monshare/monshare-backend/internal/models"
)

// ListingRegistry owns shared-membership listings.
type ListingRegistry interface {
	ShareListing(ctx context.Context, ownerAddress, platform string) (*models.Listing, error)
	ListListings(ctx context.Context, platform, owner string) ([]*models.Listing, error)
	UpdateListing(ctx context.Context, listingID, ownerAddress string, isActive *bool) (*models.Listing, error)
	StopSharing(ctx context.Context, listingID, ownerAddress string) error
}

type shareListingRequest struct {
	Address  string `json:"address"`
	Platform string `json:"platform"`
}

type updateListingRequest struct {
	Address  string `json:"address"`
	IsActive *bool  `json:"isActive"`
}

type stopSharingRequest struct {
	Address string `json:"address"`
}

// ShareListingHandler handles POST /share.
func ShareListingHandler(svc ListingRegistry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req shareListingRequest
		if err := decodeJSONBody(r, &req); err != nil {
			writeErrorResponse(w, logger, err)
			return
		}

		if req.Address == "" || req.Platform == "" {
			writeErrorResponse(w, logger, models.NewValidationError("Address and platform are required"))
			return
		}

		listing, err := svc.ShareListing(r.Context(), req.Address, req.Platform)
		if err != nil {
			writeErrorResponse(w, logger, err)
			return
		}

		writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
			"message":          "Platform shared successfully",
			"sharedMembership": listing,
		})
	}
}

// ListListingsHandler handles GET /share?platform=&owner=.
func ListListingsHandler(svc ListingRegistry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listings, err := svc.ListListings(r.Context(), r.URL.Query().Get("platform"), r.URL.Query().Get("owner"))
		if err != nil {
			writeErrorResponse(w, logger, err)
			return
		}

		writeJSONResponse(w, http.StatusOK, map[string]interface{}{"sharedMemberships": listings})
	}
}

// UpdateListingHandler handles PUT /share/{id}.
func UpdateListingHandler(svc ListingRegistry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateListingRequest
		if err := decodeJSONBody(r, &req); err != nil {
			writeErrorResponse(w, logger, err)
			return
		}

		if req.Address == "" {
			writeErrorResponse(w, logger, models.NewValidationError("Address is required"))
			return
		}

		listing, err := svc.UpdateListing(r.Context(), chi.URLParam(r, "id"), req.Address, req.IsActive)
		if err != nil {
			writeErrorResponse(w, logger, err)
			return
		}

		writeJSONResponse(w, http.StatusOK, map[string]interface{}{
			"message":          "Shared membership updated successfully",
			"sharedMembership": listing,
		})
	}
}

// StopSharingHandler handles DELETE /share/{id}.
func StopSharingHandler(svc ListingRegistry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req stopSharingRequest
		if err := decodeJSONBody(r, &req); err != nil {
			writeErrorResponse(w, logger, err)
			return
		}

		if req.Address == "" {
			writeErrorResponse(w, logger, models.NewValidationError("Address is required"))
			return
		}

		if err := svc.StopSharing(r.Context(), chi.URLParam(r, "id"), req.Address); err != nil {
			writeErrorResponse(w, logger, err)
			return
		}

		writeJSONResponse(w, http.StatusOK, map[string]string{
			"message": "Stopped sharing platform successfully",
		})
	}
}
