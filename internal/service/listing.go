package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/monshare/monshare-backend/internal/events"
	"github.com/monshare/monshare-backend/internal/models"
)

// ListingStore is the storage surface the listing registry needs.
type ListingStore interface {
	CreateListing(ctx context.Context, params *models.ListingCreateParams) (*models.Listing, error)
	ListListings(ctx context.Context, platform, owner string) ([]*models.Listing, error)
	UpdateListing(ctx context.Context, listingID uuid.UUID, ownerAddress string, isActive *bool) (*models.Listing, error)
	DeactivateListing(ctx context.Context, listingID uuid.UUID, ownerAddress string) error
	GetPlatformVerification(ctx context.Context, address, platform string) (*models.PlatformVerification, error)
}

// ListingService owns shared-membership listings: creating them from
// verified platforms, filtering the marketplace view, and owner-only
// mutation.
type ListingService struct {
	store     ListingStore
	publisher *events.Publisher
	config    *Config
	logger    *zap.Logger
}

// NewListingService creates a listing service
func NewListingService(store ListingStore, publisher *events.Publisher, config *Config, logger *zap.Logger) *ListingService {
	return &ListingService{
		store:     store,
		publisher: publisher,
		config:    config,
		logger:    logger,
	}
}

// ShareListing creates a listing for a platform the owner has a connected
// verification for. Price, duration and capacity come from the configured
// marketplace defaults.
func (s *ListingService) ShareListing(ctx context.Context, ownerAddress, platform string) (*models.Listing, error) {
	verification, err := s.store.GetPlatformVerification(ctx, ownerAddress, platform)
	if err != nil {
		if errors.Is(err, models.ErrVerificationNotFound) {
			return nil, models.NewPlatformNotVerifiedError(platform)
		}
		return nil, models.NewDatabaseError("get_platform_verification", err)
	}

	listing, err := s.store.CreateListing(ctx, &models.ListingCreateParams{
		OwnerAddress:   ownerAddress,
		Platform:       platform,
		VerificationID: verification.ID,
		PricePerPeriod: s.config.DefaultPriceMON,
		DurationDays:   s.config.DefaultDurationDays,
		MaxShares:      s.config.DefaultMaxShares,
	})
	if err != nil {
		if errors.Is(err, models.ErrAlreadySharing) {
			return nil, models.NewAlreadySharingError(platform)
		}
		return nil, models.NewDatabaseError("create_listing", err)
	}

	s.publisher.PublishListingShared(listing)

	s.logger.Info("Platform shared",
		zap.String("listing_id", listing.ID.String()),
		zap.String("owner", ownerAddress),
		zap.String("platform", platform),
	)
	return listing, nil
}

// ListListings returns active marketplace listings filtered by platform
// and/or owner, newest first.
func (s *ListingService) ListListings(ctx context.Context, platform, owner string) ([]*models.Listing, error) {
	listings, err := s.store.ListListings(ctx, platform, owner)
	if err != nil {
		return nil, models.NewDatabaseError("list_listings", err)
	}
	return listings, nil
}

// UpdateListing updates a listing's active flag. The caller must be the
// owner; a mismatch reads as not-found so the endpoint leaks nothing about
// other owners' listings.
func (s *ListingService) UpdateListing(ctx context.Context, listingID, ownerAddress string, isActive *bool) (*models.Listing, error) {
	id, err := uuid.Parse(listingID)
	if err != nil {
		return nil, models.NewListingNotFoundError(listingID)
	}

	listing, err := s.store.UpdateListing(ctx, id, ownerAddress, isActive)
	if err != nil {
		if errors.Is(err, models.ErrListingNotFound) {
			return nil, models.NewListingNotFoundError(listingID)
		}
		return nil, models.NewDatabaseError("update_listing", err)
	}

	s.publisher.PublishListingUpdated(listing)
	return listing, nil
}

// StopSharing deactivates a listing. Owner-only, same not-found masking as
// UpdateListing.
func (s *ListingService) StopSharing(ctx context.Context, listingID, ownerAddress string) error {
	id, err := uuid.Parse(listingID)
	if err != nil {
		return models.NewListingNotFoundError(listingID)
	}

	if err := s.store.DeactivateListing(ctx, id, ownerAddress); err != nil {
		if errors.Is(err, models.ErrListingNotFound) {
			return models.NewListingNotFoundError(listingID)
		}
		return models.NewDatabaseError("deactivate_listing", err)
	}
	return nil
}
