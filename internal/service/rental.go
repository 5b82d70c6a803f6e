package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/monshare/monshare-backend/internal/events"
	"github.com/monshare/monshare-backend/internal/models"
)

// usedForRental tags ledger rows consumed by bookings.
const usedForRental = "rental"

// Config represents marketplace service configuration
type Config struct {
	// RentFee is the fixed MON amount every booking must have paid to the
	// admin address.
	RentFee decimal.Decimal `yaml:"rent_fee_mon"`

	// Defaults applied to newly shared listings.
	DefaultPriceMON     decimal.Decimal `yaml:"default_price_mon"`
	DefaultDurationDays int             `yaml:"default_duration_days"`
	DefaultMaxShares    int             `yaml:"default_max_shares"`

	ExpirySweepInterval time.Duration `yaml:"expiry_sweep_interval"`
}

// RentalStore is the storage surface the allocator needs.
type RentalStore interface {
	IsTransactionUsed(ctx context.Context, txHash string) (bool, error)
	CreateRental(ctx context.Context, params *models.RentalCreateParams) (*models.Rental, *models.Listing, error)
	GetUserRentals(ctx context.Context, renterAddress string) ([]*models.RentalWithListing, error)
	ExpireRentals(ctx context.Context, before time.Time) (int64, error)
}

// TransactionVerifier checks a payment transaction on-chain.
type TransactionVerifier interface {
	VerifyTransaction(ctx context.Context, txHash, expectedTo string, expectedAmount decimal.Decimal) *models.TransactionVerification
}

// RentalService books rentals against shared memberships after verifying
// the on-chain payment.
type RentalService struct {
	store        RentalStore
	verifier     TransactionVerifier
	publisher    *events.Publisher
	adminAddress string
	config       *Config
	logger       *zap.Logger
}

// NewRentalService creates a rental service
func NewRentalService(store RentalStore, verifier TransactionVerifier, publisher *events.Publisher, adminAddress string, config *Config, logger *zap.Logger) *RentalService {
	return &RentalService{
		store:        store,
		verifier:     verifier,
		publisher:    publisher,
		adminAddress: adminAddress,
		config:       config,
		logger:       logger,
	}
}

// CreateRental books a listing for a renter. The submitted transaction hash
// must be an unused, successful payment of the rent fee to the admin
// address, sent by the renter. The storage layer re-checks ownership,
// capacity and hash uniqueness inside one database transaction, so the
// checks here are allowed to race.
func (s *RentalService) CreateRental(ctx context.Context, listingID, renterAddress, transactionHash string) (*models.Rental, *models.Listing, error) {
	s.logger.Info("Creating rental",
		zap.String("listing_id", listingID),
		zap.String("renter", renterAddress),
		zap.String("transaction_hash", transactionHash),
	)

	if transactionHash == "" {
		return nil, nil, models.NewTransactionHashRequiredError()
	}

	used, err := s.store.IsTransactionUsed(ctx, transactionHash)
	if err != nil {
		return nil, nil, models.NewDatabaseError("check_transaction_used", err)
	}
	if used {
		return nil, nil, models.NewTransactionAlreadyUsedError(transactionHash)
	}

	if s.adminAddress == "" {
		return nil, nil, models.NewAdminNotConfiguredError()
	}

	verification := s.verifier.VerifyTransaction(ctx, transactionHash, s.adminAddress, s.config.RentFee)
	if !verification.IsValid {
		s.logger.Warn("Transaction verification failed",
			zap.String("transaction_hash", transactionHash),
			zap.String("reason", verification.Error),
		)
		return nil, nil, models.NewVerificationFailedError(verification.Error)
	}

	if !strings.EqualFold(verification.From, renterAddress) {
		return nil, nil, models.NewSenderMismatchError(verification.From, renterAddress)
	}

	id, err := uuid.Parse(listingID)
	if err != nil {
		return nil, nil, models.NewListingNotFoundError(listingID)
	}

	rental, listing, err := s.store.CreateRental(ctx, &models.RentalCreateParams{
		ListingID:       id,
		RenterAddress:   renterAddress,
		TransactionHash: transactionHash,
		Verification:    verification,
		UsedFor:         usedForRental,
	})
	if err != nil {
		return nil, nil, mapRentalStoreError(err, listingID, transactionHash)
	}

	s.publisher.PublishRentalCreated(rental, listing)

	s.logger.Info("Rental created successfully",
		zap.String("rental_id", rental.ID.String()),
		zap.String("listing_id", listing.ID.String()),
		zap.Time("expires_at", rental.ExpiresAt),
	)
	return rental, listing, nil
}

// GetUserRentals returns a renter's rentals, newest first, with effective
// statuses computed against the current time. Unknown renters get an empty
// slice, not an error.
func (s *RentalService) GetUserRentals(ctx context.Context, renterAddress string) ([]*models.RentalWithListing, error) {
	rentals, err := s.store.GetUserRentals(ctx, renterAddress)
	if err != nil {
		return nil, models.NewDatabaseError("get_user_rentals", err)
	}

	now := time.Now().UTC()
	for _, rental := range rentals {
		rental.Status = rental.EffectiveStatus(now)
	}
	return rentals, nil
}

// mapRentalStoreError translates store sentinels into the typed errors the
// HTTP layer maps to status codes.
func mapRentalStoreError(err error, listingID, transactionHash string) error {
	switch {
	case errors.Is(err, models.ErrListingNotFound):
		return models.NewListingNotFoundError(listingID)
	case errors.Is(err, models.ErrCannotRentOwn):
		return models.NewCannotRentOwnError(listingID)
	case errors.Is(err, models.ErrMaxSharesReached):
		return models.NewMaxSharesReachedError(listingID)
	case errors.Is(err, models.ErrTransactionAlreadyUsed):
		return models.NewTransactionAlreadyUsedError(transactionHash)
	default:
		return models.NewDatabaseError("create_rental", err)
	}
}
