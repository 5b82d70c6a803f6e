package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/monshare/monshare-backend/internal/models"
)

type stubRentalStore struct {
	usedHashes   map[string]bool
	usedErr      error
	createErr    error
	createCalled bool
	lastParams   *models.RentalCreateParams
	rentals      []*models.RentalWithListing
}

func (s *stubRentalStore) IsTransactionUsed(ctx context.Context, txHash string) (bool, error) {
	if s.usedErr != nil {
		return false, s.usedErr
	}
	return s.usedHashes[txHash], nil
}

func (s *stubRentalStore) CreateRental(ctx context.Context, params *models.RentalCreateParams) (*models.Rental, *models.Listing, error) {
	s.createCalled = true
	s.lastParams = params
	if s.createErr != nil {
		return nil, nil, s.createErr
	}
	now := time.Now().UTC()
	rental := &models.Rental{
		ID:              uuid.New(),
		ListingID:       params.ListingID,
		RenterAddress:   params.RenterAddress,
		PricePaid:       decimal.RequireFromString("0.1"),
		DurationDays:    1,
		StartsAt:        now,
		ExpiresAt:       now.Add(24 * time.Hour),
		Status:          models.RentalStatusActive,
		TransactionHash: params.TransactionHash,
		CreatedAt:       now,
	}
	listing := &models.Listing{
		ID:          params.ListingID,
		Platform:    models.PlatformBilibili,
		IsActive:    true,
		TimesShared: 1,
		MaxShares:   1,
	}
	return rental, listing, nil
}

func (s *stubRentalStore) GetUserRentals(ctx context.Context, renterAddress string) ([]*models.RentalWithListing, error) {
	return s.rentals, nil
}

func (s *stubRentalStore) ExpireRentals(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type stubVerifier struct {
	result *models.TransactionVerification
	called bool
}

func (v *stubVerifier) VerifyTransaction(ctx context.Context, txHash, expectedTo string, expectedAmount decimal.Decimal) *models.TransactionVerification {
	v.called = true
	return v.result
}

const (
	testAdminAddress  = "0x1111111111111111111111111111111111111111"
	testRenterAddress = "0x2222222222222222222222222222222222222222"
	testTxHash        = "0xabc123"
)

func validVerification() *models.TransactionVerification {
	return &models.TransactionVerification{
		IsValid:         true,
		TransactionHash: testTxHash,
		From:            testRenterAddress,
		To:              testAdminAddress,
		Value:           "0.1",
		BlockNumber:     42,
	}
}

func newTestRentalService(store *stubRentalStore, verifier *stubVerifier, adminAddress string) *RentalService {
	cfg := &Config{
		RentFee:             decimal.RequireFromString("0.1"),
		DefaultPriceMON:     decimal.RequireFromString("0.1"),
		DefaultDurationDays: 1,
		DefaultMaxShares:    1,
	}
	return NewRentalService(store, verifier, nil, adminAddress, cfg, zap.NewNop())
}

func TestCreateRentalRequiresTransactionHash(t *testing.T) {
	store := &stubRentalStore{usedHashes: map[string]bool{}}
	verifier := &stubVerifier{result: validVerification()}
	svc := newTestRentalService(store, verifier, testAdminAddress)

	_, _, err := svc.CreateRental(context.Background(), uuid.NewString(), testRenterAddress, "")
	require.Error(t, err)

	var marketErr *models.MarketError
	require.ErrorAs(t, err, &marketErr)
	assert.Equal(t, models.ErrCodeTransactionHashRequired, marketErr.Code)
	assert.False(t, verifier.called)
}

func TestCreateRentalRejectsUsedTransaction(t *testing.T) {
	store := &stubRentalStore{usedHashes: map[string]bool{testTxHash: true}}
	verifier := &stubVerifier{result: validVerification()}
	svc := newTestRentalService(store, verifier, testAdminAddress)

	_, _, err := svc.CreateRental(context.Background(), uuid.NewString(), testRenterAddress, testTxHash)

	var marketErr *models.MarketError
	require.ErrorAs(t, err, &marketErr)
	assert.Equal(t, models.ErrCodeTransactionAlreadyUsed, marketErr.Code)
	assert.Equal(t, "Transaction has already been used", marketErr.Message)
	// The ledger check comes before any chain call.
	assert.False(t, verifier.called)
}

func TestCreateRentalRequiresAdminAddress(t *testing.T) {
	store := &stubRentalStore{usedHashes: map[string]bool{}}
	verifier := &stubVerifier{result: validVerification()}
	svc := newTestRentalService(store, verifier, "")

	_, _, err := svc.CreateRental(context.Background(), uuid.NewString(), testRenterAddress, testTxHash)

	var marketErr *models.MarketError
	require.ErrorAs(t, err, &marketErr)
	assert.Equal(t, models.ErrCodeAdminNotConfigured, marketErr.Code)
	assert.False(t, verifier.called)
}

func TestCreateRentalVerificationFailure(t *testing.T) {
	store := &stubRentalStore{usedHashes: map[string]bool{}}
	verifier := &stubVerifier{result: &models.TransactionVerification{
		IsValid: false,
		Error:   "Transaction not found or failed",
	}}
	svc := newTestRentalService(store, verifier, testAdminAddress)

	_, _, err := svc.CreateRental(context.Background(), uuid.NewString(), testRenterAddress, testTxHash)

	var marketErr *models.MarketError
	require.ErrorAs(t, err, &marketErr)
	assert.Equal(t, models.ErrCodeVerificationFailed, marketErr.Code)
	assert.Equal(t, "Transaction verification failed: Transaction not found or failed", marketErr.Message)
	assert.False(t, store.createCalled)
}

func TestCreateRentalSenderMismatch(t *testing.T) {
	store := &stubRentalStore{usedHashes: map[string]bool{}}
	verification := validVerification()
	verification.From = "0x9999999999999999999999999999999999999999"
	verifier := &stubVerifier{result: verification}
	svc := newTestRentalService(store, verifier, testAdminAddress)

	_, _, err := svc.CreateRental(context.Background(), uuid.NewString(), testRenterAddress, testTxHash)

	var marketErr *models.MarketError
	require.ErrorAs(t, err, &marketErr)
	assert.Equal(t, models.ErrCodeSenderMismatch, marketErr.Code)
	assert.False(t, store.createCalled)
}

func TestCreateRentalSenderComparisonIsCaseInsensitive(t *testing.T) {
	store := &stubRentalStore{usedHashes: map[string]bool{}}
	verification := validVerification()
	verification.From = "0x2222222222222222222222222222222222222222"
	verifier := &stubVerifier{result: verification}
	svc := newTestRentalService(store, verifier, testAdminAddress)

	rental, listing, err := svc.CreateRental(context.Background(), uuid.NewString(), "0x2222222222222222222222222222222222222222", testTxHash)
	require.NoError(t, err)
	require.NotNil(t, rental)
	require.NotNil(t, listing)
}

func TestCreateRentalMalformedListingID(t *testing.T) {
	store := &stubRentalStore{usedHashes: map[string]bool{}}
	verifier := &stubVerifier{result: validVerification()}
	svc := newTestRentalService(store, verifier, testAdminAddress)

	_, _, err := svc.CreateRental(context.Background(), "not-a-uuid", testRenterAddress, testTxHash)

	var marketErr *models.MarketError
	require.ErrorAs(t, err, &marketErr)
	assert.Equal(t, models.ErrCodeListingNotFound, marketErr.Code)
	assert.False(t, store.createCalled)
}

func TestCreateRentalMapsStoreErrors(t *testing.T) {
	tests := []struct {
		name     string
		storeErr error
		wantCode string
	}{
		{"listing not found", models.ErrListingNotFound, models.ErrCodeListingNotFound},
		{"own listing", models.ErrCannotRentOwn, models.ErrCodeCannotRentOwn},
		{"at capacity", models.ErrMaxSharesReached, models.ErrCodeMaxSharesReached},
		{"hash raced", models.ErrTransactionAlreadyUsed, models.ErrCodeTransactionAlreadyUsed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubRentalStore{usedHashes: map[string]bool{}, createErr: tt.storeErr}
			verifier := &stubVerifier{result: validVerification()}
			svc := newTestRentalService(store, verifier, testAdminAddress)

			_, _, err := svc.CreateRental(context.Background(), uuid.NewString(), testRenterAddress, testTxHash)

			var marketErr *models.MarketError
			require.ErrorAs(t, err, &marketErr)
			assert.Equal(t, tt.wantCode, marketErr.Code)
		})
	}
}

func TestCreateRentalSuccess(t *testing.T) {
	store := &stubRentalStore{usedHashes: map[string]bool{}}
	verifier := &stubVerifier{result: validVerification()}
	svc := newTestRentalService(store, verifier, testAdminAddress)

	listingID := uuid.New()
	rental, listing, err := svc.CreateRental(context.Background(), listingID.String(), testRenterAddress, testTxHash)
	require.NoError(t, err)
	require.NotNil(t, rental)
	require.NotNil(t, listing)

	assert.Equal(t, listingID, rental.ListingID)
	assert.Equal(t, models.RentalStatusActive, rental.Status)
	require.NotNil(t, store.lastParams)
	assert.Equal(t, testTxHash, store.lastParams.TransactionHash)
	assert.Equal(t, "rental", store.lastParams.UsedFor)
	assert.Same(t, verifier.result, store.lastParams.Verification)
}

func TestGetUserRentalsComputesEffectiveStatus(t *testing.T) {
	now := time.Now().UTC()
	store := &stubRentalStore{rentals: []*models.RentalWithListing{
		{Rental: models.Rental{Status: models.RentalStatusActive, ExpiresAt: now.Add(time.Hour)}},
		{Rental: models.Rental{Status: models.RentalStatusActive, ExpiresAt: now.Add(-time.Hour)}},
		{Rental: models.Rental{Status: models.RentalStatusCancelled, ExpiresAt: now.Add(-time.Hour)}},
	}}
	svc := newTestRentalService(store, &stubVerifier{}, testAdminAddress)

	rentals, err := svc.GetUserRentals(context.Background(), testRenterAddress)
	require.NoError(t, err)
	require.Len(t, rentals, 3)

	assert.Equal(t, models.RentalStatusActive, rentals[0].Status)
	assert.Equal(t, models.RentalStatusExpired, rentals[1].Status)
	assert.Equal(t, models.RentalStatusCancelled, rentals[2].Status)
}

func TestGetUserRentalsEmptyForUnknownRenter(t *testing.T) {
	store := &stubRentalStore{rentals: []*models.RentalWithListing{}}
	svc := newTestRentalService(store, &stubVerifier{}, testAdminAddress)

	rentals, err := svc.GetUserRentals(context.Background(), "0xnobody")
	require.NoError(t, err)
	assert.Empty(t, rentals)
}
