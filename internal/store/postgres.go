package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/monshare/monshare-backend/internal/models"
)

// uniqueViolation is the Postgres SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

// PostgresStore implements marketplace data storage using PostgreSQL
type PostgresStore struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(db *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger,
	}
}

// Initialize creates the necessary database tables
func (s *PostgresStore) Initialize(ctx context.Context) error {
	queries := []string{
		createPlatformVerificationsTable,
		createPlatformStatusTable,
		createListingsTable,
		createListingsActiveIndex,
		createRentalsTable,
		createUsedTransactionsTable,
		createIndexes,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	s.logger.Info("Database tables initialized successfully")
	return nil
}

// Listing operations

// CreateListing inserts a new active listing. The partial unique index on
// (owner_address, platform) rejects a duplicate active share.
func (s *PostgresStore) CreateListing(ctx context.Context, params *models.ListingCreateParams) (*models.Listing, error) {
	listing := &models.Listing{
		ID:             uuid.New(),
		OwnerAddress:   params.OwnerAddress,
		Platform:       params.Platform,
		VerificationID: params.VerificationID,
		PricePerPeriod: params.PricePerPeriod,
		DurationDays:   params.DurationDays,
		IsActive:       true,
		TimesShared:    0,
		MaxShares:      params.MaxShares,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	query := `
		INSERT INTO listings (id, owner_address, platform, verification_id, price_per_period, duration_days, is_active, times_shared, max_shares, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.db.Exec(ctx, query,
		listing.ID, listing.OwnerAddress, listing.Platform, listing.VerificationID,
		listing.PricePerPeriod, listing.DurationDays, listing.IsActive,
		listing.TimesShared, listing.MaxShares, listing.CreatedAt, listing.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrAlreadySharing
		}
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	listing.PlatformData, err = s.getPlatformSnapshot(ctx, s.db, listing.VerificationID, listing.Platform)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Listing created",
		zap.String("listing_id", listing.ID.String()),
		zap.String("owner", listing.OwnerAddress),
		zap.String("platform", listing.Platform),
	)
	return listing, nil
}

// ListListings returns active listings, optionally filtered by platform and
// owner, newest first. Each listing carries the latest platform status
// snapshot of its verification.
func (s *PostgresStore) ListListings(ctx context.Context, platform, owner string) ([]*models.Listing, error) {
	query := `
		SELECT l.id, l.owner_address, l.platform, l.verification_id, l.price_per_period,
		       l.duration_days, l.is_active, l.times_shared, l.max_shares, l.created_at, l.updated_at,
		       ps.vip_status, ps.expiry_date
		FROM listings l
		LEFT JOIN LATERAL (
			SELECT vip_status, expiry_date
			FROM platform_status
			WHERE verification_id = l.verification_id
			ORDER BY created_at DESC
			LIMIT 1
		) ps ON TRUE
		WHERE l.is_active
		  AND ($1 = '' OR l.platform = $1)
		  AND ($2 = '' OR l.owner_address = $2)
		ORDER BY l.created_at DESC
	`

	rows, err := s.db.Query(ctx, query, platform, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	listings := make([]*models.Listing, 0)
	for rows.Next() {
		listing, err := scanListingWithSnapshot(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}

	return listings, rows.Err()
}

// UpdateListing updates the active flag of a listing owned by ownerAddress.
// An ownership mismatch is reported as not-found, same as a missing row.
func (s *PostgresStore) UpdateListing(ctx context.Context, listingID uuid.UUID, ownerAddress string, isActive *bool) (*models.Listing, error) {
	query := `
		UPDATE listings
		SET is_active = COALESCE($3, is_active), updated_at = $4
		WHERE id = $1 AND owner_address = $2
		RETURNING id, owner_address, platform, verification_id, price_per_period,
		          duration_days, is_active, times_shared, max_shares, created_at, updated_at
	`

	listing := &models.Listing{}
	err := s.db.QueryRow(ctx, query, listingID, ownerAddress, isActive, time.Now().UTC()).Scan(
		&listing.ID, &listing.OwnerAddress, &listing.Platform, &listing.VerificationID,
		&listing.PricePerPeriod, &listing.DurationDays, &listing.IsActive,
		&listing.TimesShared, &listing.MaxShares, &listing.CreatedAt, &listing.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	listing.PlatformData, err = s.getPlatformSnapshot(ctx, s.db, listing.VerificationID, listing.Platform)
	if err != nil {
		return nil, err
	}

	return listing, nil
}

// DeactivateListing withdraws a listing from the marketplace. The row is
// kept for rental history.
func (s *PostgresStore) DeactivateListing(ctx context.Context, listingID uuid.UUID, ownerAddress string) error {
	query := `
		UPDATE listings SET is_active = FALSE, updated_at = $3
		WHERE id = $1 AND owner_address = $2
	`

	result, err := s.db.Exec(ctx, query, listingID, ownerAddress, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to deactivate listing: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrListingNotFound
	}

	s.logger.Info("Listing deactivated",
		zap.String("listing_id", listingID.String()),
		zap.String("owner", ownerAddress),
	)
	return nil
}

// Rental operations

// IsTransactionUsed reports whether a transaction hash has already been
// consumed. This is the advisory fast-path check; the authoritative guard is
// the primary key enforced during CreateRental.
func (s *PostgresStore) IsTransactionUsed(ctx context.Context, txHash string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM used_transactions WHERE transaction_hash = $1)`

	if err := s.db.QueryRow(ctx, query, txHash).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check transaction usage: %w", err)
	}
	return exists, nil
}

// CreateRental books a listing inside a single database transaction: it
// locks the listing row, re-checks ownership and capacity, inserts the
// rental and the used-transaction record, and increments the listing's share
// counter. Either everything commits or nothing does.
func (s *PostgresStore) CreateRental(ctx context.Context, params *models.RentalCreateParams) (*models.Rental, *models.Listing, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the listing row so concurrent bookings of the same listing
	// serialize on the capacity check.
	listing := &models.Listing{}
	err = tx.QueryRow(ctx, `
		SELECT id, owner_address, platform, verification_id, price_per_period,
		       duration_days, is_active, times_shared, max_shares, created_at, updated_at
		FROM listings
		WHERE id = $1 AND is_active
		FOR UPDATE
	`, params.ListingID).Scan(
		&listing.ID, &listing.OwnerAddress, &listing.Platform, &listing.VerificationID,
		&listing.PricePerPeriod, &listing.DurationDays, &listing.IsActive,
		&listing.TimesShared, &listing.MaxShares, &listing.CreatedAt, &listing.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, models.ErrListingNotFound
		}
		return nil, nil, fmt.Errorf("failed to load listing: %w", err)
	}

	if equalAddress(listing.OwnerAddress, params.RenterAddress) {
		return nil, nil, models.ErrCannotRentOwn
	}

	var activeRentals int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM rentals
		WHERE listing_id = $1 AND status = 'active' AND expires_at > NOW()
	`, params.ListingID).Scan(&activeRentals)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count active rentals: %w", err)
	}
	if activeRentals >= listing.MaxShares {
		return nil, nil, models.ErrMaxSharesReached
	}

	now := time.Now().UTC()
	rental := &models.Rental{
		ID:              uuid.New(),
		ListingID:       listing.ID,
		RenterAddress:   params.RenterAddress,
		PricePaid:       listing.PricePerPeriod,
		DurationDays:    listing.DurationDays,
		StartsAt:        now,
		ExpiresAt:       now.Add(time.Duration(listing.DurationDays) * 24 * time.Hour),
		Status:          models.RentalStatusActive,
		TransactionHash: params.TransactionHash,
		CreatedAt:       now,
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO rentals (id, listing_id, renter_address, price_paid, duration_days, starts_at, expires_at, status, transaction_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		rental.ID, rental.ListingID, rental.RenterAddress, rental.PricePaid,
		rental.DurationDays, rental.StartsAt, rental.ExpiresAt, rental.Status,
		rental.TransactionHash, rental.CreatedAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create rental: %w", err)
	}

	// Consume the transaction hash. Under a replay race both requests reach
	// this insert; the primary key lets exactly one commit.
	used := &models.UsedTransaction{
		TransactionHash: params.TransactionHash,
		FromAddress:     params.Verification.From,
		ToAddress:       params.Verification.To,
		AmountWei:       params.Verification.ValueWei,
		BlockNumber:     params.Verification.BlockNumber,
		UsedFor:         params.UsedFor,
		RentalID:        rental.ID,
		CreatedAt:       now,
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO used_transactions (transaction_hash, from_address, to_address, amount_wei, block_number, used_for, rental_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		used.TransactionHash, used.FromAddress, used.ToAddress,
		used.AmountWei, used.BlockNumber, used.UsedFor,
		used.RentalID, used.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, models.ErrTransactionAlreadyUsed
		}
		return nil, nil, fmt.Errorf("failed to mark transaction used: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE listings SET times_shared = times_shared + 1, updated_at = $2 WHERE id = $1
	`, listing.ID, now)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update listing stats: %w", err)
	}
	listing.TimesShared++
	listing.UpdatedAt = now

	listing.PlatformData, err = s.getPlatformSnapshot(ctx, tx, listing.VerificationID, listing.Platform)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit rental: %w", err)
	}

	s.logger.Info("Rental created",
		zap.String("rental_id", rental.ID.String()),
		zap.String("listing_id", listing.ID.String()),
		zap.String("renter", rental.RenterAddress),
		zap.String("transaction_hash", rental.TransactionHash),
	)

	return rental, listing, nil
}

// GetUserRentals returns a renter's rentals, newest first, each joined with
// a live snapshot of its listing.
func (s *PostgresStore) GetUserRentals(ctx context.Context, renterAddress string) ([]*models.RentalWithListing, error) {
	query := `
		SELECT r.id, r.listing_id, r.renter_address, r.price_paid, r.duration_days,
		       r.starts_at, r.expires_at, r.status, r.transaction_hash, r.created_at,
		       l.id, l.owner_address, l.platform, l.verification_id, l.price_per_period,
		       l.duration_days, l.is_active, l.times_shared, l.max_shares, l.created_at, l.updated_at,
		       ps.vip_status, ps.expiry_date
		FROM rentals r
		JOIN listings l ON l.id = r.listing_id
		LEFT JOIN LATERAL (
			SELECT vip_status, expiry_date
			FROM platform_status
			WHERE verification_id = l.verification_id
			ORDER BY created_at DESC
			LIMIT 1
		) ps ON TRUE
		WHERE r.renter_address = $1
		ORDER BY r.created_at DESC
	`

	rows, err := s.db.Query(ctx, query, renterAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to get rentals: %w", err)
	}
	defer rows.Close()

	rentals := make([]*models.RentalWithListing, 0)
	for rows.Next() {
		item := &models.RentalWithListing{Listing: &models.Listing{}}
		var txHash sql.NullString
		var vipStatus sql.NullString
		var expiryDate sql.NullTime

		err := rows.Scan(
			&item.ID, &item.Rental.ListingID, &item.RenterAddress, &item.PricePaid, &item.Rental.DurationDays,
			&item.StartsAt, &item.ExpiresAt, &item.Status, &txHash, &item.Rental.CreatedAt,
			&item.Listing.ID, &item.Listing.OwnerAddress, &item.Listing.Platform, &item.Listing.VerificationID,
			&item.Listing.PricePerPeriod, &item.Listing.DurationDays, &item.Listing.IsActive,
			&item.Listing.TimesShared, &item.Listing.MaxShares, &item.Listing.CreatedAt, &item.Listing.UpdatedAt,
			&vipStatus, &expiryDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rental: %w", err)
		}

		if txHash.Valid {
			item.TransactionHash = txHash.String
		}
		item.Listing.PlatformData = snapshotFromRow(item.Listing.Platform, vipStatus, expiryDate)
		rentals = append(rentals, item)
	}

	return rentals, rows.Err()
}

// ExpireRentals marks time-expired active rentals as expired and returns
// the number of rows updated.
func (s *PostgresStore) ExpireRentals(ctx context.Context, before time.Time) (int64, error) {
	query := `UPDATE rentals SET status = 'expired' WHERE status = 'active' AND expires_at <= $1`

	result, err := s.db.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to expire rentals: %w", err)
	}
	return result.RowsAffected(), nil
}

// Platform verification operations

// SavePlatformVerification upserts a verification for (address, platform)
// and appends a platform status snapshot, atomically.
func (s *PostgresStore) SavePlatformVerification(ctx context.Context, address, platform string, attestation, verificationData json.RawMessage, summary models.VerificationSummary) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	var verificationID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO platform_verifications (id, address, platform, is_connected, verification_data, attestation, verified_at, expires_at)
		VALUES ($1, $2, $3, TRUE, $4, $5, $6, $7)
		ON CONFLICT (address, platform) DO UPDATE SET
			is_connected = TRUE,
			verification_data = EXCLUDED.verification_data,
			attestation = EXCLUDED.attestation,
			verified_at = EXCLUDED.verified_at,
			expires_at = EXCLUDED.expires_at
		RETURNING id
	`, uuid.New(), address, platform, verificationData, attestation, now, summary.ExpiryDate).Scan(&verificationID)
	if err != nil {
		return fmt.Errorf("failed to upsert verification: %w", err)
	}

	var level *string
	if summary.Level != "" {
		level = &summary.Level
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO platform_status (id, verification_id, platform, vip_status, level, expiry_date, raw_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.New(), verificationID, platform, summary.VIPStatus, level, summary.ExpiryDate, verificationData, now)
	if err != nil {
		return fmt.Errorf("failed to insert platform status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit verification: %w", err)
	}

	s.logger.Info("Platform verification saved",
		zap.String("address", address),
		zap.String("platform", platform),
		zap.String("vip_status", summary.VIPStatus),
	)
	return nil
}

// GetPlatformVerification returns the connected verification for (address,
// platform), or ErrVerificationNotFound.
func (s *PostgresStore) GetPlatformVerification(ctx context.Context, address, platform string) (*models.PlatformVerification, error) {
	verification := &models.PlatformVerification{}
	var expiresAt sql.NullTime

	query := `
		SELECT id, address, platform, is_connected, verification_data, attestation, verified_at, expires_at
		FROM platform_verifications
		WHERE address = $1 AND platform = $2 AND is_connected
	`

	err := s.db.QueryRow(ctx, query, address, platform).Scan(
		&verification.ID, &verification.Address, &verification.Platform, &verification.IsConnected,
		&verification.VerificationData, &verification.Attestation, &verification.VerifiedAt, &expiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrVerificationNotFound
		}
		return nil, fmt.Errorf("failed to get verification: %w", err)
	}

	if expiresAt.Valid {
		verification.ExpiresAt = &expiresAt.Time
	}
	return verification, nil
}

// GetUserPlatforms returns all platform verifications for an address with
// their latest status, for display. Unknown addresses yield an empty slice.
func (s *PostgresStore) GetUserPlatforms(ctx context.Context, address string) ([]*models.PlatformData, error) {
	query := `
		SELECT v.platform, v.is_connected, v.verification_data, v.attestation, v.verified_at,
		       ps.vip_status, ps.expiry_date
		FROM platform_verifications v
		LEFT JOIN LATERAL (
			SELECT vip_status, expiry_date
			FROM platform_status
			WHERE verification_id = v.id
			ORDER BY created_at DESC
			LIMIT 1
		) ps ON TRUE
		WHERE v.address = $1
		ORDER BY v.verified_at DESC
	`

	rows, err := s.db.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get user platforms: %w", err)
	}
	defer rows.Close()

	platforms := make([]*models.PlatformData, 0)
	for rows.Next() {
		var data, attestation json.RawMessage
		var verifiedAt time.Time
		var vipStatus sql.NullString
		var expiryDate sql.NullTime
		item := &models.PlatformData{}

		err := rows.Scan(&item.Platform, &item.IsConnected, &data, &attestation, &verifiedAt, &vipStatus, &expiryDate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan platform: %w", err)
		}

		item.Data = string(data)
		item.Attestation = attestation
		item.VerifiedAt = verifiedAt.Format(time.RFC3339)
		item.VIPStatus = "Unknown"
		if vipStatus.Valid {
			item.VIPStatus = vipStatus.String
		}
		item.ExpiryDate = "Unknown"
		if expiryDate.Valid {
			item.ExpiryDate = expiryDate.Time.Format("2006-01-02")
		}
		platforms = append(platforms, item)
	}

	return platforms, rows.Err()
}

// Helpers

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// getPlatformSnapshot loads the latest platform status for a verification.
// A missing status row is not an error; the snapshot falls back to Unknown.
func (s *PostgresStore) getPlatformSnapshot(ctx context.Context, q queryer, verificationID uuid.UUID, platform string) (*models.PlatformSnapshot, error) {
	var vipStatus sql.NullString
	var expiryDate sql.NullTime

	query := `
		SELECT vip_status, expiry_date
		FROM platform_status
		WHERE verification_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	err := q.QueryRow(ctx, query, verificationID).Scan(&vipStatus, &expiryDate)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get platform snapshot: %w", err)
	}

	return snapshotFromRow(platform, vipStatus, expiryDate), nil
}

func snapshotFromRow(platform string, vipStatus sql.NullString, expiryDate sql.NullTime) *models.PlatformSnapshot {
	snapshot := &models.PlatformSnapshot{
		Platform:   platform,
		VIPStatus:  "Unknown",
		ExpiryDate: "Unknown",
	}
	if vipStatus.Valid {
		snapshot.VIPStatus = vipStatus.String
	}
	if expiryDate.Valid {
		snapshot.ExpiryDate = expiryDate.Time.Format("2006-01-02")
	}
	return snapshot
}

func scanListingWithSnapshot(rows pgx.Rows) (*models.Listing, error) {
	listing := &models.Listing{}
	var vipStatus sql.NullString
	var expiryDate sql.NullTime

	err := rows.Scan(
		&listing.ID, &listing.OwnerAddress, &listing.Platform, &listing.VerificationID,
		&listing.PricePerPeriod, &listing.DurationDays, &listing.IsActive,
		&listing.TimesShared, &listing.MaxShares, &listing.CreatedAt, &listing.UpdatedAt,
		&vipStatus, &expiryDate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan listing: %w", err)
	}

	listing.PlatformData = snapshotFromRow(listing.Platform, vipStatus, expiryDate)
	return listing, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// equalAddress compares two wallet addresses case-insensitively. Hex
// addresses arrive in mixed checksum casing.
func equalAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
