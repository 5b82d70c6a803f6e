package store

// Database schema definitions for the membership marketplace

const createPlatformVerificationsTable = `
CREATE TABLE IF NOT EXISTS platform_verifications (
    id UUID PRIMARY KEY,
    address VARCHAR(64) NOT NULL,
    platform VARCHAR(64) NOT NULL,
    is_connected BOOLEAN NOT NULL DEFAULT TRUE,
    verification_data JSONB,
    attestation JSONB,
    verified_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ,

    UNIQUE(address, platform)
);
`

const createPlatformStatusTable = `
CREATE TABLE IF NOT EXISTS platform_status (
    id UUID PRIMARY KEY,
    verification_id UUID NOT NULL REFERENCES platform_verifications(id) ON DELETE CASCADE,
    platform VARCHAR(64) NOT NULL,
    vip_status VARCHAR(128) NOT NULL,
    level VARCHAR(32),
    expiry_date TIMESTAMPTZ,
    raw_data JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const createListingsTable = `
CREATE TABLE IF NOT EXISTS listings (
    id UUID PRIMARY KEY,
    owner_address VARCHAR(64) NOT NULL,
    platform VARCHAR(64) NOT NULL,
    verification_id UUID NOT NULL REFERENCES platform_verifications(id),
    price_per_period DECIMAL(20,9) NOT NULL,
    duration_days INTEGER NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    times_shared INTEGER NOT NULL DEFAULT 0,
    max_shares INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (price_per_period >= 0),
    CHECK (duration_days >= 1),
    CHECK (max_shares >= 1),
    CHECK (times_shared >= 0)
);
`

// One active listing per (owner, platform). Withdrawn listings keep their
// history without blocking a re-share.
const createListingsActiveIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_listings_owner_platform_active
    ON listings(owner_address, platform) WHERE is_active;
`

const createRentalsTable = `
CREATE TABLE IF NOT EXISTS rentals (
    id UUID PRIMARY KEY,
    listing_id UUID NOT NULL REFERENCES listings(id),
    renter_address VARCHAR(64) NOT NULL,
    price_paid DECIMAL(20,9) NOT NULL,
    duration_days INTEGER NOT NULL,
    starts_at TIMESTAMPTZ NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,
    status VARCHAR(20) NOT NULL CHECK (status IN ('active', 'expired', 'cancelled')),
    transaction_hash VARCHAR(80),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (price_paid >= 0),
    CHECK (duration_days >= 1),
    CHECK (starts_at < expires_at)
);
`

// The primary key on transaction_hash is the authoritative replay guard:
// the second insert of a hash fails with a unique violation inside the
// booking transaction.
const createUsedTransactionsTable = `
CREATE TABLE IF NOT EXISTS used_transactions (
    transaction_hash VARCHAR(80) PRIMARY KEY,
    from_address VARCHAR(64) NOT NULL,
    to_address VARCHAR(64) NOT NULL,
    amount_wei NUMERIC(78,0) NOT NULL,
    block_number BIGINT NOT NULL,
    used_for VARCHAR(32) NOT NULL,
    rental_id UUID NOT NULL REFERENCES rentals(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (amount_wei >= 0)
);
`

const createIndexes = `
-- Platform verification indexes
CREATE INDEX IF NOT EXISTS idx_platform_verifications_address ON platform_verifications(address);
CREATE INDEX IF NOT EXISTS idx_platform_status_verification ON platform_status(verification_id, created_at);

-- Listing indexes
CREATE INDEX IF NOT EXISTS idx_listings_owner_address ON listings(owner_address);
CREATE INDEX IF NOT EXISTS idx_listings_platform_active ON listings(platform, is_active);
CREATE INDEX IF NOT EXISTS idx_listings_created_at ON listings(created_at);

-- Rental indexes
CREATE INDEX IF NOT EXISTS idx_rentals_listing_status ON rentals(listing_id, status);
CREATE INDEX IF NOT EXISTS idx_rentals_renter_address ON rentals(renter_address);
CREATE INDEX IF NOT EXISTS idx_rentals_status_expires ON rentals(status, expires_at);
CREATE INDEX IF NOT EXISTS idx_rentals_created_at ON rentals(created_at);

-- Used transaction indexes
CREATE INDEX IF NOT EXISTS idx_used_transactions_rental_id ON used_transactions(rental_id);
`
