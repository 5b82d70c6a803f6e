package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Listing represents a shared membership offered on the marketplace.
// The JSON field names follow the public API, which talks about
// "shared memberships".
type Listing struct {
	ID             uuid.UUID         `json:"id"`
	OwnerAddress   string            `json:"ownerId"`
	Platform       string            `json:"platform"`
	PricePerPeriod decimal.Decimal   `json:"priceMon"`
	DurationDays   int               `json:"durationDays"`
	IsActive       bool              `json:"isActive"`
	TimesShared    int               `json:"timesShared"`
	MaxShares      int               `json:"maxShares"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
	PlatformData   *PlatformSnapshot `json:"platformData,omitempty"`

	// VerificationID ties the listing to the owner's platform verification.
	// Internal only, never serialized.
	VerificationID uuid.UUID `json:"-"`
}

// PlatformSnapshot is the read-only verification status copied into listing
// and rental views.
type PlatformSnapshot struct {
	Platform   string `json:"platform"`
	VIPStatus  string `json:"vipStatus"`
	ExpiryDate string `json:"expiryDate"`
}

// ListingCreateParams carries the fields needed to insert a new listing.
type ListingCreateParams struct {
	OwnerAddress   string
	Platform       string
	VerificationID uuid.UUID
	PricePerPeriod decimal.Decimal
	DurationDays   int
	MaxShares      int
}
