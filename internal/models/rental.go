package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RentalStatus represents the lifecycle state of a rental
type RentalStatus string

const (
	RentalStatusActive    RentalStatus = "active"
	RentalStatusExpired   RentalStatus = "expired"
	RentalStatusCancelled RentalStatus = "cancelled"
)

// Rental represents a time-bounded grant of access to a shared membership.
// Price and duration are copied from the listing at creation time and never
// change afterwards.
type Rental struct {
	ID              uuid.UUID       `json:"id"`
	ListingID       uuid.UUID       `json:"sharedMembershipId"`
	RenterAddress   string          `json:"renterAddress"`
	PricePaid       decimal.Decimal `json:"pricePaid"`
	DurationDays    int             `json:"durationDays"`
	StartsAt        time.Time       `json:"startsAt"`
	ExpiresAt       time.Time       `json:"expiresAt"`
	Status          RentalStatus    `json:"status"`
	TransactionHash string          `json:"transactionHash,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// EffectiveStatus derives the status as of now. A persisted "active" rental
// whose expiry has passed reads as expired even before the sweeper has
// caught up.
func (r *Rental) EffectiveStatus(now time.Time) RentalStatus {
	if r.Status == RentalStatusActive && !now.Before(r.ExpiresAt) {
		return RentalStatusExpired
	}
	return r.Status
}

// RentalWithListing joins a rental with a live snapshot of its listing for
// display.
type RentalWithListing struct {
	Rental
	Listing *Listing `json:"sharedMembership"`
}

// RentalCreateParams is the input to the store's atomic booking operation.
// Verification must be the result of a successful on-chain check; its
// from/to/value fields are recorded in the usage ledger.
type RentalCreateParams struct {
	ListingID       uuid.UUID
	RenterAddress   string
	TransactionHash string
	Verification    *TransactionVerification
	UsedFor         string
}
