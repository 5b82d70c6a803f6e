package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionVerification is the result of checking a payment transaction
// on-chain. Verification failures are communicated through IsValid and
// Error, never as Go errors.
type TransactionVerification struct {
	IsValid         bool            `json:"isValid"`
	TransactionHash string          `json:"transactionHash"`
	From            string          `json:"from"`
	To              string          `json:"to"`
	Value           string          `json:"value"`
	ValueWei        decimal.Decimal `json:"-"`
	BlockNumber     uint64          `json:"blockNumber"`
	Error           string          `json:"error,omitempty"`
}

// UsedTransaction records a consumed payment transaction. At most one row
// may ever exist per transaction hash.
type UsedTransaction struct {
	TransactionHash string          `json:"transactionHash"`
	FromAddress     string          `json:"fromAddress"`
	ToAddress       string          `json:"toAddress"`
	AmountWei       decimal.Decimal `json:"amountWei"`
	BlockNumber     uint64          `json:"blockNumber"`
	UsedFor         string          `json:"usedFor"`
	RentalID        uuid.UUID       `json:"rentalId"`
	CreatedAt       time.Time       `json:"createdAt"`
}
