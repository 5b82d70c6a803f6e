package chain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monshare/monshare-backend/internal/models"
)

var (
	adminAddr  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	renterAddr = common.HexToAddress("0x2222222222222222222222222222222222222222")
	otherAddr  = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func monWei(mon string) *big.Int {
	return MONToWei(decimal.RequireFromString(mon))
}

func TestEvaluateTransferAcceptsExactPayment(t *testing.T) {
	result := evaluateTransfer(&models.TransactionVerification{}, renterAddr, &adminAddr,
		monWei("0.1"), 100, adminAddr.Hex(), decimal.RequireFromString("0.1"))

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Error)
	assert.Equal(t, "0x2222222222222222222222222222222222222222", result.From)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", result.To)
	assert.Equal(t, "0.1", result.Value)
	assert.Equal(t, uint64(100), result.BlockNumber)
}

func TestEvaluateTransferAcceptsOverpayment(t *testing.T) {
	result := evaluateTransfer(&models.TransactionVerification{}, renterAddr, &adminAddr,
		monWei("0.5"), 100, adminAddr.Hex(), decimal.RequireFromString("0.1"))

	assert.True(t, result.IsValid)
	assert.Equal(t, "0.5", result.Value)
}

func TestEvaluateTransferRejectsUnderpayment(t *testing.T) {
	result := evaluateTransfer(&models.TransactionVerification{}, renterAddr, &adminAddr,
		monWei("0.099"), 100, adminAddr.Hex(), decimal.RequireFromString("0.1"))

	assert.False(t, result.IsValid)
	assert.Equal(t, "Insufficient amount. Expected: 0.1 MON, Got: 0.099 MON", result.Error)
}

func TestEvaluateTransferRejectsWrongRecipient(t *testing.T) {
	result := evaluateTransfer(&models.TransactionVerification{}, renterAddr, &otherAddr,
		monWei("0.1"), 100, adminAddr.Hex(), decimal.RequireFromString("0.1"))

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Error, "Transaction sent to wrong address")
	assert.Contains(t, result.Error, adminAddr.Hex())
}

func TestEvaluateTransferRejectsContractCreation(t *testing.T) {
	// A contract-creation transaction has no recipient.
	result := evaluateTransfer(&models.TransactionVerification{}, renterAddr, nil,
		monWei("0.1"), 100, adminAddr.Hex(), decimal.RequireFromString("0.1"))

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Error, "Transaction sent to wrong address")
}

func TestEvaluateTransferRecipientComparisonIsCaseInsensitive(t *testing.T) {
	mixedCase := "0x1111111111111111111111111111111111111111"
	result := evaluateTransfer(&models.TransactionVerification{}, renterAddr, &adminAddr,
		monWei("0.1"), 100, mixedCase, decimal.RequireFromString("0.1"))

	assert.True(t, result.IsValid)
}

func TestMONToWei(t *testing.T) {
	tests := []struct {
		mon string
		wei string
	}{
		{"1", "1000000000000000000"},
		{"0.1", "100000000000000000"},
		{"0.000000000000000001", "1"},
		{"0", "0"},
	}

	for _, tt := range tests {
		wei := MONToWei(decimal.RequireFromString(tt.mon))
		assert.Equal(t, tt.wei, wei.String(), "MON %s", tt.mon)
	}
}

func TestWeiToMONRoundTrip(t *testing.T) {
	original := decimal.RequireFromString("12.345678901234567891")
	roundTripped := WeiToMON(MONToWei(original))
	require.True(t, original.Equal(roundTripped), "got %s", roundTripped)
}
