package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/monshare/monshare-backend/internal/models"
)

// weiPerMON is the number of base units in one MON (same 18-decimal scheme
// as ether).
const weiPerMON = 18

// Client wraps an EVM JSON-RPC endpoint for payment verification against
// the Monad testnet.
type Client struct {
	eth     *ethclient.Client
	logger  *zap.Logger
	timeout time.Duration
}

// Config represents chain client configuration
type Config struct {
	RPCURL         string        `yaml:"rpc_url"`
	AdminAddress   string        `yaml:"admin_address"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// NewClient connects to the configured RPC endpoint and verifies the
// connection with a chain ID query.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	eth, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC endpoint: %w", err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := &Client{
		eth:     eth,
		logger:  logger,
		timeout: timeout,
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("failed to query chain ID: %w", err)
	}

	logger.Info("Chain client initialized successfully",
		zap.String("rpc_url", cfg.RPCURL),
		zap.String("chain_id", chainID.String()),
	)

	return client, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// VerifyTransaction checks that the transaction identified by txHash is a
// successful on-chain payment of at least expectedAmount MON to expectedTo.
// All failures, including network errors, are reported through the result
// value; this method never returns an error.
func (c *Client) VerifyTransaction(ctx context.Context, txHash, expectedTo string, expectedAmount decimal.Decimal) *models.TransactionVerification {
	result := &models.TransactionVerification{
		TransactionHash: txHash,
		Value:           "0",
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	hash := common.HexToHash(txHash)

	receipt, err := c.eth.TransactionReceipt(ctx, hash)
	if err != nil || receipt == nil || receipt.Status != types.ReceiptStatusSuccessful {
		if err != nil {
			c.logger.Debug("Transaction receipt lookup failed",
				zap.String("tx_hash", txHash),
				zap.Error(err),
			)
		}
		result.Error = "Transaction not found or failed"
		return result
	}

	tx, pending, err := c.eth.TransactionByHash(ctx, hash)
	if err != nil || tx == nil || pending {
		result.Error = "Transaction details not found"
		return result
	}

	from, err := c.eth.TransactionSender(ctx, tx, receipt.BlockHash, receipt.TransactionIndex)
	if err != nil {
		result.Error = fmt.Sprintf("Failed to determine transaction sender: %v", err)
		return result
	}

	return evaluateTransfer(result, from, tx.To(), tx.Value(), receipt.BlockNumber.Uint64(), expectedTo, expectedAmount)
}

// evaluateTransfer applies the recipient and amount checks to the fetched
// transaction fields. Split out from VerifyTransaction so the comparison
// rules are testable without an RPC endpoint.
func evaluateTransfer(result *models.TransactionVerification, from common.Address, to *common.Address, value *big.Int, blockNumber uint64, expectedTo string, expectedAmount decimal.Decimal) *models.TransactionVerification {
	result.From = strings.ToLower(from.Hex())
	if to != nil {
		result.To = strings.ToLower(to.Hex())
	}
	result.ValueWei = decimal.NewFromBigInt(value, 0)
	result.Value = WeiToMON(value).String()
	result.BlockNumber = blockNumber

	if to == nil || !strings.EqualFold(to.Hex(), expectedTo) {
		result.Error = fmt.Sprintf("Transaction sent to wrong address. Expected: %s, Got: %s", expectedTo, result.To)
		return result
	}

	// Overpayment is accepted; only a value strictly below the expected
	// amount fails.
	expectedWei := MONToWei(expectedAmount)
	if value.Cmp(expectedWei) < 0 {
		result.Error = fmt.Sprintf("Insufficient amount. Expected: %s MON, Got: %s MON", expectedAmount.String(), result.Value)
		return result
	}

	result.IsValid = true
	return result
}

// MONToWei converts a MON amount to its integral wei representation.
func MONToWei(amount decimal.Decimal) *big.Int {
	return amount.Shift(weiPerMON).Truncate(0).BigInt()
}

// WeiToMON converts a wei value to MON.
func WeiToMON(value *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(value, 0).Shift(-weiPerMON)
}
