package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Config represents authentication configuration
type Config struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`

	// AppSecret signs attestation requests for the zkTLS network.
	AppSecret string `yaml:"app_secret"`
}

// Claims is the JWT payload: the authenticated wallet address.
type Claims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// Service issues and validates session tokens backed by wallet signatures.
type Service struct {
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
}

// NewService creates an auth service
func NewService(cfg *Config, logger *zap.Logger) *Service {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{
		secret: []byte(cfg.JWTSecret),
		ttl:    ttl,
		logger: logger,
	}
}

// VerifySignature checks an EIP-191 personal-sign signature over message
// and reports whether it was produced by address.
func (s *Service) VerifySignature(address, message, signature string) (bool, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return false, fmt.Errorf("malformed signature: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return false, errors.New("signature must be 65 bytes")
	}

	// Wallets return the recovery id as 27/28; SigToPub expects 0/1.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	hash := accounts.TextHash([]byte(message))
	pubKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return false, fmt.Errorf("failed to recover public key: %w", err)
	}

	recovered := crypto.PubkeyToAddress(*pubKey)
	return strings.EqualFold(recovered.Hex(), address), nil
}

// IssueToken creates a signed session token for a wallet address.
func (s *Service) IssueToken(address string) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		Address: address,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a session token and returns the wallet address it
// was issued for.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid || claims.Address == "" {
		return "", errors.New("invalid token")
	}
	return claims.Address, nil
}
