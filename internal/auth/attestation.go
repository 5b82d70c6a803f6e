package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// AttestationSigner signs attestation request parameters with the app
// secret shared with the zkTLS verification network.
type AttestationSigner struct {
	secret []byte
}

// NewAttestationSigner creates an attestation signer
func NewAttestationSigner(appSecret string) *AttestationSigner {
	return &AttestationSigner{secret: []byte(appSecret)}
}

// Sign returns the hex-encoded HMAC-SHA256 of the sign parameters.
func (s *AttestationSigner) Sign(signParams string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(signParams))
	return hex.EncodeToString(mac.Sum(nil))
}
