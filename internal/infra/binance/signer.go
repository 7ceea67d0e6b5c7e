package binance

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signer produces Binance request signatures. Keys are held as []byte
// so they can be wiped from memory.
type Signer struct {
	apiKey    []byte
	secretKey []byte
}

// NewSigner creates a signer from string credentials.
func NewSigner(apiKey, secretKey string) *Signer {
	return &Signer{
		apiKey:    []byte(apiKey),
		secretKey: []byte(secretKey),
	}
}

// APIKey returns the key for the X-MBX-APIKEY header.
func (s *Signer) APIKey() string {
	return string(s.apiKey)
}

// Sign returns the lowercase hex HMAC-SHA256 of the encoded query
// string, as Binance expects in the signature parameter.
func (s *Signer) Sign(queryString string) string {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write([]byte(queryString))
	return hex.EncodeToString(mac.Sum(nil))
}

// Wipe clears the keys from memory.
func (s *Signer) Wipe() {
	if s == nil {
		return
	}
	wipe(s.apiKey)
	wipe(s.secretKey)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
