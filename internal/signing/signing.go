// Package signing issues and checks HMAC signed download links for stored
// files.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Query parameter names carried by a signed link.
const (
	ParamExpires   = "expires"
	ParamSignature = "sig"
)

// Signer generates and validates HMAC based signatures.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner creates a Signer.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret, now: time.Now}
}

// Sign returns the hex signature binding name to an expiry.
func (s *Signer) Sign(name string, expiresUnix int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s:%d", name, expiresUnix)
	return hex.EncodeToString(mac.Sum(nil))
}

// Validate reports whether signature matches name and expires and the expiry
// has not passed.
func (s *Signer) Validate(name, expires, signature string) bool {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return false
	}
	if s.now().Unix() > exp {
		return false
	}
	expected := s.Sign(name, exp)
	// constant-time comparison
	return hmac.Equal([]byte(expected), []byte(signature))
}

// URL returns base/name with an expiry ttl from now and its signature.
func (s *Signer) URL(base, name string, ttl time.Duration) string {
	exp := s.now().Add(ttl).Unix()
	q := url.Values{}
	q.Set(ParamExpires, strconv.FormatInt(exp, 10))
	q.Set(ParamSignature, s.Sign(name, exp))
	return base + url.PathEscape(name) + "?" + q.Encode()
}
