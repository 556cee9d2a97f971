package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	// SignatureHeader carries the webhook signature as "ts=<unix>;h1=<hex>".
	SignatureHeader = "Payment-Signature"

	timestampKey = "ts"
	hashKey      = "h1"
)

var (
	// ErrMissingSignature is returned when the signature header is empty.
	ErrMissingSignature = errors.New("missing signature header")
	// ErrMalformedSignature is returned when the header cannot be parsed.
	ErrMalformedSignature = errors.New("malformed signature header")
	// ErrSignatureExpired is returned when the signed timestamp is outside the tolerance window.
	ErrSignatureExpired = errors.New("signature timestamp outside tolerance")
	// ErrSignatureMismatch is returned when no h1 value matches the computed HMAC.
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// SignatureVerifier checks HMAC-SHA256 webhook signatures computed over "<ts>:<body>".
type SignatureVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewSignatureVerifier creates a verifier. A nil clock means time.Now.
func NewSignatureVerifier(secret string, tolerance time.Duration, now func() time.Time) *SignatureVerifier {
	if now == nil {
		now = time.Now
	}
	return &SignatureVerifier{secret: []byte(secret), tolerance: tolerance, now: now}
}

// Verify authenticates body against the header value. Several h1 entries are allowed
// so that secrets can be rotated; any match passes.
func (v *SignatureVerifier) Verify(header string, body []byte) error {
	if strings.TrimSpace(header) == "" {
		return ErrMissingSignature
	}

	var ts string
	var hashes [][]byte
	for _, part := range strings.Split(header, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return ErrMalformedSignature
		}
		switch key {
		case timestampKey:
			ts = value
		case hashKey:
			decoded, err := hex.DecodeString(value)
			if err != nil {
				return ErrMalformedSignature
			}
			hashes = append(hashes, decoded)
		}
	}
	if ts == "" || len(hashes) == 0 {
		return ErrMalformedSignature
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrMalformedSignature
	}
	skew := v.now().Sub(time.Unix(unix, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > v.tolerance {
		return ErrSignatureExpired
	}

	expected := computeMAC(v.secret, ts, body)
	for _, h := range hashes {
		if hmac.Equal(h, expected) {
			return nil
		}
	}
	return ErrSignatureMismatch
}

// Sign produces a header value for body at the given time.
func Sign(secret string, at time.Time, body []byte) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return timestampKey + "=" + ts + ";" + hashKey + "=" + hex.EncodeToString(computeMAC([]byte(secret), ts, body))
}

func computeMAC(secret []byte, ts string, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(ts))
	mac.Write([]byte(":"))
	mac.Write(body)
	return mac.Sum(nil)
}
