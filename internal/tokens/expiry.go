package tokens

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned when the payload segment cannot be decoded
var ErrMalformedToken = errors.New("malformed token")

var segmentDecoder = jwt.NewParser(jwt.WithPaddingAllowed())

// Expiry reads the exp claim from the token payload without verifying the signature.
// A nil time with a nil error means the token carries no expiry.
func Expiry(token string) (*time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	payload, err := segmentDecoder.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	claims := jwt.MapClaims{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if raw, ok := claims["exp"]; !ok || raw == nil {
		return nil, nil
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if exp == nil {
		return nil, nil
	}

	t := exp.Time
	return &t, nil
}

// IsExpired reports whether token must be refreshed at now.
// Undecodable tokens count as expired; tokens without exp never expire.
func IsExpired(token string, now time.Time) bool {
	exp, err := Expiry(token)
	if err != nil {
		return true
	}
	if exp == nil {
		return false
	}
	return now.Unix() > exp.Unix()
}
