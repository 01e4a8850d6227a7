package tenant

import (
	"encoding/base32"
	"errors"
	"strings"

	"github.com/gorilla/securecookie"
)

// tokenEntropyBytes is the random payload of a verification token
// (160 bits, 32 base32 characters).
const tokenEntropyBytes = 20

var tokenEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// ErrTokenEntropy is returned when the system random source fails.
var ErrTokenEntropy = errors.New("tenant: could not read random bytes for verification token")

// VerificationPrefix is the fixed, human-readable token prefix for platform.
func VerificationPrefix(platform string) string {
	if platform == "" {
		platform = DefaultPlatformName
	}
	return platform + "-verify-"
}

// GenerateVerificationToken returns a fresh token a tenant publishes as a DNS
// TXT record to prove control of a custom domain. The token is safe to make
// public; it is compared against the stored copy by the verification job.
func GenerateVerificationToken(platform string) (string, error) {
	key := securecookie.GenerateRandomKey(tokenEntropyBytes)
	if key == nil {
		return "", ErrTokenEntropy
	}
	return VerificationPrefix(platform) + strings.ToLower(tokenEncoding.EncodeToString(key)), nil
}

// IsVerificationToken reports whether s has the shape of a token produced by
// GenerateVerificationToken for platform.
func IsVerificationToken(platform, s string) bool {
	prefix := VerificationPrefix(platform)
	if !strings.HasPrefix(s, prefix) {
		return false
	}
	body := s[len(prefix):]
	if len(body) != tokenEncoding.EncodedLen(tokenEntropyBytes) {
		return false
	}
	_, err := tokenEncoding.DecodeString(strings.ToUpper(body))
	return err == nil
}

// VerificationRecordName is the DNS name under which a tenant publishes its
// verification TXT record.
func VerificationRecordName(platform, domain string) string {
	if platform == "" {
		platform = DefaultPlatformName
	}
	return "_" + platform + "-verify." + NormalizeDomain(domain)
}
