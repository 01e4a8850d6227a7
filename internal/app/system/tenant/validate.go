package tenant

import (
	"regexp"
	"sort"
	"strings"
)

// Subdomain length bounds (inclusive).
const (
	MinSubdomainLength = 3
	MaxSubdomainLength = 63
)

var (
	subdomainCharsRe = regexp.MustCompile(`^[a-z0-9-]+$`)

	// fqdnRe matches a fully-qualified domain name: one or more labels of
	// letters, digits and hyphens (1-63 chars, no leading/trailing hyphen)
	// followed by an alphabetic top-level label. Inputs are lowercased first.
	fqdnRe = regexp.MustCompile(`^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,63}$`)
)

// reservedSubdomains collide with platform infrastructure naming.
var reservedSubdomains = map[string]struct{}{
	"www":         {},
	"api":         {},
	"admin":       {},
	"app":         {},
	"mail":        {},
	"smtp":        {},
	"ftp":         {},
	"localhost":   {},
	"staging":     {},
	"dev":         {},
	"test":        {},
	"demo":        {},
	"support":     {},
	"help":        {},
	"blog":        {},
	"docs":        {},
	"status":      {},
	"superadmin":  {},
	"super-admin": {},
}

// Validation is the outcome of validating user input. Invalid input is an
// expected, user-correctable condition, so it is a value rather than an
// error; Error is the reason shown next to the form field.
type Validation struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func ok() Validation { return Validation{Valid: true} }

func invalid(msg string) Validation { return Validation{Error: msg} }

// IsReservedSubdomain reports whether s is reserved for the platform.
func IsReservedSubdomain(s string) bool {
	_, reserved := reservedSubdomains[s]
	return reserved
}

// ReservedSubdomains returns the reserved words in sorted order.
func ReservedSubdomains() []string {
	out := make([]string, 0, len(reservedSubdomains))
	for s := range reservedSubdomains {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ValidateSubdomain checks a subdomain candidate. Rules are applied in order
// and the first failure wins.
func ValidateSubdomain(candidate string) Validation {
	if candidate == "" {
		return invalid("Subdomain is required.")
	}
	if n := len(candidate); n < MinSubdomainLength || n > MaxSubdomainLength {
		return invalid("Subdomain must be between 3 and 63 characters.")
	}
	if !subdomainCharsRe.MatchString(candidate) {
		return invalid("Subdomain may contain only lowercase letters, numbers, and hyphens.")
	}
	if strings.HasPrefix(candidate, "-") || strings.HasSuffix(candidate, "-") {
		return invalid("Subdomain cannot start or end with a hyphen.")
	}
	if IsReservedSubdomain(candidate) {
		return invalid("This subdomain is reserved and cannot be used.")
	}
	return ok()
}

// Validator validates addressing input against the platform's base domain.
// It is the single validation path shared by onboarding/settings handlers
// and the CLI.
type Validator struct {
	baseDomain string
}

// NewValidator returns a Validator for cfg's base domain.
func NewValidator(cfg Config) Validator {
	return Validator{baseDomain: cfg.Normalize().BaseDomain}
}

// Subdomain validates a subdomain candidate.
func (v Validator) Subdomain(candidate string) Validation {
	return ValidateSubdomain(candidate)
}

// CustomDomain validates a custom domain candidate. Matching is
// case-insensitive. Domains under the platform's own base domain are
// rejected: they would bypass the subdomain rules and reserved words.
func (v Validator) CustomDomain(candidate string) Validation {
	if candidate == "" {
		return invalid("Domain is required.")
	}
	d := strings.ToLower(candidate)
	if len(d) > 253 || !fqdnRe.MatchString(d) {
		return invalid("Enter a valid domain name, such as community.example.org.")
	}
	if v.baseDomain != "" && (d == v.baseDomain || strings.HasSuffix(d, "."+v.baseDomain)) {
		return invalid("Custom domains cannot be under " + v.baseDomain + ". Use a subdomain instead.")
	}
	return ok()
}

// NormalizeDomain lowercases a domain and strips a trailing dot, the form in
// which custom domains are stored and looked up.
func NormalizeDomain(d string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(d)), ".")
}
