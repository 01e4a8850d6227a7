package tenant

import (
	"net"
	"strings"
)

// BareHost strips any :port suffix (IPv6 brackets included), lowercases the
// host, and drops a trailing dot.
func BareHost(host string) string {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	} else if strings.Count(host, ":") == 1 {
		// "example.com:" and similar malformed ports
		host = host[:strings.Index(host, ":")]
	}
	host = strings.TrimPrefix(strings.TrimSuffix(host, "]"), "[")
	return strings.TrimSuffix(strings.ToLower(host), ".")
}

// Parser extracts subdomain candidates from Host headers.
type Parser struct {
	cfg Config
}

// NewParser returns a Parser for cfg.
func NewParser(cfg Config) Parser {
	return Parser{cfg: cfg.Normalize()}
}

// Config returns the normalized configuration the parser was built with.
func (p Parser) Config() Config { return p.cfg }

// IsDevHost reports whether the bare host is a local development host.
func (p Parser) IsDevHost(bare string) bool {
	for _, h := range p.cfg.DevHosts {
		if bare == h {
			return true
		}
	}
	return false
}

// IsApex reports whether the bare host is the platform's own site
// (the base domain or www.{base}).
func (p Parser) IsApex(bare string) bool {
	return bare == p.cfg.BaseDomain || bare == "www."+p.cfg.BaseDomain
}

// ExtractSubdomain returns the subdomain candidate for host and true, or ""
// and false when the host has no tenant subdomain: local development hosts,
// the platform apex, www, and hosts outside the base domain (those are
// custom-domain candidates and resolve through the custom-domain path).
// The candidate is not validated here.
func (p Parser) ExtractSubdomain(host string) (string, bool) {
	bare := BareHost(host)
	if bare == "" || p.IsDevHost(bare) || p.IsApex(bare) {
		return "", false
	}
	suffix := "." + p.cfg.BaseDomain
	if p.cfg.BaseDomain == "" || !strings.HasSuffix(bare, suffix) {
		return "", false
	}
	sub := strings.TrimSuffix(bare, suffix)
	if sub == "" || sub == "www" {
		return "", false
	}
	return sub, true
}
