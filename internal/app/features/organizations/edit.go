// internal/app/features/organizations/edit.go
package organizations

import (
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/loomos/internal/app/system/respond"
	"github.com/dalemusser/loomos/internal/app/system/tenant"
	"github.com/dalemusser/loomos/internal/domain/models"
	"go.uber.org/zap"
)

const maxNameLength = 200

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// HandleSubdomain assigns or changes the organization's platform subdomain.
// The previous subdomain stops resolving as soon as the write succeeds.
// PUT /api/organizations/{id}/subdomain
func (h *Handler) HandleSubdomain(w http.ResponseWriter, r *http.Request) {
	org, sess, ok := h.load(w, r)
	if !ok {
		return
	}
	var in subdomainInput
	if !decode(w, r, &in) {
		return
	}

	sub := strings.TrimSpace(in.Subdomain)
	if v := h.Validator.Subdomain(sub); !v.Valid {
		respond.JSON(w, http.StatusBadRequest, fieldError{Field: "subdomain", Error: v.Error})
		return
	}
	if sub == org.SubdomainValue() {
		respond.JSON(w, http.StatusOK, h.toView(org))
		return
	}

	org.Subdomain = models.StringPtr(sub)
	h.save(w, r, sess, org, "subdomain")
}

// HandleCustomDomain sets the organization's custom domain and issues a
// fresh verification token the tenant must publish as a TXT record.
// Setting the domain it already has is a no-op and keeps the token.
// PUT /api/organizations/{id}/custom-domain
func (h *Handler) HandleCustomDomain(w http.ResponseWriter, r *http.Request) {
	org, sess, ok := h.load(w, r)
	if !ok {
		return
	}
	var in customDomainInput
	if !decode(w, r, &in) {
		return
	}

	raw := strings.TrimSpace(in.Domain)
	if v := h.Validator.CustomDomain(strings.TrimSuffix(raw, ".")); !v.Valid {
		respond.JSON(w, http.StatusBadRequest, fieldError{Field: "domain", Error: v.Error})
		return
	}
	domain := tenant.NormalizeDomain(raw)
	if domain == org.CustomDomainValue() && org.DomainVerification != nil {
		respond.JSON(w, http.StatusOK, h.toView(org))
		return
	}

	token, err := tenant.GenerateVerificationToken(h.Tenant.PlatformName)
	if err != nil {
		h.Log.Error("verification token generation failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	org.CustomDomain = models.StringPtr(domain)
	org.DomainVerification = &models.DomainVerification{
		Token:       token,
		RequestedAt: time.Now().UTC(),
	}
	h.save(w, r, sess, org, "custom_domain")
}

// HandleClearCustomDomain removes the custom domain and its verification.
// DELETE /api/organizations/{id}/custom-domain
func (h *Handler) HandleClearCustomDomain(w http.ResponseWriter, r *http.Request) {
	org, sess, ok := h.load(w, r)
	if !ok {
		return
	}
	if !org.HasCustomDomain() && org.DomainVerification == nil {
		respond.JSON(w, http.StatusOK, h.toView(org))
		return
	}
	org.CustomDomain = nil
	org.DomainVerification = nil
	h.save(w, r, sess, org, "clear_custom_domain")
}

// HandleBranding updates the display name and visual identity.
// PUT /api/organizations/{id}/branding
func (h *Handler) HandleBranding(w http.ResponseWriter, r *http.Request) {
	org, sess, ok := h.load(w, r)
	if !ok {
		return
	}
	var in brandingInput
	if !decode(w, r, &in) {
		return
	}

	if in.Name != nil {
		// StrictPolicy escapes what it keeps; names are stored as plain text.
		name := strings.TrimSpace(html.UnescapeString(h.policy.Sanitize(*in.Name)))
		switch {
		case name == "":
			respond.JSON(w, http.StatusBadRequest, fieldError{Field: "name", Error: "Organization name is required."})
			return
		case len(name) > maxNameLength:
			respond.JSON(w, http.StatusBadRequest, fieldError{Field: "name", Error: "Organization name must be 200 characters or fewer."})
			return
		}
		org.Name = name
	}
	if in.LogoURL != nil {
		logo := strings.TrimSpace(*in.LogoURL)
		if logo != "" && !validLogoURL(logo) {
			respond.JSON(w, http.StatusBadRequest, fieldError{Field: "logo_url", Error: "Logo must be an https URL."})
			return
		}
		org.Branding.LogoURL = logo
	}
	for _, c := range []struct {
		field string
		in    *string
		dst   *string
	}{
		{"primary_color", in.PrimaryColor, &org.Branding.PrimaryColor},
		{"secondary_color", in.SecondaryColor, &org.Branding.SecondaryColor},
	} {
		if c.in == nil {
			continue
		}
		color := strings.TrimSpace(*c.in)
		if color != "" && !hexColorRe.MatchString(color) {
			respond.JSON(w, http.StatusBadRequest, fieldError{Field: c.field, Error: "Colors must be hex values like #1a2b3c."})
			return
		}
		*c.dst = strings.ToLower(color)
	}

	h.save(w, r, sess, org, "branding")
}

func validLogoURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme == "https" && u.Host != ""
}
