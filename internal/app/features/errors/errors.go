// internal/app/features/errors/errors.go
package errors

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/dalemusser/loomos/internal/app/system/auth"
	"github.com/dalemusser/loomos/internal/app/system/tenant"
	"go.uber.org/zap"
)

// pageData is the basic view model for error pages.
type pageData struct {
	Title        string
	SiteName     string
	IsLoggedIn   bool
	UserName     string
	Message      string
	BackURL      string
	LogoURL      string
	PrimaryColor template.CSS
}

// Handler is the errors feature handler.
// No store needed; it renders from the request context.
type Handler struct {
	PlatformName string
	Log          *zap.Logger
}

// NewHandler constructs an errors Handler.
func NewHandler(platformName string, logger *zap.Logger) *Handler {
	if platformName == "" {
		platformName = tenant.DefaultPlatformName
	}
	return &Handler{PlatformName: platformName, Log: logger}
}

// NotFound renders the page shown when no organization answers at a host.
// GET /not-found
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	data := h.base(r, "Community not found")
	data.Message = "We couldn't find a community at this address. Check the link or contact your association."
	h.render(w, http.StatusNotFound, data)
}

// Forbidden renders a friendly "access denied" page.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	data := h.base(r, "Access denied")
	data.Message = "You don't have permission to view this page."
	h.render(w, http.StatusForbidden, data)
}

// Unauthorized renders a friendly "sign in required" page.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	data := h.base(r, "Sign in required")
	data.Message = "Please sign in to continue."
	data.BackURL = "/login"
	h.render(w, http.StatusUnauthorized, data)
}

// Suspended renders the notice shown instead of tenant content when the
// organization is suspended or inactive.
// GET /suspended
func (h *Handler) Suspended(w http.ResponseWriter, r *http.Request) {
	data := h.base(r, "Community unavailable")
	data.Message = "This community is temporarily unavailable. Please contact your association's board."
	if res, ok := tenant.Current(r); ok {
		switch res.State() {
		case tenant.StateSuspended:
			data.Message = res.Organization.Name + " is currently suspended. Please contact your association's board."
		case tenant.StateInactive:
			data.Message = res.Organization.Name + " is no longer active on " + h.PlatformName + "."
		}
	}
	h.render(w, http.StatusForbidden, data)
}

// base fills the fields every page shares: the signed-in user and, when a
// tenant resolved, its branding.
func (h *Handler) base(r *http.Request, title string) pageData {
	data := pageData{
		Title:    title,
		SiteName: h.PlatformName,
		BackURL:  "/",
	}
	if u, ok := auth.CurrentUser(r); ok && u != nil {
		data.IsLoggedIn = true
		data.UserName = u.Name
	}
	if res, ok := tenant.Current(r); ok {
		data.SiteName = res.Organization.Name
		data.LogoURL = res.Organization.Branding.LogoURL
		// Colors are validated as #rrggbb before they are stored.
		data.PrimaryColor = template.CSS(res.Organization.Branding.PrimaryColor)
	}
	return data
}

func (h *Handler) render(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, "error_page", data); err != nil {
		h.Log.Error("render error page failed", zap.String("title", data.Title), zap.Error(err))
		http.Error(w, data.Message, status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
