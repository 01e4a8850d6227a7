// Package auth reads the signed-in user from the shared session cookie.
//
// Sign-in itself happens in the account service, which writes the same
// cookie (same key, name, and ".{base_domain}" cookie domain) so the session
// is visible on every tenant subdomain. This package only loads, refreshes,
// and clears it.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/loomos/internal/app/system/respond"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session keys                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
	userName  = "user_name"
	loginID   = "login_id"
	userRole  = "user_role"
	userOrgID = "organization_id"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is what we cache in the session & inject into r.Context().
type SessionUser struct {
	ID             string
	Name           string
	LoginID        string
	Role           string
	OrganizationID string // home organization; empty for superadmins
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects a user into the request context, bypassing the
// session cookie. For tests.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session manager                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager owns the cookie store and session name.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager builds the cookie store. The `secure` flag controls
// whether cookies are marked Secure and which SameSite mode is used.
//
// In production (secure=true), cookies are Secure + SameSite=None.
// In local dev over http://localhost, use secure=false so cookies are accepted.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		return nil, fmt.Errorf("session name is empty")
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// LoadSessionUser injects the user into context if they are logged in.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.store.Get(r, m.name)
		if err != nil {
			// Tampered or stale cookie (e.g. rotated key): treat as signed out.
			m.log.Debug("session decode failed", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{
				ID:             getString(sess, userIDKey),
				Name:           getString(sess, userName),
				LoginID:        getString(sess, loginID),
				Role:           strings.ToLower(getString(sess, userRole)),
				OrganizationID: getString(sess, userOrgID),
			}
			if u.ID != "" {
				r = withUser(r, u)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// SignIn writes u into the session cookie.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userName] = u.Name
	sess.Values[loginID] = u.LoginID
	sess.Values[userRole] = strings.ToLower(u.Role)
	sess.Values[userOrgID] = u.OrganizationID
	return sess.Save(r, w)
}

// SignOut expires the session cookie.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// If not signed in:
//   - HTMX: sends HX-Redirect to /login?return=...
//   - HTML: 303 redirect to /login?return=...
//   - API:  401 Unauthorized with a JSON error body.
func (m *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		m.denyUnauthenticated(w, r)
	})
}

// RequireRole ensures there is a user with one of the allowed roles in context.
// If not authorized, browsers are redirected instead of receiving a blank error.
func (m *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)

			// 1) Not signed in → 401 semantics
			if !ok {
				m.denyUnauthenticated(w, r)
				return
			}

			// 2) Signed in but wrong role → 403 semantics
			if _, has := set[strings.ToLower(u.Role)]; !has {
				m.log.Info("role check failed",
					zap.String("user_id", u.ID),
					zap.String("role", u.Role),
					zap.String("path", r.URL.Path))
				respond.Fail(w, r, http.StatusForbidden, "/forbidden", "forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (m *SessionManager) denyUnauthenticated(w http.ResponseWriter, r *http.Request) {
	ret := url.QueryEscape(r.URL.RequestURI())
	respond.Fail(w, r, http.StatusUnauthorized, "/login?return="+ret, "unauthorized")
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
