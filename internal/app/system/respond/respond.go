// Package respond writes JSON and redirect responses consistently across
// handlers and middleware.
package respond

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// errorBody is the JSON shape of every API error.
type errorBody struct {
	Error string `json:"error"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write json response failed", zap.Error(err))
	}
}

// Error writes {"error": msg} with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorBody{Error: msg})
}

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// WantsHTML is a light heuristic: htmx requests and requests that accept
// text/html are treated as browser navigation.
func WantsHTML(r *http.Request) bool {
	if IsHTMX(r) {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// Redirect sends the browser to dest. For htmx requests it sets HX-Redirect
// with the given status so the full page swaps.
func Redirect(w http.ResponseWriter, r *http.Request, dest string, htmxStatus int) {
	if IsHTMX(r) {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(htmxStatus)
		return
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// Fail answers a failed request: browsers are redirected to page, other
// clients get a JSON error with status.
func Fail(w http.ResponseWriter, r *http.Request, status int, page, msg string) {
	if WantsHTML(r) && page != "" {
		Redirect(w, r, page, status)
		return
	}
	Error(w, status, msg)
}
