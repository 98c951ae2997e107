package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

// decodeJSON reads the body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		slog.Error(op+" decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

// actor writes 401 and returns false when the request has no authenticated actor.
func actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actorID, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
	}
	return actorID, ok
}

func urlInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		response.BadRequest(w, "Invalid "+name, map[string]any{name: chi.URLParam(r, name)})
		return 0, false
	}
	return n, true
}

// queryInt returns fallback for a missing or malformed parameter.
func queryInt(r *http.Request, name string, fallback int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func queryString(r *http.Request, name string) *string {
	if v := r.URL.Query().Get(name); v != "" {
		return &v
	}
	return nil
}

// monthParams reads {employeeID}, {year} and {month} from the route.
func monthParams(w http.ResponseWriter, r *http.Request) (employeeID string, year, month int, ok bool) {
	employeeID = chi.URLParam(r, "employeeID")
	if year, ok = urlInt(w, r, "year"); !ok {
		return
	}
	month, ok = urlInt(w, r, "month")
	return
}
