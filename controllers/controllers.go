package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"venuematch_server/auth"
	"venuematch_server/services"
	"venuematch_server/utils"
)

// HealthCheckHandler provides a basic health check
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// WelcomeHandler provides a welcome message
func WelcomeHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Welcome to the VenueMatch API."})
}

var statusByKind = map[string]int{
	"NotFound":              http.StatusNotFound,
	"Forbidden":             http.StatusForbidden,
	"Blocked":               http.StatusForbidden,
	"SelfInterest":          http.StatusBadRequest,
	"ValidationFailed":      http.StatusUnprocessableEntity,
	"NotCheckedIn":          http.StatusPreconditionFailed,
	"Expired":               http.StatusGone,
	"QuotaExceeded":         http.StatusTooManyRequests,
	"AlreadyRematched":      http.StatusConflict,
	"NotExpired":            http.StatusConflict,
	"Conflict":              http.StatusConflict,
	"DependencyUnavailable": http.StatusServiceUnavailable,
}

// StatusFor maps an engine error to its HTTP status.
func StatusFor(err error) int {
	if status, ok := statusByKind[services.KindOf(err)]; ok {
		return status
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// writeServiceError renders err as {"error", "kind"} plus any extra fields.
func writeServiceError(w http.ResponseWriter, err error, extra map[string]any) {
	status := StatusFor(err)
	kind := services.KindOf(err)
	body := map[string]any{"error": err.Error(), "kind": kind}
	if status >= http.StatusInternalServerError {
		log.Printf("❌ %s: %v", kind, err)
		body["error"] = http.StatusText(status)
	}
	if kind == "QuotaExceeded" {
		body["message"] = "limit reached"
	}
	for k, v := range extra {
		body[k] = v
	}
	utils.WriteJSONResponse(w, status, body)
}

// actor returns the authenticated user or writes 401.
func actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserFrom(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthenticated")
	}
	return userID, ok
}

func requestContext(r *http.Request, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(r.Context(), timeout)
}
