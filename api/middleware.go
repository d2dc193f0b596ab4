package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// loggingMiddleware logs every request with a generated request id
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if template, err := route.GetPathTemplate(); err == nil {
				path = template
			}
		}

		log.WithFields(log.Fields{
			"requestID": requestID,
			"method":    r.Method,
			"path":      path,
			"status":    recorder.status,
			"duration":  time.Since(start),
		}).Info("Request handled")
	})
}

// actorID extracts the acting user from the X-User-ID header; zero means anonymous
func actorID(r *http.Request) int64 {
	id, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// requireActor answers 401 when the request carries no user identity
func requireActor(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id := actorID(r)
	if id == 0 {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing user identity"})
		return 0, false
	}
	return id, true
}

// pathID parses a numeric path variable
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryTime parses an optional RFC 3339 query parameter, answering 400 on a
// malformed value
func queryTime(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid " + name + " timestamp"})
		return nil, false
	}
	return &parsed, true
}
