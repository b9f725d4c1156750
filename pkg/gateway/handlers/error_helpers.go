package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/prepwise/interviewd/pkg/engine/ai"
	"github.com/prepwise/interviewd/pkg/gateway/apierror"
)

func writeEngineError(w http.ResponseWriter, reqID string, err error) {
	ce, status := apierror.FromError(err, reqID)
	writeErrorJSON(w, reqID, ce, status)
}

func writeErrorJSON(w http.ResponseWriter, reqID string, aiErr *ai.Error, status int) {
	if aiErr != nil && aiErr.RequestID == "" {
		aiErr.RequestID = reqID
	}
	if aiErr != nil && aiErr.RetryAfter != nil && *aiErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(*aiErr.RetryAfter))
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apierror.Envelope{Error: aiErr})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
