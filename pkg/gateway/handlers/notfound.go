package handlers

import (
	"net/http"

	"github.com/prepwise/interviewd/pkg/engine/ai"
	"github.com/prepwise/interviewd/pkg/gateway/mw"
)

type NotFoundHandler struct{}

func (h NotFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	writeErrorJSON(w, reqID, &ai.Error{
		Type:    ai.ErrNotFound,
		Message: "not found",
	}, http.StatusNotFound)
}
