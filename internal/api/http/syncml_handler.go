package httpapi

import (
	"io"
	"net/http"
)

// maxMessageSize caps inbound protocol documents.
const maxMessageSize = 1 << 20

// handleSyncML is the device-facing protocol endpoint. Every outcome is a
// status code chosen by the dispatcher; only accepted exchanges carry a
// reply body.
func (s *Server) handleSyncML(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	res := s.dispatcherSvc.Dispatch(r.Context(), raw)
	if res.Code != http.StatusOK {
		w.WriteHeader(res.Code)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Body)
}

// getLicense serves the enrollment agreement shown during the web flow.
func (s *Server) getLicense(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.deviceSvc.License(r.Context()))
}
