package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	appDevice "github.com/mdm-gateway/mdm-gateway/internal/application/device"
	appEnrollment "github.com/mdm-gateway/mdm-gateway/internal/application/enrollment"
	appPolicy "github.com/mdm-gateway/mdm-gateway/internal/application/policy"
	"github.com/mdm-gateway/mdm-gateway/internal/domain/operation"
)

func (s *Server) listDevices(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", "50")
	offset := queryInt(r, "offset", "0")

	devices, err := s.deviceSvc.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	total, err := s.deviceSvc.Count(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"devices": devices,
		"total":   total,
	})
}

func (s *Server) getDevice(w http.ResponseWriter, r *http.Request) {
	d, err := s.deviceSvc.Get(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		if errors.Is(err, appDevice.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) listDeviceOperations(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	limit := queryInt(r, "limit", "50")
	offset := queryInt(r, "offset", "0")

	ops, err := s.operationsSvc.ListByDevice(r.Context(), identifier, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"operations": ops})
}

type queueOperationRequest struct {
	Type    string   `json:"type"`
	Code    string   `json:"code"`
	Items   []string `json:"items"`
	Payload string   `json:"payload,omitempty"`
}

func (s *Server) queueOperation(w http.ResponseWriter, r *http.Request) {
	var req queueOperationRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	op := &operation.Operation{
		DeviceIdentifier: chi.URLParam(r, "identifier"),
		Type:             operation.Type(req.Type),
		Code:             req.Code,
		Items:            req.Items,
		Payload:          req.Payload,
	}
	if err := s.operationsSvc.Queue(r.Context(), op); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, op)
}

func (s *Server) getEffectivePolicy(w http.ResponseWriter, r *http.Request) {
	p, err := s.policySvc.EffectivePolicy(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		if errors.Is(err, appPolicy.ErrDeviceNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if p == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "no policy applies")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) disenrollDevice(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	if err := s.enrollmentSvc.Disenroll(r.Context(), identifier); err != nil {
		if errors.Is(err, appEnrollment.ErrDeviceNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"identifier": identifier, "status": "REMOVED"})
}
