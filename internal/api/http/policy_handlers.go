package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	appPolicy "github.com/mdm-gateway/mdm-gateway/internal/application/policy"
	"github.com/mdm-gateway/mdm-gateway/internal/domain/policy"
)

type policyRequest struct {
	Name     string          `json:"name"`
	Priority int             `json:"priority"`
	Criteria string          `json:"criteria"`
	Payload  json.RawMessage `json:"payload"`
	Active   bool            `json:"active"`
}

func (s *Server) createPolicy(w http.ResponseWriter, r *http.Request) {
	var req policyRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	p := &policy.Policy{
		Name:     req.Name,
		Priority: req.Priority,
		Criteria: req.Criteria,
		Payload:  req.Payload,
		Active:   req.Active,
	}
	if err := s.policySvc.CreatePolicy(r.Context(), p); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) updatePolicy(w http.ResponseWriter, r *http.Request) {
	policyID, err := parseUUIDParam(r, "policyId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid policyId")
		return
	}
	var req policyRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	p := &policy.Policy{
		PolicyID: policyID,
		Name:     req.Name,
		Priority: req.Priority,
		Criteria: req.Criteria,
		Payload:  req.Payload,
		Active:   req.Active,
	}
	if err := s.policySvc.UpdatePolicy(r.Context(), p); err != nil {
		if errors.Is(err, appPolicy.ErrPolicyNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) getPolicy(w http.ResponseWriter, r *http.Request) {
	policyID, err := parseUUIDParam(r, "policyId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid policyId")
		return
	}
	p, err := s.policySvc.GetPolicy(r.Context(), policyID)
	if err != nil {
		if errors.Is(err, appPolicy.ErrPolicyNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) listPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := s.policySvc.ListActive(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if policies == nil {
		policies = []*policy.Policy{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"policies": policies})
}
