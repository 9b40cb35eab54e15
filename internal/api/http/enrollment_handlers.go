package httpapi

import (
	"net/http"

	domainUser "github.com/mdm-gateway/mdm-gateway/internal/domain/user"
)

type issueTokenRequest struct {
	Username string `json:"username"`
}

// issueEnrollmentToken starts the enrollment web flow: the caller gets a
// short-lived token to hand to the device. A non-admin can only issue
// tokens for their own username.
func (s *Server) issueEnrollmentToken(w http.ResponseWriter, r *http.Request) {
	auth := authUserFromContext(r.Context())
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth")
		return
	}

	var req issueTokenRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if req.Username == "" {
		req.Username = auth.Username
	}
	if req.Username != auth.Username && auth.Role != domainUser.RoleAdmin {
		respondError(w, http.StatusForbidden, "FORBIDDEN", "cannot issue tokens for other users")
		return
	}

	token, err := s.enrollmentSvc.IssueToken(r.Context(), req.Username)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"token":      token.Value,
		"username":   token.Username,
		"expires_at": token.ExpiresAt,
	})
}
