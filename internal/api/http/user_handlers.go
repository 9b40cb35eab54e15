package httpapi

import (
	"net/http"
	"strings"

	appUser "github.com/mdm-gateway/mdm-gateway/internal/application/user"
	domainUser "github.com/mdm-gateway/mdm-gateway/internal/domain/user"
)

type createUserRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	TenantDomain string `json:"tenantDomain"`
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	u, err := s.userSvc.CreateUser(r.Context(), appUser.CreateInput{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		Role:         domainUser.Role(strings.ToUpper(req.Role)),
		TenantDomain: req.TenantDomain,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, u)
}

type updateUserRequest struct {
	Email  *string `json:"email"`
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUUIDParam(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid userId")
		return
	}
	var req updateUserRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	input := appUser.UpdateInput{Email: req.Email}
	if req.Role != nil {
		role := domainUser.Role(strings.ToUpper(*req.Role))
		input.Role = &role
	}
	if req.Status != nil {
		status := domainUser.Status(strings.ToUpper(*req.Status))
		input.Status = &status
	}
	u, err := s.userSvc.UpdateUser(r.Context(), userID, input)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, u)
}

type setPasswordRequest struct {
	Password string `json:"password"`
}

func (s *Server) setUserPassword(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUUIDParam(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid userId")
		return
	}
	var req setPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if err := s.userSvc.SetPassword(r.Context(), userID, req.Password); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"user_id": userID, "status": "PASSWORD_SET"})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUUIDParam(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid userId")
		return
	}
	u, err := s.userSvc.GetUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if u == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", "50")
	offset := queryInt(r, "offset", "0")

	filter := domainUser.Filter{}
	if role := r.URL.Query().Get("role"); role != "" {
		v := domainUser.Role(strings.ToUpper(role))
		filter.Role = &v
	}
	if status := r.URL.Query().Get("status"); status != "" {
		v := domainUser.Status(strings.ToUpper(status))
		filter.Status = &v
	}
	if tenant := r.URL.Query().Get("tenant"); tenant != "" {
		filter.Tenant = &tenant
	}

	users, err := s.userSvc.ListUsers(r.Context(), filter, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if users == nil {
		users = []*domainUser.User{}
	}
	total, err := s.userSvc.Count(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"users": users, "total": total})
}

func (s *Server) listRoles(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"roles": domainUser.Roles()})
}
