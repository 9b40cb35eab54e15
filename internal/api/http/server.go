package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	appDevice "github.com/mdm-gateway/mdm-gateway/internal/application/device"
	appDispatcher "github.com/mdm-gateway/mdm-gateway/internal/application/dispatcher"
	appEnrollment "github.com/mdm-gateway/mdm-gateway/internal/application/enrollment"
	appOperations "github.com/mdm-gateway/mdm-gateway/internal/application/operations"
	appPolicy "github.com/mdm-gateway/mdm-gateway/internal/application/policy"
	appUser "github.com/mdm-gateway/mdm-gateway/internal/application/user"
	domainUser "github.com/mdm-gateway/mdm-gateway/internal/domain/user"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	dispatcherSvc *appDispatcher.Service
	deviceSvc     *appDevice.Service
	operationsSvc *appOperations.Service
	policySvc     *appPolicy.Service
	enrollmentSvc *appEnrollment.Service
	userSvc       *appUser.Service
}

func NewServer(
	dispatcherSvc *appDispatcher.Service,
	deviceSvc *appDevice.Service,
	operationsSvc *appOperations.Service,
	policySvc *appPolicy.Service,
	enrollmentSvc *appEnrollment.Service,
	userSvc *appUser.Service,
) *Server {
	return &Server{
		dispatcherSvc: dispatcherSvc,
		deviceSvc:     deviceSvc,
		operationsSvc: operationsSvc,
		policySvc:     policySvc,
		enrollmentSvc: enrollmentSvc,
		userSvc:       userSvc,
	}
}

// Router builds the HTTP router. The protocol endpoint is unauthenticated at
// the HTTP layer; first-contact authentication happens inside the protocol
// via enrollment tokens. Management endpoints use basic auth.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/devicemgt", func(r chi.Router) {
		r.Post("/syncml", s.handleSyncML)
		r.Get("/license", s.getLicense)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.listDevices)
			r.Get("/{identifier}", s.getDevice)
			r.Get("/{identifier}/operations", s.listDeviceOperations)
			r.Get("/{identifier}/effective-policy", s.getEffectivePolicy)
			r.With(s.requireRole(string(domainUser.RoleAdmin))).
				Post("/{identifier}/operations", s.queueOperation)
			r.With(s.requireRole(string(domainUser.RoleAdmin))).
				Delete("/{identifier}", s.disenrollDevice)
		})

		r.Route("/policies", func(r chi.Router) {
			r.Get("/", s.listPolicies)
			r.Get("/{policyId}", s.getPolicy)
			r.With(s.requireRole(string(domainUser.RoleAdmin))).Post("/", s.createPolicy)
			r.With(s.requireRole(string(domainUser.RoleAdmin))).Put("/{policyId}", s.updatePolicy)
		})

		r.Get("/roles", s.listRoles)

		r.Route("/users", func(r chi.Router) {
			r.Use(s.requireRole(string(domainUser.RoleAdmin)))
			r.Post("/", s.createUser)
			r.Get("/", s.listUsers)
			r.Get("/{userId}", s.getUser)
			r.Patch("/{userId}", s.updateUser)
			r.Put("/{userId}/password", s.setUserPassword)
		})

		r.Post("/enrollment/tokens", s.issueEnrollmentToken)
	})

	return r
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, key))
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func queryInt(r *http.Request, key, def string) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		val = def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return n
}
