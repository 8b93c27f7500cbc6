package httpapi

import (
	"net/http"

	"github.com/MrEthical07/tenantauth/internal/stores"
	"github.com/MrEthical07/tenantauth/middleware"
)

type tenantList struct {
	Tenants []stores.Tenant `json:"tenants"`
	Total   int             `json:"total"`
}

// listTenants and stats are system-wide, not tenant scoped.
func (s *Server) listTenants(w http.ResponseWriter, r *http.Request) {
	tenants := s.store.ListTenants(r.Context())
	middleware.WriteJSON(w, http.StatusOK, tenantList{Tenants: tenants, Total: len(tenants)})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, s.store.Stats(r.Context()))
}
