package httpapi

import (
	"net/http"

	"github.com/MrEthical07/tenantauth"
	"github.com/MrEthical07/tenantauth/internal/stores"
	"github.com/MrEthical07/tenantauth/middleware"
)

type registerRequest struct {
	TenantName    string `json:"tenant_name" validate:"required,min=3,max=50"`
	AdminEmail    string `json:"admin_email" validate:"required,email"`
	AdminUsername string `json:"admin_username" validate:"required,min=3,max=50"`
	AdminPassword string `json:"admin_password" validate:"required,min=8"`
}

type registerResponse struct {
	Message     string `json:"message"`
	TenantID    string `json:"tenant_id"`
	AdminUserID string `json:"admin_user_id"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decode(w, r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}

	hash, err := s.engine.HashPassword(req.AdminPassword)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	tenant, admin, err := s.store.RegisterTenant(r.Context(), req.TenantName, stores.NewUser{
		Username:     req.AdminUsername,
		Email:        req.AdminEmail,
		FullName:     stores.AdminFullName,
		PasswordHash: hash,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info().
		Str("tenant_id", tenant.ID).
		Str("admin_user_id", admin.UserID).
		Msg("tenant registered")
	middleware.WriteJSON(w, http.StatusCreated, registerResponse{
		Message:     "Tenant registered successfully",
		TenantID:    tenant.ID,
		AdminUserID: admin.UserID,
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decode(w, r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}

	pair, err := s.engine.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, pair)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := s.decode(w, r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}

	pair, err := s.engine.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, pair)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	p, ok := tenantauth.PrincipalFromContext(r.Context())
	if !ok {
		s.writeError(w, r, tenantauth.ErrUnauthenticated)
		return
	}

	var req logoutRequest
	if err := s.decode(w, r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.engine.Logout(r.Context(), p, req.RefreshToken); err != nil {
		s.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}
