package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/MrEthical07/tenantauth"
	"github.com/MrEthical07/tenantauth/internal/stores"
	"github.com/MrEthical07/tenantauth/middleware"
)

type createUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,min=1,max=100"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
	Password string `json:"password" validate:"required,min=8"`
}

// updateUserRequest fields are optional; a null or absent field is left
// unchanged.
type updateUserRequest struct {
	Email    *string `json:"email" validate:"omitnil,email"`
	FullName *string `json:"full_name" validate:"omitnil,min=1,max=100"`
}

type listQuery struct {
	Page       int  `json:"page" validate:"min=1"`
	PageSize   int  `json:"page_size" validate:"min=1"`
	ActiveOnly bool `json:"active_only"`
}

// UserPage is the paginated listing body.
type UserPage struct {
	Data       []tenantauth.UserView `json:"data"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalCount int                   `json:"total_count"`
	HasNext    bool                  `json:"has_next"`
	HasPrev    bool                  `json:"has_prev"`
}

func principal(r *http.Request) (tenantauth.Principal, error) {
	p, ok := tenantauth.PrincipalFromContext(r.Context())
	if !ok {
		return tenantauth.Principal{}, tenantauth.ErrUnauthenticated
	}
	return p, nil
}

// tenantUser loads the {id} user and hides it unless it shares the caller's
// tenant. Absent and foreign users produce the same 404.
func (s *Server) tenantUser(r *http.Request, p tenantauth.Principal) (tenantauth.CredentialRecord, error) {
	rec, err := s.store.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, tenantauth.ErrUserNotFound) {
		return tenantauth.CredentialRecord{}, tenantauth.ErrNotFound
	}
	if err != nil {
		return tenantauth.CredentialRecord{}, err
	}
	if err := s.engine.CheckTenant(r.Context(), p, rec.TenantID); err != nil {
		return tenantauth.CredentialRecord{}, err
	}
	return rec, nil
}

func (s *Server) parseListQuery(r *http.Request) (listQuery, error) {
	q := listQuery{Page: 1, PageSize: s.opts.DefaultPageSize, ActiveOnly: true}
	values := r.URL.Query()

	var fields []FieldError
	if v := values.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fields = append(fields, FieldError{Field: "page", Message: "must be an integer"})
		}
		q.Page = n
	}
	if v := values.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fields = append(fields, FieldError{Field: "page_size", Message: "must be an integer"})
		}
		q.PageSize = n
	}
	if v := values.Get("active_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fields = append(fields, FieldError{Field: "active_only", Message: "must be a boolean"})
		}
		q.ActiveOnly = b
	}
	if len(fields) > 0 {
		return q, unprocessable("Validation failed", fields...)
	}
	if err := validateStruct(&q); err != nil {
		return q, err
	}
	q.PageSize = min(q.PageSize, s.opts.MaxPageSize)
	return q, nil
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q, err := s.parseListQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	page, err := s.store.ListUsers(r.Context(), p.TenantID, stores.ListOptions{
		Page:       q.Page,
		PageSize:   q.PageSize,
		ActiveOnly: q.ActiveOnly,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	views := make([]tenantauth.UserView, 0, len(page.Users))
	for _, rec := range page.Users {
		views = append(views, rec.View())
	}
	middleware.WriteJSON(w, http.StatusOK, UserPage{
		Data:       views,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalCount: page.Total,
		HasNext:    hasNext(q.Page, q.PageSize, page.Total),
		HasPrev:    q.Page > 1,
	})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createUserRequest
	if err := s.decode(w, r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}

	hash, err := s.engine.HashPassword(req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.store.CreateUser(r.Context(), stores.NewUser{
		TenantID:     p.TenantID,
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
		Role:         req.Role,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, rec.View())
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.tenantUser(r, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, rec.View())
}

// updateUser serves PUT and PATCH. Admins may edit anyone in their tenant;
// users only themselves.
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.tenantUser(r, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rec.UserID != p.UserID {
		if err := s.engine.CheckRole(r.Context(), p, tenantauth.RoleAdmin); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	var req updateUserRequest
	if err := s.decode(w, r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.store.UpdateUser(r.Context(), rec.UserID, stores.UserPatch{
		Email:    req.Email,
		FullName: req.FullName,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, updated.View())
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.tenantUser(r, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Deactivate(r.Context(), rec.UserID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// hasNext reports whether a later page holds users without multiplying page
// by size.
func hasNext(page, size, total int) bool {
	return total > 0 && page-1 < (total-1)/size
}
