package stores

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/tenantauth"
	"github.com/google/uuid"
)

// AdminFullName is the display name given to the user created with a tenant.
const AdminFullName = "Admin User"

// Tenant is one registered organisation.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

// NewUser is the input to CreateUser. PasswordHash must already be hashed.
type NewUser struct {
	TenantID     string
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	Role         tenantauth.Role
}

// UserPatch lists the mutable profile fields; nil leaves a field unchanged.
type UserPatch struct {
	Email    *string
	FullName *string
}

// ListOptions selects one page of a tenant's users. Page is 1-based.
type ListOptions struct {
	Page       int
	PageSize   int
	ActiveOnly bool
}

// Page is one slice of a listing plus the total before slicing.
type Page struct {
	Users []tenantauth.CredentialRecord
	Total int
}

// Stats counts every tenant and user, active or not.
type Stats struct {
	Tenants int `json:"total_tenants"`
	Users   int `json:"total_users"`
}

// Memory is a mutex-guarded store. Listing order is creation order.
type Memory struct {
	mu          sync.RWMutex
	now         func() time.Time
	tenants     map[string]Tenant
	tenantOrder []string
	tenantNames map[string]string
	users       map[string]tenantauth.CredentialRecord
	userOrder   []string
	usernames   map[string]string
	emails      map[string]string
}

var _ tenantauth.UserStore = (*Memory)(nil)

// NewMemory returns an empty store. A nil now selects time.Now.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		now:         now,
		tenants:     make(map[string]Tenant),
		tenantNames: make(map[string]string),
		users:       make(map[string]tenantauth.CredentialRecord),
		usernames:   make(map[string]string),
		emails:      make(map[string]string),
	}
}

// RegisterTenant creates a tenant and its admin user in one step. Nothing is
// written when either conflicts.
func (m *Memory) RegisterTenant(_ context.Context, name string, admin NewUser) (Tenant, tenantauth.CredentialRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.tenantNames[strings.ToLower(name)]; taken {
		return Tenant{}, tenantauth.CredentialRecord{}, fmt.Errorf("%w: tenant %q", tenantauth.ErrConflict, name)
	}
	if err := m.checkUniqueLocked(admin.Username, admin.Email, ""); err != nil {
		return Tenant{}, tenantauth.CredentialRecord{}, err
	}

	now := m.now().UTC()
	tenant := Tenant{ID: uuid.NewString(), Name: name, CreatedAt: now, IsActive: true}
	m.tenants[tenant.ID] = tenant
	m.tenantOrder = append(m.tenantOrder, tenant.ID)
	m.tenantNames[strings.ToLower(name)] = tenant.ID

	admin.TenantID = tenant.ID
	admin.Role = tenantauth.RoleAdmin
	if admin.FullName == "" {
		admin.FullName = AdminFullName
	}
	return tenant, m.insertLocked(admin, now), nil
}

// CreateUser adds a user to an existing tenant.
func (m *Memory) CreateUser(_ context.Context, in NewUser) (tenantauth.CredentialRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tenants[in.TenantID]; !ok {
		return tenantauth.CredentialRecord{}, fmt.Errorf("%w: tenant %q", tenantauth.ErrNotFound, in.TenantID)
	}
	if err := m.checkUniqueLocked(in.Username, in.Email, ""); err != nil {
		return tenantauth.CredentialRecord{}, err
	}
	if in.Role == "" {
		in.Role = tenantauth.RoleUser
	}
	return m.insertLocked(in, m.now().UTC()), nil
}

func (m *Memory) checkUniqueLocked(username, email, self string) error {
	if id, taken := m.usernames[username]; taken && id != self {
		return fmt.Errorf("%w: username %q", tenantauth.ErrConflict, username)
	}
	if email == "" {
		return nil
	}
	if id, taken := m.emails[strings.ToLower(email)]; taken && id != self {
		return fmt.Errorf("%w: email %q", tenantauth.ErrConflict, email)
	}
	return nil
}

func (m *Memory) insertLocked(in NewUser, now time.Time) tenantauth.CredentialRecord {
	rec := tenantauth.CredentialRecord{
		UserID:       uuid.NewString(),
		TenantID:     in.TenantID,
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[rec.UserID] = rec
	m.userOrder = append(m.userOrder, rec.UserID)
	m.usernames[rec.Username] = rec.UserID
	if rec.Email != "" {
		m.emails[strings.ToLower(rec.Email)] = rec.UserID
	}
	return rec
}

// GetByUsername matches the username exactly. Inactive users are returned;
// the caller decides what inactivity means.
func (m *Memory) GetByUsername(_ context.Context, username string) (tenantauth.CredentialRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.usernames[username]
	if !ok {
		return tenantauth.CredentialRecord{}, tenantauth.ErrUserNotFound
	}
	return m.users[id], nil
}

func (m *Memory) GetByID(_ context.Context, userID string) (tenantauth.CredentialRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.users[userID]
	if !ok {
		return tenantauth.CredentialRecord{}, tenantauth.ErrUserNotFound
	}
	return rec, nil
}

// UpdateUser applies patch. A new email must not belong to another user.
func (m *Memory) UpdateUser(_ context.Context, userID string, patch UserPatch) (tenantauth.CredentialRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.users[userID]
	if !ok {
		return tenantauth.CredentialRecord{}, tenantauth.ErrUserNotFound
	}

	if patch.Email != nil && !strings.EqualFold(*patch.Email, rec.Email) {
		if err := m.checkUniqueLocked(rec.Username, *patch.Email, userID); err != nil {
			return tenantauth.CredentialRecord{}, err
		}
		delete(m.emails, strings.ToLower(rec.Email))
		m.emails[strings.ToLower(*patch.Email)] = userID
		rec.Email = *patch.Email
	}
	if patch.FullName != nil {
		rec.FullName = *patch.FullName
	}
	rec.UpdatedAt = m.now().UTC()
	m.users[userID] = rec
	return rec, nil
}

// Deactivate marks the user inactive. Deactivating twice succeeds.
func (m *Memory) Deactivate(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.users[userID]
	if !ok {
		return tenantauth.ErrUserNotFound
	}
	if rec.IsActive {
		rec.IsActive = false
		rec.UpdatedAt = m.now().UTC()
		m.users[userID] = rec
	}
	return nil
}

// ListUsers returns one page of tenantID's users. A page past the end is
// empty, not an error.
func (m *Memory) ListUsers(_ context.Context, tenantID string, opts ListOptions) (Page, error) {
	if opts.Page < 1 || opts.PageSize < 1 {
		return Page{}, fmt.Errorf("stores: invalid page %d size %d", opts.Page, opts.PageSize)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []tenantauth.CredentialRecord
	for _, id := range m.userOrder {
		rec := m.users[id]
		if rec.TenantID != tenantID || (opts.ActiveOnly && !rec.IsActive) {
			continue
		}
		matched = append(matched, rec)
	}

	page := Page{Total: len(matched), Users: []tenantauth.CredentialRecord{}}
	// Compare page numbers before multiplying so a huge page cannot overflow.
	if opts.Page > pageCount(len(matched), opts.PageSize) {
		return page, nil
	}
	start := (opts.Page - 1) * opts.PageSize
	end := start + min(opts.PageSize, len(matched)-start)
	page.Users = append(page.Users, matched[start:end]...)
	return page, nil
}

func pageCount(total, size int) int {
	n := total / size
	if total%size != 0 {
		n++
	}
	return n
}

// ListTenants returns every tenant in registration order.
func (m *Memory) ListTenants(context.Context) []Tenant {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Tenant, 0, len(m.tenantOrder))
	for _, id := range m.tenantOrder {
		out = append(out, m.tenants[id])
	}
	return out
}

func (m *Memory) Stats(context.Context) Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{Tenants: len(m.tenants), Users: len(m.users)}
}
