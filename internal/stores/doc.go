// Package stores holds the in-memory tenant and user records behind the HTTP
// service. [Memory] implements tenantauth.UserStore so the Engine reads the
// same records the handlers mutate.
//
// Usernames and emails are unique across all tenants because login is by
// username alone. Tenant names are unique case-insensitively. Deleting a user
// deactivates it; the record stays so its tokens fail the active check on
// refresh.
package stores
