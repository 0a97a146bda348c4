package tenancy

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type contextKey string

const scopeKey contextKey = "tenant_scope"

// Scope holds the tenant binding for a single unit of work (one inbound
// request or one background task). A Scope is owned exclusively by the unit
// of work that created it and must never be shared across concurrent units;
// the middleware creates a fresh Scope per request and clears it on exit.
type Scope struct {
	mu           sync.Mutex
	tenantID     uuid.UUID
	bound        bool
	unrestricted bool
}

// NewScope returns an empty scope with no tenant bound.
func NewScope() *Scope {
	return &Scope{}
}

// Set binds the acting tenant for this unit of work.
func (s *Scope) Set(tenantID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenantID = tenantID
	s.bound = true
	s.unrestricted = false
}

// SetUnrestricted marks this unit of work as running with no tenant
// restriction. This is the administrative bypass path; callers must be on
// the exempt list wired in cmd/main.go.
func (s *Scope) SetUnrestricted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenantID = uuid.Nil
	s.bound = false
	s.unrestricted = true
}

// Get returns the bound tenant ID. The second return is false when no
// tenant is bound, either because the scope is unrestricted or was cleared.
func (s *Scope) Get() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tenantID, s.bound
}

// Unrestricted reports whether this scope explicitly opted out of tenant
// restriction.
func (s *Scope) Unrestricted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unrestricted
}

// Clear removes any binding. Safe to call repeatedly; a cleared scope behaves
// like a freshly created one.
func (s *Scope) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenantID = uuid.Nil
	s.bound = false
	s.unrestricted = false
}

// WithScope attaches a scope to the context so that the pool's checkout hook
// can read it when a connection is acquired for this unit of work.
func WithScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, scopeKey, scope)
}

// ScopeFrom extracts the scope attached to the context, if any.
func ScopeFrom(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(scopeKey).(*Scope)
	return scope, ok
}

// WithTenant returns a context carrying a fresh scope bound to tenantID.
// Intended for background tasks; request paths go through the middleware.
func WithTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	scope := NewScope()
	scope.Set(tenantID)
	return WithScope(ctx, scope)
}

// WithUnrestricted returns a context carrying a fresh unrestricted scope.
func WithUnrestricted(ctx context.Context) context.Context {
	scope := NewScope()
	scope.SetUnrestricted()
	return WithScope(ctx, scope)
}

// TenantID returns the tenant bound to the context's scope, if one is bound.
func TenantID(ctx context.Context) (uuid.UUID, bool) {
	scope, ok := ScopeFrom(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return scope.Get()
}
