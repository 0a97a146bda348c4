package tenancy

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestScope_SetGet(t *testing.T) {
	scope := NewScope()

	_, ok := scope.Get()
	assert.False(t, ok, "fresh scope should have no tenant bound")

	tenantID := uuid.New()
	scope.Set(tenantID)

	got, ok := scope.Get()
	assert.True(t, ok)
	assert.Equal(t, tenantID, got)
	assert.False(t, scope.Unrestricted())
}

func TestScope_SetReplacesPrevious(t *testing.T) {
	scope := NewScope()
	first := uuid.New()
	second := uuid.New()

	scope.Set(first)
	scope.Set(second)

	got, ok := scope.Get()
	assert.True(t, ok)
	assert.Equal(t, second, got)
}

func TestScope_SetUnrestricted(t *testing.T) {
	scope := NewScope()
	scope.Set(uuid.New())
	scope.SetUnrestricted()

	_, ok := scope.Get()
	assert.False(t, ok, "unrestricted scope reports no bound tenant")
	assert.True(t, scope.Unrestricted())
}

func TestScope_ClearIsIdempotent(t *testing.T) {
	scope := NewScope()
	scope.Set(uuid.New())

	scope.Clear()
	scope.Clear()
	scope.Clear()

	_, ok := scope.Get()
	assert.False(t, ok)
	assert.False(t, scope.Unrestricted())
}

func TestScope_ClearResetsUnrestricted(t *testing.T) {
	scope := NewScope()
	scope.SetUnrestricted()
	scope.Clear()

	assert.False(t, scope.Unrestricted(), "cleared scope behaves like a fresh one")
}

func TestScope_ConcurrentAccess(t *testing.T) {
	scope := NewScope()
	tenantID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			scope.Set(tenantID)
		}()
		go func() {
			defer wg.Done()
			if got, ok := scope.Get(); ok {
				assert.Equal(t, tenantID, got)
			}
		}()
	}
	wg.Wait()
}

func TestWithScope_RoundTrip(t *testing.T) {
	scope := NewScope()
	ctx := WithScope(context.Background(), scope)

	got, ok := ScopeFrom(ctx)
	assert.True(t, ok)
	assert.Same(t, scope, got)
}

func TestScopeFrom_MissingScope(t *testing.T) {
	_, ok := ScopeFrom(context.Background())
	assert.False(t, ok)

	_, ok = TenantID(context.Background())
	assert.False(t, ok)
}

func TestWithTenant(t *testing.T) {
	tenantID := uuid.New()
	ctx := WithTenant(context.Background(), tenantID)

	got, ok := TenantID(ctx)
	assert.True(t, ok)
	assert.Equal(t, tenantID, got)
}

func TestWithUnrestricted(t *testing.T) {
	ctx := WithUnrestricted(context.Background())

	scope, ok := ScopeFrom(ctx)
	assert.True(t, ok)
	assert.True(t, scope.Unrestricted())

	_, bound := TenantID(ctx)
	assert.False(t, bound)
}

func TestWithTenant_IndependentScopes(t *testing.T) {
	tenantA := uuid.New()
	tenantB := uuid.New()

	ctxA := WithTenant(context.Background(), tenantA)
	ctxB := WithTenant(context.Background(), tenantB)

	gotA, _ := TenantID(ctxA)
	gotB, _ := TenantID(ctxB)
	assert.Equal(t, tenantA, gotA)
	assert.Equal(t, tenantB, gotB)
}
