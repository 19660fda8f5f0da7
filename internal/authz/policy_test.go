package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeClientSource struct {
	clients map[string][]ClientRef
	calls   int
}

func (f *fakeClientSource) AuthorizedClients(ctx context.Context, username string) ([]ClientRef, error) {
	f.calls++
	return f.clients[username], nil
}

func TestIsAuthorized_Wildcard(t *testing.T) {
	policy := NewPolicy(&fakeClientSource{})

	ok, err := policy.IsAuthorized(context.Background(), "alice@test.com", Wildcard, true)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = policy.IsAuthorized(context.Background(), "alice@test.com", Wildcard, false)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestIsAuthorized_ByIDAndBillingNumber(t *testing.T) {
	source := &fakeClientSource{clients: map[string][]ClientRef{
		"alice@test.com": {{ID: "client-1", BillingNumber: "BN-100"}},
	}}
	policy := NewPolicy(source)

	ok, err := policy.IsAuthorized(context.Background(), "alice@test.com", "client-1", false)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = policy.IsAuthorized(context.Background(), "alice@test.com", "BN-100", false)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = policy.IsAuthorized(context.Background(), "alice@test.com", "client-2", false)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestIsAuthorized_UsernameCaseInsensitive(t *testing.T) {
	source := &fakeClientSource{clients: map[string][]ClientRef{
		"alice@test.com": {{ID: "client-1"}},
	}}
	policy := NewPolicy(source)

	ok, err := policy.IsAuthorized(context.Background(), "Alice@Test.COM", "client-1", false)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestIsAuthorized_EmptyUsername(t *testing.T) {
	policy := NewPolicy(&fakeClientSource{})

	ok, err := policy.IsAuthorized(context.Background(), "", "client-1", false)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestResolver_MemoizesLookups(t *testing.T) {
	source := &fakeClientSource{clients: map[string][]ClientRef{
		"alice@test.com": {{ID: "client-1"}},
	}}
	policy := NewPolicy(source)

	lookups := 0
	resolver := policy.NewResolver(func(ctx context.Context, entityID string) (string, error) {
		lookups++
		return "client-1", nil
	})

	for range 5 {
		clientID, err := resolver.ClientID(context.Background(), "file-1")
		assert.NoError(t, err)
		assert.Equal(t, "client-1", clientID)
	}
	assert.Equal(t, 1, lookups)

	ok, err := resolver.IsAuthorized(context.Background(), "alice@test.com", "file-1", false)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, lookups)
}

func TestNewPrincipal_LowercasesUsername(t *testing.T) {
	principal := NewPrincipal("Alice@Test.COM", true)
	assert.Equal(t, "alice@test.com", principal.Username)
	assert.True(t, principal.IsAdmin)
}
