package authz

import (
	"context"
	"strings"
)

// Wildcard is the client reference meaning "all clients the caller can see".
// Call sites must opt in; delete/update paths never allow it.
const Wildcard = "*"

// ClientRef identifies an authorized client by both keys a caller may supply.
type ClientRef struct {
	ID            string `bson:"id" json:"id"`
	BillingNumber string `bson:"billing_number" json:"billing_number"`
}

// ClientSource yields the full authorized-client set (owned plus shared) for a
// user. Fetched fresh per call so revocations take effect immediately.
type ClientSource interface {
	AuthorizedClients(ctx context.Context, username string) ([]ClientRef, error)
}

// Policy decides whether a principal may act on a client. The clientRef may be
// a client id or a billing number, whichever the caller holds.
type Policy struct {
	clients ClientSource
}

func NewPolicy(clients ClientSource) *Policy {
	return &Policy{clients: clients}
}

func (p *Policy) IsAuthorized(ctx context.Context, username, clientRef string, allowWildcard bool) (bool, error) {
	if clientRef == Wildcard {
		return allowWildcard, nil
	}
	if username == "" {
		return false, nil
	}

	authClients, err := p.clients.AuthorizedClients(ctx, strings.ToLower(username))
	if err != nil {
		return false, err
	}

	for _, client := range authClients {
		if client.ID == clientRef || (client.BillingNumber != "" && client.BillingNumber == clientRef) {
			return true, nil
		}
	}
	return false, nil
}

// AuthorizedClients exposes the underlying client set for callers that need
// to fan out over every client the user can see.
func (p *Policy) AuthorizedClients(ctx context.Context, username string) ([]ClientRef, error) {
	return p.clients.AuthorizedClients(ctx, strings.ToLower(username))
}

// Lookup resolves an entity id to its owning client id.
type Lookup func(ctx context.Context, entityID string) (string, error)

// Resolver authorizes entities that reference their client indirectly (a
// discovery request through its parent file). The entity-id to client-id memo
// is scoped to a single logical operation: construct one resolver per call,
// use it for the batch, discard it. It is never shared across callers.
type Resolver struct {
	policy *Policy
	lookup Lookup
	memo   map[string]string
}

func (p *Policy) NewResolver(lookup Lookup) *Resolver {
	return &Resolver{
		policy: p,
		lookup: lookup,
		memo:   make(map[string]string),
	}
}

// ClientID resolves and memoizes the owning client id for an entity
func (r *Resolver) ClientID(ctx context.Context, entityID string) (string, error) {
	if clientID, ok := r.memo[entityID]; ok {
		return clientID, nil
	}
	clientID, err := r.lookup(ctx, entityID)
	if err != nil {
		return "", err
	}
	r.memo[entityID] = clientID
	return clientID, nil
}

// IsAuthorized resolves the entity's owning client, then applies the policy
func (r *Resolver) IsAuthorized(ctx context.Context, username, entityID string, allowWildcard bool) (bool, error) {
	clientID, err := r.ClientID(ctx, entityID)
	if err != nil {
		return false, err
	}
	return r.policy.IsAuthorized(ctx, username, clientID, allowWildcard)
}
