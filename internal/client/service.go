package client

import (
	"context"
	"discovery-tracker-api/internal/authz"
	"discovery-tracker-api/internal/errors"
	"discovery-tracker-api/internal/store"
	"fmt"
	"strings"
	"time"
)

// Service owns the Client lifecycle, the authorized_users set and
// billing-number uniqueness within a creator's scope.
type Service interface {
	Create(ctx context.Context, c *Client, username string) (*Client, error)
	Get(ctx context.Context, id, username string) (*Client, error)
	GetByBillingNumber(ctx context.Context, billingNumber, username string) (*Client, error)
	GetAll(ctx context.Context, username string) ([]Client, error)
	Update(ctx context.Context, id string, update Update, expectedVersion, username string) (string, error)
	Delete(ctx context.Context, id, username string) error
	AddAuthorizedUser(ctx context.Context, clientID, requester, target string) (bool, error)
	RemoveAuthorizedUser(ctx context.Context, clientID, requester, target string) (bool, error)
	AuthorizedClients(ctx context.Context, username string) ([]authz.ClientRef, error)
}

type DefaultService struct {
	repository Repository
	failSilent bool
}

// NewService creates a new client service. failSilent downgrades duplicate
// billing-number creates to a no-op success for batch importers; it never
// masks Unauthorized or VersionConflict.
func NewService(repository Repository, failSilent bool) Service {
	return &DefaultService{repository: repository, failSilent: failSilent}
}

func (s *DefaultService) Create(ctx context.Context, c *Client, username string) (*Client, error) {
	if username == "" {
		return nil, errors.MissingUsername()
	}
	username = strings.ToLower(username)

	existing, err := s.repository.GetByBillingNumber(ctx, c.BillingNumber, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if s.failSilent {
			return existing, nil
		}
		return nil, errors.DuplicateKey(fmt.Sprintf("Client already exists (billing number %s)", c.BillingNumber), nil)
	}

	if c.ID == "" {
		c.ID = store.NewVersion()
	}
	c.CreatedBy = username
	c.Enabled = true
	c.CreatedDate = time.Now().UTC()
	c.Version = store.NewVersion()

	// The creator is always a persisted member of the authorized set.
	if !c.HasAuthorizedUser(username) {
		c.AuthorizedUsers = append(c.AuthorizedUsers, username)
	}
	for i, u := range c.AuthorizedUsers {
		c.AuthorizedUsers[i] = strings.ToLower(u)
	}

	if err := s.repository.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *DefaultService) Get(ctx context.Context, id, username string) (*Client, error) {
	c, err := s.repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.NotFound(fmt.Sprintf("Client not found: %s", id), nil)
	}
	if !c.HasAuthorizedUser(username) {
		return nil, errors.Unauthorized(fmt.Sprintf("User %s is not authorized for client %s", username, id), nil)
	}
	return c, nil
}

func (s *DefaultService) GetByBillingNumber(ctx context.Context, billingNumber, username string) (*Client, error) {
	c, err := s.repository.GetByBillingNumber(ctx, billingNumber, strings.ToLower(username))
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.NotFound(fmt.Sprintf("Client not found: %s", billingNumber), nil)
	}
	return c, nil
}

// GetAll is the wildcard listing: it returns every client the user can see
// and an empty collection, not an error, when there are none.
func (s *DefaultService) GetAll(ctx context.Context, username string) ([]Client, error) {
	if username == "" {
		return nil, errors.MissingUsername()
	}
	return s.repository.ListForUser(ctx, strings.ToLower(username))
}

// Update is creator-only and version-matched.
func (s *DefaultService) Update(ctx context.Context, id string, update Update, expectedVersion, username string) (string, error) {
	c, err := s.repository.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if c == nil {
		return "", errors.NotFound(fmt.Sprintf("Client not found: %s", id), nil)
	}
	if c.CreatedBy != strings.ToLower(username) {
		return "", errors.Unauthorized(fmt.Sprintf("Only the creator may update client %s", id), nil)
	}
	return s.repository.UpdateFields(ctx, id, expectedVersion, update)
}

// Delete disables the client. Clients are never physically removed.
func (s *DefaultService) Delete(ctx context.Context, id, username string) error {
	c, err := s.repository.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return errors.NotFound(fmt.Sprintf("Client not found: %s", id), nil)
	}
	if c.CreatedBy != strings.ToLower(username) {
		return errors.Unauthorized(fmt.Sprintf("Only the creator may delete client %s", id), nil)
	}
	return s.repository.SoftDelete(ctx, id)
}

// AddAuthorizedUser shares the client with target. Two phases: mutate the
// membership set, then bump the version only if membership actually changed,
// so an idempotent re-add cannot manufacture a spurious version bump. The
// phases are not atomic; a crash between them leaves the version stale until
// the next mutation, which is accepted and documented behavior.
func (s *DefaultService) AddAuthorizedUser(ctx context.Context, clientID, requester, target string) (bool, error) {
	c, err := s.requireCreator(ctx, clientID, requester)
	if err != nil {
		return false, err
	}

	changed, err := s.repository.AddAuthorizedUser(ctx, c.ID, strings.ToLower(target))
	if err != nil {
		return false, err
	}
	if changed {
		if _, err := s.repository.BumpVersion(ctx, c.ID); err != nil {
			return false, err
		}
	}
	return changed, nil
}

// RemoveAuthorizedUser revokes target's membership. Removing the creator is
// rejected: created_by must always remain a member.
func (s *DefaultService) RemoveAuthorizedUser(ctx context.Context, clientID, requester, target string) (bool, error) {
	c, err := s.requireCreator(ctx, clientID, requester)
	if err != nil {
		return false, err
	}

	target = strings.ToLower(target)
	if target == c.CreatedBy {
		return false, errors.BadRequest(fmt.Sprintf("Cannot remove creator %s from client %s", target, clientID), nil)
	}

	changed, err := s.repository.RemoveAuthorizedUser(ctx, c.ID, target)
	if err != nil {
		return false, err
	}
	if changed {
		if _, err := s.repository.BumpVersion(ctx, c.ID); err != nil {
			return false, err
		}
	}
	return changed, nil
}

// AuthorizedClients implements authz.ClientSource for the dependent
// registries: both owned and shared clients, by id and billing number.
func (s *DefaultService) AuthorizedClients(ctx context.Context, username string) ([]authz.ClientRef, error) {
	clients, err := s.repository.ListForUser(ctx, strings.ToLower(username))
	if err != nil {
		return nil, err
	}
	refs := make([]authz.ClientRef, 0, len(clients))
	for _, c := range clients {
		refs = append(refs, authz.ClientRef{ID: c.ID, BillingNumber: c.BillingNumber})
	}
	return refs, nil
}

func (s *DefaultService) requireCreator(ctx context.Context, clientID, requester string) (*Client, error) {
	c, err := s.repository.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.NotFound(fmt.Sprintf("Client not found: %s", clientID), nil)
	}
	if c.CreatedBy != strings.ToLower(requester) {
		return nil, errors.Unauthorized(fmt.Sprintf("Only the creator may manage authorized users for client %s", clientID), nil)
	}
	return c, nil
}
