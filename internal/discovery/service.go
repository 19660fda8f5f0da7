package discovery

import (
	"context"
	"discovery-tracker-api/internal/audit"
	"discovery-tracker-api/internal/authz"
	"discovery-tracker-api/internal/errors"
	"discovery-tracker-api/internal/store"
	"fmt"
	"time"
)

// Service owns the DiscoveryFile and DiscoveryRequest lifecycle. Requests
// carry no client_id of their own; every request operation resolves the
// owning client through the parent file before authorizing, with the
// resolution memoized per logical operation.
type Service interface {
	CreateFile(ctx context.Context, f *DiscoveryFile, principal authz.Principal) (*DiscoveryFile, error)
	GetFile(ctx context.Context, id string, principal authz.Principal) (*DiscoveryFile, error)
	GetFilesForClient(ctx context.Context, clientID string, principal authz.Principal) ([]FileSummary, error)
	UpdateFile(ctx context.Context, id string, update FileUpdate, expectedVersion string, principal authz.Principal) (string, error)
	DeleteFile(ctx context.Context, id string, principal authz.Principal) (int64, error)

	CreateRequest(ctx context.Context, r *DiscoveryRequest, principal authz.Principal) (*DiscoveryRequest, error)
	GetRequest(ctx context.Context, id string, principal authz.Principal) (*DiscoveryRequest, error)
	GetRequestsForFile(ctx context.Context, fileID string, principal authz.Principal) ([]DiscoveryRequest, error)
	UpdateRequest(ctx context.Context, id string, update RequestUpdate, expectedVersion string, principal authz.Principal) (string, error)
	DeleteRequest(ctx context.Context, id string, principal authz.Principal) error

	GetRequestServiceList(ctx context.Context, clientID string, principal authz.Principal) ([]ServiceListEntry, error)
}

type DefaultService struct {
	repository Repository
	policy     *authz.Policy
	auditor    *audit.Logger
}

func NewService(repository Repository, policy *authz.Policy, auditor *audit.Logger) Service {
	return &DefaultService{repository: repository, policy: policy, auditor: auditor}
}

func (s *DefaultService) authorize(ctx context.Context, principal authz.Principal, clientID string) error {
	if principal.Username == "" {
		return errors.MissingUsername()
	}
	if principal.IsAdmin {
		return nil
	}
	ok, err := s.policy.IsAuthorized(ctx, principal.Username, clientID, false)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Unauthorized(fmt.Sprintf("User %s is not authorized for client %s", principal.Username, clientID), nil)
	}
	return nil
}

// fileResolver builds a per-operation resolver mapping file ids to their
// owning client ids. Request batches for one file hit the store once.
func (s *DefaultService) fileResolver() *authz.Resolver {
	return s.policy.NewResolver(func(ctx context.Context, fileID string) (string, error) {
		f, err := s.repository.GetFile(ctx, fileID)
		if err != nil {
			return "", err
		}
		if f == nil {
			return "", errors.NotFound(fmt.Sprintf("Discovery file not found: %s", fileID), nil)
		}
		return f.ClientID, nil
	})
}

func (s *DefaultService) authorizeFile(ctx context.Context, principal authz.Principal, resolver *authz.Resolver, fileID string) error {
	if principal.Username == "" {
		return errors.MissingUsername()
	}
	if principal.IsAdmin {
		// Resolve anyway so a dangling file_id still surfaces NotFound.
		_, err := resolver.ClientID(ctx, fileID)
		return err
	}
	ok, err := resolver.IsAuthorized(ctx, principal.Username, fileID, false)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Unauthorized(fmt.Sprintf("User %s is not authorized for discovery file %s", principal.Username, fileID), nil)
	}
	return nil
}

func (s *DefaultService) CreateFile(ctx context.Context, f *DiscoveryFile, principal authz.Principal) (*DiscoveryFile, error) {
	if err := s.authorize(ctx, principal, f.ClientID); err != nil {
		return nil, err
	}

	f.ID = store.NewVersion()
	f.CreatedBy = principal.Username
	f.CreateDate = time.Now().UTC().Format("2006-01-02")
	f.Version = store.NewVersion()

	if err := s.repository.InsertFile(ctx, f); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Event{
		Description: "create_discovery_file", Collection: filesCollection, RecordID: f.ID,
		Username: principal.Username, AdminUser: principal.IsAdmin,
		Success: true, NewData: audit.Snapshot(f),
	})
	return f, nil
}

func (s *DefaultService) GetFile(ctx context.Context, id string, principal authz.Principal) (*DiscoveryFile, error) {
	f, err := s.repository.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, errors.NotFound(fmt.Sprintf("Discovery file not found: %s", id), nil)
	}
	if err := s.authorize(ctx, principal, f.ClientID); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *DefaultService) GetFilesForClient(ctx context.Context, clientID string, principal authz.Principal) ([]FileSummary, error) {
	if err := s.authorize(ctx, principal, clientID); err != nil {
		return nil, err
	}
	return s.repository.ListFileSummaries(ctx, clientID)
}

func (s *DefaultService) UpdateFile(ctx context.Context, id string, update FileUpdate, expectedVersion string, principal authz.Principal) (string, error) {
	f, err := s.GetFile(ctx, id, principal)
	if err != nil {
		return "", err
	}

	newVersion, err := s.repository.UpdateFile(ctx, id, expectedVersion, update)
	if err != nil {
		return "", err
	}

	s.auditor.Record(ctx, audit.Event{
		Description: "update_discovery_file", Collection: filesCollection, RecordID: id,
		Username: principal.Username, AdminUser: principal.IsAdmin,
		Success: true, OldData: audit.Snapshot(f), NewData: audit.Snapshot(update),
	})
	return newVersion, nil
}

// DeleteFile removes the file and cascades to every request referencing it.
// Returns the number of requests deleted with the file.
func (s *DefaultService) DeleteFile(ctx context.Context, id string, principal authz.Principal) (int64, error) {
	f, err := s.GetFile(ctx, id, principal)
	if err != nil {
		return 0, err
	}

	if err := s.repository.DeleteFile(ctx, id); err != nil {
		return 0, err
	}
	deleted, err := s.repository.DeleteRequestsByFile(ctx, id)
	if err != nil {
		return 0, err
	}

	s.auditor.Record(ctx, audit.Event{
		Description: "delete_discovery_file", Collection: filesCollection, RecordID: id,
		Username: principal.Username, AdminUser: principal.IsAdmin,
		Success: true, OldData: audit.Snapshot(f),
		Message: fmt.Sprintf("cascade deleted %d requests", deleted),
	})
	return deleted, nil
}

func (s *DefaultService) CreateRequest(ctx context.Context, r *DiscoveryRequest, principal authz.Principal) (*DiscoveryRequest, error) {
	resolver := s.fileResolver()
	if err := s.authorizeFile(ctx, principal, resolver, r.FileID); err != nil {
		return nil, err
	}

	r.ID = store.NewVersion()
	r.CreatedBy = principal.Username
	r.CreateDate = time.Now().UTC().Format("2006-01-02")
	r.Version = store.NewVersion()
	if r.Interpretations == nil {
		r.Interpretations = []string{}
	}
	if r.Privileges == nil {
		r.Privileges = []string{}
	}
	if r.Objections == nil {
		r.Objections = []string{}
	}
	if r.ResponsiveClassifications == nil {
		r.ResponsiveClassifications = []string{}
	}

	if err := s.repository.InsertRequest(ctx, r); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Event{
		Description: "create_discovery_request", Collection: requestsCollection, RecordID: r.ID,
		Username: principal.Username, AdminUser: principal.IsAdmin,
		Success: true, NewData: audit.Snapshot(r),
	})
	return r, nil
}

func (s *DefaultService) getRequest(ctx context.Context, id string, principal authz.Principal, resolver *authz.Resolver) (*DiscoveryRequest, error) {
	r, err := s.repository.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errors.NotFound(fmt.Sprintf("Discovery request not found: %s", id), nil)
	}
	if err := s.authorizeFile(ctx, principal, resolver, r.FileID); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *DefaultService) GetRequest(ctx context.Context, id string, principal authz.Principal) (*DiscoveryRequest, error) {
	return s.getRequest(ctx, id, principal, s.fileResolver())
}

func (s *DefaultService) GetRequestsForFile(ctx context.Context, fileID string, principal authz.Principal) ([]DiscoveryRequest, error) {
	if err := s.authorizeFile(ctx, principal, s.fileResolver(), fileID); err != nil {
		return nil, err
	}
	return s.repository.ListRequestsByFile(ctx, fileID)
}

func (s *DefaultService) UpdateRequest(ctx context.Context, id string, update RequestUpdate, expectedVersion string, principal authz.Principal) (string, error) {
	r, err := s.getRequest(ctx, id, principal, s.fileResolver())
	if err != nil {
		return "", err
	}

	newVersion, err := s.repository.UpdateRequest(ctx, id, expectedVersion, update, principal.Username)
	if err != nil {
		return "", err
	}

	s.auditor.Record(ctx, audit.Event{
		Description: "update_discovery_request", Collection: requestsCollection, RecordID: id,
		Username: principal.Username, AdminUser: principal.IsAdmin,
		Success: true, OldData: audit.Snapshot(r), NewData: audit.Snapshot(update),
	})
	return newVersion, nil
}

func (s *DefaultService) DeleteRequest(ctx context.Context, id string, principal authz.Principal) error {
	r, err := s.getRequest(ctx, id, principal, s.fileResolver())
	if err != nil {
		return err
	}

	if err := s.repository.DeleteRequest(ctx, id); err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.Event{
		Description: "delete_discovery_request", Collection: requestsCollection, RecordID: id,
		Username: principal.Username, AdminUser: principal.IsAdmin,
		Success: true, OldData: audit.Snapshot(r),
	})
	return nil
}

func (s *DefaultService) GetRequestServiceList(ctx context.Context, clientID string, principal authz.Principal) ([]ServiceListEntry, error) {
	if err := s.authorize(ctx, principal, clientID); err != nil {
		return nil, err
	}
	return s.repository.ServiceList(ctx, clientID)
}
