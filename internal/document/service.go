package document

import (
	"context"
	"discovery-tracker-api/internal/audit"
	"discovery-tracker-api/internal/authz"
	"discovery-tracker-api/internal/errors"
	"discovery-tracker-api/internal/store"
	"fmt"
	"log"
	"strings"
	"time"
)

// TrackerLinks is the narrow view of the tracker registry the cascading
// delete needs.
type TrackerLinks interface {
	LinkedTrackerIDs(ctx context.Context, documentID string) ([]string, error)
	DeleteDocumentFromAllTrackers(ctx context.Context, documentID string) (int, error)
}

// ClassificationQueue accepts documents whose extracted text is ready for
// classification.
type ClassificationQueue interface {
	Enqueue(ctx context.Context, documentID string) error
}

// Service owns the Document and ExtendedProperties lifecycle.
type Service interface {
	Create(ctx context.Context, d *Document, principal authz.Principal) (*Document, error)
	Get(ctx context.Context, id string, principal authz.Principal) (*Document, error)
	GetByPath(ctx context.Context, path string, principal authz.Principal) (*Document, error)
	Update(ctx context.Context, id string, update Update, expectedVersion string, principal authz.Principal) (string, error)
	Delete(ctx context.Context, id string, cascade bool, principal authz.Principal) error

	GetProperties(ctx context.Context, documentID string, principal authz.Principal) (*ExtendedProperties, error)
	UpsertProperties(ctx context.Context, documentID string, update PropsUpdate, principal authz.Principal) error

	// Exists backs link-target validation in the tracker registry.
	Exists(ctx context.Context, id string) (bool, error)
}

type DefaultService struct {
	repository Repository
	trackers   TrackerLinks
	classifier ClassificationQueue
	auditor    *audit.Logger
	failSilent bool
}

func NewService(repository Repository, trackers TrackerLinks, classifier ClassificationQueue, auditor *audit.Logger, failSilent bool) Service {
	return &DefaultService{
		repository: repository,
		trackers:   trackers,
		classifier: classifier,
		auditor:    auditor,
		failSilent: failSilent,
	}
}

// Create registers a document once per unique path. A duplicate id or path
// returns the existing record in fail-silent mode, DuplicateKey otherwise.
func (s *DefaultService) Create(ctx context.Context, d *Document, principal authz.Principal) (*Document, error) {
	if principal.Username == "" {
		return nil, errors.MissingUsername()
	}
	if d.Path == "" {
		return nil, errors.BadRequest("Must specify path", nil)
	}

	existing, err := s.repository.GetByPath(ctx, d.Path)
	if err != nil {
		return nil, err
	}
	if existing == nil && d.ID != "" {
		existing, err = s.repository.GetByID(ctx, d.ID)
		if err != nil {
			return nil, err
		}
	}
	if existing != nil {
		if s.failSilent {
			return existing, nil
		}
		return nil, errors.DuplicateKey(fmt.Sprintf("Document already exists: %s", d.Path), nil)
	}

	if d.ID == "" {
		d.ID = store.NewVersion()
	}
	now := time.Now().UTC()
	d.AddedUsername = principal.Username
	d.AddedDate = now
	d.UpdatedUsername = principal.Username
	d.UpdatedDate = now
	d.Version = store.NewVersion()

	if err := s.repository.Insert(ctx, d); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Event{
		Description: "create_document", Collection: collection, RecordID: d.ID,
		Username: principal.Username, AdminUser: principal.IsAdmin,
		Success: true, NewData: audit.Snapshot(d),
	})
	return d, nil
}

func (s *DefaultService) Get(ctx context.Context, id string, principal authz.Principal) (*Document, error) {
	if principal.Username == "" {
		return nil, errors.MissingUsername()
	}
	d, err := s.repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, errors.NotFound(fmt.Sprintf("Document not found: %s", id), nil)
	}
	return d, nil
}

func (s *DefaultService) GetByPath(ctx context.Context, path string, principal authz.Principal) (*Document, error) {
	if principal.Username == "" {
		return nil, errors.MissingUsername()
	}
	d, err := s.repository.GetByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, errors.NotFound(fmt.Sprintf("Document not found: %s", path), nil)
	}
	return d, nil
}

// Update is version-matched and restricted to the allow-list fields carried
// by Update. Ownership and path cannot change after creation.
func (s *DefaultService) Update(ctx context.Context, id string, update Update, expectedVersion string, principal authz.Principal) (string, error) {
	d, err := s.Get(ctx, id, principal)
	if err != nil {
		return "", err
	}

	newVersion, err := s.repository.UpdateFields(ctx, id, expectedVersion, update, principal.Username)
	if err != nil {
		return "", err
	}

	s.auditor.Record(ctx, audit.Event{
		Description: "update_document", Collection: collection, RecordID: id,
		Username: principal.Username, AdminUser: principal.IsAdmin,
		Success: true, OldData: audit.Snapshot(d), NewData: audit.Snapshot(update),
	})
	return newVersion, nil
}

// Delete removes a document. Only the user who added it, or an admin, may
// delete. With cascade the document is first unlinked from every tracker
// referencing it; without cascade any remaining link blocks the delete with
// DocumentInUse carrying the tracker ids.
func (s *DefaultService) Delete(ctx context.Context, id string, cascade bool, principal authz.Principal) error {
	d, err := s.Get(ctx, id, principal)
	if err != nil {
		return err
	}
	if d.AddedUsername != strings.ToLower(principal.Username) && !principal.IsAdmin {
		return errors.Unauthorized(fmt.Sprintf("User %s is not authorized to delete document %s", principal.Username, id), nil)
	}

	trackerIDs, err := s.trackers.LinkedTrackerIDs(ctx, id)
	if err != nil {
		return err
	}
	if len(trackerIDs) > 0 {
		if !cascade {
			return errors.DocumentInUse(id, trackerIDs)
		}
		if _, err := s.trackers.DeleteDocumentFromAllTrackers(ctx, id); err != nil {
			return err
		}
	}

	if err := s.repository.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.repository.DeleteProperties(ctx, id); err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.Event{
		Description: "delete_document", Collection: collection, RecordID: id,
		Username: principal.Username, AdminUser: principal.IsAdmin,
		Success: true, OldData: audit.Snapshot(d),
	})
	return nil
}

func (s *DefaultService) GetProperties(ctx context.Context, documentID string, principal authz.Principal) (*ExtendedProperties, error) {
	if _, err := s.Get(ctx, documentID, principal); err != nil {
		return nil, err
	}
	props, err := s.repository.GetProperties(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if props == nil {
		return nil, errors.NotFound(fmt.Sprintf("Extended properties not found: %s", documentID), nil)
	}
	return props, nil
}

// UpsertProperties merges the partial payload into the document's extended
// properties. Arrival of extracted text queues the document for
// classification; an enqueue failure is logged, never surfaced, because the
// extraction data is already durable.
func (s *DefaultService) UpsertProperties(ctx context.Context, documentID string, update PropsUpdate, principal authz.Principal) error {
	if _, err := s.Get(ctx, documentID, principal); err != nil {
		return err
	}
	if err := s.repository.MergeProperties(ctx, documentID, update); err != nil {
		return err
	}

	if s.classifier != nil && update.CleanText != nil && *update.CleanText != "" {
		if err := s.classifier.Enqueue(ctx, documentID); err != nil {
			log.Printf("classification enqueue failed for document %s: %v", documentID, err)
		}
	}
	return nil
}

func (s *DefaultService) Exists(ctx context.Context, id string) (bool, error) {
	d, err := s.repository.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return d != nil, nil
}
