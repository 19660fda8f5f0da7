package tracker

import (
	"context"
	"discovery-tracker-api/internal/audit"
	"discovery-tracker-api/internal/authz"
	"discovery-tracker-api/internal/errors"
	"discovery-tracker-api/internal/store"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DocumentSource is the narrow view of the document registry the tracker
// service needs: link targets must exist.
type DocumentSource interface {
	Exists(ctx context.Context, documentID string) (bool, error)
}

// Service owns the Tracker lifecycle and the tracker-document link state.
// Every operation resolves the owning client and authorizes the caller
// against it before touching the store.
type Service interface {
	Create(ctx context.Context, t *Tracker, principal authz.Principal) (*Tracker, error)
	Get(ctx context.Context, trackerID string, principal authz.Principal) (*Tracker, error)
	GetForUser(ctx context.Context, username string, principal authz.Principal) ([]Tracker, error)
	GetByClient(ctx context.Context, clientID string, principal authz.Principal) ([]Tracker, error)
	Update(ctx context.Context, trackerID string, update Update, expectedVersion string, principal authz.Principal) (string, error)
	Delete(ctx context.Context, trackerID string, principal authz.Principal) error

	LinkDocument(ctx context.Context, trackerID, documentID string, principal authz.Principal) (bool, error)
	UnlinkDocument(ctx context.Context, trackerID, documentID string, principal authz.Principal) (bool, error)

	GetDocuments(ctx context.Context, trackerID string, principal authz.Principal) ([]Row, error)
	GetCategories(ctx context.Context, trackerID string, principal authz.Principal) ([]string, error)
	GetCategoryPairs(ctx context.Context, trackerID string, principal authz.Principal) ([]CategoryPair, error)
	GetDataset(ctx context.Context, trackerID string, dataset DatasetName, principal authz.Principal) (*DatasetResponse, error)
	GetComplianceMatrix(ctx context.Context, trackerID, classification string, principal authz.Principal) (ComplianceMatrix, error)

	// Used exclusively by the document registry's cascading delete.
	TrackersLinkedToDocument(ctx context.Context, documentID string) ([]Tracker, error)
	DeleteDocumentFromAllTrackers(ctx context.Context, documentID string) (int, error)
}

type DefaultService struct {
	repository Repository
	policy     *authz.Policy
	documents  DocumentSource
	auditor    *audit.Logger
	failSilent bool
}

func NewService(repository Repository, policy *authz.Policy, documents DocumentSource, auditor *audit.Logger, failSilent bool) Service {
	return &DefaultService{
		repository: repository,
		policy:     policy,
		documents:  documents,
		auditor:    auditor,
		failSilent: failSilent,
	}
}

// authorize rejects callers without membership on the tracker's client.
// Admins bypass membership; the wildcard is never allowed on tracker paths.
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

func (s *DefaultService) Create(ctx context.Context, t *Tracker, principal authz.Principal) (*Tracker, error) {
	if err := s.authorize(ctx, principal, t.ClientID); err != nil {
		s.auditor.Record(ctx, audit.Event{
			Description: "create_tracker", Collection: collection, RecordID: t.ID,
			Username: principal.Username, AdminUser: principal.IsAdmin,
			Message: err.Error(),
		})
		return nil, err
	}

	if t.ID == "" {
		t.ID = store.NewVersion()
	}
	t.Documents = dedupeDocuments(t.Documents)
	now := time.Now().UTC()
	t.AddedUsername = principal.Username
	t.AddedDate = now
	t.UpdatedUsername = principal.Username
	t.UpdatedDate = now
	t.Version = store.NewVersion()

	if err := s.repository.Insert(ctx, t); err != nil {
		if s.failSilent && stderrors.Is(err, errors.ErrDuplicateKey) {
			existing, getErr := s.repository.GetByID(ctx, t.ID)
			if getErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	s.auditor.Record(ctx, audit.Event{
		Description: "create_tracker", Collection: collection, RecordID: t.ID,
		Username: principal.Username, AdminUser: principal.IsAdmin,
		Success: true, NewData: audit.Snapshot(t),
	})
	return t, nil
}

// get fetches and authorizes in one step; every read and mutation funnels
// through here so a tracker is reachable only via an authorized client.
func (s *DefaultService) get(ctx context.Context, trackerID string, principal authz.Principal) (*Tracker, error) {
	t, err := s.repository.GetByID(ctx, trackerID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errors.NotFound(fmt.Sprintf("Tracker not found: %s", trackerID), nil)
	}
	if err := s.authorize(ctx, principal, t.ClientID); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *DefaultService) Get(ctx context.Context, trackerID string, principal authz.Principal) (*Tracker, error) {
	return s.get(ctx, trackerID, principal)
}

// GetForUser lists the trackers of every client the user is authorized on.
// Admins may list for another username; other callers only for themselves.
func (s *DefaultService) GetForUser(ctx context.Context, username string, principal authz.Principal) ([]Tracker, error) {
	if username == "" {
		username = principal.Username
	}
	username = strings.ToLower(username)
	if username != principal.Username && !principal.IsAdmin {
		return nil, errors.Unauthorized(fmt.Sprintf("User %s is not authorized to list trackers for %s", principal.Username, username), nil)
	}

	refs, err := s.policy.AuthorizedClients(ctx, username)
	if err != nil {
		return nil, err
	}
	clientIDs := make([]string, 0, len(refs))
	for _, ref := range refs {
		clientIDs = append(clientIDs, ref.ID)
	}
	return s.repository.ListByClientIDs(ctx, clientIDs)
}

func (s *DefaultService) GetByClient(ctx context.Context, clientID string, principal authz.Principal) ([]Tracker, error) {
	if err := s.authorize(ctx, principal, clientID); err != nil {
		return nil, err
	}
	return s.repository.ListByClientID(ctx, clientID)
}

func (s *DefaultService) Update(ctx context.Context, trackerID string, update Update, expectedVersion string, principal authz.Principal) (string, error) {
	t, err := s.get(ctx, trackerID, principal)
	if err != nil {
		return "", err
	}

	newVersion, err := s.repository.UpdateFields(ctx, trackerID, expectedVersion, update, principal.Username)
	if err != nil {
		s.auditor.Record(ctx, audit.Event{
			Description: "update_tracker", Collection: collection, RecordID: trackerID,
			Username: principal.Username, AdminUser: principal.IsAdmin,
			Message: err.Error(), OldData: audit.Snapshot(t),
		})
		return "", err
	}

	s.auditor.Record(ctx, audit.Event{
		Description: "update_tracker", Collection: collection, RecordID: trackerID,
		Username: principal.Username, AdminUser: principal.IsAdmin,
		Success: true, OldData: audit.Snapshot(t), NewData: audit.Snapshot(update),
	})
	return newVersion, nil
}

// Delete is a hard delete, restricted to the tracker's creator or an admin.
func (s *DefaultService) Delete(ctx context.Context, trackerID string, principal authz.Principal) error {
	t, err := s.get(ctx, trackerID, principal)
	if err != nil {
		return err
	}
	if t.AddedUsername != principal.Username && !principal.IsAdmin {
		return errors.Unauthorized(fmt.Sprintf("User %s is not authorized to delete tracker %s", principal.Username, trackerID), nil)
	}

	if err := s.repository.Delete(ctx, trackerID); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.Event{
		Description: "delete_tracker", Collection: collection, RecordID: trackerID,
		Username: principal.Username, AdminUser: principal.IsAdmin,
		Success: true, OldData: audit.Snapshot(t),
	})
	return nil
}

// LinkDocument appends the document to the tracker's list. A duplicate link
// is a no-op success in fail-silent mode, AlreadyLinked otherwise. Returns
// whether the list changed.
func (s *DefaultService) LinkDocument(ctx context.Context, trackerID, documentID string, principal authz.Principal) (bool, error) {
	t, err := s.get(ctx, trackerID, principal)
	if err != nil {
		return false, err
	}

	exists, err := s.documents.Exists(ctx, documentID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, errors.NotFound(fmt.Sprintf("Document not found: %s", documentID), nil)
	}

	if t.IsLinked(documentID) {
		if s.failSilent {
			return false, nil
		}
		return false, errors.AlreadyLinked(trackerID, documentID)
	}

	if _, err := s.repository.SetDocuments(ctx, trackerID, t.Version, append(t.Documents, documentID), principal.Username); err != nil {
		return false, err
	}
	s.auditor.Record(ctx, audit.Event{
		Description: "link_document", Collection: collection, RecordID: trackerID,
		Username: principal.Username, AdminUser: principal.IsAdmin,
		Success: true, NewData: audit.Snapshot(map[string]string{"document_id": documentID}),
	})
	return true, nil
}

// UnlinkDocument is symmetric: absence is a no-op success in fail-silent
// mode, NotLinked otherwise.
func (s *DefaultService) UnlinkDocument(ctx context.Context, trackerID, documentID string, principal authz.Principal) (bool, error) {
	t, err := s.get(ctx, trackerID, principal)
	if err != nil {
		return false, err
	}

	if !t.IsLinked(documentID) {
		if s.failSilent {
			return false, nil
		}
		return false, errors.NotLinked(trackerID, documentID)
	}

	remaining := make([]string, 0, len(t.Documents)-1)
	for _, id := range t.Documents {
		if id != documentID {
			remaining = append(remaining, id)
		}
	}

	if _, err := s.repository.SetDocuments(ctx, trackerID, t.Version, remaining, principal.Username); err != nil {
		return false, err
	}
	s.auditor.Record(ctx, audit.Event{
		Description: "unlink_document", Collection: collection, RecordID: trackerID,
		Username: principal.Username, AdminUser: principal.IsAdmin,
		Success: true, OldData: audit.Snapshot(map[string]string{"document_id": documentID}),
	})
	return true, nil
}

func (s *DefaultService) GetDocuments(ctx context.Context, trackerID string, principal authz.Principal) ([]Row, error) {
	t, err := s.get(ctx, trackerID, principal)
	if err != nil {
		return nil, err
	}
	return s.repository.DocumentsByIDs(ctx, t.Documents)
}

func (s *DefaultService) GetCategories(ctx context.Context, trackerID string, principal authz.Principal) ([]string, error) {
	t, err := s.get(ctx, trackerID, principal)
	if err != nil {
		return nil, err
	}
	categories, err := s.repository.Categories(ctx, t.Documents)
	if err != nil {
		return nil, err
	}
	sort.Strings(categories)
	return categories, nil
}

func (s *DefaultService) GetCategoryPairs(ctx context.Context, trackerID string, principal authz.Principal) ([]CategoryPair, error) {
	t, err := s.get(ctx, trackerID, principal)
	if err != nil {
		return nil, err
	}
	return s.repository.CategoryPairs(ctx, t.Documents)
}

// GetDataset projects the tracker's document set into one of the derived
// read-only datasets. Unknown dataset names yield an empty response, not an
// error.
func (s *DefaultService) GetDataset(ctx context.Context, trackerID string, dataset DatasetName, principal authz.Principal) (*DatasetResponse, error) {
	t, err := s.get(ctx, trackerID, principal)
	if err != nil {
		return nil, err
	}

	response := &DatasetResponse{ID: trackerID, DatasetName: dataset, Data: []Row{}}

	var rows []Row
	switch dataset {
	case DatasetTrackerList:
		rows, err = s.repository.DocumentsByIDs(ctx, t.Documents)
	case DatasetTransfers, DatasetDeposits, DatasetCashBackPurchases:
		rows, err = s.repository.FilteredTransactions(ctx, t.Documents, dataset)
	default:
		return response, nil
	}
	if err != nil {
		return nil, err
	}
	if rows != nil {
		response.Data = rows
	}
	return response, nil
}

// GetComplianceMatrix builds the account-key by year by month grid for one
// classification. Documents with malformed dates are skipped rather than
// failing the aggregation.
func (s *DefaultService) GetComplianceMatrix(ctx context.Context, trackerID, classification string, principal authz.Principal) (ComplianceMatrix, error) {
	t, err := s.get(ctx, trackerID, principal)
	if err != nil {
		return nil, err
	}

	docs, err := s.repository.ComplianceDocs(ctx, t.Documents, classification)
	if err != nil {
		return nil, err
	}

	matrix := make(ComplianceMatrix)
	for _, doc := range docs {
		parsed, err := time.Parse("2006-01-02", doc.DocumentDate)
		if err != nil {
			continue // skip document with invalid date string
		}

		key := complianceKey(doc.SubClassification)
		if key == "" {
			continue
		}

		if matrix[key] == nil {
			matrix[key] = make(map[int]map[string]*ComplianceCell)
		}
		year := parsed.Year()
		if matrix[key][year] == nil {
			matrix[key][year] = emptyMonths()
		}
		bates := doc.BeginningBates
		if bates == "" {
			bates = "X"
		}
		matrix[key][year][parsed.Month().String()] = &ComplianceCell{
			Bates: bates,
			Path:  doc.Path,
			ID:    doc.ID,
			Date:  doc.ProducedDate,
		}
	}
	return matrix, nil
}

// complianceKey joins the sub-classification values in field order into a
// stable row key, e.g. "First Bank - ...1234".
func complianceKey(subclass map[string]string) string {
	if len(subclass) == 0 {
		return ""
	}
	fields := make([]string, 0, len(subclass))
	for field := range subclass {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	values := make([]string, 0, len(fields))
	for _, field := range fields {
		if v := subclass[field]; v != "" {
			values = append(values, v)
		}
	}
	return strings.Join(values, " - ")
}

// dedupeDocuments drops repeated ids, keeping first-occurrence order, so the
// document list holds each id at most once from creation onward.
func dedupeDocuments(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func emptyMonths() map[string]*ComplianceCell {
	months := make(map[string]*ComplianceCell, 12)
	for m := time.January; m <= time.December; m++ {
		months[m.String()] = nil
	}
	return months
}

// TrackersLinkedToDocument is not authorization-gated: it exists for the
// document registry's cascading delete, which authorizes on the document.
func (s *DefaultService) TrackersLinkedToDocument(ctx context.Context, documentID string) ([]Tracker, error) {
	return s.repository.ListLinkedToDocument(ctx, documentID)
}

// DeleteDocumentFromAllTrackers removes the document id from every tracker
// that references it and reports how many trackers were touched.
func (s *DefaultService) DeleteDocumentFromAllTrackers(ctx context.Context, documentID string) (int, error) {
	trackers, err := s.repository.ListLinkedToDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}

	for _, t := range trackers {
		remaining := make([]string, 0, len(t.Documents))
		for _, id := range t.Documents {
			if id != documentID {
				remaining = append(remaining, id)
			}
		}
		if _, err := s.repository.SetDocuments(ctx, t.ID, t.Version, remaining, t.UpdatedUsername); err != nil {
			return 0, err
		}
	}
	return len(trackers), nil
}
