package discovery

import (
	"context"
	"discovery-tracker-api/internal/authz"
	apierrors "discovery-tracker-api/internal/errors"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) InsertFile(ctx context.Context, f *DiscoveryFile) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockRepository) GetFile(ctx context.Context, id string) (*DiscoveryFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DiscoveryFile), args.Error(1)
}

func (m *MockRepository) ListFileSummaries(ctx context.Context, clientID string) ([]FileSummary, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]FileSummary), args.Error(1)
}

func (m *MockRepository) UpdateFile(ctx context.Context, id, expectedVersion string, update FileUpdate) (string, error) {
	args := m.Called(ctx, id, expectedVersion, update)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) DeleteFile(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) DeleteRequestsByFile(ctx context.Context, fileID string) (int64, error) {
	args := m.Called(ctx, fileID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) InsertRequest(ctx context.Context, r *DiscoveryRequest) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRepository) GetRequest(ctx context.Context, id string) (*DiscoveryRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DiscoveryRequest), args.Error(1)
}

func (m *MockRepository) ListRequestsByFile(ctx context.Context, fileID string) ([]DiscoveryRequest, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]DiscoveryRequest), args.Error(1)
}

func (m *MockRepository) UpdateRequest(ctx context.Context, id, expectedVersion string, update RequestUpdate, username string) (string, error) {
	args := m.Called(ctx, id, expectedVersion, update, username)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) DeleteRequest(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) ServiceList(ctx context.Context, clientID string) ([]ServiceListEntry, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ServiceListEntry), args.Error(1)
}

type fakeClientSource struct {
	clients map[string][]authz.ClientRef
}

func (f fakeClientSource) AuthorizedClients(ctx context.Context, username string) ([]authz.ClientRef, error) {
	return f.clients[username], nil
}

func alicePolicy() *authz.Policy {
	return authz.NewPolicy(fakeClientSource{clients: map[string][]authz.ClientRef{
		"alice@test.com": {{ID: "client-1"}},
	}})
}

func alice() authz.Principal {
	return authz.NewPrincipal("alice@test.com", false)
}

func storedFile() *DiscoveryFile {
	return &DiscoveryFile{
		ID:            "file-1",
		ClientID:      "client-1",
		DiscoveryType: "PRODUCTION",
		ServiceDate:   "2024-08-03",
		PartyName:     "John Q. Doe",
		Version:       "v1",
	}
}

func TestCreateFile_AuthorizedOnClient(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, alicePolicy(), nil)

	mockRepo.On("InsertFile", mock.Anything, mock.MatchedBy(func(f *DiscoveryFile) bool {
		return f.CreatedBy == "alice@test.com" && f.ID != "" && f.Version != ""
	})).Return(nil)

	created, err := service.CreateFile(context.Background(), &DiscoveryFile{
		ClientID:      "client-1",
		DiscoveryType: "PRODUCTION",
		ServiceDate:   "2024-08-03",
		PartyName:     "John Q. Doe",
	}, alice())

	assert.NoError(t, err)
	assert.NotEmpty(t, created.CreateDate)
	mockRepo.AssertExpectations(t)
}

func TestCreateFile_Unauthorized(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, alicePolicy(), nil)

	_, err := service.CreateFile(context.Background(), &DiscoveryFile{ClientID: "client-other"}, alice())

	assert.True(t, errors.Is(err, apierrors.ErrUnauthorized))
	mockRepo.AssertNotCalled(t, "InsertFile")
}

func TestDeleteFile_CascadesToRequests(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, alicePolicy(), nil)

	mockRepo.On("GetFile", mock.Anything, "file-1").Return(storedFile(), nil)
	mockRepo.On("DeleteFile", mock.Anything, "file-1").Return(nil)
	mockRepo.On("DeleteRequestsByFile", mock.Anything, "file-1").Return(int64(25), nil)

	deleted, err := service.DeleteFile(context.Background(), "file-1", alice())

	assert.NoError(t, err)
	assert.Equal(t, int64(25), deleted)
	mockRepo.AssertExpectations(t)
}

func TestCreateRequest_ResolvesClientThroughFile(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, alicePolicy(), nil)

	mockRepo.On("GetFile", mock.Anything, "file-1").Return(storedFile(), nil)
	mockRepo.On("InsertRequest", mock.Anything, mock.MatchedBy(func(r *DiscoveryRequest) bool {
		return r.CreatedBy == "alice@test.com" && r.Interpretations != nil
	})).Return(nil)

	created, err := service.CreateRequest(context.Background(), &DiscoveryRequest{
		FileID:        "file-1",
		RequestNumber: 1,
		RequestText:   "All documents related to the case",
	}, alice())

	assert.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	mockRepo.AssertExpectations(t)
}

func TestCreateRequest_DanglingFile(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, alicePolicy(), nil)

	mockRepo.On("GetFile", mock.Anything, "file-404").Return(nil, nil)

	_, err := service.CreateRequest(context.Background(), &DiscoveryRequest{FileID: "file-404"}, alice())

	assert.True(t, errors.Is(err, apierrors.ErrNotFound))
}

func TestGetRequest_UnauthorizedThroughFile(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, alicePolicy(), nil)

	mockRepo.On("GetRequest", mock.Anything, "request-1").Return(&DiscoveryRequest{ID: "request-1", FileID: "file-1"}, nil)
	otherClientFile := storedFile()
	otherClientFile.ClientID = "client-other"
	mockRepo.On("GetFile", mock.Anything, "file-1").Return(otherClientFile, nil)

	_, err := service.GetRequest(context.Background(), "request-1", alice())

	assert.True(t, errors.Is(err, apierrors.ErrUnauthorized))
}

func TestUpdateRequest_VersionMatched(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, alicePolicy(), nil)

	mockRepo.On("GetRequest", mock.Anything, "request-1").Return(&DiscoveryRequest{ID: "request-1", FileID: "file-1", Version: "v1"}, nil)
	mockRepo.On("GetFile", mock.Anything, "file-1").Return(storedFile(), nil)
	update := RequestUpdate{RequestNumber: 1, RequestText: "Amended request", Response: "Responsive documents attached"}
	mockRepo.On("UpdateRequest", mock.Anything, "request-1", "v1", update, "alice@test.com").Return("v2", nil)

	newVersion, err := service.UpdateRequest(context.Background(), "request-1", update, "v1", alice())

	assert.NoError(t, err)
	assert.Equal(t, "v2", newVersion)
}

func TestGetRequestServiceList_AuthorizedOnClient(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, alicePolicy(), nil)

	entries := []ServiceListEntry{{
		ClientID:       "client-1",
		DiscoveryType:  "PRODUCTION",
		PartyName:      "John Q. Doe",
		ServiceDate:    "2024-08-03",
		ServedCount:    25,
		RespondedCount: 10,
	}}
	mockRepo.On("ServiceList", mock.Anything, "client-1").Return(entries, nil)

	got, err := service.GetRequestServiceList(context.Background(), "client-1", alice())

	assert.NoError(t, err)
	assert.Equal(t, entries, got)

	_, err = service.GetRequestServiceList(context.Background(), "client-other", alice())
	assert.True(t, errors.Is(err, apierrors.ErrUnauthorized))
}
