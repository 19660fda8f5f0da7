package client

import (
	"context"
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

func (m *MockRepository) Insert(ctx context.Context, c *Client) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Client), args.Error(1)
}

func (m *MockRepository) GetByBillingNumber(ctx context.Context, billingNumber, createdBy string) (*Client, error) {
	args := m.Called(ctx, billingNumber, createdBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Client), args.Error(1)
}

func (m *MockRepository) ListCreatedBy(ctx context.Context, username string) ([]Client, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Client), args.Error(1)
}

func (m *MockRepository) ListForUser(ctx context.Context, username string) ([]Client, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Client), args.Error(1)
}

func (m *MockRepository) UpdateFields(ctx context.Context, id, expectedVersion string, update Update) (string, error) {
	args := m.Called(ctx, id, expectedVersion, update)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) AddAuthorizedUser(ctx context.Context, id, username string) (bool, error) {
	args := m.Called(ctx, id, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) RemoveAuthorizedUser(ctx context.Context, id, username string) (bool, error) {
	args := m.Called(ctx, id, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) BumpVersion(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) SoftDelete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestCreateClient_CreatorAlwaysAuthorized(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, false)

	mockRepo.On("GetByBillingNumber", mock.Anything, "BN-100", "alice@test.com").Return(nil, nil)
	mockRepo.On("Insert", mock.Anything, mock.MatchedBy(func(c *Client) bool {
		return c.HasAuthorizedUser("alice@test.com") && c.CreatedBy == "alice@test.com" && c.Enabled
	})).Return(nil)

	created, err := service.Create(context.Background(), &Client{
		Name:          "Doe v. Doe",
		BillingNumber: "BN-100",
	}, "Alice@Test.com")

	assert.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotEmpty(t, created.Version)
	mockRepo.AssertExpectations(t)
}

func TestCreateClient_LowercasesAuthorizedUsers(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, false)

	mockRepo.On("GetByBillingNumber", mock.Anything, "BN-100", "alice@test.com").Return(nil, nil)
	mockRepo.On("Insert", mock.Anything, mock.MatchedBy(func(c *Client) bool {
		for _, u := range c.AuthorizedUsers {
			if u != "alice@test.com" && u != "bob@test.com" {
				return false
			}
		}
		return len(c.AuthorizedUsers) == 2
	})).Return(nil)

	_, err := service.Create(context.Background(), &Client{
		Name:            "Doe v. Doe",
		BillingNumber:   "BN-100",
		AuthorizedUsers: []string{"Bob@Test.COM"},
	}, "alice@test.com")

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestCreateClient_DuplicateBillingNumber(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, false)

	existing := &Client{ID: "client-1", BillingNumber: "BN-100", CreatedBy: "alice@test.com"}
	mockRepo.On("GetByBillingNumber", mock.Anything, "BN-100", "alice@test.com").Return(existing, nil)

	_, err := service.Create(context.Background(), &Client{BillingNumber: "BN-100"}, "alice@test.com")

	assert.True(t, errors.Is(err, apierrors.ErrDuplicateKey))
	mockRepo.AssertNotCalled(t, "Insert")
}

func TestCreateClient_DuplicateBillingNumberFailSilent(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, true)

	existing := &Client{ID: "client-1", BillingNumber: "BN-100", CreatedBy: "alice@test.com"}
	mockRepo.On("GetByBillingNumber", mock.Anything, "BN-100", "alice@test.com").Return(existing, nil)

	created, err := service.Create(context.Background(), &Client{BillingNumber: "BN-100"}, "alice@test.com")

	assert.NoError(t, err)
	assert.Equal(t, "client-1", created.ID)
	mockRepo.AssertNotCalled(t, "Insert")
}

func TestCreateClient_MissingUsername(t *testing.T) {
	service := NewService(new(MockRepository), false)

	_, err := service.Create(context.Background(), &Client{BillingNumber: "BN-100"}, "")

	var apiErr *apierrors.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.KindMissingUsername, apiErr.Kind)
}

func TestGetClient_Unauthorized(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, false)

	stored := &Client{ID: "client-1", CreatedBy: "alice@test.com", AuthorizedUsers: []string{"alice@test.com"}}
	mockRepo.On("GetByID", mock.Anything, "client-1").Return(stored, nil)

	_, err := service.Get(context.Background(), "client-1", "mallory@test.com")

	assert.True(t, errors.Is(err, apierrors.ErrUnauthorized))
}

func TestGetClient_SharedUserAllowed(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, false)

	stored := &Client{ID: "client-1", CreatedBy: "alice@test.com", AuthorizedUsers: []string{"alice@test.com", "bob@test.com"}}
	mockRepo.On("GetByID", mock.Anything, "client-1").Return(stored, nil)

	got, err := service.Get(context.Background(), "client-1", "Bob@Test.com")

	assert.NoError(t, err)
	assert.Equal(t, "client-1", got.ID)
}

func TestUpdateClient_CreatorOnly(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, false)

	stored := &Client{ID: "client-1", CreatedBy: "alice@test.com", Version: "v1"}
	mockRepo.On("GetByID", mock.Anything, "client-1").Return(stored, nil)

	_, err := service.Update(context.Background(), "client-1", Update{Name: "New Name"}, "v1", "bob@test.com")

	assert.True(t, errors.Is(err, apierrors.ErrUnauthorized))
	mockRepo.AssertNotCalled(t, "UpdateFields")
}

func TestUpdateClient_VersionConflictSurfaced(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, false)

	stored := &Client{ID: "client-1", CreatedBy: "alice@test.com", Version: "v2"}
	mockRepo.On("GetByID", mock.Anything, "client-1").Return(stored, nil)
	mockRepo.On("UpdateFields", mock.Anything, "client-1", "v1", mock.Anything).
		Return("", apierrors.VersionConflict("clients version conflict: client-1", nil))

	_, err := service.Update(context.Background(), "client-1", Update{Name: "New Name"}, "v1", "alice@test.com")

	assert.True(t, errors.Is(err, apierrors.ErrVersionConflict))
}

func TestAddAuthorizedUser_BumpsVersionOnlyWhenChanged(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, false)

	stored := &Client{ID: "client-1", CreatedBy: "alice@test.com"}
	mockRepo.On("GetByID", mock.Anything, "client-1").Return(stored, nil)
	mockRepo.On("AddAuthorizedUser", mock.Anything, "client-1", "bob@test.com").Return(true, nil)
	mockRepo.On("BumpVersion", mock.Anything, "client-1").Return("v2", nil)

	changed, err := service.AddAuthorizedUser(context.Background(), "client-1", "alice@test.com", "Bob@Test.com")

	assert.NoError(t, err)
	assert.True(t, changed)
	mockRepo.AssertExpectations(t)
}

func TestAddAuthorizedUser_IdempotentAddSkipsVersionBump(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, false)

	stored := &Client{ID: "client-1", CreatedBy: "alice@test.com"}
	mockRepo.On("GetByID", mock.Anything, "client-1").Return(stored, nil)
	mockRepo.On("AddAuthorizedUser", mock.Anything, "client-1", "bob@test.com").Return(false, nil)

	changed, err := service.AddAuthorizedUser(context.Background(), "client-1", "alice@test.com", "bob@test.com")

	assert.NoError(t, err)
	assert.False(t, changed)
	mockRepo.AssertNotCalled(t, "BumpVersion")
}

func TestRemoveAuthorizedUser_CreatorCannotBeRemoved(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, false)

	stored := &Client{ID: "client-1", CreatedBy: "alice@test.com"}
	mockRepo.On("GetByID", mock.Anything, "client-1").Return(stored, nil)

	_, err := service.RemoveAuthorizedUser(context.Background(), "client-1", "alice@test.com", "Alice@Test.com")

	var apiErr *apierrors.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.KindValidation, apiErr.Kind)
	mockRepo.AssertNotCalled(t, "RemoveAuthorizedUser")
}

func TestRemoveAuthorizedUser_RequesterMustBeCreator(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, false)

	stored := &Client{ID: "client-1", CreatedBy: "alice@test.com"}
	mockRepo.On("GetByID", mock.Anything, "client-1").Return(stored, nil)

	_, err := service.RemoveAuthorizedUser(context.Background(), "client-1", "bob@test.com", "carol@test.com")

	assert.True(t, errors.Is(err, apierrors.ErrUnauthorized))
}

func TestDeleteClient_SoftDeleteByCreator(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, false)

	stored := &Client{ID: "client-1", CreatedBy: "alice@test.com"}
	mockRepo.On("GetByID", mock.Anything, "client-1").Return(stored, nil)
	mockRepo.On("SoftDelete", mock.Anything, "client-1").Return(nil)

	err := service.Delete(context.Background(), "client-1", "alice@test.com")

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestAuthorizedClients_ReturnsRefs(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, false)

	mockRepo.On("ListForUser", mock.Anything, "alice@test.com").Return([]Client{
		{ID: "client-1", BillingNumber: "BN-100"},
		{ID: "client-2", BillingNumber: "BN-200"},
	}, nil)

	refs, err := service.AuthorizedClients(context.Background(), "Alice@Test.com")

	assert.NoError(t, err)
	assert.Len(t, refs, 2)
	assert.Equal(t, "BN-100", refs[0].BillingNumber)
}
