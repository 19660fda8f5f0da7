package client

import (
	"bytes"
	"context"
	"discovery-tracker-api/internal/authz"
	apierrors "discovery-tracker-api/internal/errors"
	"discovery-tracker-api/internal/middleware"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, c *Client, username string) (*Client, error) {
	args := m.Called(ctx, c, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Client), args.Error(1)
}

func (m *MockService) Get(ctx context.Context, id, username string) (*Client, error) {
	args := m.Called(ctx, id, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Client), args.Error(1)
}

func (m *MockService) GetByBillingNumber(ctx context.Context, billingNumber, username string) (*Client, error) {
	args := m.Called(ctx, billingNumber, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Client), args.Error(1)
}

func (m *MockService) GetAll(ctx context.Context, username string) ([]Client, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Client), args.Error(1)
}

func (m *MockService) Update(ctx context.Context, id string, update Update, expectedVersion, username string) (string, error) {
	args := m.Called(ctx, id, update, expectedVersion, username)
	return args.String(0), args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, id, username string) error {
	args := m.Called(ctx, id, username)
	return args.Error(0)
}

func (m *MockService) AddAuthorizedUser(ctx context.Context, clientID, requester, target string) (bool, error) {
	args := m.Called(ctx, clientID, requester, target)
	return args.Bool(0), args.Error(1)
}

func (m *MockService) RemoveAuthorizedUser(ctx context.Context, clientID, requester, target string) (bool, error) {
	args := m.Called(ctx, clientID, requester, target)
	return args.Bool(0), args.Error(1)
}

func (m *MockService) AuthorizedClients(ctx context.Context, username string) ([]authz.ClientRef, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]authz.ClientRef), args.Error(1)
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	return router
}

func asUser(username string, handler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("username", username)
		handler(c)
	}
}

func TestCreateClient_Success(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	mockService.On("Create", mock.Anything, mock.MatchedBy(func(c *Client) bool {
		return c.Name == "Doe v. Doe" && c.BillingNumber == "BN-100"
	}), "alice@test.com").Return(&Client{ID: "client-1", Name: "Doe v. Doe"}, nil)

	router.POST("/clients", asUser("alice@test.com", handler.Create))

	payload := CreateRequest{Name: "Doe v. Doe", BillingNumber: "BN-100"}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/clients", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestCreateClient_InvalidInput(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	router.POST("/clients", asUser("alice@test.com", handler.Create))

	body, _ := json.Marshal(struct{}{})
	req := httptest.NewRequest("POST", "/clients", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Create")
}

func TestShowClient_ByID(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	mockService.On("Get", mock.Anything, "client-1", "alice@test.com").
		Return(&Client{ID: "client-1", Name: "Doe v. Doe"}, nil)

	router.GET("/clients", asUser("alice@test.com", handler.Show))

	req := httptest.NewRequest("GET", "/clients?client_id=client-1", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response Client
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "client-1", response.ID)
}

func TestShowClient_WildcardListsAll(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	mockService.On("GetAll", mock.Anything, "alice@test.com").
		Return([]Client{{ID: "client-1"}, {ID: "client-2"}}, nil)

	router.GET("/clients", asUser("alice@test.com", handler.Show))

	req := httptest.NewRequest("GET", "/clients?client_id=*", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response []Client
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Len(t, response, 2)
	mockService.AssertNotCalled(t, "Get")
}

func TestShowClient_MissingSearchParameter(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	router.GET("/clients", asUser("alice@test.com", handler.Show))

	req := httptest.NewRequest("GET", "/clients", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var response map[string]any
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, string(apierrors.KindMissingSearchParameter), response["kind"])
}

func TestUpdateClient_VersionConflict(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	mockService.On("Update", mock.Anything, "client-1", mock.Anything, "v1", "alice@test.com").
		Return("", apierrors.VersionConflict("clients version conflict: client-1", nil))

	router.PUT("/clients", asUser("alice@test.com", handler.Update))

	payload := UpdateRequest{ID: "client-1", Version: "v1", Update: Update{Name: "New Name"}}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("PUT", "/clients", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateClient_RenameKeepsEnabledUntouched(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	var forwarded Update
	mockService.On("Update", mock.Anything, "client-1", mock.MatchedBy(func(u Update) bool {
		forwarded = u
		return true
	}), "v1", "alice@test.com").Return("v2", nil)

	router.PUT("/clients", asUser("alice@test.com", handler.Update))

	// a plain rename: the payload never mentions enabled
	body := []byte(`{"id": "client-1", "version": "v1", "name": "New Name", "billing_number": "BN-100"}`)
	req := httptest.NewRequest("PUT", "/clients", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, forwarded.Enabled, "a rename must not carry an enabled flag that would disable the client")
	assert.Equal(t, "New Name", forwarded.Name)
}

func TestAddAuthorizedUser_ReportsNoChange(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	mockService.On("AddAuthorizedUser", mock.Anything, "client-1", "alice@test.com", "bob@test.com").
		Return(false, nil)

	router.PATCH("/clients/:id/authorized_user", asUser("alice@test.com", handler.AddAuthorizedUser))

	req := httptest.NewRequest("PATCH", "/clients/client-1/authorized_user?authorized_user=bob@test.com", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]any
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, true, response["no_change"])
}

func TestAddAuthorizedUser_MissingTarget(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	router.PATCH("/clients/:id/authorized_user", asUser("alice@test.com", handler.AddAuthorizedUser))

	req := httptest.NewRequest("PATCH", "/clients/client-1/authorized_user", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "AddAuthorizedUser")
}
