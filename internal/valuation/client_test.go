package valuation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPropertyDetails_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/property/detail", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("apikey"))
		assert.Equal(t, "123 Main Street", r.URL.Query().Get("address1"))
		assert.Equal(t, "Anytown, TX 75072", r.URL.Query().Get("address2"))

		json.NewEncoder(w).Encode(PropertyInfo{
			TaxID:         "R-3281-00F-0160-1",
			County:        "Collin",
			AssessedValue: 498109,
			TaxAmount:     7016.58,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")

	info, err := client.GetPropertyDetails(context.Background(), "123 Main Street", "Anytown", "TX", "75072")

	assert.NoError(t, err)
	assert.Equal(t, "Collin", info.County)
	assert.Equal(t, 498109, info.AssessedValue)
}

func TestGetPropertyDetails_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")

	_, err := client.GetPropertyDetails(context.Background(), "123 Main Street", "Anytown", "TX", "75072")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
