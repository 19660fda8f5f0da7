package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesByKind(t *testing.T) {
	err := VersionConflict("trackers version conflict: tracker-1", nil)

	assert.True(t, stderrors.Is(err, ErrVersionConflict))
	assert.False(t, stderrors.Is(err, ErrNotFound))
}

func TestIs_MatchesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("updating tracker: %w", NotFound("Tracker not found: tracker-1", nil))

	assert.True(t, stderrors.Is(err, ErrNotFound))
}

func TestUnwrap_ExposesInternal(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Internal(cause)

	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestDocumentInUse_CarriesTrackerIDs(t *testing.T) {
	err := DocumentInUse("doc-1", []string{"tracker-1", "tracker-2"})

	assert.Equal(t, http.StatusConflict, err.Status)
	assert.Equal(t, []string{"tracker-1", "tracker-2"}, err.Details)
	assert.True(t, stderrors.Is(err, ErrDocumentInUse))
}

func TestStatusCodes(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound("x", nil).Status)
	assert.Equal(t, http.StatusUnauthorized, Unauthorized("x", nil).Status)
	assert.Equal(t, http.StatusConflict, DuplicateKey("x", nil).Status)
	assert.Equal(t, http.StatusBadRequest, MissingSearchParameter().Status)
	assert.Equal(t, http.StatusBadRequest, MissingUsername().Status)
}
