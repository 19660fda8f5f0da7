package errors

import (
	"fmt"
	"net/http"
)

// Kind classifies an APIError independently of its HTTP status.
type Kind string

const (
	KindNotFound               Kind = "not_found"
	KindUnauthorized           Kind = "unauthorized"
	KindVersionConflict        Kind = "version_conflict"
	KindDuplicateKey           Kind = "duplicate_key"
	KindAlreadyLinked          Kind = "already_linked"
	KindNotLinked              Kind = "not_linked"
	KindDocumentInUse          Kind = "document_in_use"
	KindMissingSearchParameter Kind = "missing_search_parameter"
	KindMissingUsername        Kind = "missing_username"
	KindValidation             Kind = "validation"
	KindInternal               Kind = "internal"
)

// APIError is the error type surfaced by registries and handlers.
type APIError struct {
	Status   int    `json:"-"`
	Kind     Kind   `json:"kind"`
	Message  string `json:"error"`
	Details  any    `json:"details,omitempty"`
	Internal error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *APIError) Unwrap() error {
	return e.Internal
}

// Is matches any APIError of the same kind, so callers can test
// errors.Is(err, errors.ErrVersionConflict) without caring about the message.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Kind == e.Kind
}

// Sentinel targets for errors.Is checks.
var (
	ErrNotFound        = &APIError{Kind: KindNotFound}
	ErrUnauthorized    = &APIError{Kind: KindUnauthorized}
	ErrVersionConflict = &APIError{Kind: KindVersionConflict}
	ErrDuplicateKey    = &APIError{Kind: KindDuplicateKey}
	ErrAlreadyLinked   = &APIError{Kind: KindAlreadyLinked}
	ErrNotLinked       = &APIError{Kind: KindNotLinked}
	ErrDocumentInUse   = &APIError{Kind: KindDocumentInUse}
)

func NotFound(message string, err error) *APIError {
	return &APIError{Status: http.StatusNotFound, Kind: KindNotFound, Message: message, Internal: err}
}

func Unauthorized(message string, err error) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Kind: KindUnauthorized, Message: message, Internal: err}
}

func VersionConflict(message string, err error) *APIError {
	return &APIError{Status: http.StatusConflict, Kind: KindVersionConflict, Message: message, Internal: err}
}

func DuplicateKey(message string, err error) *APIError {
	return &APIError{Status: http.StatusConflict, Kind: KindDuplicateKey, Message: message, Internal: err}
}

func AlreadyLinked(trackerID, documentID string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Kind:    KindAlreadyLinked,
		Message: fmt.Sprintf("Document %s is already in tracker %s", documentID, trackerID),
	}
}

func NotLinked(trackerID, documentID string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Kind:    KindNotLinked,
		Message: fmt.Sprintf("Document %s is not in tracker %s", documentID, trackerID),
	}
}

// DocumentInUse reports a delete blocked by trackers that still reference the
// document. The tracker ids ride along in Details.
func DocumentInUse(documentID string, trackerIDs []string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Kind:    KindDocumentInUse,
		Message: fmt.Sprintf("Document %s is linked to %d tracker(s)", documentID, len(trackerIDs)),
		Details: trackerIDs,
	}
}

func MissingSearchParameter() *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Kind:    KindMissingSearchParameter,
		Message: "Must specify either id or billing_number",
	}
}

func MissingUsername() *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Kind:    KindMissingUsername,
		Message: "Must specify username",
	}
}

func Validation(err error) *APIError {
	return &APIError{Status: http.StatusBadRequest, Kind: KindValidation, Message: "Invalid input", Internal: err}
}

func BadRequest(message string, err error) *APIError {
	return &APIError{Status: http.StatusBadRequest, Kind: KindValidation, Message: message, Internal: err}
}

func Internal(err error) *APIError {
	return &APIError{Status: http.StatusInternalServerError, Kind: KindInternal, Message: "Internal server error", Internal: err}
}
