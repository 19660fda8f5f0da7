package store

import (
	"context"
	apierrors "discovery-tracker-api/internal/errors"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type note struct {
	ID      string `bson:"id"`
	Body    string `bson:"body"`
	Version string `bson:"version"`
}

func (n note) EntityID() string { return n.ID }

// testStore connects to the database named by TEST_DB_URL and hands back a
// fresh collection. Skipped when no live database is available.
func testStore(t *testing.T) *Versioned[note] {
	url := os.Getenv("TEST_DB_URL")
	if url == "" {
		t.Skip("TEST_DB_URL not set")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(url))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { client.Disconnect(context.Background()) })

	database := client.Database("store_test")
	if err := database.Collection("notes").Drop(context.Background()); err != nil {
		t.Fatalf("drop: %v", err)
	}
	return NewVersioned[note](database, "notes")
}

func TestUpdateIfVersionMatches_StaleVersionConflicts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	v1 := NewVersion()
	err := s.Insert(ctx, note{ID: "note-1", Body: "first", Version: v1})
	assert.NoError(t, err)

	v2, err := s.UpdateIfVersionMatches(ctx, "note-1", v1, bson.M{"body": "second"})
	assert.NoError(t, err)
	assert.NotEqual(t, v1, v2)

	// retrying with the superseded version must conflict, not overwrite
	_, err = s.UpdateIfVersionMatches(ctx, "note-1", v1, bson.M{"body": "third"})
	assert.True(t, errors.Is(err, apierrors.ErrVersionConflict))

	got, err := s.Get(ctx, "note-1")
	assert.NoError(t, err)
	assert.Equal(t, "second", got.Body)
	assert.Equal(t, v2, got.Version)
}

func TestUpdateIfVersionMatches_MissingEntityIsNotFound(t *testing.T) {
	s := testStore(t)

	_, err := s.UpdateIfVersionMatches(context.Background(), "note-404", NewVersion(), bson.M{"body": "x"})

	assert.True(t, errors.Is(err, apierrors.ErrNotFound))
	assert.False(t, errors.Is(err, apierrors.ErrVersionConflict))
}

func TestUpdateIfVersionMatches_ExactlyOneStaleWriterSucceeds(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	v1 := NewVersion()
	err := s.Insert(ctx, note{ID: "note-1", Body: "first", Version: v1})
	assert.NoError(t, err)

	// two writers race with the same starting version
	results := make(chan error, 2)
	for _, body := range []string{"writer-a", "writer-b"} {
		go func() {
			_, err := s.UpdateIfVersionMatches(ctx, "note-1", v1, bson.M{"body": body})
			results <- err
		}()
	}

	var successes, conflicts int
	for range 2 {
		switch err := <-results; {
		case err == nil:
			successes++
		case errors.Is(err, apierrors.ErrVersionConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
}
