// Package store persists named diagram snapshots.
//
// A snapshot pairs a declaration with the diagram synthesized from it, so a
// topology can be recalled, re-rendered, or compared later without keeping
// the source file around. Two backends are provided:
//   - memory: in-process storage for development and testing
//   - mongo: MongoDB-backed storage for the API server
//
// # Usage
//
// Create a store and save a snapshot:
//
//	st := store.NewMemoryStore()
//	snap := store.New("homelab", declBytes, result.Diagram)
//	if err := st.Put(ctx, snap); err != nil {
//	    return err
//	}
//
// Retrieve it later:
//
//	snap, err := st.Get(ctx, id)
//	if errors.Is(err, store.ErrNotFound) {
//	    // no such snapshot
//	}
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kleypas/netplot/pkg/diagram"
)

// ErrNotFound is returned when a snapshot does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one stored synthesis result.
type Snapshot struct {
	ID          string          `json:"id" bson:"_id"`
	Name        string          `json:"name" bson:"name"`
	CreatedAt   time.Time       `json:"created_at" bson:"created_at"`
	Declaration []byte          `json:"declaration,omitempty" bson:"declaration,omitempty"`
	Diagram     diagram.Diagram `json:"diagram" bson:"diagram"`
}

// Store is the interface for snapshot storage backends.
type Store interface {
	// Get retrieves a snapshot by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// List returns all snapshots, newest first.
	List(ctx context.Context) ([]*Snapshot, error)

	// Put stores a snapshot, replacing any existing one with the same ID.
	Put(ctx context.Context, snap *Snapshot) error

	// Delete removes a snapshot. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// Close releases any backend resources.
	Close(ctx context.Context) error
}

// NewID returns a fresh snapshot identifier.
func NewID() string {
	return uuid.NewString()
}

// New creates a snapshot with a fresh ID and creation time.
func New(name string, declaration []byte, d diagram.Diagram) *Snapshot {
	return &Snapshot{
		ID:          NewID(),
		Name:        name,
		CreatedAt:   time.Now().UTC(),
		Declaration: declaration,
		Diagram:     d,
	}
}
