package state

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edgard/rojitobot/internal/kv"
)

// Artifact is a generated broadcast.
type Artifact struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ArtifactStore keeps the most recent broadcast.
type ArtifactStore struct {
	rec *record
}

// NewArtifactStore creates an ArtifactStore on top of store.
func NewArtifactStore(store kv.Store, log *slog.Logger, opts ...Option) *ArtifactStore {
	return &ArtifactStore{rec: newRecord(store, log, "artifact_store", opts)}
}

// Save replaces the stored artifact.
func (a *ArtifactStore) Save(ctx context.Context, artifact Artifact) error {
	_, err := mutate(ctx, a.rec, lastBroadcastKey, func(cur *Artifact) error {
		*cur = artifact
		return nil
	})
	if err != nil {
		return fmt.Errorf("save last broadcast: %w", err)
	}
	return nil
}

// Last returns the stored artifact, if any.
func (a *ArtifactStore) Last(ctx context.Context) (Artifact, bool) {
	artifact := read[Artifact](ctx, a.rec, lastBroadcastKey)
	return artifact, artifact.Content != ""
}
