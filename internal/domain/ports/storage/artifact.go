package storage

import (
	"context"
	"time"
)

// ArtifactStore owns the photo artifacts backing capture jobs. Exactly one
// job references any given key; deleting a key that is already gone is not
// an error.
type ArtifactStore interface {
	Save(ctx context.Context, key string, data []byte, mime string) error
	Load(ctx context.Context, key string) ([]byte, string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	// SweepOlderThan removes artifacts stored before cutoff and returns
	// the keys it deleted. This is the retention backstop that keeps an
	// abandoned job from leaking its photo forever.
	SweepOlderThan(ctx context.Context, cutoff time.Time) ([]string, error)
}
