package consent

import (
	"context"

	"github.com/ehr/consentledger/internal/store"
)

// Store is the subset of *store.Store the lifecycle manager needs. Every
// mutation runs inside Update.
type Store interface {
	Load(ctx context.Context) *store.Snapshot
	Update(ctx context.Context, fn func(*store.Snapshot) error) error
}
