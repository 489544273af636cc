package patient

import (
	"context"

	"github.com/ehr/consentledger/internal/store"
)

// SnapshotLoader is the read side of the store.
type SnapshotLoader interface {
	Load(ctx context.Context) *store.Snapshot
}
