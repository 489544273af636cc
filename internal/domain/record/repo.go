package record

import (
	"context"

	"github.com/ehr/consentledger/internal/store"
)

type SnapshotLoader interface {
	Load(ctx context.Context) *store.Snapshot
}
