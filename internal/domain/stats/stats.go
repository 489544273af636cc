// Package stats computes dashboard counters over the current snapshot.
package stats

import (
	"context"

	"github.com/ehr/consentledger/internal/store"
	"github.com/ehr/consentledger/pkg/ledgermodels"
)

// Stats is recomputed on every request and never cached.
type Stats struct {
	TotalPatients     int `json:"totalPatients"`
	TotalRecords      int `json:"totalRecords"`
	TotalConsents     int `json:"totalConsents"`
	ActiveConsents    int `json:"activeConsents"`
	PendingConsents   int `json:"pendingConsents"`
	TotalTransactions int `json:"totalTransactions"`
}

type SnapshotLoader interface {
	Load(ctx context.Context) *store.Snapshot
}

type Aggregator struct {
	store SnapshotLoader
}

func NewAggregator(store SnapshotLoader) *Aggregator {
	return &Aggregator{store: store}
}

func (a *Aggregator) Compute(ctx context.Context) Stats {
	return FromSnapshot(a.store.Load(ctx))
}

// FromSnapshot counts the collections of snap.
func FromSnapshot(snap *store.Snapshot) Stats {
	st := Stats{
		TotalPatients:     len(snap.Patients),
		TotalRecords:      len(snap.Records),
		TotalConsents:     len(snap.Consents),
		TotalTransactions: len(snap.Transactions),
	}
	for _, c := range snap.Consents {
		switch c.Status {
		case ledgermodels.ConsentStatusActive:
			st.ActiveConsents++
		case ledgermodels.ConsentStatusPending:
			st.PendingConsents++
		}
	}
	return st
}
