package record

import (
	"context"
	"strings"
)

type Service struct {
	store SnapshotLoader
}

func NewService(store SnapshotLoader) *Service {
	return &Service{store: store}
}

// ListByPatient returns every record belonging to patientID.
func (s *Service) ListByPatient(ctx context.Context, patientID string) []MedicalRecord {
	out := []MedicalRecord{}
	for _, r := range s.store.Load(ctx).Records {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out
}

// List returns at most f.Limit records matching f, in storage order. The
// type comparison ignores case.
func (s *Service) List(ctx context.Context, f Filter) []MedicalRecord {
	limit := f.limit()
	out := []MedicalRecord{}
	for _, r := range s.store.Load(ctx).Records {
		if len(out) == limit {
			break
		}
		if f.PatientID != "" && r.PatientID != f.PatientID {
			continue
		}
		if f.Type != "" && !strings.EqualFold(r.Type, f.Type) {
			continue
		}
		out = append(out, r)
	}
	return out
}
