package patient

import (
	"context"

	"github.com/ehr/consentledger/pkg/pagination"
)

type Service struct {
	store SnapshotLoader
}

func NewService(store SnapshotLoader) *Service {
	return &Service{store: store}
}

// List returns the requested page of patients matching params.Search.
func (s *Service) List(ctx context.Context, params ListParams) *ListResult {
	patients := s.store.Load(ctx).Patients

	if params.Search != "" {
		filtered := make([]Patient, 0, len(patients))
		for _, p := range patients {
			if matches(p, params.Search) {
				filtered = append(filtered, p)
			}
		}
		patients = filtered
	}

	pg := pagination.New(params.Page, params.Limit)
	return &ListResult{
		Patients:   pagination.Slice(patients, pg),
		Pagination: pg.Meta(len(patients)),
	}
}

func (s *Service) Get(ctx context.Context, id string) (*Patient, error) {
	for _, p := range s.store.Load(ctx).Patients {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, ErrNotFound
}
