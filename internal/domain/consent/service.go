package consent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/consentledger/internal/platform/events"
	"github.com/ehr/consentledger/internal/store"
)

const (
	EventCreated = "consent.created"
	EventUpdated = "consent.updated"
)

type Service struct {
	store     Store
	publisher events.Publisher
	logger    zerolog.Logger

	now   func() time.Time
	newID func() string
}

func NewService(store Store, publisher events.Publisher, logger zerolog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger.With().Str("component", "consent").Logger(),
		now:       time.Now,
		newID:     func() string { return "consent-" + uuid.New().String() },
	}
}

// Create records a new pending consent. Nothing is returned as created
// unless the snapshot containing it was saved.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Consent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var created Consent
	err := s.store.Update(ctx, func(snap *store.Snapshot) error {
		id := s.newID()
		for indexOf(snap.Consents, id) >= 0 {
			id = s.newID()
		}
		created = Consent{
			ID:            id,
			PatientID:     req.PatientID,
			Purpose:       req.Purpose,
			WalletAddress: req.WalletAddress,
			Status:        StatusPending,
			CreatedAt:     s.now().UTC().Truncate(time.Millisecond),
		}
		if req.Signature != "" {
			sig := req.Signature
			created.Signature = &sig
		}
		snap.Consents = append(snap.Consents, created)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create consent: %w", err)
	}

	s.logger.Info().Str("consent_id", created.ID).Str("patient_id", created.PatientID).Msg("consent created")
	s.publish(ctx, EventCreated, created)
	return &created, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Consent, error) {
	consents := s.store.Load(ctx).Consents
	i := indexOf(consents, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	c := consents[i]
	return &c, nil
}

// List returns the consents matching f in insertion order.
func (s *Service) List(ctx context.Context, f Filter) []Consent {
	out := []Consent{}
	for _, c := range s.store.Load(ctx).Consents {
		if f.matches(c) {
			out = append(out, c)
		}
	}
	return out
}

// Update applies req to the consent with the given id. Status transitions are
// not checked.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Consent, error) {
	var updated Consent
	err := s.store.Update(ctx, func(snap *store.Snapshot) error {
		i := indexOf(snap.Consents, id)
		if i < 0 {
			return ErrNotFound
		}
		req.apply(&snap.Consents[i])
		updated = snap.Consents[i]
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update consent %s: %w", id, err)
	}

	s.logger.Info().Str("consent_id", updated.ID).Str("status", updated.Status).Msg("consent updated")
	s.publish(ctx, EventUpdated, updated)
	return &updated, nil
}

func (s *Service) publish(ctx context.Context, eventType string, c Consent) {
	if err := s.publisher.Publish(ctx, events.New(eventType, c.ID, c)); err != nil {
		s.logger.Warn().Err(err).Str("event_type", eventType).Str("consent_id", c.ID).Msg("publish event failed")
	}
}

func indexOf(consents []Consent, id string) int {
	for i := range consents {
		if consents[i].ID == id {
			return i
		}
	}
	return -1
}
