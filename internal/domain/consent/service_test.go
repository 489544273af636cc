package consent

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/consentledger/internal/platform/events"
	"github.com/ehr/consentledger/internal/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	svc       *Service
	store     *store.Store
	backend   *store.MemoryBackend
	publisher *recordingPublisher
}

func newFixture(t *testing.T, seed ...Consent) *fixture {
	t.Helper()
	backend := store.NewMemoryBackend()
	s := store.New(backend, zerolog.Nop())
	if len(seed) > 0 {
		snap := store.Empty()
		snap.Consents = append(snap.Consents, seed...)
		if err := s.Save(context.Background(), snap); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}
	pub := &recordingPublisher{}
	svc := NewService(s, pub, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 123456789, time.UTC) }
	return &fixture{svc: svc, store: s, backend: backend, publisher: pub}
}

func strPtr(s string) *string { return &s }

func seedConsents() []Consent {
	return []Consent{
		{
			ID:               "consent-1",
			PatientID:        "patient-001",
			Purpose:          "research",
			WalletAddress:    "0xaaa",
			Signature:        strPtr("0xsig"),
			Status:           StatusPending,
			CreatedAt:        time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
			BlockchainTxHash: strPtr("0xold"),
		},
		{ID: "consent-2", PatientID: "patient-002", Purpose: "treatment", WalletAddress: "0xbbb", Status: StatusActive},
		{ID: "consent-3", PatientID: "patient-001", Purpose: "insurance", WalletAddress: "0xccc", Status: StatusActive},
	}
}

func validRequest() CreateRequest {
	return CreateRequest{
		PatientID:     "patient-001",
		Purpose:       "research",
		WalletAddress: "0x1234",
		Signature:     "0xsig",
	}
}

func TestService_Create(t *testing.T) {
	f := newFixture(t)

	c, err := f.svc.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Status != StatusPending {
		t.Errorf("expected status pending, got %s", c.Status)
	}
	if c.BlockchainTxHash != nil {
		t.Errorf("expected nil blockchainTxHash, got %v", *c.BlockchainTxHash)
	}
	if c.Signature == nil || *c.Signature != "0xsig" {
		t.Errorf("expected signature 0xsig, got %v", c.Signature)
	}
	if c.ID == "" {
		t.Error("expected generated id")
	}
	want := time.Date(2024, 6, 1, 12, 0, 0, 123000000, time.UTC)
	if !c.CreatedAt.Equal(want) {
		t.Errorf("expected createdAt %v, got %v", want, c.CreatedAt)
	}

	stored := f.store.Load(context.Background()).Consents
	if len(stored) != 1 || stored[0].ID != c.ID {
		t.Fatalf("expected consent persisted, got %+v", stored)
	}
	if got := f.publisher.types(); len(got) != 1 || got[0] != EventCreated {
		t.Errorf("expected one %s event, got %v", EventCreated, got)
	}
}

func TestService_Create_NoSignature(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	req.Signature = ""

	c, err := f.svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Signature != nil {
		t.Errorf("expected nil signature, got %v", *c.Signature)
	}
}

func TestService_Create_DistinctIDs(t *testing.T) {
	f := newFixture(t, Consent{ID: "consent-dup", PatientID: "p", Purpose: "x", WalletAddress: "w", Status: StatusPending})
	ids := []string{"consent-dup", "consent-dup", "consent-fresh"}
	f.svc.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	c, err := f.svc.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID != "consent-fresh" {
		t.Errorf("expected consent-fresh, got %s", c.ID)
	}
}

func TestService_Create_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateRequest)
		missing string
	}{
		{"patient", func(r *CreateRequest) { r.PatientID = "" }, "patientId"},
		{"purpose", func(r *CreateRequest) { r.Purpose = "   " }, "purpose"},
		{"wallet", func(r *CreateRequest) { r.WalletAddress = "\t" }, "walletAddress"},
		{"all", func(r *CreateRequest) { *r = CreateRequest{} }, "patientId, purpose, walletAddress"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, seedConsents()...)
			req := validRequest()
			tt.mutate(&req)

			_, err := f.svc.Create(context.Background(), req)
			if !errors.Is(err, ErrBadRequest) {
				t.Fatalf("expected ErrBadRequest, got %v", err)
			}
			if want := "missing required fields: " + tt.missing; err.Error() != want {
				t.Errorf("expected %q, got %q", want, err.Error())
			}
			if n := len(f.store.Load(context.Background()).Consents); n != 3 {
				t.Errorf("expected 3 consents, got %d", n)
			}
			if len(f.publisher.types()) != 0 {
				t.Error("expected no events")
			}
		})
	}
}

func TestService_Create_SaveFailure(t *testing.T) {
	f := newFixture(t, seedConsents()...)
	f.backend.SetWriteError(errors.New("disk full"))

	c, err := f.svc.Create(context.Background(), validRequest())
	if !errors.Is(err, store.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if c != nil {
		t.Errorf("expected no consent, got %+v", c)
	}
	if len(f.publisher.types()) != 0 {
		t.Error("expected no events after failed save")
	}

	f.backend.SetWriteError(nil)
	if n := len(f.store.Load(context.Background()).Consents); n != 3 {
		t.Errorf("expected 3 consents, got %d", n)
	}
}

func TestService_Create_ReadFailureDoesNotOverwrite(t *testing.T) {
	f := newFixture(t, seedConsents()...)
	f.backend.SetReadError(errors.New("unreachable"))

	if _, err := f.svc.Create(context.Background(), validRequest()); !errors.Is(err, store.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}

	f.backend.SetReadError(nil)
	if n := len(f.store.Load(context.Background()).Consents); n != 3 {
		t.Errorf("expected existing consents to survive, got %d", n)
	}
}

func TestService_Create_Concurrent(t *testing.T) {
	f := newFixture(t)

	const n = 40
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validRequest()
			req.PatientID = fmt.Sprintf("patient-%d", i)
			if _, err := f.svc.Create(context.Background(), req); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}

	consents := f.store.Load(context.Background()).Consents
	if len(consents) != n {
		t.Fatalf("expected %d consents, got %d", n, len(consents))
	}
	seen := make(map[string]bool)
	for _, c := range consents {
		if seen[c.ID] {
			t.Errorf("duplicate id %s", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestService_Create_PublishFailureIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	if _, err := f.svc.Create(context.Background(), validRequest()); err != nil {
		t.Fatalf("expected publish failure to be swallowed, got %v", err)
	}
	if n := len(f.store.Load(context.Background()).Consents); n != 1 {
		t.Errorf("expected commit to stand, got %d consents", n)
	}
}

func TestService_Get(t *testing.T) {
	f := newFixture(t, seedConsents()...)

	c, err := f.svc.Get(context.Background(), "consent-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Purpose != "treatment" {
		t.Errorf("expected treatment, got %s", c.Purpose)
	}
	if _, err := f.svc.Get(context.Background(), "consent-404"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_List(t *testing.T) {
	f := newFixture(t, seedConsents()...)

	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{"all", Filter{}, "[consent-1 consent-2 consent-3]"},
		{"patient", Filter{PatientID: "patient-001"}, "[consent-1 consent-3]"},
		{"status", Filter{Status: StatusActive}, "[consent-2 consent-3]"},
		{"both", Filter{PatientID: "patient-001", Status: StatusActive}, "[consent-3]"},
		{"status is exact", Filter{Status: "Active"}, "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, c := range f.svc.List(context.Background(), tt.filter) {
				got = append(got, c.ID)
			}
			if fmt.Sprint(got) != tt.want {
				t.Errorf("expected %s, got %v", tt.want, got)
			}
		})
	}
}

func TestService_Update_StatusOnly(t *testing.T) {
	f := newFixture(t, seedConsents()...)
	before, _ := f.svc.Get(context.Background(), "consent-1")

	c, err := f.svc.Update(context.Background(), "consent-1", UpdateRequest{Status: StatusActive})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Status != StatusActive {
		t.Errorf("expected active, got %s", c.Status)
	}
	if c.BlockchainTxHash == nil || *c.BlockchainTxHash != "0xold" {
		t.Errorf("expected blockchainTxHash preserved, got %v", c.BlockchainTxHash)
	}
	want := *before
	want.Status = StatusActive
	if !reflect.DeepEqual(*c, want) {
		t.Errorf("expected only status to change:\n got  %+v\n want %+v", *c, want)
	}

	stored, _ := f.svc.Get(context.Background(), "consent-1")
	if stored.Status != StatusActive {
		t.Errorf("expected persisted status active, got %s", stored.Status)
	}
	if got := f.publisher.types(); len(got) != 1 || got[0] != EventUpdated {
		t.Errorf("expected one %s event, got %v", EventUpdated, got)
	}
}

func TestService_Update_TxHash(t *testing.T) {
	f := newFixture(t, seedConsents()...)

	c, err := f.svc.Update(context.Background(), "consent-2", UpdateRequest{BlockchainTxHash: "0xnew"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.BlockchainTxHash == nil || *c.BlockchainTxHash != "0xnew" {
		t.Errorf("expected 0xnew, got %v", c.BlockchainTxHash)
	}
	if c.Status != StatusActive {
		t.Errorf("expected status untouched, got %s", c.Status)
	}
}

func TestService_Update_PermissiveStatus(t *testing.T) {
	f := newFixture(t, seedConsents()...)

	c, err := f.svc.Update(context.Background(), "consent-2", UpdateRequest{Status: "revoked"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Status != "revoked" {
		t.Errorf("expected revoked, got %s", c.Status)
	}
}

func TestService_Update_NotFound(t *testing.T) {
	f := newFixture(t, seedConsents()...)
	writes := f.backend.Writes()

	_, err := f.svc.Update(context.Background(), "consent-404", UpdateRequest{Status: StatusActive})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if f.backend.Writes() != writes {
		t.Error("expected nothing saved")
	}
	if len(f.publisher.types()) != 0 {
		t.Error("expected no events")
	}
}

func TestService_Update_SaveFailure(t *testing.T) {
	f := newFixture(t, seedConsents()...)
	f.backend.SetWriteError(errors.New("disk full"))

	if _, err := f.svc.Update(context.Background(), "consent-1", UpdateRequest{Status: StatusActive}); !errors.Is(err, store.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}

	f.backend.SetWriteError(nil)
	c, _ := f.svc.Get(context.Background(), "consent-1")
	if c.Status != StatusPending {
		t.Errorf("expected status to stay pending, got %s", c.Status)
	}
}

func TestService_Create_KeepsExternalCollections(t *testing.T) {
	f := newFixture(t)
	doc := `{
		"patients": [{"id": "patient-001", "firstName": "John", "dob": "1980-02-01", "wallet": "0x1234"}],
		"records": [],
		"consents": [],
		"transactions": [{"id": "tx-1", "blockNumber": 1, "amount": "0.05"}]
	}`
	if err := f.backend.Write(context.Background(), []byte(doc)); err != nil {
		t.Fatalf("seed backend: %v", err)
	}

	if _, err := f.svc.Create(context.Background(), validRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	saved := string(f.backend.Raw())
	for _, want := range []string{`"firstName": "John"`, `"dob": "1980-02-01"`, `"wallet": "0x1234"`, `"blockNumber": 1`, `"amount": "0.05"`} {
		if !strings.Contains(saved, want) {
			t.Errorf("expected saved document to keep %s:\n%s", want, saved)
		}
	}
	if got := f.svc.List(context.Background(), Filter{}); len(got) != 1 {
		t.Errorf("expected 1 consent, got %d", len(got))
	}
}
