// Package store persists the consent ledger snapshot: one document holding
// the patients, records, consents and transactions collections. Reads are
// fail-open (a broken backend yields an empty snapshot), writes are
// fail-closed (the error reaches the caller).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ehr/consentledger/pkg/ledgermodels"
)

var (
	// ErrStorage wraps every failure to read, decode, encode or write the
	// snapshot document.
	ErrStorage = errors.New("storage failure")

	// ErrNoDocument is returned by backends when nothing has been persisted
	// yet. The store treats it as an empty snapshot.
	ErrNoDocument = errors.New("no snapshot document")
)

// Snapshot is the full state of the four collections at a point in time.
type Snapshot struct {
	Patients     []ledgermodels.Patient       `json:"patients"`
	Records      []ledgermodels.MedicalRecord `json:"records"`
	Consents     []ledgermodels.Consent       `json:"consents"`
	Transactions []ledgermodels.Transaction   `json:"transactions"`

	// extra holds top-level members other than the four collections. They
	// belong to other writers of the document and are written back as read.
	extra map[string]json.RawMessage
}

// Empty returns a snapshot with four empty, non-nil collections.
func Empty() *Snapshot {
	return &Snapshot{
		Patients:     []ledgermodels.Patient{},
		Records:      []ledgermodels.MedicalRecord{},
		Consents:     []ledgermodels.Consent{},
		Transactions: []ledgermodels.Transaction{},
	}
}

func (s *Snapshot) normalize() {
	if s.Patients == nil {
		s.Patients = []ledgermodels.Patient{}
	}
	if s.Records == nil {
		s.Records = []ledgermodels.MedicalRecord{}
	}
	if s.Consents == nil {
		s.Consents = []ledgermodels.Consent{}
	}
	if s.Transactions == nil {
		s.Transactions = []ledgermodels.Transaction{}
	}
}

// Backend stores the encoded snapshot document as a single unit.
type Backend interface {
	Name() string
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// Observer is notified whenever a snapshot is loaded from or saved to the
// backend.
type Observer interface {
	SnapshotLoaded(s *Snapshot)
	SnapshotSaved(s *Snapshot)
}

// Option configures a Store.
type Option func(*Store)

// WithObserver registers an observer hook.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		s.observers = append(s.observers, o)
	}
}

// Store owns a Backend and serializes all writers to it.
type Store struct {
	backend   Backend
	logger    zerolog.Logger
	observers []Observer

	// mu is held for every write so that load-mutate-save sequences never
	// interleave.
	mu sync.Mutex
}

// New returns a Store persisting through backend.
func New(backend Backend, logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  logger.With().Str("component", "store").Str("backend", backend.Name()).Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// Load returns the current snapshot. Any failure is logged and an empty
// snapshot is returned instead.
func (s *Store) Load(ctx context.Context) *Snapshot {
	snap, err := s.read(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("load snapshot failed, serving empty snapshot")
		return Empty()
	}
	return snap
}

// Read returns the current snapshot or the error that prevented loading it.
// Use it where an empty stand-in would be wrong, such as exports.
func (s *Store) Read(ctx context.Context) (*Snapshot, error) {
	return s.read(ctx)
}

// Save persists snap in full with a single backend write.
func (s *Store) Save(ctx context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, snap)
}

// Update runs fn against the current snapshot and saves the result while
// holding the writer lock. Unlike Load, a read failure aborts the update so
// that a broken backend is never overwritten with an empty document. If fn
// returns an error nothing is saved and the error is returned as is.
func (s *Store) Update(ctx context.Context, fn func(*Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.read(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("load snapshot for update failed")
		return err
	}
	if err := fn(snap); err != nil {
		return err
	}
	return s.save(ctx, snap)
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) read(ctx context.Context) (*Snapshot, error) {
	data, err := s.backend.Read(ctx)
	if errors.Is(err, ErrNoDocument) {
		snap := Empty()
		s.notifyLoaded(snap)
		return snap, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s backend: %w", ErrStorage, s.backend.Name(), err)
	}
	snap, err := Decode(data)
	if err != nil {
		return nil, err
	}
	s.notifyLoaded(snap)
	return snap, nil
}

func (s *Store) save(ctx context.Context, snap *Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := s.backend.Write(ctx, data); err != nil {
		s.logger.Error().Err(err).Msg("save snapshot failed")
		return fmt.Errorf("%w: write %s backend: %w", ErrStorage, s.backend.Name(), err)
	}
	for _, o := range s.observers {
		o.SnapshotSaved(snap)
	}
	return nil
}

func (s *Store) notifyLoaded(snap *Snapshot) {
	for _, o := range s.observers {
		o.SnapshotLoaded(snap)
	}
}

var collectionKeys = []string{"patients", "records", "consents", "transactions"}

// Decode validates data against the snapshot schema and decodes it.
func Decode(data []byte) (*Snapshot, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %w", ErrStorage, err)
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %w", ErrStorage, err)
	}
	for _, k := range collectionKeys {
		delete(members, k)
	}
	if len(members) > 0 {
		snap.extra = members
	}
	snap.normalize()
	return &snap, nil
}

// Encode renders snap as the indented JSON document written to backends.
func Encode(snap *Snapshot) ([]byte, error) {
	snap.normalize()
	var doc any = snap
	if len(snap.extra) > 0 {
		members := make(map[string]any, len(snap.extra)+len(collectionKeys))
		for k, v := range snap.extra {
			members[k] = v
		}
		members["patients"] = snap.Patients
		members["records"] = snap.Records
		members["consents"] = snap.Consents
		members["transactions"] = snap.Transactions
		doc = members
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode snapshot: %w", ErrStorage, err)
	}
	return data, nil
}
