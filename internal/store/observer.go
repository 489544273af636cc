package store

import (
	"github.com/rs/zerolog"

	"github.com/ehr/consentledger/pkg/ledgermodels"
)

// WatchObserver logs whenever a watched patient is part of a loaded or saved
// snapshot. A patient matches on exact name or exact id.
type WatchObserver struct {
	name   string
	id     string
	logger zerolog.Logger
}

// NewWatchObserver returns an observer for the patient with the given name or
// id. Empty values never match.
func NewWatchObserver(logger zerolog.Logger, name, id string) *WatchObserver {
	return &WatchObserver{
		name:   name,
		id:     id,
		logger: logger.With().Str("component", "watch").Logger(),
	}
}

func (w *WatchObserver) SnapshotLoaded(s *Snapshot) { w.report("load", s) }
func (w *WatchObserver) SnapshotSaved(s *Snapshot)  { w.report("save", s) }

// Match returns the first watched patient in s.
func (w *WatchObserver) Match(s *Snapshot) (ledgermodels.Patient, bool) {
	if w.name == "" && w.id == "" {
		return ledgermodels.Patient{}, false
	}
	for _, p := range s.Patients {
		if (w.name != "" && p.Name == w.name) || (w.id != "" && p.ID == w.id) {
			return p, true
		}
	}
	return ledgermodels.Patient{}, false
}

func (w *WatchObserver) report(op string, s *Snapshot) {
	p, ok := w.Match(s)
	if !ok {
		return
	}
	w.logger.Info().
		Str("op", op).
		Str("patient_id", p.ID).
		Str("patient_name", p.Name).
		Msg("watched patient in snapshot")
}
