package record

import "github.com/ehr/consentledger/pkg/ledgermodels"

type MedicalRecord = ledgermodels.MedicalRecord

// DefaultLimit caps GET /records when no usable limit is supplied.
const DefaultLimit = 50

// Filter narrows the record list. Empty fields do not filter.
type Filter struct {
	PatientID string
	Type      string
	Limit     int
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	return f.Limit
}
