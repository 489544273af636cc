package patient

import (
	"errors"
	"strings"

	"github.com/ehr/consentledger/pkg/ledgermodels"
	"github.com/ehr/consentledger/pkg/pagination"
)

// Patient is read-only to this service.
type Patient = ledgermodels.Patient

var ErrNotFound = errors.New("patient not found")

// ListParams filters and paginates the patient list.
type ListParams struct {
	Page   int
	Limit  int
	Search string
}

// ListResult is one page of the filtered patient list.
type ListResult struct {
	Patients   []Patient       `json:"patients"`
	Pagination pagination.Meta `json:"pagination"`
}

// matches reports whether p satisfies the search term: a case-insensitive
// substring of name or email, or a case-sensitive substring of the patient
// number or id.
func matches(p Patient, term string) bool {
	lower := strings.ToLower(term)
	return strings.Contains(strings.ToLower(p.Name), lower) ||
		strings.Contains(strings.ToLower(p.Email), lower) ||
		strings.Contains(p.PatientID, term) ||
		strings.Contains(p.ID, term)
}
