package consent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ehr/consentledger/pkg/ledgermodels"
)

type Consent = ledgermodels.Consent

const (
	StatusPending = ledgermodels.ConsentStatusPending
	StatusActive  = ledgermodels.ConsentStatusActive
)

var (
	ErrNotFound   = errors.New("consent not found")
	ErrBadRequest = errors.New("missing required fields")
)

// CreateRequest is the body of POST /consents.
type CreateRequest struct {
	PatientID     string `json:"patientId"`
	Purpose       string `json:"purpose"`
	WalletAddress string `json:"walletAddress"`
	Signature     string `json:"signature"`
}

// Validate reports every required field that is empty or whitespace.
func (r CreateRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.PatientID) == "" {
		missing = append(missing, "patientId")
	}
	if strings.TrimSpace(r.Purpose) == "" {
		missing = append(missing, "purpose")
	}
	if strings.TrimSpace(r.WalletAddress) == "" {
		missing = append(missing, "walletAddress")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrBadRequest, strings.Join(missing, ", "))
	}
	return nil
}

// UpdateRequest is a sparse patch: empty fields leave the stored value alone.
type UpdateRequest struct {
	Status           string `json:"status"`
	BlockchainTxHash string `json:"blockchainTxHash"`
}

func (r UpdateRequest) apply(c *Consent) {
	if r.Status != "" {
		c.Status = r.Status
	}
	if r.BlockchainTxHash != "" {
		hash := r.BlockchainTxHash
		c.BlockchainTxHash = &hash
	}
}

// Filter selects consents by exact patient id and status. Empty fields match
// everything.
type Filter struct {
	PatientID string
	Status    string
}

func (f Filter) matches(c Consent) bool {
	if f.PatientID != "" && c.PatientID != f.PatientID {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	return true
}
