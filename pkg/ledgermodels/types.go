package ledgermodels

import (
	"encoding/json"
	"time"
)

// Entity types shared by the store and the domain packages. JSON names match
// the persisted snapshot document.
//
// Patient, MedicalRecord and Transaction are owned by external collaborators.
// Their typed fields are a read view: a value decoded from JSON keeps the
// object it came from and encodes back to it unchanged, including fields the
// view does not model. A field whose JSON type does not fit the view is left
// zero instead of failing the decode.

// Consent status values. Status is an open string; these are the values the
// service itself assigns or counts.
const (
	ConsentStatusPending = "pending"
	ConsentStatusActive  = "active"
)

// Patient is created and maintained outside this service.
type Patient struct {
	ID            string `json:"id"`
	PatientID     string `json:"patientId,omitempty"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	DateOfBirth   string `json:"dateOfBirth,omitempty"`
	Gender        string `json:"gender,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	WalletAddress string `json:"walletAddress,omitempty"`

	raw json.RawMessage
}

func (p *Patient) UnmarshalJSON(data []byte) error {
	type view Patient
	var v view
	raw, err := decodeView(data, &v)
	if err != nil {
		return err
	}
	*p = Patient(v)
	p.raw = raw
	return nil
}

func (p Patient) MarshalJSON() ([]byte, error) {
	if p.raw != nil {
		return p.raw, nil
	}
	type view Patient
	return json.Marshal(view(p))
}

// MedicalRecord belongs to a patient by PatientID. The reference is not
// checked.
type MedicalRecord struct {
	ID             string  `json:"id"`
	PatientID      string  `json:"patientId"`
	Type           string  `json:"type"`
	Title          string  `json:"title,omitempty"`
	Description    string  `json:"description,omitempty"`
	Date           string  `json:"date,omitempty"`
	Doctor         string  `json:"doctor,omitempty"`
	Hospital       string  `json:"hospital,omitempty"`
	Status         string  `json:"status,omitempty"`
	BlockchainHash *string `json:"blockchainHash,omitempty"`

	raw json.RawMessage
}

func (r *MedicalRecord) UnmarshalJSON(data []byte) error {
	type view MedicalRecord
	var v view
	raw, err := decodeView(data, &v)
	if err != nil {
		return err
	}
	*r = MedicalRecord(v)
	r.raw = raw
	return nil
}

func (r MedicalRecord) MarshalJSON() ([]byte, error) {
	if r.raw != nil {
		return r.raw, nil
	}
	type view MedicalRecord
	return json.Marshal(view(r))
}

// Consent grants data access for Purpose on behalf of PatientID, signed by
// WalletAddress. Only Status and BlockchainTxHash change after creation.
type Consent struct {
	ID               string    `json:"id"`
	PatientID        string    `json:"patientId"`
	Purpose          string    `json:"purpose"`
	WalletAddress    string    `json:"walletAddress"`
	Signature        *string   `json:"signature"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
	BlockchainTxHash *string   `json:"blockchainTxHash"`
}

// Transaction references an on-chain transaction recorded by an external
// collaborator.
type Transaction struct {
	ID               string  `json:"id"`
	Type             string  `json:"type,omitempty"`
	From             string  `json:"from,omitempty"`
	To               string  `json:"to,omitempty"`
	Amount           float64 `json:"amount,omitempty"`
	Currency         string  `json:"currency,omitempty"`
	Status           string  `json:"status,omitempty"`
	Timestamp        string  `json:"timestamp,omitempty"`
	BlockchainTxHash string  `json:"blockchainTxHash,omitempty"`

	raw json.RawMessage
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	type view Transaction
	var v view
	raw, err := decodeView(data, &v)
	if err != nil {
		return err
	}
	*t = Transaction(v)
	t.raw = raw
	return nil
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	if t.raw != nil {
		return t.raw, nil
	}
	type view Transaction
	return json.Marshal(view(t))
}
