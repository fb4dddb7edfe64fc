/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"time"

	"github.com/anchorid/anchorid-go/pkg/ledger"
)

// Status is the lifecycle state of a credential token. Transitions are
// monotonic (active, transferred..., finalized) and irreversible.
type Status string

const (
	// StatusActive marks a token held by its original subject.
	StatusActive Status = "active"
	// StatusTransferred marks a token whose ownership has moved at least
	// once. Further transfers remain legal.
	StatusTransferred Status = "transferred"
	// StatusFinalized is the terminal state: the token is consumed or
	// completed and no transitions out of it are legal. Finalization is a
	// logical state, never a physical delete.
	StatusFinalized Status = "finalized"
)

// TransferRecord is appended to a token's history on every ownership change.
// Records are never mutated after the fact.
type TransferRecord struct {
	From      string           `json:"from"`
	To        string           `json:"to"`
	Timestamp time.Time        `json:"timestamp"`
	Outpoint  *ledger.Outpoint `json:"outpoint,omitempty"`
}

// DispenseRecord annotates a token with one dispensation event and its
// fraud score.
type DispenseRecord struct {
	Quantity   int64     `json:"quantity"`
	Confirmed  bool      `json:"confirmed"`
	Timestamp  time.Time `json:"timestamp"`
	FraudScore int       `json:"fraudScore"`
}

// Claims is the credential payload. Schema semantics beyond structure are
// the issuance collaborator's concern; the known keys below feed the fraud
// rules.
type Claims map[string]interface{}

// Quantity returns the authorized quantity claim, when present.
func (c Claims) Quantity() (int64, bool) {
	switch v := c["quantity"].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// ValidUntil returns the end of the validity window claim, when present.
func (c Claims) ValidUntil() (time.Time, bool) {
	switch v := c["validUntil"].(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, false
		}

		return t, true
	default:
		return time.Time{}, false
	}
}

// Token is the mutable ownership and state wrapper around an issued
// credential. CurrentOwnerID is authoritative only while the status is not
// finalized.
type Token struct {
	ID           string `json:"id"`
	CredentialID string `json:"credentialId"`

	// DocumentID is the identifier of the document currently anchoring the
	// token. Each re-anchor supersedes it with a fresh serial number while
	// the token id itself stays stable.
	DocumentID      string           `json:"documentId"`
	Outpoint        ledger.Outpoint  `json:"outpoint"`
	Status          Status           `json:"status"`
	Type            string           `json:"type"`
	IssuerID        string           `json:"issuerId"`
	SubjectID       string           `json:"subjectId"`
	CurrentOwnerID  string           `json:"currentOwnerId"`
	Claims          Claims           `json:"claims,omitempty"`
	TransferHistory []TransferRecord `json:"transferHistory,omitempty"`
	Dispensations   []DispenseRecord `json:"dispensations,omitempty"`
	FraudScore      int              `json:"fraudScore"`

	// Version stamps the row for optimistic compare-and-update.
	Version uint64 `json:"version"`
}

func (t *Token) clone() *Token {
	out := *t

	out.Claims = make(Claims, len(t.Claims))
	for k, v := range t.Claims {
		out.Claims[k] = v
	}

	out.TransferHistory = append([]TransferRecord{}, t.TransferHistory...)
	out.Dispensations = append([]DispenseRecord{}, t.Dispensations...)

	return &out
}
