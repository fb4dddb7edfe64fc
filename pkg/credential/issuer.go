/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"context"
	"encoding/json"
)

// Issuer is the consumed interface of the external credential-issuance
// collaborator. Signature suites and key custody live entirely behind it.
type Issuer interface {
	Issue(ctx context.Context, issuerID, subjectID, credentialType string, claims Claims) (*SignedCredential, error)
	Verify(ctx context.Context, credential *SignedCredential) (*VerificationResult, error)
}

// SignedCredential is an issued credential with its detached proof.
type SignedCredential struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	IssuerID  string          `json:"issuerId"`
	SubjectID string          `json:"subjectId"`
	Claims    Claims          `json:"claims,omitempty"`
	Proof     json.RawMessage `json:"proof,omitempty"`
}

// VerificationResult reports whether a signed credential verified, with the
// collaborator's error descriptions when it did not.
type VerificationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}
