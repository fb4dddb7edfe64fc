/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package tokendoc defines the identifier syntax and document model for
// ledger-anchored identity and credential tokens.
package tokendoc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/multiformats/go-multibase"
	"github.com/xeipuuv/gojsonschema"
)

// Context of the token document.
const Context = "https://anchorid.dev/token/v1"

// ErrInvalidDocument is returned when document bytes are structurally
// malformed or violate a document invariant.
var ErrInvalidDocument = errors.New("invalid document")

var schemaLoaderV1 = gojsonschema.NewStringLoader(schemaV1) //nolint:gochecknoglobals

// Document is a versioned structured record describing an identity or a
// credential anchored on the ledger.
type Document struct {
	Context            []string            `json:"@context,omitempty"`
	ID                 string              `json:"id"`
	VerificationMethod []VerificationEntry `json:"verificationMethod,omitempty"`
	Service            []ServiceEntry      `json:"service,omitempty"`
	Authentication     []string            `json:"authentication,omitempty"`
	AssertionMethod    []string            `json:"assertionMethod,omitempty"`
	Created            *time.Time          `json:"created,omitempty"`
	Updated            *time.Time          `json:"updated,omitempty"`
}

// VerificationEntry carries public key material bound to a document. Exactly
// one of the key encodings is expected to be set.
type VerificationEntry struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller"`
	PublicKeyBase58    string `json:"publicKeyBase58,omitempty"`
	PublicKeyMultibase string `json:"publicKeyMultibase,omitempty"`
	PublicKeyHex       string `json:"publicKeyHex,omitempty"`
}

// KeyBytes decodes whichever key encoding is populated on the entry.
func (v *VerificationEntry) KeyBytes() ([]byte, error) {
	switch {
	case v.PublicKeyBase58 != "":
		return base58.Decode(v.PublicKeyBase58), nil
	case v.PublicKeyMultibase != "":
		_, value, err := multibase.Decode(v.PublicKeyMultibase)
		if err != nil {
			return nil, fmt.Errorf("decode multibase key material: %w", err)
		}

		return value, nil
	case v.PublicKeyHex != "":
		value, err := hex.DecodeString(v.PublicKeyHex)
		if err != nil {
			return nil, fmt.Errorf("decode hex key material: %w", err)
		}

		return value, nil
	default:
		return nil, errors.New("verification entry has no key material")
	}
}

// ServiceEntry declares an endpoint associated with a document.
type ServiceEntry struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	ServiceEndpoint string `json:"serviceEndpoint"`
}

// ParseDocument unmarshals and validates document bytes. Structural
// violations, a missing id, or an authentication/assertion reference that
// does not resolve to a verification entry all yield ErrInvalidDocument.
func ParseDocument(data []byte) (*Document, error) {
	if err := validate(data, schemaLoaderV1); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDocument, err)
	}

	doc := &Document{}

	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: unmarshal failed: %s", ErrInvalidDocument, err)
	}

	if doc.ID == "" {
		return nil, fmt.Errorf("%w: document id is mandatory", ErrInvalidDocument)
	}

	if err := doc.checkReferences(); err != nil {
		return nil, err
	}

	return doc, nil
}

// JSONBytes converts the document to its canonical JSON form. Identical
// documents always serialize to byte-identical output; serial-number
// derivation and resolution idempotence both depend on this.
func (d *Document) JSONBytes() ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	return data, nil
}

func (d *Document) checkReferences() error {
	entries := make(map[string]struct{}, len(d.VerificationMethod))

	for _, vm := range d.VerificationMethod {
		entries[vm.ID] = struct{}{}
	}

	for _, ref := range append(append([]string{}, d.Authentication...), d.AssertionMethod...) {
		if _, ok := entries[ref]; !ok {
			return fmt.Errorf("%w: reference %q has no matching verification entry", ErrInvalidDocument, ref)
		}
	}

	return nil
}

func validate(data []byte, schemaLoader gojsonschema.JSONLoader) error {
	documentLoader := gojsonschema.NewStringLoader(string(data))

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation of token doc failed: %w", err)
	}

	if !result.Valid() {
		errMsg := "token document not valid:\n"
		for _, desc := range result.Errors() {
			errMsg += fmt.Sprintf("- %s\n", desc)
		}

		return errors.New(errMsg)
	}

	return nil
}
