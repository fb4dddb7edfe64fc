/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tokendoc

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Scheme is the fixed leading segment of every token identifier.
const Scheme = "id"

// ErrInvalidIdentifierFormat is returned when an identifier string does not
// conform to the id:<method>:<topic>:<serialNumber> syntax.
var ErrInvalidIdentifierFormat = errors.New("invalid identifier format")

var serialNumberRegex = regexp.MustCompile(`^[0-9a-f]+$`)

// Identifier names a single anchored document. It is immutable once created
// and is never reused across documents.
type Identifier struct {
	Method       string
	Topic        string
	SerialNumber string
}

// String returns the canonical string form of the identifier.
func (i *Identifier) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", Scheme, i.Method, i.Topic, i.SerialNumber)
}

// ParseIdentifier parses an identifier of the form id:<method>:<topic>:<serialNumber>.
// The serial number must be lowercase hex. Any other shape is rejected with
// ErrInvalidIdentifierFormat before any network interaction can take place.
func ParseIdentifier(id string) (*Identifier, error) {
	parts := strings.Split(id, ":")
	if len(parts) != 4 {
		return nil, fmt.Errorf("%w: expected 4 colon-separated segments, got %d", ErrInvalidIdentifierFormat, len(parts))
	}

	if parts[0] != Scheme {
		return nil, fmt.Errorf("%w: scheme must be %q", ErrInvalidIdentifierFormat, Scheme)
	}

	for _, part := range parts[1:] {
		if part == "" {
			return nil, fmt.Errorf("%w: empty segment", ErrInvalidIdentifierFormat)
		}
	}

	if !serialNumberRegex.MatchString(parts[3]) {
		return nil, fmt.Errorf("%w: serial number must be lowercase hex", ErrInvalidIdentifierFormat)
	}

	return &Identifier{
		Method:       parts[1],
		Topic:        parts[2],
		SerialNumber: parts[3],
	}, nil
}
