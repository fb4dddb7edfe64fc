/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package api defines the closed registry and resolver interfaces consumed
// by higher layers, so that network-backed and in-memory variants can be
// selected at compile time.
package api

import (
	"context"
	"errors"

	"github.com/anchorid/anchorid-go/pkg/doc/tokendoc"
	"github.com/anchorid/anchorid-go/pkg/ledger"
)

// DefaultMethod is the method tag used unless a deployment overrides it.
const DefaultMethod = "anchor"

// ErrNotFound is returned when an identifier cannot be resolved by any tier
// or a referenced token does not exist.
var ErrNotFound = errors.New("not found")

// CreateOpts carries the per-create registry parameters.
type CreateOpts struct {
	Topic       string
	KeyRef      string
	Description string
}

// UpdateOpts carries the parameters required to supersede an existing
// anchor: the current outpoint and the signing key reference for it.
type UpdateOpts struct {
	Outpoint    ledger.Outpoint
	KeyRef      string
	Description string
}

// Registry creates and updates ledger-anchored documents.
type Registry interface {
	Create(ctx context.Context, doc *tokendoc.Document, opts CreateOpts) (*tokendoc.Identifier, *ledger.Outpoint, error)
	Update(ctx context.Context, id *tokendoc.Identifier, doc *tokendoc.Document,
		opts UpdateOpts) (*tokendoc.Identifier, *ledger.Outpoint, error)
}

// Resolver resolves an identifier string to its current document. Resolution
// is read-only, idempotent and safe for concurrent use.
type Resolver interface {
	Resolve(ctx context.Context, id string) (*tokendoc.Document, error)
}
