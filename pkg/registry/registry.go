/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package registry creates and updates ledger-anchored token documents,
// derives their serial numbers and keeps the local anchor mapping current.
package registry

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/multiformats/go-multihash"

	"github.com/anchorid/anchorid-go/pkg/api"
	"github.com/anchorid/anchorid-go/pkg/doc/tokendoc"
	"github.com/anchorid/anchorid-go/pkg/ledger"
	"github.com/anchorid/anchorid-go/pkg/ledger/txn"
	"github.com/anchorid/anchorid-go/pkg/store/anchor"
	"github.com/anchorid/anchorid-go/pkg/wallet"
)

const defaultSubmitTimeout = 10 * time.Second

var logger = log.New("anchorid/registry")

// Registry implements api.Registry against the ledger.
type Registry struct {
	method        string
	builder       *txn.Builder
	anchors       *anchor.Store
	lookup        submitter
	submitTimeout time.Duration
}

// submitter is the outbound half of the index service used by the registry.
type submitter interface {
	Submit(ctx context.Context, topic string, rawTx []byte) error
}

type provider interface {
	StorageProvider() storage.Provider
}

// Option is a registry instance option.
type Option func(r *Registry)

// WithMethod overrides the deployment method tag.
func WithMethod(method string) Option {
	return func(r *Registry) {
		r.method = method
	}
}

// WithLookupClient sets the index service the registry notifies after each
// successful submission. Without one, entities are resolvable via the
// ledger fallback only.
func WithLookupClient(lookup submitter) Option {
	return func(r *Registry) {
		r.lookup = lookup
	}
}

// WithSubmitTimeout bounds the asynchronous index-service notification.
func WithSubmitTimeout(timeout time.Duration) Option {
	return func(r *Registry) {
		r.submitTimeout = timeout
	}
}

// New returns a new registry using the given signer for transaction
// construction. The signer handle is explicit dependency injection; there is
// no ambient key-management state.
func New(ctx provider, signer wallet.Signer, opts ...Option) (*Registry, error) {
	anchors, err := anchor.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open anchor store: %w", err)
	}

	r := &Registry{
		method:        api.DefaultMethod,
		builder:       txn.NewBuilder(signer),
		anchors:       anchors,
		submitTimeout: defaultSubmitTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Create anchors a new document on the ledger and returns its identifier.
// The serial number is derived from the document content, the creation
// timestamp and a random nonce, so two creations never collide even with
// identical input documents.
func (r *Registry) Create(ctx context.Context, doc *tokendoc.Document,
	opts api.CreateOpts) (*tokendoc.Identifier, *ledger.Outpoint, error) {
	if doc == nil {
		return nil, nil, errors.New("document is mandatory")
	}

	if opts.Topic == "" {
		return nil, nil, errors.New("topic is mandatory")
	}

	now := time.Now().UTC()
	if doc.Created == nil {
		doc.Created = &now
	}

	contentBytes, err := doc.JSONBytes()
	if err != nil {
		return nil, nil, err
	}

	serialNumber, err := deriveSerialNumber(contentBytes, now)
	if err != nil {
		return nil, nil, err
	}

	id := &tokendoc.Identifier{Method: r.method, Topic: opts.Topic, SerialNumber: serialNumber}
	doc.ID = id.String()

	outpoint, rawTx, err := r.anchorDocument(ctx, doc, serialNumber, txn.BuildOpts{
		KeyRef:      opts.KeyRef,
		Topic:       opts.Topic,
		Description: description(opts.Description, "token create"),
	})
	if err != nil {
		return nil, nil, err
	}

	r.notifyIndexService(opts.Topic, rawTx)

	return id, outpoint, nil
}

// Update supersedes an existing anchor: it consumes the current outpoint,
// anchors the document under a freshly derived serial number and marks the
// prior record superseded. The returned identifier embeds the new serial
// number; stale identifiers remain followable through the supersedes chain.
func (r *Registry) Update(ctx context.Context, id *tokendoc.Identifier, doc *tokendoc.Document,
	opts api.UpdateOpts) (*tokendoc.Identifier, *ledger.Outpoint, error) {
	if id == nil || doc == nil {
		return nil, nil, errors.New("identifier and document are mandatory")
	}

	now := time.Now().UTC()
	doc.Updated = &now

	contentBytes, err := doc.JSONBytes()
	if err != nil {
		return nil, nil, err
	}

	serialNumber, err := deriveSerialNumber(contentBytes, now)
	if err != nil {
		return nil, nil, err
	}

	newID := &tokendoc.Identifier{Method: id.Method, Topic: id.Topic, SerialNumber: serialNumber}
	doc.ID = newID.String()

	outpoint, rawTx, err := r.anchorDocument(ctx, doc, serialNumber, txn.BuildOpts{
		SpendOutpoint: &opts.Outpoint,
		KeyRef:        opts.KeyRef,
		Topic:         id.Topic,
		Description:   description(opts.Description, "token update"),
	})
	if err != nil {
		return nil, nil, err
	}

	if err := r.anchors.MarkSuperseded(id.SerialNumber, serialNumber); err != nil {
		logger.Warnf("failed to mark serial %s superseded by %s: %v", id.SerialNumber, serialNumber, err)
	}

	r.notifyIndexService(id.Topic, rawTx)

	return newID, outpoint, nil
}

func (r *Registry) anchorDocument(ctx context.Context, doc *tokendoc.Document, serialNumber string,
	buildOpts txn.BuildOpts) (*ledger.Outpoint, []byte, error) {
	docBytes, err := doc.JSONBytes()
	if err != nil {
		return nil, nil, err
	}

	fields := [][]byte{docBytes, []byte(serialNumber)}

	outpoint, rawTx, err := r.builder.BuildAnchor(ctx, fields, buildOpts)
	if err != nil {
		return nil, nil, err
	}

	err = r.anchors.Put(&anchor.Record{
		SerialNumber:  serialNumber,
		TxID:          outpoint.TxID,
		OutputIndex:   outpoint.OutputIndex,
		Topic:         buildOpts.Topic,
		DocumentBytes: docBytes,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to persist anchor record: %w", err)
	}

	return outpoint, rawTx, nil
}

// notifyIndexService broadcasts the finalized transaction to the index
// service. The notification is asynchronous and non-fatal: on failure the
// entity is still resolvable via the ledger fallback.
func (r *Registry) notifyIndexService(topic string, rawTx []byte) {
	if r.lookup == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.submitTimeout)
		defer cancel()

		if err := r.lookup.Submit(ctx, topic, rawTx); err != nil {
			logger.Warnf("index service notification failed for topic %s: %v", topic, err)
		}
	}()
}

// deriveSerialNumber hashes the document content together with the creation
// timestamp and a random nonce. The nonce is mandatory: it guarantees no two
// creations collide, and a retry after a submission timeout always yields a
// fresh serial number rather than an ambiguous double submission.
func deriveSerialNumber(contentBytes []byte, created time.Time) (string, error) {
	buf := make([]byte, 0, len(contentBytes)+64)
	buf = append(buf, contentBytes...)
	buf = append(buf, created.Format(time.RFC3339Nano)...)
	buf = append(buf, uuid.New().String()...)

	digest, err := multihash.Sum(buf, multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("failed to derive serial number: %w", err)
	}

	return hex.EncodeToString(digest), nil
}

func description(custom, fallback string) string {
	if custom != "" {
		return custom
	}

	return fallback
}
