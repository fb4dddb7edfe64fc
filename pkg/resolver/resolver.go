/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package resolver resolves a token identifier to its document through three
// ordered tiers: the local anchor cache, the overlay index service and the
// raw ledger. All tiers normalize to the same document shape.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/cenkalti/backoff/v4"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/anchorid/anchorid-go/pkg/api"
	"github.com/anchorid/anchorid-go/pkg/doc/tokendoc"
	"github.com/anchorid/anchorid-go/pkg/ledger"
	"github.com/anchorid/anchorid-go/pkg/ledger/script"
	"github.com/anchorid/anchorid-go/pkg/lookup"
	"github.com/anchorid/anchorid-go/pkg/store/anchor"
)

const (
	// lookupServicePrefix names the per-topic lookup service on the index
	// network.
	lookupServicePrefix = "ls_"

	defaultCacheSize     = 256
	defaultRetryAttempts = 2
	defaultRetryInterval = 250 * time.Millisecond

	maxSupersedesDepth = 32
)

var logger = log.New("anchorid/resolver")

// LedgerReader fetches raw transactions directly from the ledger for the
// fallback tier.
type LedgerReader interface {
	RawTransaction(ctx context.Context, txID string) ([]byte, error)
}

// lookupClient is the inbound half of the index service used for resolution.
type lookupClient interface {
	Lookup(ctx context.Context, service, serialNumber string) (*lookup.Answer, error)
}

type provider interface {
	StorageProvider() storage.Provider
}

// Resolver implements api.Resolver. Resolution is read-only and safe to call
// concurrently and repeatedly.
type Resolver struct {
	method        string
	anchors       *anchor.Store
	lookup        lookupClient
	ledger        LedgerReader
	cache         gcache.Cache
	retryAttempts uint64
	retryInterval time.Duration
}

// Option is a resolver instance option.
type Option func(r *Resolver)

// WithMethod overrides the deployment method tag documents must carry.
func WithMethod(method string) Option {
	return func(r *Resolver) {
		r.method = method
	}
}

// WithLookupClient enables the index-service tier.
func WithLookupClient(lookup lookupClient) Option {
	return func(r *Resolver) {
		r.lookup = lookup
	}
}

// WithLedgerReader enables the raw-ledger fallback tier.
func WithLedgerReader(reader LedgerReader) Option {
	return func(r *Resolver) {
		r.ledger = reader
	}
}

// WithRetry sets the retry policy applied uniformly to the network tiers.
func WithRetry(attempts uint64, interval time.Duration) Option {
	return func(r *Resolver) {
		r.retryAttempts = attempts
		r.retryInterval = interval
	}
}

// New returns a new resolver reading the anchor mapping from the given
// storage provider.
func New(ctx provider, opts ...Option) (*Resolver, error) {
	anchors, err := anchor.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open anchor store: %w", err)
	}

	r := &Resolver{
		method:        api.DefaultMethod,
		anchors:       anchors,
		cache:         gcache.New(defaultCacheSize).LRU().Build(),
		retryAttempts: defaultRetryAttempts,
		retryInterval: defaultRetryInterval,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Resolve resolves an identifier to its current document, trying each tier
// only if the previous one misses or errors. Identifier syntax is checked
// before any network interaction. All tiers exhausted yields api.ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, id string) (*tokendoc.Document, error) {
	parsed, err := tokendoc.ParseIdentifier(id)
	if err != nil {
		return nil, err
	}

	if parsed.Method != r.method {
		return nil, fmt.Errorf("%w: method %q is not supported", tokendoc.ErrInvalidIdentifierFormat, parsed.Method)
	}

	if cached, cacheErr := r.cache.Get(id); cacheErr == nil {
		if docBytes, ok := cached.([]byte); ok {
			doc, validateErr := r.validateDocument(docBytes)
			if validateErr == nil {
				return doc, nil
			}

			// a bad cache entry is a tier miss, not a resolution failure
			r.cache.Remove(id)

			logger.Debugf("dropped invalid cached document for %s: %v", id, validateErr)
		}
	}

	serialNumber := parsed.SerialNumber

	record := r.latestAnchorRecord(serialNumber)
	if record != nil {
		// A superseded identifier resolves to the latest version in its
		// chain.
		serialNumber = record.SerialNumber

		if len(record.DocumentBytes) > 0 {
			doc, validateErr := r.validateDocument(record.DocumentBytes)
			if validateErr == nil {
				r.cacheDocument(id, record.DocumentBytes)

				return doc, nil
			}

			logger.Debugf("cache tier rejected document for %s: %v", id, validateErr)
		}
	}

	if doc, docBytes, lookupErr := r.resolveViaIndexService(ctx, parsed.Topic, serialNumber); lookupErr == nil {
		r.cacheDocument(id, docBytes)

		return doc, nil
	} else if !errors.Is(lookupErr, errTierUnavailable) {
		logger.Debugf("index service tier missed for %s: %v", id, lookupErr)
	}

	if doc, docBytes, ledgerErr := r.resolveViaLedger(ctx, record); ledgerErr == nil {
		r.cacheDocument(id, docBytes)

		return doc, nil
	} else if !errors.Is(ledgerErr, errTierUnavailable) {
		logger.Debugf("ledger fallback tier missed for %s: %v", id, ledgerErr)
	}

	return nil, fmt.Errorf("%w: no tier could resolve %s", api.ErrNotFound, id)
}

// errTierUnavailable marks a tier that is not configured or lacks the inputs
// it needs, as opposed to one that was tried and missed.
var errTierUnavailable = errors.New("tier unavailable")

func (r *Resolver) latestAnchorRecord(serialNumber string) *anchor.Record {
	record, err := r.anchors.Get(serialNumber)
	if err != nil {
		if !errors.Is(err, storage.ErrDataNotFound) {
			logger.Debugf("anchor store read failed for serial %s: %v", serialNumber, err)
		}

		return nil
	}

	for depth := 0; record.SupersededBy != "" && depth < maxSupersedesDepth; depth++ {
		next, nextErr := r.anchors.Get(record.SupersededBy)
		if nextErr != nil {
			logger.Debugf("broken supersedes chain at serial %s: %v", record.SupersededBy, nextErr)

			break
		}

		record = next
	}

	return record
}

func (r *Resolver) resolveViaIndexService(ctx context.Context, topic,
	serialNumber string) (*tokendoc.Document, []byte, error) {
	if r.lookup == nil {
		return nil, nil, errTierUnavailable
	}

	var answer *lookup.Answer

	err := backoff.Retry(func() error {
		var lookupErr error

		answer, lookupErr = r.lookup.Lookup(ctx, lookupServicePrefix+topic, serialNumber)
		if errors.Is(lookupErr, api.ErrNotFound) {
			return backoff.Permanent(lookupErr)
		}

		return lookupErr
	}, r.retryPolicy(ctx))
	if err != nil {
		return nil, nil, err
	}

	if len(answer.Outputs) > 0 {
		return r.documentFromOutputRef(&answer.Outputs[0])
	}

	raw, err := answer.RawBytes()
	if err != nil {
		return nil, nil, err
	}

	return r.documentFromRawTx(raw, answer.OutputIndex)
}

func (r *Resolver) resolveViaLedger(ctx context.Context, record *anchor.Record) (*tokendoc.Document, []byte, error) {
	if r.ledger == nil || record == nil {
		return nil, nil, errTierUnavailable
	}

	var raw []byte

	err := backoff.Retry(func() error {
		var fetchErr error

		raw, fetchErr = r.ledger.RawTransaction(ctx, record.TxID)

		return fetchErr
	}, r.retryPolicy(ctx))
	if err != nil {
		return nil, nil, err
	}

	return r.documentFromRawTx(raw, record.OutputIndex)
}

func (r *Resolver) documentFromOutputRef(ref *lookup.OutputRef) (*tokendoc.Document, []byte, error) {
	if ref.Document != nil {
		docBytes, err := ref.DocumentBytes()
		if err != nil {
			return nil, nil, err
		}

		doc, err := r.validateDocument(docBytes)
		if err != nil {
			return nil, nil, err
		}

		return doc, docBytes, nil
	}

	raw, err := ref.RawBytes()
	if err != nil {
		return nil, nil, err
	}

	return r.documentFromRawTx(raw, ref.OutputIndex)
}

// documentFromRawTx locates the output at the recorded index, decodes its
// field set and validates the first field as a document.
func (r *Resolver) documentFromRawTx(rawTx []byte, outputIndex uint32) (*tokendoc.Document, []byte, error) {
	lockingScript, _, err := ledger.OutputScript(rawTx, outputIndex)
	if err != nil {
		return nil, nil, err
	}

	fields, err := script.Decode(lockingScript)
	if err != nil {
		return nil, nil, err
	}

	if len(fields) == 0 {
		return nil, nil, fmt.Errorf("%w: anchored output carries no fields", tokendoc.ErrInvalidDocument)
	}

	doc, err := r.validateDocument(fields[0])
	if err != nil {
		return nil, nil, err
	}

	return doc, fields[0], nil
}

func (r *Resolver) validateDocument(docBytes []byte) (*tokendoc.Document, error) {
	doc, err := tokendoc.ParseDocument(docBytes)
	if err != nil {
		return nil, err
	}

	methodPrefix := tokendoc.Scheme + ":" + r.method + ":"
	if !strings.HasPrefix(doc.ID, methodPrefix) {
		return nil, fmt.Errorf("%w: document id %q does not carry method prefix %q",
			tokendoc.ErrInvalidDocument, doc.ID, methodPrefix)
	}

	return doc, nil
}

func (r *Resolver) cacheDocument(id string, docBytes []byte) {
	if err := r.cache.Set(id, docBytes); err != nil {
		logger.Debugf("failed to cache document for %s: %v", id, err)
	}
}

func (r *Resolver) retryPolicy(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.retryInterval), r.retryAttempts), ctx)
}
