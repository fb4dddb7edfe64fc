/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package credential owns the credential-token lifecycle: issuance, ownership
// transfer, finalization and the auxiliary fraud-risk scoring. Documents
// backing the tokens come from the registry and resolver.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/anchorid/anchorid-go/pkg/api"
	"github.com/anchorid/anchorid-go/pkg/doc/tokendoc"
)

const defaultMaxAttempts = 3

var logger = log.New("anchorid/credential")

var (
	// ErrUnauthorized is returned when the caller does not hold the right the
	// operation requires (not the current owner, or not an authorized
	// finalizer).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidState is returned when the requested transition is not legal
	// from the token's current status.
	ErrInvalidState = errors.New("invalid token state")

	// ErrConflict is returned when the token is already finalized, or when a
	// bounded optimistic-retry budget is exhausted by concurrent writers.
	ErrConflict = errors.New("conflict")
)

// FinalizePolicy decides whether a caller may finalize a token of a given
// credential type.
type FinalizePolicy func(token *Token, finalizerID string) bool

// defaultFinalizePolicy treats every credential as single-use: only the
// original subject may finalize it.
func defaultFinalizePolicy(token *Token, finalizerID string) bool {
	return finalizerID == token.SubjectID
}

// CreateRequest carries the parameters of a credential-token issuance.
type CreateRequest struct {
	IssuerID  string
	SubjectID string
	Type      string
	Claims    Claims
}

type provider interface {
	StorageProvider() storage.Provider
}

// Service implements the credential-token state machine on top of the
// registry and resolver.
type Service struct {
	store       *tokenStore
	registry    api.Registry
	resolver    api.Resolver
	issuer      Issuer
	policies    map[string]FinalizePolicy
	topic       string
	keyRef      string
	maxAttempts int
}

// Option is a service instance option.
type Option func(s *Service)

// WithTopic sets the ledger topic credential tokens are anchored under.
func WithTopic(topic string) Option {
	return func(s *Service) {
		s.topic = topic
	}
}

// WithKeyRef names the signing key used for anchoring and re-anchoring.
func WithKeyRef(keyRef string) Option {
	return func(s *Service) {
		s.keyRef = keyRef
	}
}

// WithFinalizePolicy installs a credential-type-specific finalization policy.
func WithFinalizePolicy(credentialType string, policy FinalizePolicy) Option {
	return func(s *Service) {
		s.policies[credentialType] = policy
	}
}

// New returns a new credential token service. Registry, resolver and issuer
// handles are explicit constructor dependencies.
func New(ctx provider, registry api.Registry, resolver api.Resolver, issuer Issuer,
	opts ...Option) (*Service, error) {
	store, err := newTokenStore(ctx.StorageProvider())
	if err != nil {
		return nil, err
	}

	s := &Service{
		store:       store,
		registry:    registry,
		resolver:    resolver,
		issuer:      issuer,
		policies:    map[string]FinalizePolicy{},
		topic:       "credentials",
		maxAttempts: defaultMaxAttempts,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Create issues the underlying credential through the issuance collaborator,
// anchors a document for it and records a new active token owned by the
// subject.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Token, error) {
	if req.IssuerID == "" || req.SubjectID == "" {
		return nil, errors.New("issuer and subject are mandatory")
	}

	cred, err := s.issuer.Issue(ctx, req.IssuerID, req.SubjectID, req.Type, req.Claims)
	if err != nil {
		return nil, fmt.Errorf("credential issuance failed: %w", err)
	}

	verification, err := s.issuer.Verify(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("credential verification failed: %w", err)
	}

	if !verification.Valid {
		return nil, fmt.Errorf("issued credential did not verify: %s", strings.Join(verification.Errors, "; "))
	}

	doc := &tokendoc.Document{
		Context: []string{tokendoc.Context},
		Service: []tokendoc.ServiceEntry{
			{ID: "#credential", Type: req.Type, ServiceEndpoint: "credential:" + cred.ID},
		},
	}

	id, outpoint, err := s.registry.Create(ctx, doc, api.CreateOpts{
		Topic:       s.topic,
		KeyRef:      s.keyRef,
		Description: "credential token create",
	})
	if err != nil {
		return nil, err
	}

	token := &Token{
		ID:             id.String(),
		CredentialID:   cred.ID,
		DocumentID:     id.String(),
		Outpoint:       *outpoint,
		Status:         StatusActive,
		Type:           req.Type,
		IssuerID:       req.IssuerID,
		SubjectID:      req.SubjectID,
		CurrentOwnerID: req.SubjectID,
		Claims:         req.Claims,
	}

	if err := s.store.create(token); err != nil {
		return nil, err
	}

	return token, nil
}

// Get returns a token by id.
func (s *Service) Get(_ context.Context, tokenID string) (*Token, error) {
	return s.store.get(tokenID)
}

// FindByOwner returns all tokens currently owned by the given party.
func (s *Service) FindByOwner(_ context.Context, ownerID string) ([]*Token, error) {
	return s.store.findByTag(ownerTagName, ownerID)
}

// FindByStatus returns all tokens in the given lifecycle state.
func (s *Service) FindByStatus(_ context.Context, status Status) ([]*Token, error) {
	return s.store.findByTag(statusTagName, string(status))
}

// Transfer moves ownership of a token from its current owner to another
// party. The status/ownership check and the mutation commit as one atomic
// compare-and-update; under concurrent attempts exactly one caller wins and
// the rest fail validation on re-read. The winner then re-anchors the token
// to a new outpoint through the registry.
func (s *Service) Transfer(ctx context.Context, tokenID, from, to string) (*Token, error) {
	var committed *Token

	err := s.transition(tokenID, func(token *Token) error {
		if token.Status == StatusFinalized {
			return fmt.Errorf("%w: token %s is already finalized", ErrInvalidState, tokenID)
		}

		if token.CurrentOwnerID != from {
			return fmt.Errorf("%w: %s is not the current owner of token %s", ErrUnauthorized, from, tokenID)
		}

		token.Status = StatusTransferred
		token.CurrentOwnerID = to
		token.TransferHistory = append(token.TransferHistory, TransferRecord{
			From:      from,
			To:        to,
			Timestamp: time.Now().UTC(),
		})
		committed = token

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reanchor(ctx, committed)
}

// Finalize moves a token into its terminal state. The caller must satisfy
// the credential-type-specific finalization policy; an already finalized
// token reports ErrConflict.
func (s *Service) Finalize(_ context.Context, tokenID, finalizerID string) (*Token, error) {
	var committed *Token

	err := s.transition(tokenID, func(token *Token) error {
		if token.Status == StatusFinalized {
			return fmt.Errorf("%w: token %s is already finalized", ErrConflict, tokenID)
		}

		policy, ok := s.policies[token.Type]
		if !ok {
			policy = defaultFinalizePolicy
		}

		if !policy(token, finalizerID) {
			return fmt.Errorf("%w: %s may not finalize token %s", ErrUnauthorized, finalizerID, tokenID)
		}

		token.Status = StatusFinalized
		committed = token

		return nil
	})
	if err != nil {
		return nil, err
	}

	return committed, nil
}

// Dispense records a dispensation event and its fraud-risk score against a
// token. The score is an annotation; it never blocks the operation.
func (s *Service) Dispense(_ context.Context, tokenID string, req DispenseRequest) (*Token, error) {
	var committed *Token

	err := s.transition(tokenID, func(token *Token) error {
		if token.Status == StatusFinalized {
			return fmt.Errorf("%w: token %s is already finalized", ErrInvalidState, tokenID)
		}

		score := FraudScore(token, req, time.Now().UTC())

		token.FraudScore = score
		token.Dispensations = append(token.Dispensations, DispenseRecord{
			Quantity:   req.Quantity,
			Confirmed:  req.Confirmed,
			Timestamp:  time.Now().UTC(),
			FraudScore: score,
		})
		committed = token

		return nil
	})
	if err != nil {
		return nil, err
	}

	return committed, nil
}

// transition runs the optimistic check-and-set loop shared by every state
// transition: read, validate+mutate a copy, compare-and-update, and on a
// lost race re-read and re-validate so concurrent writers resolve to exactly
// one winner.
func (s *Service) transition(tokenID string, mutate func(token *Token) error) error {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		token, err := s.store.get(tokenID)
		if err != nil {
			return err
		}

		updated := token.clone()
		if err := mutate(updated); err != nil {
			return err
		}

		err = s.store.compareAndUpdate(updated, token.Version)
		if err == nil {
			return nil
		}

		if !errors.Is(err, errVersionConflict) {
			return err
		}
	}

	return fmt.Errorf("%w: token %s kept changing concurrently", ErrConflict, tokenID)
}

// reanchor consumes the token's current outpoint through the registry and
// records the fresh one on the token and its latest transfer record.
func (s *Service) reanchor(ctx context.Context, token *Token) (*Token, error) {
	id, err := tokendoc.ParseIdentifier(token.DocumentID)
	if err != nil {
		return nil, err
	}

	doc, err := s.resolver.Resolve(ctx, token.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("resolve token document for re-anchor: %w", err)
	}

	newID, outpoint, err := s.registry.Update(ctx, id, doc, api.UpdateOpts{
		Outpoint:    token.Outpoint,
		KeyRef:      s.keyRef,
		Description: "credential token transfer",
	})
	if err != nil {
		return nil, fmt.Errorf("transfer recorded but re-anchor failed: %w", err)
	}

	var updated *Token

	err = s.transition(token.ID, func(t *Token) error {
		t.Outpoint = *outpoint
		t.DocumentID = newID.String()

		if n := len(t.TransferHistory); n > 0 {
			t.TransferHistory[n-1].Outpoint = outpoint
		}

		updated = t

		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debugf("token %s re-anchored at %s under serial %s", token.ID, outpoint.String(), newID.SerialNumber)

	return updated, nil
}
