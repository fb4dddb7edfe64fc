/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/anchorid/anchorid-go/pkg/api"
)

const (
	// NameSpace for the credential token store.
	NameSpace = "credentialtokenstore"

	ownerTagName  = "owner"
	statusTagName = "status"
)

// errVersionConflict signals a lost optimistic compare-and-update race; the
// caller re-reads and re-validates rather than blocking on a lock.
var errVersionConflict = errors.New("token version conflict")

type tokenStore struct {
	store storage.Store
	mu    sync.Mutex
}

func newTokenStore(provider storage.Provider) (*tokenStore, error) {
	store, err := provider.OpenStore(NameSpace)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential token store: %w", err)
	}

	err = provider.SetStoreConfig(NameSpace,
		storage.StoreConfiguration{TagNames: []string{ownerTagName, statusTagName}})
	if err != nil {
		return nil, fmt.Errorf("failed to set credential token store configuration: %w", err)
	}

	return &tokenStore{store: store}, nil
}

func (s *tokenStore) get(tokenID string) (*Token, error) {
	tokenBytes, err := s.store.Get(tokenID)
	if err != nil {
		if errors.Is(err, storage.ErrDataNotFound) {
			return nil, fmt.Errorf("%w: token %s", api.ErrNotFound, tokenID)
		}

		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	token := &Token{}
	if err := json.Unmarshal(tokenBytes, token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}

	return token, nil
}

func (s *tokenStore) create(token *Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.store.Get(token.ID)
	if err == nil {
		return fmt.Errorf("token %s already exists", token.ID)
	}

	if !errors.Is(err, storage.ErrDataNotFound) {
		return fmt.Errorf("failed to check token existence: %w", err)
	}

	token.Version = 1

	return s.put(token)
}

// compareAndUpdate writes the token only if the stored row still carries the
// expected version. On success the version is advanced by one.
func (s *tokenStore) compareAndUpdate(token *Token, expectedVersion uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.get(token.ID)
	if err != nil {
		return err
	}

	if current.Version != expectedVersion {
		return fmt.Errorf("%w: token %s at version %d, expected %d",
			errVersionConflict, token.ID, current.Version, expectedVersion)
	}

	token.Version = expectedVersion + 1

	return s.put(token)
}

func (s *tokenStore) put(token *Token) error {
	tokenBytes, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	err = s.store.Put(token.ID, tokenBytes,
		storage.Tag{Name: ownerTagName, Value: token.CurrentOwnerID},
		storage.Tag{Name: statusTagName, Value: string(token.Status)})
	if err != nil {
		return fmt.Errorf("failed to put token: %w", err)
	}

	return nil
}

func (s *tokenStore) findByTag(name, value string) ([]*Token, error) {
	iter, err := s.store.Query(fmt.Sprintf("%s:%s", name, value))
	if err != nil {
		return nil, fmt.Errorf("failed to query token store: %w", err)
	}

	defer func() {
		if closeErr := iter.Close(); closeErr != nil {
			logger.Errorf("Failed to close iterator: %v", closeErr)
		}
	}()

	var tokens []*Token

	more, err := iter.Next()
	for ; more && err == nil; more, err = iter.Next() {
		value, valueErr := iter.Value()
		if valueErr != nil {
			return nil, fmt.Errorf("failed to read token value: %w", valueErr)
		}

		token := &Token{}
		if unmarshalErr := json.Unmarshal(value, token); unmarshalErr != nil {
			return nil, fmt.Errorf("failed to unmarshal token: %w", unmarshalErr)
		}

		tokens = append(tokens, token)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to iterate tokens: %w", err)
	}

	return tokens, nil
}
