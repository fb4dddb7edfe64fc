/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package anchor persists the serial-number to outpoint mapping produced by
// the registry, including the supersedes pointer written on every update.
package anchor

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"
)

var logger = log.New("anchorid/store/anchor")

const (
	// NameSpace for the anchor store.
	NameSpace = "anchorstore"

	topicTagName = "topic"
)

// Record maps a serial number to the ledger output currently anchoring it.
type Record struct {
	SerialNumber  string          `json:"serialNumber"`
	TxID          string          `json:"txid"`
	OutputIndex   uint32          `json:"outputIndex"`
	Topic         string          `json:"topic"`
	DocumentBytes json.RawMessage `json:"documentBytes,omitempty"`

	// SupersededBy holds the serial number of the record that replaced this
	// one after an update. Resolution follows the chain to the latest entry.
	SupersededBy string `json:"supersededBy,omitempty"`
}

// Store stores anchor records.
type Store struct {
	store storage.Store
}

type provider interface {
	StorageProvider() storage.Provider
}

// New returns a new anchor store.
func New(ctx provider) (*Store, error) {
	store, err := ctx.StorageProvider().OpenStore(NameSpace)
	if err != nil {
		return nil, fmt.Errorf("failed to open anchor store: %w", err)
	}

	err = ctx.StorageProvider().SetStoreConfig(NameSpace, storage.StoreConfiguration{TagNames: []string{topicTagName}})
	if err != nil {
		return nil, fmt.Errorf("failed to set anchor store configuration: %w", err)
	}

	return &Store{store: store}, nil
}

// Put saves an anchor record keyed by its serial number, tagged by topic for
// find-by-filter queries.
func (s *Store) Put(record *Record) error {
	if record.SerialNumber == "" {
		return errors.New("serial number is mandatory")
	}

	recordBytes, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal anchor record: %w", err)
	}

	err = s.store.Put(record.SerialNumber, recordBytes, storage.Tag{Name: topicTagName, Value: record.Topic})
	if err != nil {
		return fmt.Errorf("failed to put anchor record: %w", err)
	}

	return nil
}

// Get retrieves the anchor record for a serial number. A miss is reported as
// storage.ErrDataNotFound.
func (s *Store) Get(serialNumber string) (*Record, error) {
	recordBytes, err := s.store.Get(serialNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get anchor record: %w", err)
	}

	record := &Record{}
	if err := json.Unmarshal(recordBytes, record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal anchor record: %w", err)
	}

	return record, nil
}

// MarkSuperseded stamps the old record with the serial number that replaced
// it.
func (s *Store) MarkSuperseded(oldSerial, newSerial string) error {
	record, err := s.Get(oldSerial)
	if err != nil {
		return err
	}

	record.SupersededBy = newSerial

	return s.Put(record)
}

// FindByTopic returns all anchor records filed under a topic.
func (s *Store) FindByTopic(topic string) ([]*Record, error) {
	iter, err := s.store.Query(fmt.Sprintf("%s:%s", topicTagName, topic))
	if err != nil {
		return nil, fmt.Errorf("failed to query anchor store: %w", err)
	}

	defer func() {
		if closeErr := iter.Close(); closeErr != nil {
			logger.Errorf("Failed to close iterator: %v", closeErr)
		}
	}()

	var records []*Record

	more, err := iter.Next()
	for ; more && err == nil; more, err = iter.Next() {
		value, valueErr := iter.Value()
		if valueErr != nil {
			return nil, fmt.Errorf("failed to read anchor record value: %w", valueErr)
		}

		record := &Record{}
		if unmarshalErr := json.Unmarshal(value, record); unmarshalErr != nil {
			return nil, fmt.Errorf("failed to unmarshal anchor record: %w", unmarshalErr)
		}

		records = append(records, record)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to iterate anchor records: %w", err)
	}

	return records, nil
}
