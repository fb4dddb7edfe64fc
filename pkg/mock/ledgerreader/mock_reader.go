/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package ledgerreader

import (
	"context"
	"fmt"
)

// MockReader mocks the raw-ledger transaction fetcher used by the resolver's
// fallback tier.
type MockReader struct {
	Transactions map[string][]byte
	Err          error
}

// RawTransaction returns the configured raw bytes for a transaction id.
func (m *MockReader) RawTransaction(_ context.Context, txID string) ([]byte, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	raw, ok := m.Transactions[txID]
	if !ok {
		return nil, fmt.Errorf("transaction %s not found", txID)
	}

	return raw, nil
}
