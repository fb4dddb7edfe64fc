/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/anchorid/anchorid-go/pkg/wallet"
)

// MockSigner mocks the wallet signer collaborator. Every submitted request
// is recorded; results are served from CreateActionValue/CreateActionErr, or
// synthesized with a counter-derived transaction id when neither is set.
type MockSigner struct {
	CreateActionValue *wallet.ActionResult
	CreateActionErr   error

	mu       sync.Mutex
	requests []*wallet.ActionRequest
	counter  int
}

// CreateAction implements wallet.Signer.
func (m *MockSigner) CreateAction(_ context.Context, req *wallet.ActionRequest) (*wallet.ActionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if m.CreateActionErr != nil {
		return nil, m.CreateActionErr
	}

	if m.CreateActionValue != nil {
		return m.CreateActionValue, nil
	}

	m.counter++

	return &wallet.ActionResult{
		TxID:  fmt.Sprintf("%064x", m.counter),
		RawTx: []byte(fmt.Sprintf("rawtx-%d", m.counter)),
	}, nil
}

// Requests returns a snapshot of the submitted action requests.
func (m *MockSigner) Requests() []*wallet.ActionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]*wallet.ActionRequest{}, m.requests...)
}
