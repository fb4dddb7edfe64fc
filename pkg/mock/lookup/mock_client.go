/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package lookup

import (
	"context"
	"sync"

	"github.com/anchorid/anchorid-go/pkg/lookup"
)

// MockClient mocks the overlay index-service client.
type MockClient struct {
	LookupValue *lookup.Answer
	LookupErr   error
	SubmitErr   error

	mu          sync.Mutex
	lookups     []string
	submissions []string
}

// Lookup implements the resolver's lookup client interface.
func (m *MockClient) Lookup(_ context.Context, service, serialNumber string) (*lookup.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lookups = append(m.lookups, service+"/"+serialNumber)

	if m.LookupErr != nil {
		return nil, m.LookupErr
	}

	return m.LookupValue, nil
}

// Submit implements the registry's submitter interface.
func (m *MockClient) Submit(_ context.Context, topic string, _ []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.submissions = append(m.submissions, topic)

	return m.SubmitErr
}

// Lookups returns the service/serial pairs looked up so far.
func (m *MockClient) Lookups() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string{}, m.lookups...)
}

// Submissions returns the topics submitted to so far.
func (m *MockClient) Submissions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string{}, m.submissions...)
}
