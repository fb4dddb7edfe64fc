/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package provider

import (
	"github.com/hyperledger/aries-framework-go/spi/storage"
)

// Provider mocks the dependency provider consumed by registry, resolver and
// credential service constructors.
type Provider struct {
	StorageProviderValue storage.Provider
}

// StorageProvider returns the mocked storage provider.
func (p *Provider) StorageProvider() storage.Provider {
	return p.StorageProviderValue
}
