/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package anchorid provides issuance, resolution, transfer and retirement of
// identity and credential tokens anchored in a UTXO-style public ledger, with
// an auxiliary overlay index service for fast lookup.
//
// Packages for end developer usage
//
// pkg/registry: Creates and updates ledger-anchored identity documents and
// derives their opaque identifiers.
//
// pkg/resolver: Resolves an identifier back to its document through ordered
// cache, index-service and raw-ledger tiers.
//
// pkg/credential: Owns the credential-token lifecycle (active, transferred,
// finalized), ownership transfer rules and fraud-risk scoring.
//
// Packages for framework internals
//
// pkg/doc/tokendoc: Identifier syntax and the document model.
//
// pkg/ledger: Outpoints, raw-transaction parsing, the on-chain field codec
// (pkg/ledger/script) and transaction construction (pkg/ledger/txn).
//
// pkg/lookup: HTTP client for the overlay index service.
package anchorid
