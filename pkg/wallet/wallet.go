/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package wallet defines the consumed interface of the external
// wallet-signing collaborator. This module never touches private key
// material; funding, UTXO selection and signing all happen behind Signer.
package wallet

import (
	"context"
	"errors"

	"github.com/anchorid/anchorid-go/pkg/ledger"
)

var (
	// ErrInsufficientFunds is reported by the signer when the wallet cannot
	// fund the requested action.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSigningFailed is reported by the signer when the action could not
	// be signed.
	ErrSigningFailed = errors.New("signing failed")

	// ErrSubmissionTimeout is reported when a ledger submission did not
	// complete within the request deadline. Callers must not retry with the
	// same serial number; a fresh create/update regenerates the nonce.
	ErrSubmissionTimeout = errors.New("submission timed out")
)

// Signer creates, funds, signs and submits ledger actions on behalf of this
// module.
type Signer interface {
	CreateAction(ctx context.Context, req *ActionRequest) (*ActionResult, error)
}

// ActionRequest describes a transaction for the signer to fund and sign.
type ActionRequest struct {
	Description string
	Labels      []string
	Inputs      []ActionInput
	Outputs     []ActionOutput
}

// ActionInput declares an existing outpoint the action must consume.
type ActionInput struct {
	Outpoint             ledger.Outpoint
	UnlockingDescription string
}

// ActionOutput declares an output the action must carry.
type ActionOutput struct {
	LockingScript []byte
	Satoshis      uint64
	Description   string
	Basket        string
}

// ActionResult is the signer's response to a successfully submitted action.
type ActionResult struct {
	TxID  string
	RawTx []byte
}
