/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package txn assembles ledger transaction requests carrying encoded token
// fields. It never signs and never selects funding UTXOs; both are delegated
// to the wallet signer collaborator.
package txn

import (
	"context"
	"errors"
	"fmt"

	"github.com/anchorid/anchorid-go/pkg/ledger"
	"github.com/anchorid/anchorid-go/pkg/ledger/script"
	"github.com/anchorid/anchorid-go/pkg/wallet"
)

// anchorSatoshis is the value carried by every data output.
const anchorSatoshis = 1

// Builder builds and submits anchor transactions through an injected signer.
type Builder struct {
	signer wallet.Signer
}

// NewBuilder returns a Builder using the given signer. The signer handle is
// explicit; there is no ambient key-management state.
func NewBuilder(signer wallet.Signer) *Builder {
	return &Builder{signer: signer}
}

// BuildOpts carries the per-anchor construction parameters.
type BuildOpts struct {
	// SpendOutpoint, when set, is consumed by the transaction. It is only
	// required when updating or transferring an existing token.
	SpendOutpoint *ledger.Outpoint

	// KeyRef names the funding/ownership key for the signer's derivation.
	KeyRef string

	// Topic is the namespace the anchor belongs to.
	Topic string

	// Description is a human-readable label for the action.
	Description string
}

// BuildAnchor encodes the fields into a data output, assembles the action
// request and submits it through the signer. The data output is always the
// first output. Funding and signing failures from the signer propagate
// unchanged; a request deadline maps to wallet.ErrSubmissionTimeout.
func (b *Builder) BuildAnchor(ctx context.Context, fields [][]byte, opts BuildOpts) (*ledger.Outpoint, []byte, error) {
	lockingScript, err := script.Encode(fields)
	if err != nil {
		return nil, nil, fmt.Errorf("encode anchor fields: %w", err)
	}

	req := &wallet.ActionRequest{
		Description: opts.Description,
		Labels:      actionLabels(opts),
		Outputs: []wallet.ActionOutput{
			{
				LockingScript: lockingScript,
				Satoshis:      anchorSatoshis,
				Description:   opts.Description,
				Basket:        opts.Topic,
			},
		},
	}

	if opts.SpendOutpoint != nil {
		req.Inputs = []wallet.ActionInput{
			{
				Outpoint:             *opts.SpendOutpoint,
				UnlockingDescription: opts.Description,
			},
		}
	}

	result, err := b.signer.CreateAction(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, fmt.Errorf("%w: %s", wallet.ErrSubmissionTimeout, err)
		}

		return nil, nil, err
	}

	return &ledger.Outpoint{TxID: result.TxID, OutputIndex: 0}, result.RawTx, nil
}

func actionLabels(opts BuildOpts) []string {
	labels := []string{opts.Topic}
	if opts.KeyRef != "" {
		labels = append(labels, opts.KeyRef)
	}

	return labels
}
