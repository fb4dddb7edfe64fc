/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txn

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anchorid/anchorid-go/pkg/ledger"
	"github.com/anchorid/anchorid-go/pkg/ledger/script"
	mockwallet "github.com/anchorid/anchorid-go/pkg/mock/wallet"
	"github.com/anchorid/anchorid-go/pkg/wallet"
)

func TestBuildAnchor(t *testing.T) {
	fields := [][]byte{[]byte(`{"id":"id:anchor:topic:aa"}`), []byte("aa")}

	t.Run("test data output is first and carries the encoded fields", func(t *testing.T) {
		signer := &mockwallet.MockSigner{}
		builder := NewBuilder(signer)

		outpoint, rawTx, err := builder.BuildAnchor(context.Background(), fields, BuildOpts{
			KeyRef:      "owner-key",
			Topic:       "tm_tokens",
			Description: "token create",
		})
		require.NoError(t, err)
		require.NotNil(t, outpoint)
		require.Equal(t, uint32(0), outpoint.OutputIndex)
		require.NotEmpty(t, rawTx)

		requests := signer.Requests()
		require.Len(t, requests, 1)
		require.Empty(t, requests[0].Inputs)
		require.Len(t, requests[0].Outputs, 1)
		require.Equal(t, uint64(1), requests[0].Outputs[0].Satoshis)
		require.Equal(t, "tm_tokens", requests[0].Outputs[0].Basket)
		require.Contains(t, requests[0].Labels, "tm_tokens")
		require.Contains(t, requests[0].Labels, "owner-key")

		decoded, err := script.Decode(requests[0].Outputs[0].LockingScript)
		require.NoError(t, err)
		require.Equal(t, fields, decoded)
	})

	t.Run("test spend outpoint becomes a declared input", func(t *testing.T) {
		signer := &mockwallet.MockSigner{}
		builder := NewBuilder(signer)

		spend := &ledger.Outpoint{TxID: "ab12", OutputIndex: 3}

		_, _, err := builder.BuildAnchor(context.Background(), fields, BuildOpts{
			SpendOutpoint: spend,
			Topic:         "tm_tokens",
		})
		require.NoError(t, err)

		requests := signer.Requests()
		require.Len(t, requests, 1)
		require.Len(t, requests[0].Inputs, 1)
		require.Equal(t, *spend, requests[0].Inputs[0].Outpoint)
	})

	t.Run("test funding error propagates unchanged", func(t *testing.T) {
		signer := &mockwallet.MockSigner{CreateActionErr: wallet.ErrInsufficientFunds}
		builder := NewBuilder(signer)

		_, _, err := builder.BuildAnchor(context.Background(), fields, BuildOpts{Topic: "tm_tokens"})
		require.ErrorIs(t, err, wallet.ErrInsufficientFunds)
	})

	t.Run("test signing error propagates unchanged", func(t *testing.T) {
		signer := &mockwallet.MockSigner{CreateActionErr: wallet.ErrSigningFailed}
		builder := NewBuilder(signer)

		_, _, err := builder.BuildAnchor(context.Background(), fields, BuildOpts{Topic: "tm_tokens"})
		require.ErrorIs(t, err, wallet.ErrSigningFailed)
	})

	t.Run("test deadline maps to submission timeout", func(t *testing.T) {
		signer := &mockwallet.MockSigner{CreateActionErr: context.DeadlineExceeded}
		builder := NewBuilder(signer)

		_, _, err := builder.BuildAnchor(context.Background(), fields, BuildOpts{Topic: "tm_tokens"})
		require.ErrorIs(t, err, wallet.ErrSubmissionTimeout)
	})

	t.Run("test oversized field fails before the signer is called", func(t *testing.T) {
		signer := &mockwallet.MockSigner{}
		builder := NewBuilder(signer)

		_, _, err := builder.BuildAnchor(context.Background(),
			[][]byte{make([]byte, 70000)}, BuildOpts{Topic: "tm_tokens"})
		require.ErrorIs(t, err, script.ErrFieldTooLong)
		require.Empty(t, signer.Requests())
	})
}
