/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ledger holds the low-level on-chain types shared by the registry,
// resolver and transaction builder: outpoints and raw transaction parsing.
package ledger

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Outpoint references a specific output of a specific ledger transaction.
type Outpoint struct {
	TxID        string `json:"txid"`
	OutputIndex uint32 `json:"outputIndex"`
}

// String renders the outpoint in <txid>.<outputIndex> form.
func (o *Outpoint) String() string {
	return fmt.Sprintf("%s.%d", o.TxID, o.OutputIndex)
}

// ParseOutpoint parses an outpoint in <txid>.<outputIndex> form.
func ParseOutpoint(s string) (*Outpoint, error) {
	idx := strings.LastIndex(s, ".")
	if idx <= 0 || idx == len(s)-1 {
		return nil, fmt.Errorf("invalid outpoint %q: expected <txid>.<outputIndex>", s)
	}

	txID := s[:idx]
	if _, err := hex.DecodeString(txID); err != nil {
		return nil, fmt.Errorf("invalid outpoint %q: txid is not hex: %w", s, err)
	}

	vout, err := strconv.ParseUint(s[idx+1:], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid outpoint %q: bad output index: %w", s, err)
	}

	return &Outpoint{TxID: txID, OutputIndex: uint32(vout)}, nil
}
