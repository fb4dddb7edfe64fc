/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anchorid/anchorid-go/pkg/credential"
)

func TestFraudScore(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		claims credential.Claims
		req    credential.DispenseRequest
		score  int
	}{
		{
			name:   "confirmed dispensation within quantity scores zero",
			claims: credential.Claims{"quantity": int64(30)},
			req:    credential.DispenseRequest{Quantity: 30, Confirmed: true},
			score:  0,
		},
		{
			name:   "slight over-quantity scores base plus proportional",
			claims: credential.Claims{"quantity": int64(30)},
			req:    credential.DispenseRequest{Quantity: 33, Confirmed: true},
			score:  43,
		},
		{
			name:   "double the quantity saturates the proportional part",
			claims: credential.Claims{"quantity": int64(30)},
			req:    credential.DispenseRequest{Quantity: 60, Confirmed: true},
			score:  70,
		},
		{
			name:   "gross over-quantity stays capped",
			claims: credential.Claims{"quantity": int64(30)},
			req:    credential.DispenseRequest{Quantity: 300, Confirmed: true},
			score:  70,
		},
		{
			name:   "expired validity window penalized",
			claims: credential.Claims{"validUntil": now.Add(-time.Hour).Format(time.RFC3339)},
			req:    credential.DispenseRequest{Quantity: 1, Confirmed: true},
			score:  30,
		},
		{
			name:   "validity window still open is free",
			claims: credential.Claims{"validUntil": now.Add(time.Hour).Format(time.RFC3339)},
			req:    credential.DispenseRequest{Quantity: 1, Confirmed: true},
			score:  0,
		},
		{
			name:  "unconfirmed dispensation penalized",
			req:   credential.DispenseRequest{Quantity: 1},
			score: 20,
		},
		{
			name: "all rules together cap at one hundred",
			claims: credential.Claims{
				"quantity":   int64(30),
				"validUntil": now.Add(-time.Hour).Format(time.RFC3339),
			},
			req:   credential.DispenseRequest{Quantity: 60},
			score: 100,
		},
		{
			name:   "extreme over-quantity scores no lower than a moderate one",
			claims: credential.Claims{"quantity": int64(30)},
			req:    credential.DispenseRequest{Quantity: math.MaxInt64, Confirmed: true},
			score:  70,
		},
		{
			name:   "huge authorized quantity stays within range",
			claims: credential.Claims{"quantity": int64(math.MaxInt64 / 2)},
			req:    credential.DispenseRequest{Quantity: math.MaxInt64, Confirmed: true},
			score:  70,
		},
		{
			name:   "quantity claim decoded from JSON numbers",
			claims: credential.Claims{"quantity": float64(30)},
			req:    credential.DispenseRequest{Quantity: 60, Confirmed: true},
			score:  70,
		},
		{
			name:   "absent claims score nothing beyond confirmation",
			claims: credential.Claims{},
			req:    credential.DispenseRequest{Quantity: 500, Confirmed: true},
			score:  0,
		},
	}

	for _, tc := range tests {
		tc := tc

		t.Run("test "+tc.name, func(t *testing.T) {
			token := &credential.Token{Claims: tc.claims}
			require.Equal(t, tc.score, credential.FraudScore(token, tc.req, now))
		})
	}
}
