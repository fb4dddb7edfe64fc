/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"math"
	"time"
)

const (
	maxFraudScore = 100

	// overQuantityBase applies as soon as a dispensation exceeds the
	// authorized quantity; overQuantityCap bounds the proportional part so
	// the rule contributes at most overQuantityBase+overQuantityCap.
	overQuantityBase = 40
	overQuantityCap  = 30

	expiredPenalty     = 30
	unconfirmedPenalty = 20
)

// DispenseRequest describes one dispensation of the credential's subject
// matter against a token.
type DispenseRequest struct {
	Quantity  int64
	Confirmed bool
}

// FraudScore evaluates the dispensation rule checks against a token's claims
// and returns a 0-100 risk score. The score annotates records only; it never
// vetoes a transition, and any policy decision based on it belongs to an
// external collaborator.
func FraudScore(token *Token, req DispenseRequest, now time.Time) int {
	score := 0

	if authorized, ok := token.Claims.Quantity(); ok && authorized > 0 && req.Quantity > authorized {
		score += overQuantityBase + proportionalExcess(req.Quantity-authorized, authorized)
	}

	if validUntil, ok := token.Claims.ValidUntil(); ok && now.After(validUntil) {
		score += expiredPenalty
	}

	if !req.Confirmed {
		score += unconfirmedPenalty
	}

	if score > maxFraudScore {
		score = maxFraudScore
	}

	return score
}

// proportionalExcess scales the excess over the authorized quantity into
// 0..overQuantityCap. The cap is applied before any multiplication so
// extreme quantities cannot overflow into a lower score.
func proportionalExcess(excess, authorized int64) int {
	if excess >= authorized || excess > math.MaxInt64/overQuantityCap {
		return overQuantityCap
	}

	return int(excess * overQuantityCap / authorized)
}
