/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tokendoc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseIdentifier(t *testing.T) {
	t.Run("test valid identifier", func(t *testing.T) {
		id, err := ParseIdentifier("id:anchor:prescriptions:deadbeef")
		require.NoError(t, err)
		require.Equal(t, "anchor", id.Method)
		require.Equal(t, "prescriptions", id.Topic)
		require.Equal(t, "deadbeef", id.SerialNumber)
	})

	t.Run("test round trip", func(t *testing.T) {
		const raw = "id:anchor:prescriptions:deadbeef"

		id, err := ParseIdentifier(raw)
		require.NoError(t, err)
		require.Equal(t, raw, id.String())
	})

	t.Run("test wrong segment count", func(t *testing.T) {
		for _, raw := range []string{
			"id:anchor:deadbeef",
			"id:anchor:prescriptions:deadbeef:extra",
			"id",
			"",
		} {
			id, err := ParseIdentifier(raw)
			require.ErrorIs(t, err, ErrInvalidIdentifierFormat)
			require.Nil(t, id)
		}
	})

	t.Run("test wrong scheme", func(t *testing.T) {
		_, err := ParseIdentifier("did:anchor:prescriptions:deadbeef")
		require.ErrorIs(t, err, ErrInvalidIdentifierFormat)
	})

	t.Run("test empty segment", func(t *testing.T) {
		_, err := ParseIdentifier("id::prescriptions:deadbeef")
		require.ErrorIs(t, err, ErrInvalidIdentifierFormat)

		_, err = ParseIdentifier("id:anchor:prescriptions:")
		require.ErrorIs(t, err, ErrInvalidIdentifierFormat)
	})

	t.Run("test serial number must be lowercase hex", func(t *testing.T) {
		_, err := ParseIdentifier("id:anchor:prescriptions:DEADBEEF")
		require.ErrorIs(t, err, ErrInvalidIdentifierFormat)

		_, err = ParseIdentifier("id:anchor:prescriptions:nothex!")
		require.ErrorIs(t, err, ErrInvalidIdentifierFormat)
	})
}
