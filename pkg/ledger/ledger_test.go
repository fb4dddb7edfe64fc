/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutpoint(t *testing.T) {
	t.Run("test round trip", func(t *testing.T) {
		op := &Outpoint{TxID: "ab12", OutputIndex: 7}
		require.Equal(t, "ab12.7", op.String())

		parsed, err := ParseOutpoint(op.String())
		require.NoError(t, err)
		require.Equal(t, op, parsed)
	})

	t.Run("test missing separator", func(t *testing.T) {
		_, err := ParseOutpoint("ab12")
		require.Error(t, err)
	})

	t.Run("test non hex txid", func(t *testing.T) {
		_, err := ParseOutpoint("notxid.0")
		require.Error(t, err)
	})

	t.Run("test bad output index", func(t *testing.T) {
		_, err := ParseOutpoint("ab12.notanumber")
		require.Error(t, err)

		_, err = ParseOutpoint("ab12.")
		require.Error(t, err)
	})
}

// rawTx builds a minimal serialized transaction with the given output
// scripts, each carrying a 1-unit value.
func rawTx(t *testing.T, scripts ...[]byte) []byte {
	t.Helper()

	var buf bytes.Buffer

	buf.Write([]byte{1, 0, 0, 0}) // version
	writeVarInt(&buf, 0)          // inputs
	writeVarInt(&buf, uint64(len(scripts)))

	for _, script := range scripts {
		value := make([]byte, 8)
		binary.LittleEndian.PutUint64(value, 1)
		buf.Write(value)
		writeVarInt(&buf, uint64(len(script)))
		buf.Write(script)
	}

	buf.Write([]byte{0, 0, 0, 0}) // locktime

	return buf.Bytes()
}

func writeVarInt(buf *bytes.Buffer, n uint64) {
	switch {
	case n < 0xfd:
		buf.WriteByte(byte(n))
	case n <= 0xffff:
		buf.WriteByte(0xfd)

		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(n))
		buf.Write(b)
	default:
		buf.WriteByte(0xfe)

		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(n))
		buf.Write(b)
	}
}

func TestOutputScript(t *testing.T) {
	t.Run("test extract first output", func(t *testing.T) {
		want := []byte{0x00, 0x6a, 0x03, 0x01, 0x02, 0x03}

		script, value, err := OutputScript(rawTx(t, want), 0)
		require.NoError(t, err)
		require.Equal(t, want, script)
		require.Equal(t, uint64(1), value)
	})

	t.Run("test extract later output", func(t *testing.T) {
		first := []byte{0x51}
		second := bytes.Repeat([]byte{0xcc}, 300)

		script, _, err := OutputScript(rawTx(t, first, second), 1)
		require.NoError(t, err)
		require.Equal(t, second, script)
	})

	t.Run("test output with inputs present", func(t *testing.T) {
		var buf bytes.Buffer

		buf.Write([]byte{1, 0, 0, 0})
		writeVarInt(&buf, 1)
		buf.Write(bytes.Repeat([]byte{0xee}, 32)) // previous txid
		buf.Write([]byte{0, 0, 0, 0})             // previous vout
		writeVarInt(&buf, 2)
		buf.Write([]byte{0x00, 0x00})             // unlocking script
		buf.Write([]byte{0xff, 0xff, 0xff, 0xff}) // sequence
		writeVarInt(&buf, 1)

		value := make([]byte, 8)
		binary.LittleEndian.PutUint64(value, 42)
		buf.Write(value)

		script := []byte{0x00, 0x6a, 0x01, 0x99}
		writeVarInt(&buf, uint64(len(script)))
		buf.Write(script)
		buf.Write([]byte{0, 0, 0, 0})

		got, gotValue, err := OutputScript(buf.Bytes(), 0)
		require.NoError(t, err)
		require.Equal(t, script, got)
		require.Equal(t, uint64(42), gotValue)
	})

	t.Run("test index out of range", func(t *testing.T) {
		_, _, err := OutputScript(rawTx(t, []byte{0x51}), 3)
		require.ErrorIs(t, err, ErrMalformedTransaction)
		require.True(t, strings.Contains(err.Error(), "out of range"))
	})

	t.Run("test truncated transaction", func(t *testing.T) {
		full := rawTx(t, []byte{0x51, 0x52, 0x53})

		_, _, err := OutputScript(full[:len(full)-6], 0)
		require.ErrorIs(t, err, ErrMalformedTransaction)
	})

	t.Run("test empty bytes", func(t *testing.T) {
		_, _, err := OutputScript(nil, 0)
		require.ErrorIs(t, err, ErrMalformedTransaction)
	})

	t.Run("test huge script length varint rejected", func(t *testing.T) {
		// a crafted length near MaxInt64 must fail cleanly, not panic
		var buf bytes.Buffer

		buf.Write([]byte{1, 0, 0, 0})
		writeVarInt(&buf, 0)
		writeVarInt(&buf, 1)

		value := make([]byte, 8)
		binary.LittleEndian.PutUint64(value, 1)
		buf.Write(value)

		length := make([]byte, 8)
		binary.LittleEndian.PutUint64(length, math.MaxInt64)
		buf.WriteByte(0xff)
		buf.Write(length)

		_, _, err := OutputScript(buf.Bytes(), 0)
		require.ErrorIs(t, err, ErrMalformedTransaction)
	})

	t.Run("test script length past uint range rejected", func(t *testing.T) {
		var buf bytes.Buffer

		buf.Write([]byte{1, 0, 0, 0})
		writeVarInt(&buf, 1)
		buf.Write(bytes.Repeat([]byte{0xee}, 32))
		buf.Write([]byte{0, 0, 0, 0})

		length := make([]byte, 8)
		binary.LittleEndian.PutUint64(length, math.MaxUint64)
		buf.WriteByte(0xff)
		buf.Write(length)

		_, _, err := OutputScript(buf.Bytes(), 0)
		require.ErrorIs(t, err, ErrMalformedTransaction)
	})
}
