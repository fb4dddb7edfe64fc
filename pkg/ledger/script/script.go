/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package script implements the on-chain field codec: an ordered sequence of
// opaque byte fields is encoded into a provably unspendable locking script
// using length-prefixed push opcodes, and decoded back exactly.
package script

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	opFalse     = 0x00
	opReturn    = 0x6a
	opPushData1 = 0x4c
	opPushData2 = 0x4d

	maxDirectPush   = 75
	maxPushData1    = 0xff
	maxPushData2    = 0xffff
	pushData2Prefix = 3
)

// ErrMalformedScript is returned when locking script bytes cannot be decoded
// back into a field sequence.
var ErrMalformedScript = errors.New("malformed script")

// ErrFieldTooLong is returned when a single field exceeds the two-byte
// length-prefix tier.
var ErrFieldTooLong = errors.New("field exceeds maximum push length")

// Encode converts an ordered field sequence into a null-data locking script.
// The encoding is deterministic: identical field sets always produce
// byte-identical scripts.
func Encode(fields [][]byte) ([]byte, error) {
	size := 2
	for _, field := range fields {
		size += pushData2Prefix + len(field)
	}

	out := make([]byte, 0, size)
	out = append(out, opFalse, opReturn)

	for i, field := range fields {
		switch {
		case len(field) <= maxDirectPush:
			out = append(out, byte(len(field)))
		case len(field) <= maxPushData1:
			out = append(out, opPushData1, byte(len(field)))
		case len(field) <= maxPushData2:
			out = append(out, opPushData2, byte(len(field)), byte(len(field)>>8))
		default:
			return nil, fmt.Errorf("%w: field %d is %d bytes", ErrFieldTooLong, i, len(field))
		}

		out = append(out, field...)
	}

	return out, nil
}

// Decode converts a null-data locking script back into its field sequence.
// A well-formed script carrying zero fields yields an empty sequence, not an
// error. Any script not produced by Encode fails with ErrMalformedScript.
func Decode(lockingScript []byte) ([][]byte, error) {
	if len(lockingScript) < 2 || lockingScript[0] != opFalse || lockingScript[1] != opReturn {
		return nil, fmt.Errorf("%w: missing null-data marker", ErrMalformedScript)
	}

	fields := [][]byte{}
	pos := 2

	for pos < len(lockingScript) {
		op := lockingScript[pos]
		pos++

		var length int

		switch {
		case op <= maxDirectPush:
			length = int(op)
		case op == opPushData1:
			if pos+1 > len(lockingScript) {
				return nil, fmt.Errorf("%w: truncated PUSHDATA1 length", ErrMalformedScript)
			}

			length = int(lockingScript[pos])
			pos++
		case op == opPushData2:
			if pos+2 > len(lockingScript) {
				return nil, fmt.Errorf("%w: truncated PUSHDATA2 length", ErrMalformedScript)
			}

			length = int(binary.LittleEndian.Uint16(lockingScript[pos : pos+2]))
			pos += 2
		default:
			return nil, fmt.Errorf("%w: unexpected opcode 0x%02x at byte %d", ErrMalformedScript, op, pos-1)
		}

		if pos+length > len(lockingScript) {
			return nil, fmt.Errorf("%w: push runs past end of script", ErrMalformedScript)
		}

		field := make([]byte, length)
		copy(field, lockingScript[pos:pos+length])
		fields = append(fields, field)
		pos += length
	}

	return fields, nil
}

// IsNullData reports whether a locking script starts with the provably
// unspendable data-carrying marker.
func IsNullData(lockingScript []byte) bool {
	return len(lockingScript) >= 2 && lockingScript[0] == opFalse && lockingScript[1] == opReturn
}
