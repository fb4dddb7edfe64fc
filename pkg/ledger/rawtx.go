/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformedTransaction is returned when raw transaction bytes cannot be
// walked to the requested output.
var ErrMalformedTransaction = errors.New("malformed transaction")

const (
	outpointTxIDLen = 32
	outpointVoutLen = 4
	sequenceLen     = 4
	valueLen        = 8
	versionLen      = 4
)

// OutputScript walks serialized transaction bytes and returns the locking
// script and value of the output at the given index. Only the standard
// serialization (version, inputs, outputs, locktime) is understood.
func OutputScript(rawTx []byte, index uint32) ([]byte, uint64, error) {
	r := &reader{buf: rawTx}

	if _, err := r.take(versionLen); err != nil {
		return nil, 0, err
	}

	inputCount, err := r.varInt()
	if err != nil {
		return nil, 0, err
	}

	for i := uint64(0); i < inputCount; i++ {
		if _, err := r.take(outpointTxIDLen + outpointVoutLen); err != nil {
			return nil, 0, err
		}

		scriptLen, err := r.varInt()
		if err != nil {
			return nil, 0, err
		}

		if _, err := r.takeN(scriptLen); err != nil {
			return nil, 0, err
		}

		if _, err := r.take(sequenceLen); err != nil {
			return nil, 0, err
		}
	}

	outputCount, err := r.varInt()
	if err != nil {
		return nil, 0, err
	}

	if uint64(index) >= outputCount {
		return nil, 0, fmt.Errorf("%w: output index %d out of range (%d outputs)",
			ErrMalformedTransaction, index, outputCount)
	}

	for i := uint64(0); ; i++ {
		valueBytes, err := r.take(valueLen)
		if err != nil {
			return nil, 0, err
		}

		scriptLen, err := r.varInt()
		if err != nil {
			return nil, 0, err
		}

		script, err := r.takeN(scriptLen)
		if err != nil {
			return nil, 0, err
		}

		if i == uint64(index) {
			return script, binary.LittleEndian.Uint64(valueBytes), nil
		}
	}
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) take(n int) ([]byte, error) {
	// len(r.buf)-r.pos cannot overflow; r.pos+n can for crafted lengths.
	if n < 0 || n > len(r.buf)-r.pos {
		return nil, fmt.Errorf("%w: truncated at byte %d", ErrMalformedTransaction, r.pos)
	}

	out := r.buf[r.pos : r.pos+n]
	r.pos += n

	return out, nil
}

// takeN reads a varint-sized span without ever converting the untrusted
// length to a signed int.
func (r *reader) takeN(n uint64) ([]byte, error) {
	if n > uint64(len(r.buf)-r.pos) {
		return nil, fmt.Errorf("%w: truncated at byte %d", ErrMalformedTransaction, r.pos)
	}

	return r.take(int(n))
}

func (r *reader) varInt() (uint64, error) {
	prefix, err := r.take(1)
	if err != nil {
		return 0, err
	}

	switch prefix[0] {
	case 0xfd:
		b, err := r.take(2)
		if err != nil {
			return 0, err
		}

		return uint64(binary.LittleEndian.Uint16(b)), nil
	case 0xfe:
		b, err := r.take(4)
		if err != nil {
			return 0, err
		}

		return uint64(binary.LittleEndian.Uint32(b)), nil
	case 0xff:
		b, err := r.take(8)
		if err != nil {
			return 0, err
		}

		return binary.LittleEndian.Uint64(b), nil
	default:
		return uint64(prefix[0]), nil
	}
}
