// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package wire is the out-of-scope wire codec collaborator: it
// serializes primitive values into a length-prefixed byte buffer and
// parses them back out, the format the snapshot packer and the parallel
// RPC agent's message types both build on.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

// ErrShortBuffer is returned by Unpacker reads that run past the end of
// the buffer.
var ErrShortBuffer = errors.New("wire: short buffer")

// Packer writes primitive values in network byte order.
type Packer struct {
	buf bytes.Buffer
}

// NewPacker returns an empty Packer.
func NewPacker() *Packer { return &Packer{} }

// Bytes returns the packed buffer.
func (p *Packer) Bytes() []byte { return p.buf.Bytes() }

// PackU16 appends a big-endian uint16.
func (p *Packer) PackU16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	p.buf.Write(b[:])
}

// PackU32 appends a big-endian uint32.
func (p *Packer) PackU32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	p.buf.Write(b[:])
}

// PackStr appends a uint32 length prefix followed by the string's bytes.
// An empty string is packed as a zero length with no following bytes,
// matching the wire codec's treatment of a NULL/empty string.
func (p *Packer) PackStr(s string) {
	p.PackU32(uint32(len(s)))
	p.buf.WriteString(s)
}

// PackTime appends a Unix timestamp as a big-endian uint32.
func (p *Packer) PackTime(t time.Time) {
	if t.IsZero() {
		p.PackU32(0)
		return
	}
	p.PackU32(uint32(t.Unix()))
}

// Unpacker reads primitive values from a buffer in the same order they
// were packed.
type Unpacker struct {
	buf []byte
	off int
}

// NewUnpacker wraps buf for sequential reads.
func NewUnpacker(buf []byte) *Unpacker {
	return &Unpacker{buf: buf}
}

func (u *Unpacker) take(n int) ([]byte, error) {
	if u.off+n > len(u.buf) {
		return nil, ErrShortBuffer
	}
	b := u.buf[u.off : u.off+n]
	u.off += n
	return b, nil
}

// UnpackU16 reads a big-endian uint16.
func (u *Unpacker) UnpackU16() (uint16, error) {
	b, err := u.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// UnpackU32 reads a big-endian uint32.
func (u *Unpacker) UnpackU32() (uint32, error) {
	b, err := u.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// UnpackStr reads a uint32 length prefix followed by that many bytes.
func (u *Unpacker) UnpackStr() (string, error) {
	n, err := u.UnpackU32()
	if err != nil {
		return "", err
	}
	b, err := u.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnpackTime reads a Unix timestamp packed as a uint32.
func (u *Unpacker) UnpackTime() (time.Time, error) {
	v, err := u.UnpackU32()
	if err != nil {
		return time.Time{}, err
	}
	if v == 0 {
		return time.Time{}, nil
	}
	return time.Unix(int64(v), 0).UTC(), nil
}
