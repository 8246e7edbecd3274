// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	p := NewPacker()
	p.PackStr("alice:bob")
	p.PackU32(42)
	p.PackU16(7)
	now := time.Now().Truncate(time.Second)
	p.PackTime(now)
	p.PackStr("")

	u := NewUnpacker(p.Bytes())
	s, err := u.UnpackStr()
	require.NoError(t, err)
	assert.Equal(t, "alice:bob", s)

	n32, err := u.UnpackU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(42), n32)

	n16, err := u.UnpackU16()
	require.NoError(t, err)
	assert.Equal(t, uint16(7), n16)

	gotTime, err := u.UnpackTime()
	require.NoError(t, err)
	assert.True(t, gotTime.Equal(now.UTC()))

	empty, err := u.UnpackStr()
	require.NoError(t, err)
	assert.Equal(t, "", empty)
}

func TestUnpackReturnsErrShortBufferPastEnd(t *testing.T) {
	u := NewUnpacker([]byte{0, 1})
	_, err := u.UnpackU32()
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestPackTimeZeroValue(t *testing.T) {
	p := NewPacker()
	p.PackTime(time.Time{})

	u := NewUnpacker(p.Bytes())
	got, err := u.UnpackTime()
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}
