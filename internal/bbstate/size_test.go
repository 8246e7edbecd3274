// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package bbstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSize(t *testing.T) {
	cases := []struct {
		text        string
		granularity uint32
		want        uint32
	}{
		{"4GB", 1, 4},
		{"4096MB", 1, 4},
		{"1TB", 1, 1024},
		{"1PB", 1, 1048576},
		{"0", 1, 0},
		{"3GB", 4, 4},
		{"-5GB", 1, 0},
		{"10", 1, 10},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ParseSize(c.text, c.granularity), "ParseSize(%q, %d)", c.text, c.granularity)
	}
}

func TestGresCountScalesBase1024WithNoGranularityRounding(t *testing.T) {
	assert.Equal(t, uint32(100), GresCount("100"))
	assert.Equal(t, uint32(1024), GresCount("1k"))
	assert.Equal(t, uint32(1024*1024), GresCount("1M"))
	assert.Equal(t, uint32(1024*1024*1024), GresCount("1G"))
}

func TestGresCountAndParseSizeDisagreeOnBareM(t *testing.T) {
	// ParseSize treats M as mebi-rounded-up-to-gibi; GresCount treats M as
	// a base-1024 mega multiplier. They must stay distinct variants.
	assert.Equal(t, uint32(1), ParseSize("1024M", 1))
	assert.Equal(t, uint32(1024*1024), GresCount("1M"))
}
