// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package bbstate

import "strconv"

// ParseSize converts a burst buffer size specification such as "4GB" to a
// numeric quantity normalised to granularity units. The leading decimal is
// interpreted as a count of gibibytes by default: M/m rounds up from
// mebibytes to gibibytes, G/g leaves the value as-is, T/t multiplies by
// 1024, P/p by 1024^2. An unrecognised or missing suffix leaves the value
// unscaled. A non-positive leading value returns 0. If granularity is
// greater than 1 the result is rounded up to the next multiple.
//
// This is the primary size-parser variant (original source's
// bb_get_size_num), distinct from GresCount below: the two disagree on
// the meaning of a bare "M" suffix and must not be conflated.
func ParseSize(text string, granularity uint32) uint32 {
	n, suffix := leadingInt(text)
	var size uint32
	if n > 0 {
		size = uint32(n)
		switch suffix {
		case 'm', 'M':
			size = (size + 1023) / 1024
		case 'g', 'G':
			// unscaled
		case 't', 'T':
			size *= 1024
		case 'p', 'P':
			size *= 1024 * 1024
		}
	}

	if granularity > 1 {
		size = ((size + granularity - 1) / granularity) * granularity
	}
	return size
}

// GresCount converts a resource-class count specification, scaling by
// k/K, m/M, g/G in base 1024. Unlike ParseSize there is no granularity
// rounding and no gibibyte-by-default interpretation: a bare number with
// no suffix is returned unscaled. This is the original source's _atoi,
// kept distinct from ParseSize since the two diverge on how they handle
// a bare "M" suffix.
func GresCount(text string) uint32 {
	n, suffix := leadingInt(text)
	if n <= 0 {
		return 0
	}
	size := uint32(n)
	switch suffix {
	case 'k', 'K':
		size *= 1024
	case 'm', 'M':
		size *= 1024 * 1024
	case 'g', 'G':
		size *= 1024 * 1024 * 1024
	}
	return size
}

// leadingInt reads a leading signed decimal integer from text and returns
// it along with the first byte following it (0 if text is exhausted),
// mirroring strtol's end_ptr behaviour.
func leadingInt(text string) (int64, byte) {
	i := 0
	if i < len(text) && (text[i] == '+' || text[i] == '-') {
		i++
	}
	start := i
	for i < len(text) && text[i] >= '0' && text[i] <= '9' {
		i++
	}
	if i == start {
		return 0, 0
	}
	n, err := strconv.ParseInt(text[:i], 10, 64)
	if err != nil {
		return 0, 0
	}
	var suffix byte
	if i < len(text) {
		suffix = text[i]
	}
	return n, suffix
}
