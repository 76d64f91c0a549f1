// Copyright 2017 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a Modified
// BSD License that can be found in the LICENSE file.

package id3v2

// A synchsafe integer packs a 28-bit payload into 4 bytes with the high
// bit of every byte forced to zero, so the encoded value never looks like
// an MPEG frame sync. The tag size field in every version, frame size
// fields in v2.4, and the extended header size (read in both v2.3 and
// v2.4) use this encoding.

const maxSynchsafe = 1<<28 - 1

// unsynchsafe converts a 32-bit synchsafe-encoded value back to an
// ordinary integer.
func unsynchsafe(x uint32) uint32 {
	return (x & 0x7F) | ((x & 0x7F00) >> 1) | ((x & 0x7F0000) >> 2) | ((x & 0x7F000000) >> 3)
}

// synchsafe encodes x as a synchsafe integer. Values above 2^28-1 are
// truncated; callers are responsible for keeping tag/frame sizes within
// range.
func synchsafe(x uint32) uint32 {
	x &= maxSynchsafe
	return (x & 0x7F) | ((x & 0x3F80) << 1) | ((x & 0x1FC000) << 2) | ((x & 0xFE00000) << 3)
}

// decodeSynchsafeBytes reads a 4-byte big-endian synchsafe integer.
func decodeSynchsafeBytes(b []byte) uint32 {
	_ = b[3]
	raw := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	return unsynchsafe(raw)
}

// encodeSynchsafeBytes writes x as a 4-byte big-endian synchsafe integer.
func encodeSynchsafeBytes(b []byte, x uint32) {
	_ = b[3]
	s := synchsafe(x)
	b[0] = byte(s >> 24)
	b[1] = byte(s >> 16)
	b[2] = byte(s >> 8)
	b[3] = byte(s)
}
