// Copyright 2017 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a Modified
// BSD License that can be found in the LICENSE file.

package id3v2

import "testing"

func TestSynchsafeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		y    uint32 // ordinary value < 2^28
	}{
		{"zero", 0},
		{"one", 1},
		{"max", maxSynchsafe},
		{"typical tag size", 0x00123456 & maxSynchsafe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := synchsafe(tt.y)
			if x&0x80808080 != 0 {
				t.Fatalf("synchsafe(%#x) = %#x has a high bit set", tt.y, x)
			}
			if got := unsynchsafe(x); got != tt.y {
				t.Errorf("unsynchsafe(synchsafe(%#x)) = %#x, want %#x", tt.y, got, tt.y)
			}
		})
	}
}

func TestUnsynchsafeRoundTrip(t *testing.T) {
	tests := []uint32{0, 0x00000001, 0x0102037F, 0x7F7F7F7F}

	for _, x := range tests {
		y := unsynchsafe(x)
		if got := synchsafe(y); got != x {
			t.Errorf("synchsafe(unsynchsafe(%#x)) = %#x, want %#x", x, got, x)
		}
	}
}

func TestSynchsafeBytes(t *testing.T) {
	var buf [4]byte
	encodeSynchsafeBytes(buf[:], 0x001FFFFF)
	got := decodeSynchsafeBytes(buf[:])
	if got != 0x001FFFFF {
		t.Errorf("decodeSynchsafeBytes(encodeSynchsafeBytes(x)) = %#x, want %#x", got, 0x001FFFFF)
	}
}
