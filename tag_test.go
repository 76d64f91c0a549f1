// Copyright 2017 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a Modified
// BSD License that can be found in the LICENSE file.

package id3v2

import "testing"

func TestTrackParsing(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantTrack uint32
		wantTotal uint32
		wantOK    bool
	}{
		{"track and total", "5/13", 5, 13, true},
		{"track only", "7", 7, 0, true},
		{"malformed", "nope", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag := New()
			tag.AddTextFrame("TRCK", tt.text, nil)

			track, ok := tag.Track()
			if ok != tt.wantOK {
				t.Fatalf("Track() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && track != tt.wantTrack {
				t.Errorf("Track() = %d, want %d", track, tt.wantTrack)
			}

			total, totalOK := tag.TotalTracks()
			wantTotalOK := tt.wantOK && tt.name == "track and total"
			if totalOK != wantTotalOK {
				t.Fatalf("TotalTracks() ok = %v, want %v", totalOK, wantTotalOK)
			}
			if totalOK && total != tt.wantTotal {
				t.Errorf("TotalTracks() = %d, want %d", total, tt.wantTotal)
			}
		})
	}
}

func TestTXXXWildcardRemoval(t *testing.T) {
	tag := New()
	tag.AddTXXX("k1", "v1", nil)
	tag.AddTXXX("k2", "v2", nil)
	tag.AddTXXX("k3", "v2", nil)
	tag.AddTXXX("k4", "v3", nil)
	tag.AddTXXX("k5", "v4", nil)

	k1 := "k1"
	if n := tag.RemoveTXXX(&k1, nil); n != 1 {
		t.Fatalf("remove k1: removed %d, want 1", n)
	}
	if got := len(tag.FramesByID("TXXX")); got != 4 {
		t.Fatalf("after removing k1: %d TXXX frames, want 4", got)
	}

	v2 := "v2"
	if n := tag.RemoveTXXX(nil, &v2); n != 2 {
		t.Fatalf("remove v2: removed %d, want 2", n)
	}
	if got := len(tag.FramesByID("TXXX")); got != 2 {
		t.Fatalf("after removing v2: %d TXXX frames, want 2", got)
	}

	k4, v3 := "k4", "v3"
	if n := tag.RemoveTXXX(&k4, &v3); n != 1 {
		t.Fatalf("remove k4/v3: removed %d, want 1", n)
	}
	if got := len(tag.FramesByID("TXXX")); got != 1 {
		t.Fatalf("after removing k4/v3: %d TXXX frames, want 1", got)
	}

	if n := tag.RemoveTXXX(nil, nil); n != 1 {
		t.Fatalf("remove all: removed %d, want 1", n)
	}
	if got := len(tag.FramesByID("TXXX")); got != 0 {
		t.Fatalf("after removing all: %d TXXX frames, want 0", got)
	}
}

func TestPictureUniquenessPerType(t *testing.T) {
	tag := New()
	tag.AddPicture("image/jpeg", PictureOther, "", []byte{0}, nil)
	tag.AddPicture("image/png", PictureOther, "", []byte{0}, nil)

	pics := tag.Pictures()
	if len(pics) != 1 {
		t.Fatalf("len(Pictures()) = %d, want 1", len(pics))
	}
	if pics[0].MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want image/png", pics[0].MIMEType)
	}
}

func TestAddPictureDifferentTypesCoexist(t *testing.T) {
	tag := New()
	tag.AddPicture("image/jpeg", PictureCoverFront, "", []byte{0}, nil)
	tag.AddPicture("image/jpeg", PictureCoverBack, "", []byte{0}, nil)

	if got := len(tag.Pictures()); got != 2 {
		t.Fatalf("len(Pictures()) = %d, want 2", got)
	}
}

func TestSetPictureClearsAllRegardlessOfType(t *testing.T) {
	tag := New()
	tag.AddPicture("image/jpeg", PictureCoverFront, "", []byte{0}, nil)
	tag.AddPicture("image/jpeg", PictureCoverBack, "", []byte{0}, nil)

	tag.SetPicture("image/png", []byte{1})

	pics := tag.Pictures()
	if len(pics) != 1 {
		t.Fatalf("len(Pictures()) after SetPicture = %d, want 1", len(pics))
	}
	if pics[0].Type != PictureOther {
		t.Errorf("Type = %v, want PictureOther", pics[0].Type)
	}
}

func TestWatermarkMonotonicity(t *testing.T) {
	tag := New()
	tag.AddTextFrame("TIT2", "title", nil)
	// Simulate a loaded tag: frames and tag bookkeeping carry nonzero offsets.
	tag.frames[0].offset = 100
	tag.offset = 200
	tag.modifiedOffset = 200

	tag.RemoveFramesByID("TIT2")
	if tag.modifiedOffset != 100 {
		t.Errorf("modifiedOffset = %d, want 100", tag.modifiedOffset)
	}
	if tag.modifiedOffset > tag.offset {
		t.Errorf("modifiedOffset %d > offset %d", tag.modifiedOffset, tag.offset)
	}

	// Adding a frame never advances the watermark.
	tag.AddTextFrame("TPE1", "artist", nil)
	if tag.modifiedOffset != 100 {
		t.Errorf("modifiedOffset after add = %d, want unchanged 100", tag.modifiedOffset)
	}
}

func TestSetTitleClearsTSOT(t *testing.T) {
	tag := New()
	tag.AddTextFrame("TSOT", "sort title", nil)
	tag.SetTitle("Title")

	if got := tag.FramesByID("TSOT"); len(got) != 0 {
		t.Errorf("TSOT frames after SetTitle = %d, want 0", len(got))
	}
	title, ok := tag.Title()
	if !ok || title != "Title" {
		t.Errorf("Title() = %q, %v, want Title, true", title, ok)
	}
}

func TestRemoveTotalTracksRewritesTRCK(t *testing.T) {
	tag := New()
	tag.AddTextFrame("TRCK", "5/13", nil)
	tag.RemoveTotalTracks()

	track, ok := tag.Track()
	if !ok || track != 5 {
		t.Fatalf("Track() = %d, %v, want 5, true", track, ok)
	}
	if _, ok := tag.TotalTracks(); ok {
		t.Error("TotalTracks() still present after RemoveTotalTracks")
	}
	if got := tag.FramesByID("TALB"); len(got) != 0 {
		t.Error("RemoveTotalTracks must not touch TALB")
	}
}

func TestWithVersionRejectsInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid version")
		}
	}()
	WithVersion(5)
}
