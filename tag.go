// Copyright 2017 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a Modified
// BSD License that can be found in the LICENSE file.

package id3v2

import (
	"strconv"
	"strings"
)

// TagHeaderFlags are the four header-level flags recorded in the one
// byte following the version bytes. Only these four bits are ever
// written back out; compression (v2.2 only) and the extended header are
// never emitted.
type TagHeaderFlags struct {
	Unsynchronisation bool
	ExtendedHeader    bool // also doubles as "compression" on v2.2 input
	Experimental      bool
	Footer            bool
}

func decodeTagHeaderFlags(b byte) TagHeaderFlags {
	return TagHeaderFlags{
		Unsynchronisation: b&(1<<7) != 0,
		ExtendedHeader:    b&(1<<6) != 0,
		Experimental:      b&(1<<5) != 0,
		Footer:            b&(1<<4) != 0,
	}
}

func (f TagHeaderFlags) encode() byte {
	var b byte
	if f.Unsynchronisation {
		b |= 1 << 7
	}
	if f.ExtendedHeader {
		b |= 1 << 6
	}
	if f.Experimental {
		b |= 1 << 5
	}
	if f.Footer {
		b |= 1 << 4
	}
	return b
}

// Tag holds the frames of a single ID3v2 tag along with the bookkeeping
// needed to decide how to persist edits efficiently.
type Tag struct {
	Version Version
	Flags   TagHeaderFlags

	frames []*Frame

	size           uint32 // declared on-disk payload size, excluding the 10-byte header
	offset         uint32 // byte position just past the last frame on disk, 0 if never persisted
	modifiedOffset uint32 // earliest on-disk offset that must be re-emitted on save
	path           string
	hasPath        bool
	rewrite        bool // set when loaded from v2.2; forces a v2.4 rewrite on save
}

// New creates an empty v2.4 tag with no source path.
func New() *Tag {
	return &Tag{Version: Version4}
}

// WithVersion creates an empty tag at the given version. v must be 3 or
// 4; any other value is a precondition violation and panics.
func WithVersion(v Version) *Tag {
	if v != Version3 && v != Version4 {
		panic("id3v2: WithVersion requires major version 3 or 4")
	}
	return &Tag{Version: v}
}

// DefaultEncoding returns the encoding used by the semantic setters:
// UTF-8 for v2.4 tags, UTF-16 with BOM otherwise.
func (t *Tag) DefaultEncoding() Encoding {
	if t.Version >= Version4 {
		return EncodingUTF8
	}
	return EncodingUTF16
}

// Frames returns every frame in insertion order. The returned slice must
// not be mutated by callers.
func (t *Tag) Frames() []*Frame {
	return t.frames
}

// FramesByID returns every frame with the given four-character
// identifier, in insertion order.
func (t *Tag) FramesByID(id string) []*Frame {
	var out []*Frame
	for _, f := range t.frames {
		if f.ID == id {
			out = append(out, f)
		}
	}
	return out
}

func (t *Tag) frameByID(id string) *Frame {
	for _, f := range t.frames {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// AddFrame assigns f a fresh identity, marks it unpersisted and appends
// it to the tag.
func (t *Tag) AddFrame(f *Frame) {
	f.Identity = nextIdentity()
	f.offset = 0
	t.frames = append(t.frames, f)
}

// advanceWatermark folds a removed frame's on-disk offset into the
// modified-offset watermark: the watermark becomes the minimum on-disk
// offset of anything removed or rewritten, never advancing past a prior
// value.
func (t *Tag) advanceWatermark(offset uint32) {
	if offset == 0 {
		return
	}
	if t.modifiedOffset == 0 || offset < t.modifiedOffset {
		t.modifiedOffset = offset
	}
}

// RemoveFrameByIdentity removes the frame with the given identity, if
// any, and reports whether a frame was removed.
func (t *Tag) RemoveFrameByIdentity(id FrameIdentity) bool {
	for i, f := range t.frames {
		if f.Identity == id {
			t.advanceWatermark(f.offset)
			t.frames = append(t.frames[:i], t.frames[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveFramesByID removes every frame with the given identifier and
// returns how many were removed.
func (t *Tag) RemoveFramesByID(id string) int {
	return t.removeFramesWhere(func(f *Frame) bool { return f.ID == id })
}

// removeFramesWhere removes every frame matching pred, folding each
// removed frame's offset into the watermark, and returns the count
// removed.
func (t *Tag) removeFramesWhere(pred func(*Frame) bool) int {
	kept := t.frames[:0]
	removed := 0
	for _, f := range t.frames {
		if pred(f) {
			t.advanceWatermark(f.offset)
			removed++
			continue
		}
		kept = append(kept, f)
	}
	t.frames = kept
	return removed
}

// AddTextFrame removes any existing frames with id, then inserts a new
// Text frame. If enc is nil, DefaultEncoding() is used.
func (t *Tag) AddTextFrame(id string, text string, enc *Encoding) {
	t.RemoveFramesByID(id)
	t.AddFrame(newFrame(id, Text{Text: text}, resolveEncoding(t, enc)))
}

// AddTXXX removes any existing TXXX frame with the same key, then
// inserts a new one.
func (t *Tag) AddTXXX(key, value string, enc *Encoding) {
	t.removeFramesWhere(func(f *Frame) bool {
		if f.ID != "TXXX" {
			return false
		}
		et, ok := f.Payload.(ExtendedText)
		return ok && et.Key == key
	})
	t.AddFrame(newFrame("TXXX", ExtendedText{Key: key, Value: value}, resolveEncoding(t, enc)))
}

// AddComment removes any existing COMM frame with the same description,
// then inserts a new one.
func (t *Tag) AddComment(desc, text string, enc *Encoding) {
	t.removeFramesWhere(func(f *Frame) bool {
		if f.ID != "COMM" {
			return false
		}
		c, ok := f.Payload.(Comment)
		return ok && c.Description == desc
	})
	t.AddFrame(newFrame("COMM", Comment{Language: "eng", Description: desc, Text: text}, resolveEncoding(t, enc)))
}

// AddPicture removes any existing APIC frame with the same picture
// type, then inserts a new one.
func (t *Tag) AddPicture(mime string, ptype PictureType, desc string, data []byte, enc *Encoding) {
	t.removeFramesWhere(func(f *Frame) bool {
		if f.ID != "APIC" {
			return false
		}
		p, ok := f.Payload.(Picture)
		return ok && p.Type == ptype
	})
	t.AddFrame(newFrame("APIC", Picture{MIMEType: mime, Type: ptype, Description: desc, Data: data}, resolveEncoding(t, enc)))
}

// RemoveTXXX removes TXXX frames matching key and/or value wildcards.
// A nil key or value matches anything on that axis. A TXXX frame whose
// payload didn't parse as ExtendedText also matches.
func (t *Tag) RemoveTXXX(key, value *string) int {
	return t.removeFramesWhere(func(f *Frame) bool {
		if f.ID != "TXXX" {
			return false
		}
		et, ok := f.Payload.(ExtendedText)
		if !ok {
			return true
		}
		if key != nil && et.Key != *key {
			return false
		}
		if value != nil && et.Value != *value {
			return false
		}
		return true
	})
}

// RemoveComment removes COMM frames matching description and/or text
// wildcards, with the same semantics as RemoveTXXX.
func (t *Tag) RemoveComment(key, value *string) int {
	return t.removeFramesWhere(func(f *Frame) bool {
		if f.ID != "COMM" {
			return false
		}
		c, ok := f.Payload.(Comment)
		if !ok {
			return true
		}
		if key != nil && c.Description != *key {
			return false
		}
		if value != nil && c.Text != *value {
			return false
		}
		return true
	})
}

// RemovePictureType removes APIC frames with the given picture type.
// APIC frames whose payload didn't parse as Picture also match.
func (t *Tag) RemovePictureType(ptype PictureType) int {
	return t.removeFramesWhere(func(f *Frame) bool {
		if f.ID != "APIC" {
			return false
		}
		p, ok := f.Payload.(Picture)
		if !ok {
			return true
		}
		return p.Type == ptype
	})
}

func resolveEncoding(t *Tag, enc *Encoding) Encoding {
	if enc != nil {
		return *enc
	}
	return t.DefaultEncoding()
}

// --- Semantic shortcut setters ---
//
// Each setter's clear policy is id-specific: SetTitle clears TSOT
// (title sort order), SetAlbumArtist and SetAlbum clear TSOP (performer
// sort order). SetYear/SetTrack/SetTotalTracks hard-code Latin-1; the
// remaining setters use DefaultEncoding().

// SetArtist sets TPE1 using the tag's default encoding.
func (t *Tag) SetArtist(artist string) {
	t.AddTextFrame("TPE1", artist, nil)
}

// SetAlbumArtist sets TPE2, clearing TSOP.
func (t *Tag) SetAlbumArtist(albumArtist string) {
	t.RemoveFramesByID("TSOP")
	t.AddTextFrame("TPE2", albumArtist, nil)
}

// SetAlbum sets TALB, clearing TSOP.
func (t *Tag) SetAlbum(album string) {
	t.RemoveFramesByID("TSOP")
	t.AddTextFrame("TALB", album, nil)
}

// SetTitle sets TIT2, clearing TSOT.
func (t *Tag) SetTitle(title string) {
	t.RemoveFramesByID("TSOT")
	t.AddTextFrame("TIT2", title, nil)
}

// SetGenre sets TCON using the tag's default encoding.
func (t *Tag) SetGenre(genre string) {
	t.AddTextFrame("TCON", genre, nil)
}

// SetYear sets TYER, always in Latin-1.
func (t *Tag) SetYear(year uint) {
	latin1 := EncodingISO88591
	t.AddTextFrame("TYER", strconv.FormatUint(uint64(year), 10), &latin1)
}

// parseTrackPair parses a TRCK payload of the form "N" or "N/M".
// Malformed payloads yield (0, nil, false).
func parseTrackPair(text string) (track uint32, total *uint32, ok bool) {
	parts := strings.SplitN(text, "/", 2)
	n, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
	if err != nil {
		return 0, nil, false
	}
	if len(parts) == 2 {
		m, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
		if err != nil {
			return 0, nil, false
		}
		mu := uint32(m)
		return uint32(n), &mu, true
	}
	return uint32(n), nil, true
}

func (t *Tag) trackPair() (track uint32, total *uint32, ok bool) {
	f := t.frameByID("TRCK")
	if f == nil {
		return 0, nil, false
	}
	text, isText := f.Payload.(Text)
	if !isText {
		return 0, nil, false
	}
	return parseTrackPair(text.Text)
}

// Track returns the track number from TRCK, or false if absent or
// unparseable.
func (t *Tag) Track() (uint32, bool) {
	n, _, ok := t.trackPair()
	return n, ok
}

// TotalTracks returns the total-tracks half of TRCK ("N/M"), or false
// if absent or unparseable.
func (t *Tag) TotalTracks() (uint32, bool) {
	_, total, ok := t.trackPair()
	if !ok || total == nil {
		return 0, false
	}
	return *total, true
}

// SetTrack sets the track half of TRCK, preserving any existing total,
// always in Latin-1.
func (t *Tag) SetTrack(track uint32) {
	text := strconv.FormatUint(uint64(track), 10)
	if _, total, ok := t.trackPair(); ok && total != nil {
		text = text + "/" + strconv.FormatUint(uint64(*total), 10)
	}
	latin1 := EncodingISO88591
	t.AddTextFrame("TRCK", text, &latin1)
}

// SetTotalTracks sets the total half of TRCK, preserving any existing
// track number (defaulting to 1 if absent), always in Latin-1.
func (t *Tag) SetTotalTracks(total uint32) {
	track := uint32(1)
	if n, _, ok := t.trackPair(); ok {
		track = n
	}
	text := strconv.FormatUint(uint64(track), 10) + "/" + strconv.FormatUint(uint64(total), 10)
	latin1 := EncodingISO88591
	t.AddTextFrame("TRCK", text, &latin1)
}

// RemoveTotalTracks rewrites TRCK to the bare track number, dropping the
// total. It deliberately does not touch TALB.
func (t *Tag) RemoveTotalTracks() {
	track, _, ok := t.trackPair()
	if !ok {
		return
	}
	latin1 := EncodingISO88591
	t.AddTextFrame("TRCK", strconv.FormatUint(uint64(track), 10), &latin1)
}

// SetLyrics sets USLT using the tag's default encoding.
func (t *Tag) SetLyrics(text string) {
	t.RemoveFramesByID("USLT")
	t.AddFrame(newFrame("USLT", Lyrics{Language: "eng", Text: text}, t.DefaultEncoding()))
}

func (t *Tag) textFrame(id string) (string, bool) {
	f := t.frameByID(id)
	if f == nil {
		return "", false
	}
	text, ok := f.Payload.(Text)
	if !ok {
		return "", false
	}
	return text.Text, true
}

// Artist returns TPE1's text, if present.
func (t *Tag) Artist() (string, bool) { return t.textFrame("TPE1") }

// AlbumArtist returns TPE2's text, if present.
func (t *Tag) AlbumArtist() (string, bool) { return t.textFrame("TPE2") }

// Album returns TALB's text, if present.
func (t *Tag) Album() (string, bool) { return t.textFrame("TALB") }

// Title returns TIT2's text, if present.
func (t *Tag) Title() (string, bool) { return t.textFrame("TIT2") }

// Genre returns TCON's text, if present.
func (t *Tag) Genre() (string, bool) { return t.textFrame("TCON") }

// Lyrics returns USLT's text, if present.
func (t *Tag) Lyrics() (string, bool) {
	f := t.frameByID("USLT")
	if f == nil {
		return "", false
	}
	l, ok := f.Payload.(Lyrics)
	if !ok {
		return "", false
	}
	return l.Text, true
}

// Pictures returns every APIC frame's payload, in insertion order.
func (t *Tag) Pictures() []Picture {
	var out []Picture
	for _, f := range t.frames {
		if f.ID != "APIC" {
			continue
		}
		if p, ok := f.Payload.(Picture); ok {
			out = append(out, p)
		}
	}
	return out
}

// RemoveArtist removes TPE1.
func (t *Tag) RemoveArtist() { t.RemoveFramesByID("TPE1") }

// RemoveAlbumArtist removes TPE2.
func (t *Tag) RemoveAlbumArtist() { t.RemoveFramesByID("TPE2") }

// RemoveAlbum removes TALB.
func (t *Tag) RemoveAlbum() { t.RemoveFramesByID("TALB") }

// RemoveTitle removes TIT2.
func (t *Tag) RemoveTitle() { t.RemoveFramesByID("TIT2") }

// RemoveGenre removes TCON.
func (t *Tag) RemoveGenre() { t.RemoveFramesByID("TCON") }

// RemoveTrack removes TRCK entirely.
func (t *Tag) RemoveTrack() { t.RemoveFramesByID("TRCK") }

// RemoveLyrics removes USLT.
func (t *Tag) RemoveLyrics() { t.RemoveFramesByID("USLT") }

// SetPicture replaces every attached picture with a single new one of
// type Other. Unlike AddPicture, which only clears a conflicting
// picture type, SetPicture clears all existing pictures unconditionally.
func (t *Tag) SetPicture(mime string, data []byte) {
	t.RemovePicture()
	t.AddPicture(mime, PictureOther, "", data, nil)
}

// RemovePicture removes every APIC frame.
func (t *Tag) RemovePicture() {
	t.RemoveFramesByID("APIC")
}

// AllMetadata returns the (frame id, text) pairs for every frame whose
// payload renders as text: Text, ExtendedText, Comment, Lyrics, Link and
// ExtendedLink. Picture and Raw frames are skipped.
func (t *Tag) AllMetadata() [][2]string {
	var out [][2]string
	for _, f := range t.frames {
		switch p := f.Payload.(type) {
		case Text:
			out = append(out, [2]string{f.ID, p.Text})
		case ExtendedText:
			out = append(out, [2]string{f.ID, p.Value})
		case Comment:
			out = append(out, [2]string{f.ID, p.Text})
		case Lyrics:
			out = append(out, [2]string{f.ID, p.Text})
		case Link:
			out = append(out, [2]string{f.ID, p.URL})
		case ExtendedLink:
			out = append(out, [2]string{f.ID, p.URL})
		}
	}
	return out
}
