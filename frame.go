// Copyright 2017 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a Modified
// BSD License that can be found in the LICENSE file.

package id3v2

import "sync/atomic"

// FrameIdentity is an opaque handle distinct from a frame's four-character
// identifier. Multiple frames may share an identifier (TXXX, COMM, APIC);
// FrameIdentity lets callers target one of them precisely. Callers must
// treat the value as opaque; only equality is meaningful.
type FrameIdentity uint64

var identityCounter uint64

func nextIdentity() FrameIdentity {
	return FrameIdentity(atomic.AddUint64(&identityCounter, 1))
}

// PictureType enumerates the role of an attached image. Values are
// preserved by integer identity across tag versions.
type PictureType byte

// The 21 picture types defined by the ID3v2 APIC frame.
const (
	PictureOther PictureType = iota
	PictureIcon32x32
	PictureIconOther
	PictureCoverFront
	PictureCoverBack
	PictureLeaflet
	PictureMedia
	PictureLeadArtist
	PictureArtist
	PictureConductor
	PictureBand
	PictureComposer
	PictureLyricist
	PictureRecordingLocation
	PictureDuringRecording
	PictureDuringPerformance
	PictureVideoScreenCapture
	PictureColouredFish
	PictureIllustration
	PictureBandLogotype
	PicturePublisherLogotype
)

// Payload is implemented by each of the eight frame payload variants.
// It exists purely as a closed marker interface; dispatch on the
// concrete type is done with a type switch, not virtual methods.
type Payload interface {
	isPayload()
}

// Text is the payload of any frame whose identifier starts with "T"
// except "TXXX".
type Text struct {
	Text string
}

// ExtendedText is the payload of a TXXX frame.
type ExtendedText struct {
	Key   string
	Value string
}

// Link is the payload of any frame whose identifier starts with "W"
// except "WXXX". Link text is always Latin-1 and carries no encoding
// byte.
type Link struct {
	URL string
}

// ExtendedLink is the payload of a WXXX frame.
type ExtendedLink struct {
	Description string
	URL         string
}

// Lyrics is the payload of a USLT frame.
type Lyrics struct {
	Language    string // 3-byte ISO-639-2 code
	Description string
	Text        string
}

// Comment is the payload of a COMM frame.
type Comment struct {
	Language    string // 3-byte ISO-639-2 code
	Description string
	Text        string
}

// Picture is the payload of an APIC (v2.3/2.4) or PIC (v2.2) frame.
type Picture struct {
	MIMEType    string
	Type        PictureType
	Description string
	Data        []byte
}

// Raw is the payload of any frame identifier this package does not
// assign semantic meaning to. Raw frames are preserved verbatim.
type Raw struct {
	Data []byte
}

func (Text) isPayload()         {}
func (ExtendedText) isPayload() {}
func (Link) isPayload()         {}
func (ExtendedLink) isPayload() {}
func (Lyrics) isPayload()       {}
func (Comment) isPayload()      {}
func (Picture) isPayload()      {}
func (Raw) isPayload()          {}

// FrameFlags are the frame-level directives recorded at the bit level by
// §4.3/§4.4 of the per-version frame header. Only the four preservation/
// readonly/group bits are ever re-emitted on write; compression,
// encryption and unsynchronization are recorded only to decide whether
// a frame must be skipped while reading.
type FrameFlags struct {
	TagAlterPreservation  bool
	FileAlterPreservation bool
	ReadOnly              bool
	GroupingIdentity      bool
	Compression           bool
	Encryption            bool
	Unsynchronisation     bool
	DataLengthIndicator   bool
}

// unsupported reports whether this frame uses a feature this package
// cannot safely parse: compression, encryption or frame-level
// unsynchronization. Frames with any of these set are skipped by the
// load engine rather than decoded.
func (f FrameFlags) unsupported() bool {
	return f.Compression || f.Encryption || f.Unsynchronisation
}

// Frame is a single typed metadata record inside a Tag.
type Frame struct {
	ID       string // four-character v2.4 identifier; an unknown v2.2 id keeps its three characters
	Identity FrameIdentity
	Encoding Encoding
	Payload  Payload
	Flags    FrameFlags

	// offset is the on-disk byte position of this frame's header, or 0
	// if the frame has never been persisted.
	offset uint32
}

// Offset returns the on-disk byte position of this frame's header, or 0
// if it has never been persisted.
func (f *Frame) Offset() uint32 { return f.offset }

func newFrame(id string, payload Payload, enc Encoding) *Frame {
	return &Frame{
		ID:       id,
		Identity: nextIdentity(),
		Encoding: enc,
		Payload:  payload,
	}
}
