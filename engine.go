// Copyright 2017 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a Modified
// BSD License that can be found in the LICENSE file.

package id3v2

import (
	"bufio"
	"io"
	"os"
)

const tagHeaderSize = 10

// paddingBytes is the amount of zero padding this package always leaves
// after the last frame on a full rewrite, giving later in-place edits
// room to grow without touching the audio body.
const paddingBytes = 2048

// defaultFileDiscard lists the frame ids dropped whenever a tag is
// written to a path other than the one it was loaded from, in addition
// to whatever frame.Flags.FileAlterPreservation already marks.
var defaultFileDiscard = map[string]bool{
	"AENC": true,
	"ETCO": true,
	"EQUA": true,
	"MLLT": true,
	"POSS": true,
	"SYLT": true,
	"SYTC": true,
	"RVAD": true,
	"TENC": true,
	"TLEN": true,
	"TSIZ": true,
}

// Load reads the ID3v2 tag at the head of the file named by path. The
// returned Tag remembers path, so a later Save writes back in place.
// A v2.2 tag is upgraded to v2.4 in memory and forces a full rewrite on
// the next save.
func Load(path string) (*Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapError(KindIO, "open", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var magic [3]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, wrapError(KindInvalidInput, "reading magic", err)
	}
	if string(magic[:]) != "ID3" {
		return nil, newError(KindInvalidInput, "file does not contain an id3 tag")
	}

	var verBuf [2]byte
	if _, err := io.ReadFull(r, verBuf[:]); err != nil {
		return nil, wrapError(KindInvalidInput, "reading version", err)
	}
	major := Version(verBuf[0])
	if major != Version2 && major != Version3 && major != Version4 {
		return nil, newError(KindInvalidInput, "unsupported id3 tag version")
	}

	flagByte, err := r.ReadByte()
	if err != nil {
		return nil, wrapError(KindInvalidInput, "reading flags", err)
	}

	tag := &Tag{Version: major, path: path, hasPath: true}
	if major == Version2 {
		tag.rewrite = true
		tag.Flags.Unsynchronisation = flagByte&(1<<7) != 0
		tag.Flags.ExtendedHeader = flagByte&(1<<6) != 0 // doubles as compression on v2.2
	} else {
		tag.Flags = decodeTagHeaderFlags(flagByte)
	}

	if tag.Flags.Unsynchronisation {
		return nil, newError(KindUnsupportedFeature, "tag-level unsynchronization is not supported")
	}
	if major == Version2 && tag.Flags.ExtendedHeader {
		return nil, newError(KindUnsupportedFeature, "id3v2.2 compression is not supported")
	}

	var sizeBuf [4]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return nil, wrapError(KindInvalidInput, "reading tag size", err)
	}
	tag.size = decodeSynchsafeBytes(sizeBuf[:])
	consumed := uint32(0)

	if major != Version2 && tag.Flags.ExtendedHeader {
		var extBuf [4]byte
		if _, err := io.ReadFull(r, extBuf[:]); err != nil {
			return nil, wrapError(KindInvalidInput, "reading extended header size", err)
		}
		extSize := decodeSynchsafeBytes(extBuf[:])
		if _, err := io.CopyN(io.Discard, r, int64(extSize)); err != nil {
			return nil, wrapError(KindInvalidInput, "skipping extended header", err)
		}
		consumed += uint32(len(extBuf)) + extSize
	}

frameLoop:
	for consumed < tag.size {
		frame, n, result, err := readFrame(major, r)
		consumed += uint32(n)
		if err != nil {
			return nil, err
		}
		switch result {
		case readPadding:
			// Padding starts right after the last frame; offset stays there.
			consumed -= uint32(n)
			break frameLoop
		case readUnsupported:
			continue
		default:
			frame.offset = tagHeaderSize + (consumed - uint32(n))
			tag.frames = append(tag.frames, frame)
		}
	}

	if major == Version2 {
		tag.Version = Version4
	}

	tag.offset = tagHeaderSize + consumed
	tag.modifiedOffset = tag.offset
	return tag, nil
}

// Save persists the tag to its source path. It panics if the tag was
// never loaded from, or previously saved to, a path; callers building a
// tag from New should use SaveAs.
func (t *Tag) Save() error {
	if !t.hasPath {
		panic("id3v2: Save called on a tag with no associated path")
	}
	return t.SaveAs(t.path)
}

// SaveAs writes the tag to path, which need not match the tag's source
// path. Writing to a different path forces a full rewrite and discards
// any frame already on disk that is marked FileAlterPreservation or has
// one of the ids in a fixed
// discard list (AENC, ETCO, EQUA, MLLT, POSS, SYLT, SYTC, RVAD, TENC,
// TLEN, TSIZ): transcoding-dependent and file-identity frames that
// should not survive a copy to a new file.
func (t *Tag) SaveAs(path string) error {
	fileChanged := !t.hasPath || t.path != path

	rewrite := t.rewrite || fileChanged || t.Flags.ExtendedHeader
	if rewrite {
		t.Flags.ExtendedHeader = false
		t.Version = Version4
	}

	t.path = path
	t.hasPath = true

	encoded := make(map[FrameIdentity][]byte, len(t.frames))
	var newSize uint32
	for _, f := range t.frames {
		data, err := writeFrame(t.Version, f)
		if err != nil {
			return err
		}
		encoded[f.Identity] = data
		newSize += uint32(len(data))
	}

	if newSize > t.size {
		rewrite = true
	}
	newSize += paddingBytes

	if rewrite {
		return t.rewriteFile(path, fileChanged, newSize, encoded)
	}
	return t.overwriteInPlace(path, encoded)
}

func (t *Tag) rewriteFile(path string, fileChanged bool, newSize uint32, encoded map[FrameIdentity][]byte) error {
	t.size = newSize
	tail := skipMetadata(path)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return wrapError(KindIO, "opening file for rewrite", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString("ID3"); err != nil {
		return wrapError(KindIO, "writing magic", err)
	}
	if err := w.WriteByte(byte(t.Version)); err != nil {
		return wrapError(KindIO, "writing version", err)
	}
	if err := w.WriteByte(0x00); err != nil {
		return wrapError(KindIO, "writing version", err)
	}
	if err := w.WriteByte(t.Flags.encode()); err != nil {
		return wrapError(KindIO, "writing flags", err)
	}
	var sizeBuf [4]byte
	encodeSynchsafeBytes(sizeBuf[:], t.size)
	if _, err := w.Write(sizeBuf[:]); err != nil {
		return wrapError(KindIO, "writing size", err)
	}

	written := uint32(tagHeaderSize)
	kept := t.frames[:0]
	for _, f2 := range t.frames {
		if f2.offset != 0 && (f2.Flags.TagAlterPreservation ||
			(fileChanged && (f2.Flags.FileAlterPreservation || defaultFileDiscard[f2.ID]))) {
			continue
		}
		data := encoded[f2.Identity]
		f2.offset = written
		if _, err := w.Write(data); err != nil {
			return wrapError(KindIO, "writing frame", err)
		}
		written += uint32(len(data))
		kept = append(kept, f2)
	}
	t.frames = kept

	t.offset = written
	t.modifiedOffset = t.offset

	pad := make([]byte, paddingBytes)
	if _, err := w.Write(pad); err != nil {
		return wrapError(KindIO, "writing padding", err)
	}
	if _, err := w.Write(tail); err != nil {
		return wrapError(KindIO, "writing audio body", err)
	}
	return w.Flush()
}

func (t *Tag) overwriteInPlace(path string, encoded map[FrameIdentity][]byte) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return wrapError(KindIO, "opening file for in-place save", err)
	}
	defer f.Close()

	if _, err := f.Seek(int64(t.modifiedOffset), io.SeekStart); err != nil {
		return wrapError(KindIO, "seeking to modified offset", err)
	}

	pos := t.modifiedOffset
	kept := t.frames[:0]
	for _, f2 := range t.frames {
		switch {
		case f2.offset != 0 && f2.Flags.TagAlterPreservation:
			continue
		case f2.offset == 0 || f2.offset > t.modifiedOffset:
			data := encoded[f2.Identity]
			if _, err := f.Write(data); err != nil {
				return wrapError(KindIO, "writing frame", err)
			}
			f2.offset = pos
			pos += uint32(len(data))
			kept = append(kept, f2)
		default:
			kept = append(kept, f2)
		}
	}
	t.frames = kept

	oldOffset := t.offset
	t.offset = pos
	t.modifiedOffset = t.offset

	if t.offset < oldOffset {
		pad := make([]byte, oldOffset-t.offset)
		if _, err := f.Write(pad); err != nil {
			return wrapError(KindIO, "writing trailing padding", err)
		}
	}
	return nil
}

// skipMetadata returns the file's content starting just past any ID3v2
// tag, or the whole file if no tag is present. It never fails: any I/O
// error yields the best partial result available, falling back to an
// empty slice.
func skipMetadata(path string) []byte {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var magic [3]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return readFromStart(f)
	}
	if string(magic[:]) != "ID3" {
		return readFromStart(f)
	}

	if _, err := f.Seek(3, io.SeekCurrent); err != nil {
		return readFromStart(f)
	}
	var sizeBuf [4]byte
	if _, err := io.ReadFull(f, sizeBuf[:]); err != nil {
		return readFromStart(f)
	}
	offset := int64(tagHeaderSize) + int64(decodeSynchsafeBytes(sizeBuf[:]))
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return readFromStart(f)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil
	}
	return data
}

func readFromStart(f *os.File) []byte {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil
	}
	return data
}

// IsCandidate reports whether path begins with the "ID3" magic. Any I/O
// failure is reported as false rather than an error.
func IsCandidate(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	var magic [3]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return false
	}
	return string(magic[:]) == "ID3"
}
