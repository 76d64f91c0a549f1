// Copyright 2017 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a Modified
// BSD License that can be found in the LICENSE file.

package id3v2

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"
)

// Version is the major version of an ID3v2 tag: 2, 3 or 4.
type Version byte

// The three major versions this package understands. Version2 is only
// ever produced by reading a file; New and WithVersion restrict
// callers to Version3 and Version4.
const (
	Version2 Version = 2
	Version3 Version = 3
	Version4 Version = 4
)

func (v Version) String() string {
	switch v {
	case Version2:
		return "v2.2"
	case Version3:
		return "v2.3"
	case Version4:
		return "v2.4"
	default:
		return "v?"
	}
}

// frameHeaderSize returns the size of a frame header for the given
// version: 6 bytes for v2.2 (3-byte id + 3-byte size, no flags), 10
// bytes for v2.3/v2.4 (4-byte id + 4-byte size + 2-byte flags).
func frameHeaderSize(v Version) int {
	if v == Version2 {
		return 6
	}
	return 10
}

var scanBufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, 0, 4<<10)
		return &buf
	},
}

// readResult is what readFrame reports back to the load engine.
type readResult int

const (
	readOK readResult = iota
	readPadding
	readUnsupported
)

// readFrame reads one frame header + payload from r, which must be
// positioned at the start of a frame. bytesRead always reflects how much
// of r was consumed, even on a padding/unsupported result, so the engine
// can keep its running offset accurate.
func readFrame(v Version, r io.Reader) (frame *Frame, bytesRead int, result readResult, err error) {
	hdrSize := frameHeaderSize(v)
	hdr := make([]byte, hdrSize)
	n, readErr := io.ReadFull(r, hdr)
	bytesRead += n
	if readErr != nil {
		return nil, bytesRead, readOK, wrapError(KindInvalidInput, "truncated frame header", readErr)
	}

	var id string
	var size uint32
	var flags FrameFlags

	if v == Version2 {
		id = string(hdr[0:3])
		if hdr[0] == 0 && hdr[1] == 0 && hdr[2] == 0 {
			return nil, bytesRead, readPadding, nil
		}
		size = uint32(hdr[3])<<16 | uint32(hdr[4])<<8 | uint32(hdr[5])
	} else {
		id = string(hdr[0:4])
		if hdr[0] == 0 && hdr[1] == 0 && hdr[2] == 0 && hdr[3] == 0 {
			return nil, bytesRead, readPadding, nil
		}
		if v == Version4 {
			size = decodeSynchsafeBytes(hdr[4:8])
		} else {
			size = binary.BigEndian.Uint32(hdr[4:8])
		}
		flags = decodeFrameFlags(v, uint16(hdr[8])<<8|uint16(hdr[9]))
	}

	bufPtr := scanBufPool.Get().(*[]byte)
	defer scanBufPool.Put(bufPtr)
	if cap(*bufPtr) < int(size) {
		*bufPtr = make([]byte, size)
	}
	payloadBuf := (*bufPtr)[:size]
	n, readErr = io.ReadFull(r, payloadBuf)
	bytesRead += n
	if readErr != nil {
		return nil, bytesRead, readOK, wrapError(KindInvalidInput, "truncated frame payload", readErr)
	}

	if flags.unsupported() {
		return nil, bytesRead, readUnsupported, nil
	}

	v4ID := id
	if v == Version2 {
		mapped, known := v22ToV24[id]
		if !known {
			data := make([]byte, len(payloadBuf))
			copy(data, payloadBuf)
			return &Frame{
				ID:       id,
				Identity: nextIdentity(),
				Encoding: EncodingISO88591,
				Payload:  Raw{Data: data},
			}, bytesRead, readOK, nil
		}
		v4ID = mapped
	}

	enc, payload, decodeErr := decodeFramePayload(v4ID, v, payloadBuf)
	if decodeErr != nil {
		return nil, bytesRead, readOK, decodeErr
	}

	f := &Frame{
		ID:       v4ID,
		Identity: nextIdentity(),
		Encoding: enc,
		Payload:  payload,
		Flags:    flags,
	}
	return f, bytesRead, readOK, nil
}

// decodeFrameFlags maps the raw two-byte flag field to the version-
// independent FrameFlags struct. Bit positions differ between v2.3 and
// v2.4.
func decodeFrameFlags(v Version, raw uint16) FrameFlags {
	if v == Version4 {
		return FrameFlags{
			TagAlterPreservation:  raw&(1<<14) != 0,
			FileAlterPreservation: raw&(1<<13) != 0,
			ReadOnly:              raw&(1<<12) != 0,
			GroupingIdentity:      raw&(1<<6) != 0,
			Compression:           raw&(1<<3) != 0,
			Encryption:            raw&(1<<2) != 0,
			Unsynchronisation:     raw&(1<<1) != 0,
			DataLengthIndicator:   raw&(1<<0) != 0,
		}
	}
	return FrameFlags{
		TagAlterPreservation:  raw&(1<<15) != 0,
		FileAlterPreservation: raw&(1<<14) != 0,
		ReadOnly:              raw&(1<<13) != 0,
		Compression:           raw&(1<<7) != 0,
		Encryption:            raw&(1<<6) != 0,
		GroupingIdentity:      raw&(1<<5) != 0,
	}
}

// encodeFrameFlags is the inverse of decodeFrameFlags, restricted to the
// four bits this package ever re-emits: tag-alter, file-alter, read-only
// and grouping-identity.
func encodeFrameFlags(v Version, f FrameFlags) uint16 {
	var raw uint16
	if v == Version4 {
		if f.TagAlterPreservation {
			raw |= 1 << 14
		}
		if f.FileAlterPreservation {
			raw |= 1 << 13
		}
		if f.ReadOnly {
			raw |= 1 << 12
		}
		if f.GroupingIdentity {
			raw |= 1 << 6
		}
		return raw
	}
	if f.TagAlterPreservation {
		raw |= 1 << 15
	}
	if f.FileAlterPreservation {
		raw |= 1 << 14
	}
	if f.ReadOnly {
		raw |= 1 << 13
	}
	if f.GroupingIdentity {
		raw |= 1 << 5
	}
	return raw
}

// writeFrame serializes a frame's header and payload for the given
// version. v must be Version3 or Version4; v2.2 is never an output
// format.
func writeFrame(v Version, f *Frame) ([]byte, error) {
	payload, err := encodeFramePayload(v, f)
	if err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(make([]byte, 0, 10+len(payload)))
	buf.WriteString(f.ID)

	var sizeBuf [4]byte
	if v == Version4 {
		encodeSynchsafeBytes(sizeBuf[:], uint32(len(payload)))
	} else {
		binary.BigEndian.PutUint32(sizeBuf[:], uint32(len(payload)))
	}
	buf.Write(sizeBuf[:])

	flags := encodeFrameFlags(v, f.Flags)
	buf.WriteByte(byte(flags >> 8))
	buf.WriteByte(byte(flags))

	buf.Write(payload)
	return buf.Bytes(), nil
}

// payloadKind classifies a v2.4-form frame id by how its payload is
// shaped.
type payloadKind int

const (
	kindText payloadKind = iota
	kindExtendedText
	kindLink
	kindExtendedLink
	kindLyrics
	kindComment
	kindPicture
	kindRaw
)

func classifyFrameID(id string) payloadKind {
	switch id {
	case "TXXX":
		return kindExtendedText
	case "WXXX":
		return kindExtendedLink
	case "USLT":
		return kindLyrics
	case "COMM":
		return kindComment
	case "APIC":
		return kindPicture
	}
	if len(id) > 0 && id[0] == 'T' {
		return kindText
	}
	if len(id) > 0 && id[0] == 'W' {
		return kindLink
	}
	return kindRaw
}

func decodeFramePayload(id string, v Version, data []byte) (Encoding, Payload, error) {
	switch classifyFrameID(id) {
	case kindText:
		if len(data) == 0 {
			return EncodingISO88591, Text{}, nil
		}
		enc := Encoding(data[0])
		if !enc.valid() {
			return 0, nil, newError(KindInvalidInput, "invalid text encoding byte")
		}
		s, err := decodeText(trimTrailingNull(data[1:], enc), enc)
		if err != nil {
			return 0, nil, err
		}
		return enc, Text{Text: s}, nil

	case kindExtendedText:
		enc, key, value, err := decodeKeyValue(data)
		if err != nil {
			return 0, nil, err
		}
		return enc, ExtendedText{Key: sanitizeText(key), Value: value}, nil

	case kindLink:
		s, err := decodeText(data, EncodingISO88591)
		if err != nil {
			return 0, nil, err
		}
		return EncodingISO88591, Link{URL: s}, nil

	case kindExtendedLink:
		enc, desc, url, err := decodeExtendedLink(data)
		if err != nil {
			return 0, nil, err
		}
		return enc, ExtendedLink{Description: sanitizeText(desc), URL: url}, nil

	case kindLyrics:
		enc, lang, desc, text, err := decodeLangKeyValue(data)
		if err != nil {
			return 0, nil, err
		}
		return enc, Lyrics{Language: lang, Description: sanitizeText(desc), Text: text}, nil

	case kindComment:
		enc, lang, desc, text, err := decodeLangKeyValue(data)
		if err != nil {
			return 0, nil, err
		}
		return enc, Comment{Language: lang, Description: sanitizeText(desc), Text: text}, nil

	case kindPicture:
		return decodePicture(id, v, data)

	default:
		cp := make([]byte, len(data))
		copy(cp, data)
		return EncodingISO88591, Raw{Data: cp}, nil
	}
}

func trimTrailingNull(data []byte, enc Encoding) []byte {
	w := enc.terminatorWidth()
	for len(data) >= w {
		tail := data[len(data)-w:]
		allZero := true
		for _, b := range tail {
			if b != 0 {
				allZero = false
				break
			}
		}
		if !allZero {
			break
		}
		data = data[:len(data)-w]
	}
	return data
}

func decodeKeyValue(data []byte) (enc Encoding, key, value string, err error) {
	if len(data) == 0 {
		return 0, "", "", newError(KindInvalidInput, "empty extended-text/link payload")
	}
	enc = Encoding(data[0])
	if !enc.valid() {
		return 0, "", "", newError(KindInvalidInput, "invalid text encoding byte")
	}
	rest := data[1:]
	before, after := splitOnceNull(rest, enc)
	key, err = decodeText(before, enc)
	if err != nil {
		return 0, "", "", err
	}
	value, err = decodeText(trimTrailingNull(after, enc), enc)
	if err != nil {
		return 0, "", "", err
	}
	return enc, key, value, nil
}

// decodeExtendedLink decodes a WXXX payload. Unlike decodeKeyValue, the
// URL half is always Latin-1 and untruncated, matching the ID3 wire
// format and encodeFramePayload's ExtendedLink encoder: only the
// description is decoded under the declared encoding.
func decodeExtendedLink(data []byte) (enc Encoding, desc, url string, err error) {
	if len(data) == 0 {
		return 0, "", "", newError(KindInvalidInput, "empty extended-link payload")
	}
	enc = Encoding(data[0])
	if !enc.valid() {
		return 0, "", "", newError(KindInvalidInput, "invalid text encoding byte")
	}
	rest := data[1:]
	before, after := splitOnceNull(rest, enc)
	desc, err = decodeText(before, enc)
	if err != nil {
		return 0, "", "", err
	}
	url, err = decodeText(after, EncodingISO88591)
	if err != nil {
		return 0, "", "", err
	}
	return enc, desc, url, nil
}

func decodeLangKeyValue(data []byte) (enc Encoding, lang, desc, text string, err error) {
	if len(data) < 4 {
		return 0, "", "", "", newError(KindInvalidInput, "comment/lyrics payload too short")
	}
	enc = Encoding(data[0])
	if !enc.valid() {
		return 0, "", "", "", newError(KindInvalidInput, "invalid text encoding byte")
	}
	lang = string(data[1:4])
	rest := data[4:]
	before, after := splitOnceNull(rest, enc)
	desc, err = decodeText(before, enc)
	if err != nil {
		return 0, "", "", "", err
	}
	text, err = decodeText(trimTrailingNull(after, enc), enc)
	if err != nil {
		return 0, "", "", "", err
	}
	return enc, lang, desc, text, nil
}

func decodePicture(id string, v Version, data []byte) (Encoding, Payload, error) {
	if len(data) == 0 {
		return 0, nil, newError(KindInvalidInput, "empty picture payload")
	}
	enc := Encoding(data[0])
	if !enc.valid() {
		return 0, nil, newError(KindInvalidInput, "invalid text encoding byte")
	}
	rest := data[1:]

	var mime string
	if v == Version2 {
		if len(rest) < 3 {
			return 0, nil, newError(KindInvalidInput, "truncated v2.2 picture format code")
		}
		format := string(rest[0:3])
		rest = rest[3:]
		m, ok := v22PictureFormatToMime[format]
		if !ok {
			m = "image/" + format
		}
		mime = m
	} else {
		var mimeBytes []byte
		mimeBytes, rest = splitOnceNullLatin1(rest)
		mime = string(mimeBytes)
	}

	if len(rest) < 1 {
		return 0, nil, newError(KindInvalidInput, "truncated picture type byte")
	}
	ptype := PictureType(rest[0])
	if ptype > PicturePublisherLogotype {
		// An out-of-range picture type shouldn't abort loading an
		// otherwise valid file; fall back to Other and keep the rest of
		// the payload, matching the container's removal-not-failure
		// treatment of unparseable APIC frames.
		ptype = PictureOther
	}
	rest = rest[1:]

	before, after := splitOnceNull(rest, enc)
	desc, err := decodeText(before, enc)
	if err != nil {
		return 0, nil, err
	}

	imgData := make([]byte, len(after))
	copy(imgData, after)

	return enc, Picture{
		MIMEType:    mime,
		Type:        ptype,
		Description: sanitizeText(desc),
		Data:        imgData,
	}, nil
}

func splitOnceNullLatin1(data []byte) (before, after []byte) {
	i := bytes.IndexByte(data, 0x00)
	if i < 0 {
		return data, nil
	}
	return data[:i], data[i+1:]
}

// encodeFramePayload serializes f's payload for the given output
// version (always Version3 or Version4; this package never writes
// v2.2 frames).
func encodeFramePayload(v Version, f *Frame) ([]byte, error) {
	switch p := f.Payload.(type) {
	case Text:
		body, err := encodeText(p.Text, f.Encoding)
		if err != nil {
			return nil, err
		}
		return append([]byte{byte(f.Encoding)}, body...), nil

	case ExtendedText:
		return encodeKeyValue(f.Encoding, p.Key, p.Value)

	case Link:
		return encodeText(p.URL, EncodingISO88591)

	case ExtendedLink:
		key, err := encodeTextTerminated(p.Description, f.Encoding)
		if err != nil {
			return nil, err
		}
		url, err := encodeText(p.URL, EncodingISO88591)
		if err != nil {
			return nil, err
		}
		buf := append([]byte{byte(f.Encoding)}, key...)
		return append(buf, url...), nil

	case Lyrics:
		return encodeLangKeyValue(f.Encoding, p.Language, p.Description, p.Text)

	case Comment:
		return encodeLangKeyValue(f.Encoding, p.Language, p.Description, p.Text)

	case Picture:
		return encodePicture(f.Encoding, p)

	case Raw:
		return p.Data, nil

	default:
		return nil, newError(KindInvalidInput, "unknown payload type")
	}
}

func encodeKeyValue(enc Encoding, key, value string) ([]byte, error) {
	k, err := encodeTextTerminated(key, enc)
	if err != nil {
		return nil, err
	}
	v, err := encodeText(value, enc)
	if err != nil {
		return nil, err
	}
	buf := append([]byte{byte(enc)}, k...)
	return append(buf, v...), nil
}

func encodeLangKeyValue(enc Encoding, lang, desc, text string) ([]byte, error) {
	if len(lang) != 3 {
		lang = (lang + "eng")[:3]
	}
	d, err := encodeTextTerminated(desc, enc)
	if err != nil {
		return nil, err
	}
	t, err := encodeText(text, enc)
	if err != nil {
		return nil, err
	}
	buf := []byte{byte(enc)}
	buf = append(buf, lang...)
	buf = append(buf, d...)
	return append(buf, t...), nil
}

func encodePicture(enc Encoding, p Picture) ([]byte, error) {
	mime := p.MIMEType
	if mime == "" {
		mime = "image/"
	}
	mimeBytes := append([]byte(mime), 0x00)

	desc, err := encodeTextTerminated(p.Description, enc)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 2+len(mimeBytes)+len(desc)+len(p.Data))
	buf = append(buf, byte(enc))
	buf = append(buf, mimeBytes...)
	buf = append(buf, byte(p.Type))
	buf = append(buf, desc...)
	buf = append(buf, p.Data...)
	return buf, nil
}
