// Copyright 2017 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a Modified
// BSD License that can be found in the LICENSE file.

package id3v2

import (
	"bytes"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Encoding is the one-byte text-encoding selector that prefixes the
// payload of every text-bearing frame.
type Encoding byte

// The four encodings defined by ID3v2.
const (
	EncodingISO88591 Encoding = 0x00
	EncodingUTF16    Encoding = 0x01
	EncodingUTF16BE  Encoding = 0x02
	EncodingUTF8     Encoding = 0x03
)

func (e Encoding) valid() bool {
	return e <= EncodingUTF8
}

// terminatorWidth returns the size, in bytes, of this encoding's null
// terminator: 2 for the UTF-16 variants, 1 otherwise.
func (e Encoding) terminatorWidth() int {
	switch e {
	case EncodingUTF16, EncodingUTF16BE:
		return 2
	default:
		return 1
	}
}

var (
	zeroByte  = []byte{0x00}
	zeroBytes = []byte{0x00, 0x00}
)

func xtextEncoding(e Encoding, forDecode bool) (encoding.Encoding, error) {
	switch e {
	case EncodingISO88591:
		return charmap.ISO8859_1, nil
	case EncodingUTF16:
		if forDecode {
			// BOM determines endianness on read; unicode.UTF16 with
			// ExpectBOM handles both orderings transparently.
			return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), nil
		}
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case EncodingUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	case EncodingUTF8:
		return nil, nil // handled directly, no transcoding needed
	default:
		return nil, newError(KindStringDecoding, "unsupported text encoding")
	}
}

// encodeText encodes text under the given encoding, without a
// terminator.
func encodeText(text string, enc Encoding) ([]byte, error) {
	if enc == EncodingUTF8 {
		return []byte(text), nil
	}

	xe, err := xtextEncoding(enc, false)
	if err != nil {
		return nil, err
	}

	if enc == EncodingISO88591 {
		for _, r := range text {
			if r > 0xFF {
				return nil, newError(KindStringDecoding, "code point outside Latin-1 range")
			}
		}
	}

	b, err := xe.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, wrapError(KindStringDecoding, "failed to encode text", err)
	}
	return b, nil
}

// encodeTextTerminated encodes text with the correct-width null
// terminator appended.
func encodeTextTerminated(text string, enc Encoding) ([]byte, error) {
	b, err := encodeText(text, enc)
	if err != nil {
		return nil, err
	}
	if enc.terminatorWidth() == 2 {
		return append(b, zeroBytes...), nil
	}
	return append(b, zeroByte...), nil
}

// decodeText decodes raw bytes under the given encoding. Invalid Latin-1
// code points cannot occur (every byte is a valid Latin-1 code point);
// invalid UTF-16/UTF-8 sequences are reported as StringDecoding errors.
func decodeText(data []byte, enc Encoding) (string, error) {
	if enc == EncodingUTF8 {
		if !isValidUTF8(data) {
			return "", newError(KindStringDecoding, "invalid byte sequence for declared encoding")
		}
		return string(data), nil
	}

	if enc == EncodingISO88591 {
		return replaceInvalidLatin1(data), nil
	}

	xe, err := xtextEncoding(enc, true)
	if err != nil {
		return "", err
	}

	s, err := xe.NewDecoder().Bytes(data)
	if err != nil {
		return "", wrapError(KindStringDecoding, "invalid byte sequence for declared encoding", err)
	}
	return string(s), nil
}

func isValidUTF8(b []byte) bool {
	return bytes.Equal(bytes.ToValidUTF8(b, nil), b)
}

// replaceInvalidLatin1 decodes Latin-1 by mapping each byte to the code
// point of the same value. Nothing is ever replaced, since every byte is
// a valid Latin-1 code point; only the encode side rejects code points
// above 0xFF.
func replaceInvalidLatin1(data []byte) string {
	out := make([]rune, len(data))
	for i, b := range data {
		out[i] = rune(b)
	}
	return string(out)
}

// splitOnceNull splits data on the first encoding-sized null terminator,
// returning the bytes before and after it. If no terminator is found the
// entire input is returned as "before" with an empty "after".
func splitOnceNull(data []byte, enc Encoding) (before, after []byte) {
	width := enc.terminatorWidth()
	if width == 1 {
		i := bytes.IndexByte(data, 0x00)
		if i < 0 {
			return data, nil
		}
		return data[:i], data[i+1:]
	}

	for i := 0; i+1 < len(data); i += 2 {
		if data[i] == 0 && data[i+1] == 0 {
			return data[:i], data[i+2:]
		}
	}
	return data, nil
}

// sanitizeText strips stray NUL and control characters sometimes left in
// description/value fields by malformed taggers.
func sanitizeText(s string) string {
	isControl := func(r rune) bool {
		return r == 0 || (r < 0x20 && r != '\t' && r != '\n') || r == 0x7F
	}
	t := transform.Chain(norm.NFKD, transform.RemoveFunc(isControl))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
