package glrcore

import (
	"golang.org/x/text/encoding/unicode"
)

// Encoding is a hint about how an Input's bytes were originally encoded.
// The lexer always decodes UTF-8 and does not read this hint; UTF-16
// sources are converted to UTF-8 up front by NewUTF16Input.
type Encoding uint8

const (
	EncodingUTF8 Encoding = iota
	EncodingUTF16LE
	EncodingUTF16BE
)

// Input is the read side of the language contract. A caller backed by a
// rope or a memory-mapped file can hand out its document in pieces, but
// Parse drains the whole Input into one buffer of its own before lexing
// begins.
type Input interface {
	// Read returns the bytes available starting at the given byte
	// position (a short read is fine; Parse will call again), or an
	// empty slice at end of input.
	Read(position uint32, point Point) ([]byte, error)
	// Encoding reports how those bytes should be decoded.
	Encoding() Encoding
}

// ByteSliceInput adapts a single in-memory buffer to the Input interface.
// It is the concrete Input every test and simple embedder in this package
// uses; the streaming multi-Read path is only exercised by callers who
// need it.
type ByteSliceInput struct {
	Bytes    []byte
	encoding Encoding
}

// NewByteSliceInput wraps src as a UTF-8 Input.
func NewByteSliceInput(src []byte) *ByteSliceInput {
	return &ByteSliceInput{Bytes: src, encoding: EncodingUTF8}
}

// NewUTF16Input decodes a UTF-16 buffer (little- or big-endian) to UTF-8
// up front and wraps the result. Tree-sitter's own runtime supports both
// UTF-8 and UTF-16 inputs directly; this runtime keeps the lexer
// byte-oriented and instead normalizes at the boundary, which is
// sufficient for every operation this spec exposes (byte offsets in the
// returned tree are always relative to the decoded UTF-8 buffer).
func NewUTF16Input(src []byte, bigEndian bool) (*ByteSliceInput, error) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	if bigEndian {
		enc = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	}
	decoded, err := enc.NewDecoder().Bytes(src)
	if err != nil {
		return nil, err
	}
	encHint := EncodingUTF16LE
	if bigEndian {
		encHint = EncodingUTF16BE
	}
	return &ByteSliceInput{Bytes: decoded, encoding: encHint}, nil
}

func (b *ByteSliceInput) Read(position uint32, _ Point) ([]byte, error) {
	if int(position) >= len(b.Bytes) {
		return nil, nil
	}
	return b.Bytes[position:], nil
}

func (b *ByteSliceInput) Encoding() Encoding { return b.encoding }
