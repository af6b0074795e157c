// Package literals implements the build-time half of literal obfuscation:
// encoding a literal's raw bytes into an XOR (ciphertext, key) pair and
// emitting the expression that decodes it at runtime.
package literals

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// Kind identifies how a literal's decoded bytes are reinterpreted at runtime.
type Kind int

const (
	// KindText is a quoted text literal; it must stay valid UTF-8.
	KindText Kind = iota
	// KindBytes is a raw byte string with no validity constraint.
	KindBytes
	// KindCText is a NUL-terminated text literal. The payload must not
	// contain a NUL byte; the terminator is appended after decoding and is
	// never part of the encrypted data.
	KindCText
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	case KindCText:
		return "cstring"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// DecoderName returns the function in the runtime package that decodes
// payloads of this kind.
func (k Kind) DecoderName() string {
	switch k {
	case KindText:
		return "String"
	case KindBytes:
		return "Bytes"
	case KindCText:
		return "CString"
	default:
		panic(fmt.Sprintf("literals: unknown kind %d", int(k)))
	}
}

// KindForMarker maps a marker function name in the runtime package to the
// literal kind it declares.
func KindForMarker(name string) (Kind, bool) {
	switch name {
	case "T":
		return KindText, true
	case "B":
		return KindBytes, true
	case "C":
		return KindCText, true
	default:
		return 0, false
	}
}

// Payload is the encoded form of one literal: two equal-length byte slices
// that XOR back to the plaintext, plus the kind governing reinterpretation.
// It is embedded as static data at the call site that produced it.
type Payload struct {
	Kind   Kind
	Cipher []byte
	Key    []byte
}

// Encode transforms a literal's raw bytes into a Payload, drawing a fresh
// key of equal length from the provider. Encoding is pure apart from the
// key material: identical inputs produce different payloads at different
// call sites because the provider never repeats keys.
func Encode(keys KeyProvider, kind Kind, plain []byte) (Payload, error) {
	switch kind {
	case KindText:
		if !utf8.Valid(plain) {
			return Payload{}, fmt.Errorf("text literal is not valid UTF-8")
		}
	case KindBytes:
	case KindCText:
		if i := bytes.IndexByte(plain, 0); i >= 0 {
			return Payload{}, fmt.Errorf("C string literal contains a NUL byte at offset %d", i)
		}
	default:
		return Payload{}, fmt.Errorf("unknown literal kind %d", int(kind))
	}

	key, err := keys.LiteralKey(len(plain))
	if err != nil {
		return Payload{}, fmt.Errorf("literal key: %w", err)
	}
	if len(key) != len(plain) {
		panic(fmt.Sprintf("literals: key provider returned %d bytes, want %d", len(key), len(plain)))
	}

	cipher := make([]byte, len(plain))
	for i := range plain {
		cipher[i] = plain[i] ^ key[i]
	}
	return Payload{Kind: kind, Cipher: cipher, Key: key}, nil
}

// Decode reverses the XOR transform. The terminator of a KindCText payload
// is not included; this is the encrypted region only. Used by tests and by
// tooling that verifies a round trip.
func (p Payload) Decode() []byte {
	if len(p.Cipher) != len(p.Key) {
		panic("literals: ciphertext and key lengths differ")
	}
	plain := make([]byte, len(p.Cipher))
	for i := range p.Cipher {
		plain[i] = p.Cipher[i] ^ p.Key[i]
	}
	return plain
}
