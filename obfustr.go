// Package obfustr decodes string, byte string and C string literals that
// were encrypted at build time by the obfustr tool.
//
// Obfuscated literals are stored as two equal-length byte slices, the
// ciphertext and the key, with ciphertext[i] = plaintext[i] XOR key[i].
// The key is embedded directly next to the ciphertext, so this hinders
// casual inspection of the binary with tools like strings(1); it does not
// protect data that must be kept secret.
//
// User code never constructs the (ciphertext, key) pairs by hand. It writes
// marker calls such as obfustr.T("secret") and runs the obfustr command,
// which rewrites each marker call into a String, Bytes or CString call with
// the encrypted payload inlined.
package obfustr

import "unicode/utf8"

// decode XORs cipher with key into a fresh buffer with extra trailing
// zero bytes. Every call allocates; decoded plaintext is never cached,
// so no long-lived copy sits at a predictable address.
func decode(cipher, key []byte, extra int) []byte {
	if len(cipher) != len(key) {
		panic("obfustr: ciphertext and key lengths differ")
	}
	buf := make([]byte, len(cipher)+extra)
	for i := range cipher {
		buf[i] = cipher[i] ^ key[i]
	}
	return buf
}

// String decodes an obfuscated text literal.
//
// The result of decoding a well-formed payload is exactly the UTF-8 text
// that was encrypted. A payload that decodes to invalid UTF-8 was corrupted
// or mismatched by hand, which is a defect in the caller, so String panics
// rather than returning a wrong value.
func String(cipher, key []byte) string {
	buf := decode(cipher, key, 0)
	if !utf8.Valid(buf) {
		panic("obfustr: text literal decoded to invalid UTF-8")
	}
	return string(buf)
}

// Bytes decodes an obfuscated byte string literal. The returned slice is
// freshly allocated on every call and is owned by the caller.
func Bytes(cipher, key []byte) []byte {
	return decode(cipher, key, 0)
}

// CString decodes an obfuscated C string literal. The returned slice holds
// the decoded bytes followed by a single NUL terminator, so its length is
// len(cipher)+1. The terminator itself is not part of the encrypted data.
func CString(cipher, key []byte) []byte {
	return decode(cipher, key, 1)
}

// Wipe overwrites a decoded buffer with zeroes. Useful to shorten the
// lifetime of plaintext returned by Bytes or CString once the caller is
// done with it.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
