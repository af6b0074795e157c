package obfustr

// The marker functions below are what user code writes before running the
// obfustr tool. Each is a plain identity transform, so a program builds and
// behaves the same whether or not generation has run yet; the tool rewrites
// every marker call whose argument is a string literal into the matching
// String, Bytes or CString call with an encrypted payload.

// T marks a text literal for obfuscation. After generation the call site
// yields the same string, decoded from an embedded (ciphertext, key) pair.
func T(s string) string { return s }

// B marks a byte string literal for obfuscation.
func B(s string) []byte { return []byte(s) }

// C marks a C string literal for obfuscation. The result carries a trailing
// NUL terminator. The argument must not contain a NUL byte; the obfustr
// tool rejects such literals when it rewrites the call.
func C(s string) []byte { return append([]byte(s), 0) }
