package rewrite

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
	"testing"

	"github.com/go-quicktest/qt"
	"github.com/google/go-cmp/cmp"

	"github.com/obfustr/obfustr/internal/literals"
)

const fixtureSrc = `package main

import (
	"fmt"

	"github.com/obfustr/obfustr"
)

func main() {
	fmt.Println(obfustr.T("hunter2"))
	fmt.Println(obfustr.B("raw\x00bytes"))
	fmt.Println(obfustr.C("libname"))
}
`

func newRewriter(t *testing.T) *Rewriter {
	t.Helper()
	return New(Config{Keys: literals.NewRandomKeyProvider()})
}

// byteSliceValue evaluates an emitted []byte{...} literal (or nil).
func byteSliceValue(t *testing.T, expr ast.Expr) []byte {
	t.Helper()
	switch expr := expr.(type) {
	case *ast.Ident:
		qt.Assert(t, qt.Equals(expr.Name, "nil"))
		return nil
	case *ast.CompositeLit:
		data := make([]byte, 0, len(expr.Elts))
		for _, elt := range expr.Elts {
			lit, ok := elt.(*ast.BasicLit)
			qt.Assert(t, qt.IsTrue(ok))
			v, err := strconv.ParseUint(lit.Value, 0, 8)
			qt.Assert(t, qt.IsNil(err))
			data = append(data, byte(v))
		}
		return data
	default:
		t.Fatalf("unexpected payload expression %T", expr)
		return nil
	}
}

// decodedLiterals parses rewritten source and XORs every embedded payload
// back to plaintext, in source order.
func decodedLiterals(t *testing.T, src []byte) []string {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "decoded.go", src, parser.SkipObjectResolution)
	qt.Assert(t, qt.IsNil(err))

	var out []string
	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok || len(call.Args) != 2 {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		switch sel.Sel.Name {
		case "String", "Bytes", "CString":
		default:
			return true
		}
		cipher := byteSliceValue(t, call.Args[0])
		key := byteSliceValue(t, call.Args[1])
		qt.Assert(t, qt.Equals(len(cipher), len(key)))
		plain := make([]byte, len(cipher))
		for i := range cipher {
			plain[i] = cipher[i] ^ key[i]
		}
		out = append(out, string(plain))
		return true
	})
	return out
}

func TestRewriteRoundTrip(t *testing.T) {
	out, n, err := newRewriter(t).Source("main.go", []byte(fixtureSrc))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(n, 3))

	qt.Assert(t, qt.IsFalse(strings.Contains(string(out), "hunter2")))
	qt.Assert(t, qt.IsFalse(strings.Contains(string(out), "libname")))
	qt.Assert(t, qt.IsTrue(strings.Contains(string(out), "obfustr.String(")))
	qt.Assert(t, qt.IsTrue(strings.Contains(string(out), "obfustr.Bytes(")))
	qt.Assert(t, qt.IsTrue(strings.Contains(string(out), "obfustr.CString(")))

	want := []string{"hunter2", "raw\x00bytes", "libname"}
	qt.Assert(t, qt.Equals(cmp.Diff(decodedLiterals(t, out), want), ""))
}

func TestRewriteIsIdempotent(t *testing.T) {
	r := newRewriter(t)
	out, n, err := r.Source("main.go", []byte(fixtureSrc))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(n, 3))

	again, n, err := r.Source("main.go", out)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(n, 0))
	qt.Assert(t, qt.DeepEquals(again, out))
}

func TestRewriteRenamedImport(t *testing.T) {
	src := `package p

import obf "github.com/obfustr/obfustr"

var s = obf.T("secret")
`
	out, n, err := newRewriter(t).Source("p.go", []byte(src))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(n, 1))
	qt.Assert(t, qt.IsTrue(strings.Contains(string(out), "obf.String(")))
	qt.Assert(t, qt.DeepEquals(decodedLiterals(t, out), []string{"secret"}))
}

func TestRewriteCustomRuntimePath(t *testing.T) {
	src := `package p

import hide "example.com/internal/hide"

var s = hide.T("secret")
`
	r := New(Config{
		Keys:        literals.NewRandomKeyProvider(),
		RuntimePath: "example.com/internal/hide",
	})
	out, n, err := r.Source("p.go", []byte(src))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(n, 1))
	qt.Assert(t, qt.IsTrue(strings.Contains(string(out), "hide.String(")))
}

func TestRewriteSkipsFilesWithoutImport(t *testing.T) {
	src := `package p

var obfustr = struct{ T func(string) string }{}

var s = obfustr.T("not ours")
`
	out, n, err := newRewriter(t).Source("p.go", []byte(src))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(n, 0))
	qt.Assert(t, qt.DeepEquals(out, []byte(src)))
}

func TestRewriteSkipsDotImport(t *testing.T) {
	src := `package p

import . "github.com/obfustr/obfustr"

var s = T("unqualified")
`
	_, n, err := newRewriter(t).Source("p.go", []byte(src))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(n, 0))
}

func TestRewriteRawStringLiteral(t *testing.T) {
	src := "package p\n\nimport \"github.com/obfustr/obfustr\"\n\nvar s = obfustr.T(`raw literal`)\n"
	out, n, err := newRewriter(t).Source("p.go", []byte(src))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(n, 1))
	qt.Assert(t, qt.DeepEquals(decodedLiterals(t, out), []string{"raw literal"}))
}

func TestRewriteEmptyLiteral(t *testing.T) {
	src := `package p

import "github.com/obfustr/obfustr"

var s = obfustr.T("")
`
	out, n, err := newRewriter(t).Source("p.go", []byte(src))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(n, 1))
	qt.Assert(t, qt.IsTrue(strings.Contains(string(out), "obfustr.String(nil, nil)")))
}

func TestRewriteNonLiteralArgument(t *testing.T) {
	src := `package p

import "github.com/obfustr/obfustr"

func f(name string) string { return obfustr.T(name) }
`
	_, _, err := newRewriter(t).Source("p.go", []byte(src))
	qt.Assert(t, qt.ErrorMatches(err, `p\.go:5:47: argument to obfustr\.T must be a string literal`))
}

func TestRewriteWrongArgumentCount(t *testing.T) {
	src := `package p

import "github.com/obfustr/obfustr"

var s = obfustr.T("a", "b")
`
	_, _, err := newRewriter(t).Source("p.go", []byte(src))
	qt.Assert(t, qt.ErrorMatches(err, `p\.go:5:9: obfustr\.T takes exactly one string literal argument`))
}

func TestRewriteEmbeddedNULInCString(t *testing.T) {
	src := `package p

import "github.com/obfustr/obfustr"

var s = obfustr.C("a\x00b")
`
	_, _, err := newRewriter(t).Source("p.go", []byte(src))
	qt.Assert(t, qt.ErrorMatches(err, `p\.go:5:19: C string literal contains a NUL byte at offset 1`))
}

func TestRewriteSeededIsReproducible(t *testing.T) {
	source := func() []byte {
		keys, err := literals.NewSeededKeyProvider([]byte("fixed seed"))
		qt.Assert(t, qt.IsNil(err))
		out, n, err := New(Config{Keys: keys}).Source("main.go", []byte(fixtureSrc))
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.Equals(n, 3))
		return out
	}

	first := source()
	second := source()
	qt.Assert(t, qt.Equals(cmp.Diff(string(first), string(second)), ""))
}
