// Package rewrite is the front end of the obfustr tool: it scans parsed Go
// source for marker calls, encodes each literal argument once, and splices
// the decode expression in its place.
//
// The scan is purely syntactic, in the way gofmt is: marker calls are
// recognized by the package-qualified names T, B and C on whatever local
// name the file imports the runtime package under. No type information is
// consulted, so a local identifier shadowing the import name would confuse
// the match; in practice nobody names a variable after an imported package.
package rewrite

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	pathpkg "path"
	"strconv"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/tools/go/ast/astutil"

	"github.com/obfustr/obfustr/internal/literals"
)

// DefaultRuntimePath is the import path of the runtime decode package that
// generated expressions call into.
const DefaultRuntimePath = "github.com/obfustr/obfustr"

// Config configures a Rewriter.
type Config struct {
	// Keys supplies the per-literal XOR pads. Required.
	Keys literals.KeyProvider
	// RuntimePath overrides the runtime package import path. Empty means
	// DefaultRuntimePath.
	RuntimePath string
	// Logger receives per-site debug output. Nil means no logging.
	Logger hclog.Logger
}

// Rewriter replaces marker calls with encoded payloads. Safe for use on
// any number of files; each call site draws an independent key.
type Rewriter struct {
	keys        literals.KeyProvider
	runtimePath string
	log         hclog.Logger
}

func New(cfg Config) *Rewriter {
	if cfg.Keys == nil {
		panic("rewrite: Config.Keys is required")
	}
	if cfg.RuntimePath == "" {
		cfg.RuntimePath = DefaultRuntimePath
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	return &Rewriter{keys: cfg.Keys, runtimePath: cfg.RuntimePath, log: cfg.Logger}
}

// RuntimePath returns the import path generated code decodes through.
func (r *Rewriter) RuntimePath() string {
	return r.runtimePath
}

// A SiteError reports a marker call the tool cannot rewrite. The position
// points at the offending call so the source can be fixed.
type SiteError struct {
	Pos token.Position
	Msg string
}

func (e *SiteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// File rewrites every marker call in file, returning the number of call
// sites encoded. A SiteError aborts the traversal; the file must not be
// written out when an error is returned.
func (r *Rewriter) File(fset *token.FileSet, file *ast.File) (int, error) {
	localName, ok := runtimeImportName(file, r.runtimePath)
	if !ok {
		return 0, nil
	}

	var count int
	var siteErr error

	post := func(cursor *astutil.Cursor) bool {
		call, ok := cursor.Node().(*ast.CallExpr)
		if !ok {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		pkg, ok := sel.X.(*ast.Ident)
		if !ok || pkg.Name != localName {
			return true
		}
		kind, ok := literals.KindForMarker(sel.Sel.Name)
		if !ok {
			return true
		}

		marker := localName + "." + sel.Sel.Name
		if len(call.Args) != 1 {
			siteErr = &SiteError{
				Pos: fset.Position(call.Pos()),
				Msg: fmt.Sprintf("%s takes exactly one string literal argument", marker),
			}
			return false
		}
		lit, ok := call.Args[0].(*ast.BasicLit)
		if !ok || lit.Kind != token.STRING {
			siteErr = &SiteError{
				Pos: fset.Position(call.Args[0].Pos()),
				Msg: fmt.Sprintf("argument to %s must be a string literal", marker),
			}
			return false
		}
		value, err := strconv.Unquote(lit.Value)
		if err != nil {
			siteErr = &SiteError{
				Pos: fset.Position(lit.Pos()),
				Msg: fmt.Sprintf("cannot unquote argument to %s: %v", marker, err),
			}
			return false
		}

		payload, err := literals.Encode(r.keys, kind, []byte(value))
		if err != nil {
			siteErr = &SiteError{Pos: fset.Position(lit.Pos()), Msg: err.Error()}
			return false
		}

		cursor.Replace(payload.CallExpr(localName, call.Pos()))
		count++
		r.log.Debug("obfuscated literal",
			"kind", kind.String(),
			"bytes", len(value),
			"site", fset.Position(call.Pos()).String())
		return true
	}

	astutil.Apply(file, nil, post)
	if siteErr != nil {
		return count, siteErr
	}
	return count, nil
}

// Source parses src, rewrites marker calls, and formats the result. When
// no call sites were found the input bytes are returned unchanged, so
// callers can cheaply detect files the tool does not touch.
func (r *Rewriter) Source(filename string, src []byte) ([]byte, int, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, 0, err
	}

	n, err := r.File(fset, file)
	if err != nil {
		return nil, n, err
	}
	if n == 0 {
		return src, 0, nil
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return nil, n, fmt.Errorf("format %s: %w", filename, err)
	}
	return buf.Bytes(), n, nil
}

// runtimeImportName returns the name the file refers to the runtime
// package by, or false when the file does not import it. Dot and blank
// imports are skipped: marker calls must be package-qualified to be found
// without type information.
func runtimeImportName(file *ast.File, path string) (string, bool) {
	for _, imp := range file.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil || p != path {
			continue
		}
		if imp.Name != nil {
			if imp.Name.Name == "." || imp.Name.Name == "_" {
				return "", false
			}
			return imp.Name.Name, true
		}
		return pathpkg.Base(path), true
	}
	return "", false
}
