// Package asthelper has utilities for constructing the small ASTs that the
// rewriter splices into user source.
package asthelper

import (
	"fmt"
	"go/ast"
	"go/token"
)

// HexLit returns a byte valued basic literal in 0x00 form, which keeps the
// emitted payload arrays compact and uniform.
func HexLit(b byte) *ast.BasicLit {
	return &ast.BasicLit{Kind: token.INT, Value: fmt.Sprintf("0x%02x", b)}
}

// ByteSliceLit converts data into a []byte{...} composite literal. Empty
// data becomes nil, which the runtime decoders accept for length zero.
func ByteSliceLit(data []byte) ast.Expr {
	if len(data) == 0 {
		return ast.NewIdent("nil")
	}
	lit := &ast.CompositeLit{Type: ByteSliceType()}
	for _, b := range data {
		lit.Elts = append(lit.Elts, HexLit(b))
	}
	return lit
}

// ByteSliceType returns the []byte type expression.
func ByteSliceType() *ast.ArrayType {
	return &ast.ArrayType{Elt: ast.NewIdent("byte")}
}

// SelectorExpr returns a simple x.sel expression.
func SelectorExpr(x, sel string) *ast.SelectorExpr {
	return &ast.SelectorExpr{X: ast.NewIdent(x), Sel: ast.NewIdent(sel)}
}

// CallExpr returns fun(args...).
func CallExpr(fun ast.Expr, args ...ast.Expr) *ast.CallExpr {
	return &ast.CallExpr{Fun: fun, Args: args}
}

// WithPos sets the token.Pos fields under node which affect printing to
// pos. Without this, go/printer estimates offsets for the synthetic nodes
// and can end up printing nearby comments in the wrong place.
func WithPos(node ast.Node, pos token.Pos) ast.Node {
	for node := range ast.Preorder(node) {
		switch node := node.(type) {
		case *ast.BasicLit:
			node.ValuePos = pos
		case *ast.Ident:
			node.NamePos = pos
		case *ast.CompositeLit:
			node.Lbrace = pos
			node.Rbrace = pos
		case *ast.ArrayType:
			node.Lbrack = pos
		case *ast.CallExpr:
			node.Lparen = pos
			node.Rparen = pos
		}
	}
	return node
}
