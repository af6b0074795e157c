package literals

import (
	"go/ast"
	"go/token"

	ah "github.com/obfustr/obfustr/internal/asthelper"
)

// CallExpr emits the runtime decode expression for the payload:
//
//	<runtimeName>.<decoder>([]byte{...cipher...}, []byte{...key...})
//
// runtimeName is the local name the file imports the runtime package
// under. pos is the position of the marker call being replaced, copied
// onto the synthetic nodes so surrounding comments keep their place.
func (p Payload) CallExpr(runtimeName string, pos token.Pos) ast.Expr {
	call := ah.CallExpr(
		ah.SelectorExpr(runtimeName, p.Kind.DecoderName()),
		ah.ByteSliceLit(p.Cipher),
		ah.ByteSliceLit(p.Key),
	)
	return ah.WithPos(call, pos).(ast.Expr)
}
