package cgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
)

// constantLiteral renders a constant initializer as C literal text.
// Aggregates become brace initializers; character arrays that carry a C
// string become a quoted literal.
func (p *Program) constantLiteral(c constant.Constant) (string, error) {
	switch c := c.(type) {
	case *constant.Int:
		return c.X.String(), nil
	case *constant.Float:
		return floatLiteral(c), nil
	case *constant.Null:
		return "0", nil
	case *constant.Undef:
		return "0", nil
	case *constant.CharArray:
		return stringLiteral(c.X), nil
	case *constant.Array:
		return p.aggregateLiteral(c.Elems)
	case *constant.Struct:
		return p.aggregateLiteral(c.Fields)
	case *constant.ZeroInitializer:
		return "{0}", nil
	case *ir.Global:
		return globalName(c.Name()), nil
	case *ir.Func:
		return "&" + c.Name(), nil
	case *constant.ExprGetElementPtr:
		return p.constantLiteral(c.Src)
	case *constant.ExprBitCast:
		return p.constantLiteral(c.From)
	}
	return "", nil
}

func (p *Program) aggregateLiteral(elems []constant.Constant) (string, error) {
	parts := make([]string, len(elems))
	for i, e := range elems {
		v, err := p.constantLiteral(e)
		if err != nil {
			return "", err
		}
		parts[i] = v
	}
	return "{" + strings.Join(parts, ", ") + "}", nil
}

func floatLiteral(c *constant.Float) string {
	if c.NaN || c.X == nil {
		return "(0.0 / 0.0)"
	}
	f, _ := c.X.Float64()
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// stringLiteral renders the bytes of a char array as a double-quoted C
// string. The implicit terminator of the C literal replaces a single
// trailing NUL in the data.
func stringLiteral(data []byte) string {
	if n := len(data); n > 0 && data[n-1] == 0 {
		data = data[:n-1]
	}
	var sb strings.Builder
	sb.WriteByte('"')
	for _, b := range data {
		switch b {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			if b < 0x20 || b >= 0x7f {
				fmt.Fprintf(&sb, "\\%03o", b)
			} else {
				sb.WriteByte(b)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
