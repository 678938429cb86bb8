package object

import (
	"fmt"
	"strconv"

	"github.com/crowlang/crow/pkg/value"
)

// Stringify renders v the way `print` and the `str` native do. Numbers
// use C's %g semantics -- six significant digits, trailing zeros
// stripped, scientific notation once the exponent leaves [-4, 6) -- so
// whole-valued doubles print as integers and 1/3 prints as 0.333333;
// everything else has a fixed literal spelling except objects, which
// dispatch on their concrete type.
func Stringify(v value.Value) string {
	switch {
	case v.IsNil():
		return "nil"
	case v.IsBool():
		if v.AsBool() {
			return "true"
		}
		return "false"
	case v.IsNumber():
		return strconv.FormatFloat(v.AsNumber(), 'g', 6, 64)
	case v.IsObj():
		return stringifyObj(v)
	default:
		return "<value>"
	}
}

func stringifyObj(v value.Value) string {
	switch TypeOf(v.ObjPtr()) {
	case TypeString:
		return AsString(v).Chars
	case TypeFunction:
		fn := AsFunction(v)
		if fn.Name == nil {
			return "<script>"
		}
		return fmt.Sprintf("<fn %s>", fn.Name.Chars)
	case TypeClosure:
		fn := AsClosure(v).Function
		if fn.Name == nil {
			return "<script>"
		}
		return fmt.Sprintf("<fn %s>", fn.Name.Chars)
	case TypeClass:
		return AsClass(v).Name.Chars
	case TypeInstance:
		return fmt.Sprintf("%s instance", AsInstance(v).Class.Name.Chars)
	case TypeBoundMethod:
		fn := AsBoundMethod(v).Method.Function
		if fn.Name == nil {
			return "<script>"
		}
		return fmt.Sprintf("<fn %s>", fn.Name.Chars)
	case TypeNative:
		return "<native fn>"
	default:
		return "<object>"
	}
}
