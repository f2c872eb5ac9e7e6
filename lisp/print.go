// Copyright © 2018 The ELPS authors

package lisp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/luthersystems/dan/parser/ast"
)

// String returns the printed representation of v.  Strings are quoted so the
// result can be read back for values that have a literal syntax.
func (v *LVal) String() string {
	var buf strings.Builder
	v.print(&buf, true)
	return buf.String()
}

// Display returns the printed representation of v with top-level strings
// unquoted.
func (v *LVal) Display() string {
	if v.Type == LString {
		return v.Str
	}
	return v.String()
}

func (v *LVal) print(buf *strings.Builder, quote bool) {
	switch v.Type {
	case LNil:
		buf.WriteString("nil")
	case LBool:
		buf.WriteString(strconv.FormatBool(v.Bool))
	case LNumber:
		buf.WriteString(ast.FormatNumber(v.Num))
	case LString:
		if quote {
			buf.WriteString(strconv.Quote(v.Str))
		} else {
			buf.WriteString(v.Str)
		}
	case LSymbol, LKeyword:
		buf.WriteString(v.Str)
	case LList:
		buf.WriteString("(")
		for i, c := range v.Cells {
			if i > 0 {
				buf.WriteString(" ")
			}
			c.print(buf, true)
		}
		buf.WriteString(")")
	case LMap:
		buf.WriteString("{")
		i := 0
		v.Map.Each(func(key, val *LVal) bool {
			if i > 0 {
				buf.WriteString(", ")
			}
			i++
			key.print(buf, true)
			buf.WriteString(" => ")
			val.print(buf, true)
			return true
		})
		buf.WriteString("}")
	case LFun:
		fun := v.Fun()
		if fun.Macro {
			fmt.Fprintf(buf, "Macro(%s)", fun.QualifiedName())
		} else {
			fmt.Fprintf(buf, "Function(%s)", fun.QualifiedName())
		}
	case LPartial:
		p := v.Partial()
		fmt.Fprintf(buf, "Function(%s/%d)", p.Fun.Fun().QualifiedName(), p.Remaining())
	case LModule:
		fmt.Fprintf(buf, "Module(%s)", v.Module().Name)
	case LClass:
		fmt.Fprintf(buf, "Class(%s)", v.Class().Name)
	case LInstance:
		obj := v.Instance()
		buf.WriteString(obj.Class.Name)
		buf.WriteString("{")
		for i, name := range obj.Class.AllFields() {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(name)
			buf.WriteString(" => ")
			obj.Fields[name].print(buf, true)
		}
		buf.WriteString("}")
	case LSuper:
		fmt.Fprintf(buf, "Super(%s)", v.Native.(*superRef).class.Name)
	case LRange:
		r := v.Range()
		fmt.Fprintf(buf, "Range(%s, %s, %s)",
			ast.FormatNumber(r.Start), ast.FormatNumber(r.Stop), ast.FormatNumber(r.Step))
	case LError:
		buf.WriteString((*ErrorVal)(v).Error())
	case LNative:
		fmt.Fprintf(buf, "%v", v.Native)
	default:
		fmt.Fprintf(buf, "<%s>", v.Type)
	}
}
