// Copyright © 2018 The ELPS authors

package lisp

import (
	"fmt"

	"github.com/luthersystems/dan/parser/ast"
	"github.com/luthersystems/dan/parser/token"
)

// LType is the type of an LVal
type LType uint

// Possible LType values
const (
	// LInvalid (0) is not a valid lisp type.
	LInvalid LType = iota
	LNil
	// LBool values store their value in LVal.Bool.
	LBool
	// LNumber values store an IEEE-754 double in LVal.Num.
	LNumber
	// LString values store a string in the LVal.Str field.
	LString
	// LSymbol and LKeyword values store their text in LVal.Str and the
	// interned name in LVal.Name.  Keyword text includes the leading colon.
	LSymbol
	LKeyword
	// LList values store their elements in LVal.Cells.
	LList
	// LMap values use the LVal.Map field.
	LMap
	// LFun values store an *LFunData in LVal.Native.
	LFun
	// LPartial values store a *PartialApplication in LVal.Native.
	LPartial
	// LModule values store a *Module in LVal.Native.
	LModule
	// LClass values store a *ClassDef in LVal.Native.
	LClass
	// LInstance values store an *Instance in LVal.Native.
	LInstance
	// LSuper is bound to the name super inside methods and stores a
	// *superRef in LVal.Native.
	LSuper
	// LRange values store a *Range in LVal.Native.
	LRange
	// LError values use the LVal.Cells slice to store the error message and
	// LVal.Str to store the error condition.  A copy of the call stack at the
	// time of the error is stored in LVal.Native.
	LError
	// LNative values store a Go value in the LVal.Native field and can be used
	// by builtin functions to store values of any type.
	LNative
	// LTypeMax is not a real type but represents a value numerically greater
	// than all valid LType values.
	LTypeMax
)

var lvalTypeStrings = []string{
	LInvalid:  "INVALID",
	LNil:      "nil",
	LBool:     "boolean",
	LNumber:   "number",
	LString:   "string",
	LSymbol:   "symbol",
	LKeyword:  "keyword",
	LList:     "list",
	LMap:      "map",
	LFun:      "function",
	LPartial:  "function",
	LModule:   "module",
	LClass:    "class",
	LInstance: "instance",
	LSuper:    "super",
	LRange:    "range",
	LError:    "error",
	LNative:   "native",
}

func (t LType) String() string {
	if t >= LType(len(lvalTypeStrings)) {
		return lvalTypeStrings[LInvalid]
	}
	return lvalTypeStrings[t]
}

// LVal is a lisp value
type LVal struct {
	// Native is generic storage for data which cannot be represented as an
	// LVal (and thus can't be stored in Cells).
	Native interface{}

	// Map is the storage for LMap values.
	Map *MapData

	// Source is the location the value was read or created at, if known.
	Source *token.Location

	// Str holds string data for strings, symbols, keywords, and the
	// condition of errors.
	Str string

	// Cells holds list elements and error data.
	Cells []*LVal

	// Num holds number values.
	Num float64

	// Name is the interned name of symbols and keywords.
	Name ast.Name

	Type LType

	Bool bool
}

// Nil returns an LVal representing nil.
func Nil() *LVal {
	return &LVal{Type: LNil}
}

// Bool returns an LVal for the boolean b.
func Bool(b bool) *LVal {
	return &LVal{Type: LBool, Bool: b}
}

// Number returns an LVal representing the number x.
func Number(x float64) *LVal {
	return &LVal{Type: LNumber, Num: x}
}

// Int returns an LVal representing the integer x.
func Int(x int) *LVal {
	return Number(float64(x))
}

// String returns an LVal representing the string str.
func String(str string) *LVal {
	return &LVal{Type: LString, Str: str}
}

// Symbol returns an LVal representing the symbol s.
func Symbol(s string) *LVal {
	return &LVal{Type: LSymbol, Str: s, Name: ast.Intern(s)}
}

// Keyword returns an LVal representing the keyword s.  A leading colon is
// added when s does not have one.
func Keyword(s string) *LVal {
	if len(s) == 0 || s[0] != ':' {
		s = ":" + s
	}
	return &LVal{Type: LKeyword, Str: s, Name: ast.Intern(s)}
}

// List returns an LVal representing a list containing cells.
func List(cells ...*LVal) *LVal {
	if cells == nil {
		cells = []*LVal{}
	}
	return &LVal{Type: LList, Cells: cells}
}

// Map returns an LVal wrapping m.  A new empty map is created when m is nil.
func Map(m *MapData) *LVal {
	if m == nil {
		m = NewMap(0)
	}
	return &LVal{Type: LMap, Map: m}
}

// Native returns an LVal containing a native Go value.
func Native(v interface{}) *LVal {
	return &LVal{Type: LNative, Native: v}
}

// IsNil returns true if v is nil.
func (v *LVal) IsNil() bool {
	return v.Type == LNil
}

// IsTruthy implements the language truth test: everything except false and
// nil is true.
func (v *LVal) IsTruthy() bool {
	switch v.Type {
	case LNil:
		return false
	case LBool:
		return v.Bool
	default:
		return true
	}
}

// IsCallable returns true if v can appear as the head of a call.
func (v *LVal) IsCallable() bool {
	switch v.Type {
	case LFun:
		return !v.Fun().Macro
	case LPartial, LClass:
		return true
	}
	return false
}

// IsSeq returns true if v is a list.
func (v *LVal) IsSeq() bool {
	return v.Type == LList
}

// Len returns the length of a list, map, string, or range.  Len returns -1
// for values without a length.
func (v *LVal) Len() int {
	switch v.Type {
	case LList:
		return len(v.Cells)
	case LMap:
		return v.Map.Len()
	case LString:
		return len([]rune(v.Str))
	case LRange:
		return v.Range().Len()
	}
	return -1
}

// Fun returns the function data of an LFun value.
func (v *LVal) Fun() *LFunData {
	fun, _ := v.Native.(*LFunData)
	return fun
}

// Partial returns the data of an LPartial value.
func (v *LVal) Partial() *PartialApplication {
	p, _ := v.Native.(*PartialApplication)
	return p
}

// Module returns the module of an LModule value.
func (v *LVal) Module() *Module {
	m, _ := v.Native.(*Module)
	return m
}

// Class returns the class definition of an LClass value.
func (v *LVal) Class() *ClassDef {
	c, _ := v.Native.(*ClassDef)
	return c
}

// Instance returns the object data of an LInstance value.
func (v *LVal) Instance() *Instance {
	obj, _ := v.Native.(*Instance)
	return obj
}

// Range returns the range data of an LRange value.
func (v *LVal) Range() *Range {
	r, _ := v.Native.(*Range)
	return r
}

// CallStack returns the call stack at the time the LError v was created.
func (v *LVal) CallStack() *CallStack {
	stack, _ := v.Native.(*CallStack)
	return stack
}

// SetCallStack attaches stack to the LError v.
func (v *LVal) SetCallStack(stack *CallStack) {
	if v.Type != LError {
		panic("not an error: " + v.Type.String())
	}
	v.Native = stack
}

// GetType returns the type name of v as a string.
func GetType(v *LVal) string {
	switch v.Type {
	case LInstance:
		return v.Instance().Class.Name
	default:
		return v.Type.String()
	}
}

// Equal reports whether a and b are structurally equal.
func Equal(a, b *LVal) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case LNil:
		return true
	case LBool:
		return a.Bool == b.Bool
	case LNumber:
		return a.Num == b.Num
	case LString:
		return a.Str == b.Str
	case LSymbol, LKeyword:
		return a.Name == b.Name
	case LList:
		if len(a.Cells) != len(b.Cells) {
			return false
		}
		for i := range a.Cells {
			if !Equal(a.Cells[i], b.Cells[i]) {
				return false
			}
		}
		return true
	case LMap:
		return a.Map.Equal(b.Map)
	case LRange:
		return *a.Range() == *b.Range()
	case LInstance:
		return a.Instance().ID == b.Instance().ID
	default:
		return Identical(a, b)
	}
}

// Identical reports whether a and b are the same object.  Atoms compare by
// value since they are copied freely.
func Identical(a, b *LVal) bool {
	if a == b {
		return true
	}
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case LNil, LBool, LNumber, LString, LSymbol, LKeyword:
		return Equal(a, b)
	case LInstance:
		return a.Instance().ID == b.Instance().ID
	case LList:
		return len(a.Cells) == 0 && len(b.Cells) == 0
	case LError, LNative:
		return a.Native == b.Native
	}
	return a.Native != nil && a.Native == b.Native
}

// Copy returns a shallow copy of v.
func (v *LVal) Copy() *LVal {
	if v == nil {
		return nil
	}
	cp := *v
	if v.Cells != nil {
		cp.Cells = make([]*LVal, len(v.Cells))
		copy(cp.Cells, v.Cells)
	}
	return &cp
}

// Formals returns the formal parameter list for a native function.  A single
// "&" may precede the final name to mark the function variadic.
func Formals(argSymbols ...string) []string {
	for i, name := range argSymbols {
		if name == VarArgSymbol && i != len(argSymbols)-2 {
			panic(fmt.Sprintf("invalid formal arguments: misplaced %s", VarArgSymbol))
		}
	}
	return argSymbols
}

// VarArgSymbol separates fixed parameters from the rest parameter.
const VarArgSymbol = "&"
