// Copyright © 2024 The ELPS authors

package lisp

import (
	"strings"

	"github.com/luthersystems/dan/parser/ast"
	"github.com/luthersystems/dan/parser/token"
)

// ClassDef describes a class.  Superclasses are referenced by id through the
// runtime's ClassTable.
type ClassDef struct {
	ID     int
	Name   string
	Module string
	// Super is the id of the superclass or -1.
	Super int
	// Attrs are the constructor attributes declared by the class itself.
	Attrs []string
	// Env is the class scope holding class variables.
	Env     *LEnv
	Methods map[string]*LVal
	Statics map[string]*LVal
	Init    *LVal

	table *ClassTable
}

// AllFields returns the constructor attributes of the class, those of its
// superclasses first.
func (c *ClassDef) AllFields() []string {
	var fields []string
	if sup := c.table.Get(c.Super); sup != nil {
		fields = sup.AllFields()
	}
	return append(fields, c.Attrs...)
}

// ClassTable holds every class defined in a runtime, indexed by id.
type ClassTable struct {
	defs []*ClassDef
}

// Add assigns c an id and records it.
func (t *ClassTable) Add(c *ClassDef) int {
	c.ID = len(t.defs)
	c.table = t
	t.defs = append(t.defs, c)
	return c.ID
}

// Get returns the class with the given id, or nil.
func (t *ClassTable) Get(id int) *ClassDef {
	if id < 0 || id >= len(t.defs) {
		return nil
	}
	return t.defs[id]
}

// Len returns the number of classes defined.
func (t *ClassTable) Len() int {
	return len(t.defs)
}

// FindMethod resolves name starting at c and walking superclasses.  When
// static is true only static methods are considered.
func (t *ClassTable) FindMethod(c *ClassDef, name string, static bool) *LVal {
	for cls := c; cls != nil; cls = t.Get(cls.Super) {
		table := cls.Methods
		if static {
			table = cls.Statics
		}
		if m, ok := table[name]; ok {
			return m
		}
	}
	return nil
}

// IsSubclass reports whether c is sup or derives from it.
func (t *ClassTable) IsSubclass(c, sup *ClassDef) bool {
	for cls := c; cls != nil; cls = t.Get(cls.Super) {
		if cls == sup {
			return true
		}
	}
	return false
}

// Instance is an object created by calling a class.
type Instance struct {
	Class  *ClassDef
	ID     uint
	Fields map[string]*LVal
}

type superRef struct {
	this  *LVal
	class *ClassDef
}

var (
	symThis  = ast.Intern("this")
	symSuper = ast.Intern("super")
)

func opClass(env *LEnv, form *ast.List) *LVal {
	if len(form.Nodes) < 2 {
		return env.formArity(form, "at least 1 form")
	}
	name, ok := form.Nodes[1].(*ast.Atom)
	if !ok || name.Kind != ast.Symbol {
		return env.malformed(form, "class name must be a symbol")
	}
	table := env.Runtime.Classes
	def := &ClassDef{
		Name:    name.Str,
		Module:  env.Module,
		Super:   -1,
		Methods: make(map[string]*LVal),
		Statics: make(map[string]*LVal),
	}
	members := form.Nodes[2:]
	if len(members) > 0 {
		if kw, ok := members[0].(*ast.Atom); ok && kw.Kind == ast.Keyword && kw.Str == ":extends" {
			if len(members) < 2 {
				return env.malformed(form, ":extends requires a class")
			}
			sup := env.Eval(members[1])
			if sup.Type == LError {
				return sup
			}
			if sup.Type != LClass {
				return env.ErrorAssociate(TypeError(sup, "class"))
			}
			def.Super = sup.Class().ID
			members = members[2:]
		}
	}
	// The id is assigned before members are read so that AllFields can walk
	// the superclass while attributes are checked.
	table.Add(def)
	classEnv := env.Extend(def.Name)
	classEnv.class = def
	def.Env = classEnv
	for _, member := range members {
		if lerr := classEnv.classMember(def, member); lerr.Type == LError {
			return lerr
		}
	}
	return env.Define(name.Name, &LVal{Type: LClass, Native: def, Source: form.Loc})
}

func (env *LEnv) classMember(def *ClassDef, member ast.Node) *LVal {
	l, ok := member.(*ast.List)
	if !ok {
		return env.ErrorConditionf(CondRuntimeError, "malformed class member: %s", member)
	}
	head, ok := l.Head()
	if !ok {
		return env.ErrorConditionf(CondRuntimeError, "malformed class member: %s", member)
	}
	switch head.Str {
	case "define":
		return opDefine(env, l)
	case "new":
		inherited := make(map[string]bool)
		for _, f := range def.AllFields() {
			inherited[f] = true
		}
		for _, n := range l.Nodes[1:] {
			a, ok := n.(*ast.Atom)
			if !ok || (a.Kind != ast.Keyword && a.Kind != ast.Symbol) {
				return env.ErrorConditionf(CondRuntimeError, "class attribute must be a keyword: %s", n)
			}
			attr := strings.TrimPrefix(a.Str, ":")
			if inherited[attr] {
				return env.ErrorConditionf(CondDuplicateBinding, "duplicate attribute in class %s: %s", def.Name, attr)
			}
			inherited[attr] = true
			def.Attrs = append(def.Attrs, attr)
		}
		return Nil()
	case "init":
		def.Init = &LVal{Type: LFun, Source: l.Loc, Native: &LFunData{
			Name:   "init",
			Module: env.Module,
			Body:   l.Nodes[1:],
			Env:    env,
			Class:  def,
		}}
		return Nil()
	}
	rest := l.Nodes[1:]
	var private, static bool
	for len(rest) > 0 {
		kw, ok := rest[0].(*ast.Atom)
		if !ok || kw.Kind != ast.Keyword {
			break
		}
		switch kw.Str {
		case ":private":
			private = true
		case ":static":
			static = true
		default:
			return env.ErrorConditionf(CondRuntimeError, "unknown method modifier %s in class %s", kw.Str, def.Name)
		}
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return env.ErrorConditionf(CondRuntimeError, "method %s requires a parameter list", head.Str)
	}
	m := env.Lambda(head.Str, rest[0], rest[1:])
	if m.Type == LError {
		return m
	}
	f := m.Fun()
	f.Class = def
	f.Private = private
	f.Static = static
	if static {
		def.Statics[head.Str] = m
	} else {
		def.Methods[head.Str] = m
	}
	return Nil()
}

// construct creates an instance of the class cls.  Arguments are assigned
// to the class attributes positionally or, when the only argument is a map,
// by name.
func (env *LEnv) construct(loc *token.Location, cls *LVal, args []*LVal) *LVal {
	c := cls.Class()
	fields := c.AllFields()
	obj := &Instance{
		Class:  c,
		ID:     env.Runtime.GenInstanceID(),
		Fields: make(map[string]*LVal, len(fields)),
	}
	if len(args) == 1 && args[0].Type == LMap && (len(fields) != 1 || hasAnyField(args[0].Map, fields)) {
		m := args[0].Map
		for _, name := range fields {
			v, ok := m.lookupField(name)
			if !ok {
				return env.ErrorConditionf(CondRuntimeError, "missing attribute for %s: %s", c.Name, name)
			}
			obj.Fields[name] = v
		}
		if m.Len() != len(fields) {
			return env.ErrorConditionf(CondRuntimeError, "unknown attributes for %s: %s", c.Name, args[0])
		}
	} else {
		if len(args) != len(fields) {
			noun := "arguments"
			if len(fields) == 1 {
				noun = "argument"
			}
			return env.ErrorConditionf(CondArityError, "%s expects %d %s, got %d", c.Name, len(fields), noun, len(args))
		}
		for i, name := range fields {
			obj.Fields[name] = args[i]
		}
	}
	this := &LVal{Type: LInstance, Native: obj, Source: loc}
	var init *LVal
	for cls := c; cls != nil && init == nil; cls = env.Runtime.Classes.Get(cls.Super) {
		init = cls.Init
	}
	if init == nil {
		return this
	}
	ret := env.invokeMethod(loc, init, this, nil)
	if ret.Type == LError {
		return ret
	}
	if ret.Type != LInstance || ret.Instance().ID != obj.ID {
		return env.ErrorConditionf(CondTypeError, "init for %s must return this, got %s", c.Name, GetType(ret))
	}
	return ret
}

func hasAnyField(m *MapData, fields []string) bool {
	for _, name := range fields {
		if _, ok := m.lookupField(name); ok {
			return true
		}
	}
	return false
}

// evalMethodCall evaluates (.name receiver arg...).
func (env *LEnv) evalMethodCall(form *ast.List, name string) *LVal {
	if len(form.Nodes) < 2 {
		return env.ErrorConditionf(CondArityError, "method call .%s requires a receiver", name)
	}
	recv := env.Eval(form.Nodes[1])
	if recv.Type == LError {
		return recv
	}
	args, lerr := env.evalArgs(form.Nodes[2:])
	if lerr != nil {
		return lerr
	}
	env.Loc = form.Loc
	return env.CallMethod(form.Loc, recv, name, args)
}

// CallMethod invokes the method name on recv.  Recv may be an instance, a
// class (for static methods), super, or a module (for exported functions).
func (env *LEnv) CallMethod(loc *token.Location, recv *LVal, name string, args []*LVal) *LVal {
	table := env.Runtime.Classes
	var m, this *LVal
	switch recv.Type {
	case LInstance:
		this = recv
		m = table.FindMethod(recv.Instance().Class, name, false)
	case LSuper:
		ref := recv.Native.(*superRef)
		this = ref.this
		m = table.FindMethod(ref.class, name, false)
	case LClass:
		this = recv
		m = table.FindMethod(recv.Class(), name, true)
	case LModule:
		fn, ok := recv.Module().Export(name)
		if !ok {
			return env.ErrorConditionf(CondUnboundName, "module %s does not export %s", recv.Module().Name, name)
		}
		return env.call(loc, fn, args)
	default:
		return env.ErrorConditionf(CondTypeError, "%s has no methods: .%s", GetType(recv), name)
	}
	if m == nil {
		return env.ErrorConditionf(CondTypeError, "%s has no method %s", GetType(recv), name)
	}
	f := m.Fun()
	if f.Private && env.class != f.Class {
		return env.ErrorConditionf(CondTypeError, "method %s.%s is private", f.Class.Name, name)
	}
	return env.invokeMethod(loc, m, this, args)
}

// invokeMethod calls method m with this bound.  Instance fields are visible
// as names in the method body and set! on a field name updates the instance.
func (env *LEnv) invokeMethod(loc *token.Location, m *LVal, this *LVal, args []*LVal) *LVal {
	f := m.Fun()
	n := len(args)
	if n < f.Arity || (!f.Variadic && n > f.Arity) {
		return env.ErrorAssociate(ArityError(f.QualifiedName(), arityDesc(f), n))
	}
	return env.enter(loc, m, func() *LVal {
		objEnv := f.Env.Extend(f.Class.Name)
		var obj *Instance
		var entry map[string]*LVal
		if this.Type == LInstance {
			obj = this.Instance()
			entry = make(map[string]*LVal, len(obj.Fields))
			for name, v := range obj.Fields {
				objEnv.Put(name, v)
				entry[name] = v
			}
		}
		callEnv := objEnv.Extend(f.Name)
		callEnv.Set(symThis, this)
		if sup := env.Runtime.Classes.Get(f.Class.Super); sup != nil && this.Type == LInstance {
			callEnv.Set(symSuper, &LVal{Type: LSuper, Native: &superRef{this: this, class: sup}})
		}
		if lerr := callEnv.bindArgs(f, args); lerr.Type == LError {
			return lerr
		}
		ret := callEnv.evalBody(f.Body)
		if obj != nil {
			obj.writeBack(objEnv, entry)
		}
		return ret
	})
}

// writeBack stores field bindings of objEnv that were reassigned during a
// method call.  Fields the method left alone keep their current value, which
// may have been set by a nested call on the same instance.
func (obj *Instance) writeBack(objEnv *LEnv, entry map[string]*LVal) {
	for name, old := range entry {
		v, ok := objEnv.Scope[ast.Intern(name)]
		if ok && v != old {
			obj.Fields[name] = v
		}
	}
}

// Field returns the value of the named field.
func (obj *Instance) Field(name string) (*LVal, bool) {
	v, ok := obj.Fields[name]
	return v, ok
}
