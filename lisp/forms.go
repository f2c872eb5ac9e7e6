// Copyright © 2018 The ELPS authors

package lisp

import (
	"github.com/luthersystems/dan/parser/ast"
)

type specialForm struct {
	name  string
	usage string
	fn    func(env *LEnv, form *ast.List) *LVal
	doc   string
}

var (
	langSpecialForms []*specialForm
	specialForms     map[ast.Name]*specialForm
)

func init() {
	langSpecialForms = []*specialForm{
		{"begin", "(begin form...)", opBegin, `
			Evaluates each form in the current scope and returns the value of
			the last one, or nil when there are no forms.`},
		{"if", "(if test then else)", opIf, `
			Evaluates test, then evaluates and returns then when the result is
			truthy and else otherwise.  Only false and nil are falsy.`},
		{"define", "(define name expr) | (define (name param...) body...)", opDefine, `
			Binds name in the current scope.  The second syntax defines a
			function.  A list or hash pattern in place of name destructures the
			value.  A name may be defined only once per scope.`},
		{"set!", "(set! name expr)", opSetBang, `
			Replaces the value of the existing binding nearest the current
			scope and returns the new value.`},
		{"lambda", "(lambda (param... [& rest]) body...)", opLambda, `
			Returns a function closed over the current scope.  Extra arguments
			are collected in a list bound to rest.`},
		{"let", "(let ((name expr)...) body...)", opLet, `
			Binds each name in a new scope, in order, and evaluates body there.`},
		{"for", "(for ((name seq) [:when test | :unless test]) body...)", opFor, `
			Evaluates body for each item of seq and returns the last value.
			Lists, ranges, strings and maps can be iterated.`},
		{"for/list", "(for/list ((name seq) [:when test | :unless test]) body...)", opForList, `
			Like for but returns a list of the body value for every item which
			passed the filter.`},
		{"quote", "(quote form)", opQuote, `
			Returns form as data without evaluating it.`},
		{"quasiquote", "(quasiquote form)", opQuasiquote, `
			Returns form as data, except that (unquote x) forms are replaced
			by the value of x and (splice-unquote x) forms are replaced by the
			elements of x.`},
		{"unquote", "(unquote form)", opUnquoteOutside, `
			Marks a form to evaluate inside quasiquote.`},
		{"splice-unquote", "(splice-unquote form)", opUnquoteOutside, `
			Marks a sequence to splice inside quasiquote.`},
		{"defmacro", "(defmacro (name param...) body...)", opDefmacro, `
			Defines a macro.  A macro receives its arguments as unevaluated
			data and returns the form to evaluate in their place.`},
		{"macroexpand", "(macroexpand form)", opMacroexpand, `
			Evaluates form to obtain a datum and returns the result of
			expanding it once when its head names a macro.`},
		{"class", "(class Name [:extends Super] member...)", opClass, `
			Defines a class and binds it to Name.  Members are class
			variables (define v e), constructor attributes (new :a :b), an init
			hook (init body...), and methods (name [:private|:static] (param...)
			body...).`},
		{"provide", "(provide name...)", opProvide, `
			Exports names from the enclosing module.`},
		{"open", "(open \"module\")", opOpen, `
			Loads a module and binds each of its exports in the current scope.`},
		{"import", "(import \"module\" [:as name])", opImport, `
			Loads a module and binds the module value in the current scope.`},
		{"and", "(and form...)", opAnd, `
			Evaluates forms in order and returns the first falsy value, or the
			last value.  (and) is true.`},
		{"or", "(or form...)", opOr, `
			Evaluates forms in order and returns the first truthy value, or the
			last value.  (or) is false.`},
		{"cond", "(cond (test body...)... [(else body...)])", opCond, `
			Evaluates the body of the first clause whose test is truthy.`},
		{"when", "(when test body...)", opWhen, `
			Evaluates body when test is truthy and returns nil otherwise.`},
		{"unless", "(unless test body...)", opUnless, `
			Evaluates body when test is falsy and returns nil otherwise.`},
	}
	specialForms = make(map[ast.Name]*specialForm, len(langSpecialForms))
	for _, form := range langSpecialForms {
		specialForms[ast.Intern(form.name)] = form
	}
}

func lookupSpecialForm(name ast.Name) *specialForm {
	return specialForms[name]
}

// FormDoc documents a special form.
type FormDoc struct {
	Name  string
	Usage string
	Doc   string
}

// SpecialForms returns documentation for the special forms of the language.
func SpecialForms() []FormDoc {
	docs := make([]FormDoc, len(langSpecialForms))
	for i, form := range langSpecialForms {
		docs[i] = FormDoc{Name: form.name, Usage: form.usage, Doc: form.doc}
	}
	return docs
}

// IsSpecialForm returns true if name is handled by the evaluator directly.
func IsSpecialForm(name string) bool {
	return specialForms[ast.Intern(name)] != nil
}

func (env *LEnv) formArity(form *ast.List, want string) *LVal {
	head, _ := form.Head()
	return env.ErrorAssociate(ArityError(head.Str, want, len(form.Nodes)-1))
}

func (env *LEnv) malformed(form *ast.List, msg string) *LVal {
	head, _ := form.Head()
	return env.ErrorConditionf(CondRuntimeError, "malformed %s: %s", head.Str, msg)
}

func opBegin(env *LEnv, form *ast.List) *LVal {
	return env.evalBody(form.Nodes[1:])
}

func opIf(env *LEnv, form *ast.List) *LVal {
	if len(form.Nodes) != 4 {
		return env.formArity(form, "3 forms")
	}
	test := env.Eval(form.Nodes[1])
	if test.Type == LError {
		return test
	}
	if test.IsTruthy() {
		return env.Eval(form.Nodes[2])
	}
	return env.Eval(form.Nodes[3])
}

func opDefine(env *LEnv, form *ast.List) *LVal {
	if len(form.Nodes) < 2 {
		return env.formArity(form, "at least 1 form")
	}
	switch target := form.Nodes[1].(type) {
	case *ast.List:
		head, ok := target.Head()
		if !ok {
			return env.malformed(form, "function name must be a symbol")
		}
		params := &ast.List{Nodes: target.Nodes[1:], Loc: target.Loc}
		fn := env.Lambda(head.Str, params, form.Nodes[2:])
		if fn.Type == LError {
			return fn
		}
		return env.Define(head.Name, fn)
	case *ast.Atom, *ast.ListPattern, *ast.HashPattern:
		if !isParamTarget(target) {
			return env.malformed(form, "invalid binding target "+target.String())
		}
		if len(form.Nodes) != 3 {
			return env.formArity(form, "2 forms")
		}
		v := env.Eval(form.Nodes[2])
		if v.Type == LError {
			return v
		}
		if a, ok := target.(*ast.Atom); ok {
			v = nameFunction(v, a.Str)
		}
		return env.bind(target, v, true)
	}
	return env.malformed(form, "invalid binding target "+form.Nodes[1].String())
}

// nameFunction gives an anonymous lambda the name it is being bound to.
func nameFunction(v *LVal, name string) *LVal {
	if v.Type != LFun {
		return v
	}
	f := v.Fun()
	if f.Name != "" || f.Builtin != nil {
		return v
	}
	named := *f
	named.Name = name
	return &LVal{Type: LFun, Native: &named, Source: v.Source}
}

func opSetBang(env *LEnv, form *ast.List) *LVal {
	if len(form.Nodes) != 3 {
		return env.formArity(form, "2 forms")
	}
	sym, ok := form.Nodes[1].(*ast.Atom)
	if !ok || sym.Kind != ast.Symbol {
		return env.malformed(form, "target must be a symbol")
	}
	v := env.Eval(form.Nodes[2])
	if v.Type == LError {
		return v
	}
	return env.Assign(sym.Name, v)
}

func opLambda(env *LEnv, form *ast.List) *LVal {
	if len(form.Nodes) < 2 {
		return env.formArity(form, "at least 1 form")
	}
	return env.Lambda("", form.Nodes[1], form.Nodes[2:])
}

func opLet(env *LEnv, form *ast.List) *LVal {
	if len(form.Nodes) < 2 {
		return env.formArity(form, "at least 1 form")
	}
	bindings, ok := form.Nodes[1].(*ast.List)
	if !ok {
		return env.malformed(form, "bindings must be a list")
	}
	letEnv := env.Extend("let")
	for _, b := range bindings.Nodes {
		pair, ok := b.(*ast.List)
		if !ok || len(pair.Nodes) != 2 || !isParamTarget(pair.Nodes[0]) {
			return env.malformed(form, "binding must be (name expr): "+b.String())
		}
		v := letEnv.Eval(pair.Nodes[1])
		if v.Type == LError {
			return v
		}
		if a, ok := pair.Nodes[0].(*ast.Atom); ok {
			v = nameFunction(v, a.Str)
		}
		if lerr := letEnv.bind(pair.Nodes[0], v, false); lerr.Type == LError {
			return lerr
		}
	}
	return letEnv.evalBody(form.Nodes[2:])
}

type forFilter struct {
	expr   ast.Node
	unless bool
}

func opFor(env *LEnv, form *ast.List) *LVal {
	return env.evalFor(form, false)
}

func opForList(env *LEnv, form *ast.List) *LVal {
	return env.evalFor(form, true)
}

func (env *LEnv) evalFor(form *ast.List, collect bool) *LVal {
	if len(form.Nodes) < 2 {
		return env.formArity(form, "at least 1 form")
	}
	clause, ok := form.Nodes[1].(*ast.List)
	if !ok || len(clause.Nodes) == 0 {
		return env.malformed(form, "iteration clause must be a list")
	}
	binding, ok := clause.Nodes[0].(*ast.List)
	if !ok || len(binding.Nodes) != 2 || !isParamTarget(binding.Nodes[0]) {
		return env.malformed(form, "iteration binding must be (name seq)")
	}
	var filters []forFilter
	rest := clause.Nodes[1:]
	for len(rest) > 0 {
		kw, ok := rest[0].(*ast.Atom)
		if !ok || kw.Kind != ast.Keyword || (kw.Str != ":when" && kw.Str != ":unless") || len(rest) < 2 {
			return env.malformed(form, "expected :when or :unless followed by a test")
		}
		filters = append(filters, forFilter{expr: rest[1], unless: kw.Str == ":unless"})
		rest = rest[2:]
	}
	seq := env.Eval(binding.Nodes[1])
	if seq.Type == LError {
		return seq
	}
	target := binding.Nodes[0]
	body := form.Nodes[2:]
	last := Nil()
	results := []*LVal{}
	lerr := env.iterate(seq, func(item *LVal) *LVal {
		iterEnv := env.Extend("for")
		if lerr := iterEnv.bind(target, item, false); lerr.Type == LError {
			return lerr
		}
		for _, f := range filters {
			test := iterEnv.Eval(f.expr)
			if test.Type == LError {
				return test
			}
			if test.IsTruthy() == f.unless {
				return nil
			}
		}
		v := iterEnv.evalBody(body)
		if v.Type == LError {
			return v
		}
		if collect {
			results = append(results, v)
		} else {
			last = v
		}
		return nil
	})
	if lerr != nil {
		return lerr
	}
	if collect {
		return List(results...)
	}
	return last
}

func opQuote(env *LEnv, form *ast.List) *LVal {
	if len(form.Nodes) != 2 {
		return env.formArity(form, "1 form")
	}
	v := Quote(form.Nodes[1])
	if v.Type == LError {
		return env.ErrorAssociate(v)
	}
	return v
}

func opQuasiquote(env *LEnv, form *ast.List) *LVal {
	if len(form.Nodes) != 2 {
		return env.formArity(form, "1 form")
	}
	return env.quasiquote(form.Nodes[1])
}

func opUnquoteOutside(env *LEnv, form *ast.List) *LVal {
	return env.malformed(form, "not inside quasiquote")
}

func opDefmacro(env *LEnv, form *ast.List) *LVal {
	if len(form.Nodes) < 2 {
		return env.formArity(form, "at least 1 form")
	}
	var name *ast.Atom
	var params ast.Node
	var body []ast.Node
	switch sig := form.Nodes[1].(type) {
	case *ast.List:
		head, ok := sig.Head()
		if !ok {
			return env.malformed(form, "macro name must be a symbol")
		}
		name = head
		params = &ast.List{Nodes: sig.Nodes[1:], Loc: sig.Loc}
		body = form.Nodes[2:]
	case *ast.Atom:
		if sig.Kind != ast.Symbol || len(form.Nodes) < 3 {
			return env.malformed(form, "expected (defmacro (name param...) body...)")
		}
		name = sig
		params = form.Nodes[2]
		body = form.Nodes[3:]
	default:
		return env.malformed(form, "expected (defmacro (name param...) body...)")
	}
	mac := env.Lambda(name.Str, params, body)
	if mac.Type == LError {
		return mac
	}
	mac.Fun().Macro = true
	return env.Define(name.Name, mac)
}

func opMacroexpand(env *LEnv, form *ast.List) *LVal {
	if len(form.Nodes) != 2 {
		return env.formArity(form, "1 form")
	}
	datum := env.Eval(form.Nodes[1])
	if datum.Type == LError {
		return datum
	}
	return env.MacroExpand1(datum)
}

func opAnd(env *LEnv, form *ast.List) *LVal {
	ret := Bool(true)
	for _, n := range form.Nodes[1:] {
		ret = env.Eval(n)
		if ret.Type == LError || !ret.IsTruthy() {
			return ret
		}
	}
	return ret
}

func opOr(env *LEnv, form *ast.List) *LVal {
	ret := Bool(false)
	for _, n := range form.Nodes[1:] {
		ret = env.Eval(n)
		if ret.Type == LError || ret.IsTruthy() {
			return ret
		}
	}
	return ret
}

var symElse = ast.Intern("else")

func opCond(env *LEnv, form *ast.List) *LVal {
	for _, n := range form.Nodes[1:] {
		clause, ok := n.(*ast.List)
		if !ok || len(clause.Nodes) == 0 {
			return env.malformed(form, "clause must be a non-empty list")
		}
		if head, ok := clause.Head(); ok && head.Name == symElse {
			return env.evalBody(clause.Nodes[1:])
		}
		test := env.Eval(clause.Nodes[0])
		if test.Type == LError {
			return test
		}
		if !test.IsTruthy() {
			continue
		}
		if len(clause.Nodes) == 1 {
			return test
		}
		return env.evalBody(clause.Nodes[1:])
	}
	return Nil()
}

func opWhen(env *LEnv, form *ast.List) *LVal {
	return env.evalWhen(form, true)
}

func opUnless(env *LEnv, form *ast.List) *LVal {
	return env.evalWhen(form, false)
}

func (env *LEnv) evalWhen(form *ast.List, want bool) *LVal {
	if len(form.Nodes) < 2 {
		return env.formArity(form, "at least 1 form")
	}
	test := env.Eval(form.Nodes[1])
	if test.Type == LError {
		return test
	}
	if test.IsTruthy() != want {
		return Nil()
	}
	return env.evalBody(form.Nodes[2:])
}
