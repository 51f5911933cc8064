package sema

import (
	"cppsema/pkg/ast"
	"cppsema/pkg/scope"
)

// specialKind classifies the special member functions.
type specialKind uint8

const (
	specialNone specialKind = iota
	specialDefaultCtor
	specialCopyCtor
	specialMoveCtor
	specialCopyAssign
	specialMoveAssign
	specialDtor
)

// classify returns the kind of special member fn is.
func classify(fn *Function) specialKind {
	switch {
	case fn.Class == nil:
		return specialNone
	case fn.kind == ast.BindingDestructor:
		return specialDtor
	case fn.kind == ast.BindingConstructor:
		if fn.minArgs() == 0 {
			return specialDefaultCtor
		}
	case fn.name != "operator =" || fn.Static:
		return specialNone
	}
	if !isCopyOrMove(fn) {
		return specialNone
	}
	ref, _ := isReference(fn.typ.Params[0])
	switch {
	case fn.kind == ast.BindingConstructor && ref.RValue:
		return specialMoveCtor
	case fn.kind == ast.BindingConstructor:
		return specialCopyCtor
	case ref.RValue:
		return specialMoveAssign
	}
	return specialCopyAssign
}

// completeClass marks a class complete and declares the special members
// the user did not declare. C has no special members.
func (r *Resolver) completeClass(cls *Class) {
	cls.Complete = true
	if r.cMode {
		return
	}

	declared := map[specialKind]bool{}
	for _, m := range cls.Members {
		fn, ok := m.(*Function)
		if !ok {
			if ft, ok := m.(*FunctionTemplate); ok {
				fn = ft.Pattern
			} else {
				continue
			}
		}
		k := classify(fn)
		if k == specialNone {
			continue
		}
		if fn.Template == nil {
			declared[k] = true
		}
		fn.special = k
		if defaultedInClass(fn) {
			fn.Trivial = r.trivialSpecial(cls, k)
		}
	}
	if cls.Destructor != nil {
		declared[specialDtor] = true
	}
	hasCtor := len(cls.Constructors) > 0
	moveDeclared := declared[specialMoveCtor] || declared[specialMoveAssign]
	copyDeclared := declared[specialCopyCtor] || declared[specialCopyAssign]

	if !hasCtor {
		r.declareSpecial(cls, specialDefaultCtor, false)
	}
	if !declared[specialCopyCtor] {
		r.declareSpecial(cls, specialCopyCtor, moveDeclared)
	}
	if !moveDeclared && !copyDeclared && !declared[specialDtor] {
		r.declareSpecial(cls, specialMoveCtor, false)
	}
	if !declared[specialCopyAssign] {
		r.declareSpecial(cls, specialCopyAssign, moveDeclared)
	}
	if !moveDeclared && !copyDeclared && !declared[specialDtor] {
		r.declareSpecial(cls, specialMoveAssign, false)
	}
	if !declared[specialDtor] {
		r.declareSpecial(cls, specialDtor, false)
	}
}

// declareSpecial adds an implicitly declared special member to cls. It is
// visible from the start of the class.
func (r *Resolver) declareSpecial(cls *Class, k specialKind, deleted bool) {
	void := Basic{Kind: Void}
	var name string
	kind := ast.BindingConstructor
	typ := FunctionType{Result: void}
	switch k {
	case specialDefaultCtor:
		name = cls.name
	case specialCopyCtor:
		name = cls.name
		typ.Params = []Type{Reference{Elem: Qualified{Elem: cls, Const: true}}}
	case specialMoveCtor:
		name = cls.name
		typ.Params = []Type{Reference{Elem: cls, RValue: true}}
	case specialCopyAssign:
		name, kind = "operator =", ast.BindingMethod
		typ.Result = Reference{Elem: cls}
		typ.Params = []Type{Reference{Elem: Qualified{Elem: cls, Const: true}}}
	case specialMoveAssign:
		name, kind = "operator =", ast.BindingMethod
		typ.Result = Reference{Elem: cls}
		typ.Params = []Type{Reference{Elem: cls, RValue: true}}
	case specialDtor:
		name, kind = "~"+cls.name, ast.BindingDestructor
	}

	fn := &Function{
		binding:  newBinding(name, cls, cls.ScopeID),
		kind:     kind,
		typ:      typ,
		Class:    cls,
		Inline:   true,
		Deleted:  deleted,
		Implicit: true,
		special:  k,
	}
	fn.access = ast.AccessPublic
	for _, p := range typ.Params {
		fn.Params = append(fn.Params, &Variable{binding: newBinding("", fn, cls.ScopeID), kind: ast.BindingParameter, typ: p})
	}
	if k == specialDtor {
		for _, b := range cls.Bases {
			if b.Class != nil && b.Class.Destructor != nil && b.Class.Destructor.Virtual {
				fn.Virtual = true
			}
		}
	}
	fn.Trivial = r.trivialSpecial(cls, k) && !fn.Virtual

	if name != "" {
		offset := 0
		if cls.Spec != nil {
			offset = cls.Spec.Range().Offset
		}
		r.arena.Get(cls.ScopeID).Declare(name, scope.Entry{Binding: fn, Offset: offset}, func(scope.Entry) scope.Relation {
			return scope.Unrelated
		})
	}
	cls.Members = append(cls.Members, fn)
	switch kind {
	case ast.BindingConstructor:
		cls.Constructors = append(cls.Constructors, fn)
	case ast.BindingDestructor:
		cls.Destructor = fn
	}
}

// trivialSpecial reports whether the special member k of c would be
// trivial when defaulted: c has no virtual functions or virtual bases, and
// the same member of every base and every data member of class type is
// trivial. A default constructor is not trivial when a member has a default
// initializer.
func (r *Resolver) trivialSpecial(c *Class, k specialKind) bool {
	if k != specialDtor && c.polymorphic {
		return false
	}
	for _, b := range r.classBases(c) {
		if k != specialDtor && b.Virtual {
			return false
		}
		if b.Class != nil && !r.hasTrivialSpecial(b.Class, k) {
			return false
		}
	}
	for _, m := range c.Pattern().Members {
		v, ok := m.(*Variable)
		if !ok || v.Static || v.kind != ast.BindingField {
			continue
		}
		if k == specialDefaultCtor && v.Declarator != nil && v.Declarator.Init != nil {
			return false
		}
		t := r.variableType(v)
		if c.pattern != nil {
			if sv, ok := r.specializeMember(c, v).(*Variable); ok {
				t = sv.typ
			}
		}
		if IsDependent(t) {
			return false
		}
		for {
			a, ok := Unqualified(t).(Array)
			if !ok {
				break
			}
			t = a.Elem
		}
		if mc := classOf(t); mc != nil && !r.hasTrivialSpecial(mc, k) {
			return false
		}
	}
	return true
}

// hasTrivialSpecial reports whether the special member k of c is trivial.
// A class without such a member, as one whose copy constructor was
// suppressed, is judged by its copy counterpart.
func (r *Resolver) hasTrivialSpecial(c *Class, k specialKind) bool {
	if c == nil || !c.Complete {
		return true
	}
	if fn := r.specialMember(c, k); fn != nil {
		return fn.Trivial
	}
	switch k {
	case specialMoveCtor:
		return r.hasTrivialSpecial(c, specialCopyCtor)
	case specialMoveAssign:
		return r.hasTrivialSpecial(c, specialCopyAssign)
	}
	return true
}

// specialMember returns the special member k of c, or nil.
func (r *Resolver) specialMember(c *Class, k specialKind) *Function {
	switch k {
	case specialDtor:
		return r.destructor(c)
	case specialDefaultCtor, specialCopyCtor, specialMoveCtor:
		for _, fn := range r.constructors(c) {
			if fn.special == k {
				return fn
			}
		}
		return nil
	}
	for _, m := range c.Pattern().Members {
		fn, ok := m.(*Function)
		if !ok || fn.special != k {
			continue
		}
		if c.pattern != nil {
			fn, _ = r.specializeMember(c, fn).(*Function)
		}
		return fn
	}
	return nil
}

// defaultedInClass reports whether fn is defaulted on its first
// declaration, which leaves it trivial when the implicit member would be.
func defaultedInClass(fn *Function) bool {
	if !fn.Defaulted || fn.Definition == nil || fn.Class == nil {
		return false
	}
	for n := ast.Node(fn.Definition); !ast.IsNil(n); n = n.Parent() {
		if spec, ok := n.(*ast.CompositeTypeSpec); ok {
			return spec == fn.Class.Pattern().Spec
		}
	}
	return false
}
