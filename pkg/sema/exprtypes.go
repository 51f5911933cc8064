package sema

import (
	"strings"

	"cppsema/pkg/ast"
	"cppsema/pkg/diag"
)

// exprInfo is the type and value category of an expression.
type exprInfo struct {
	typ    Type
	lvalue bool
	// null is set for null pointer constants.
	null bool
	// typeName is set when the expression names a type, as the callee of a
	// functional cast does.
	typeName bool
}

func invalidInfo(kind diag.Kind) exprInfo {
	return exprInfo{typ: InvalidType{Problem: kind}}
}

func (i exprInfo) dependent() bool { return IsDependent(i.typ) }

// exprType returns the type of an expression or initializer list.
func (r *Resolver) exprType(e ast.Node) exprInfo {
	if ast.IsNil(e) {
		return invalidInfo(diag.InvalidType)
	}
	if info, ok := r.exprs[e]; ok {
		return info
	}
	if r.typing[e] {
		return invalidInfo(diag.CircularResolution)
	}
	r.typing[e] = true
	info := r.computeExprType(e)
	delete(r.typing, e)
	if info.typ == nil {
		info.typ = InvalidType{Problem: diag.InvalidType}
	}
	r.exprs[e] = info
	return info
}

func (r *Resolver) argInfos(args []ast.Node) []exprInfo {
	out := make([]exprInfo, len(args))
	for i, a := range args {
		out[i] = r.exprType(a)
	}
	return out
}

func (r *Resolver) computeExprType(e ast.Node) exprInfo {
	switch e := e.(type) {
	case *ast.IdExpression:
		return r.nameExprType(e.Name, r.resolve(e.Name))
	case *ast.LiteralExpression:
		return r.literalType(e)
	case *ast.UnaryExpression:
		return r.unaryType(e)
	case *ast.BinaryExpression:
		return r.binaryType(e)
	case *ast.ConditionalExpression:
		return r.conditionalType(e)
	case *ast.FunctionCallExpression:
		return r.callType(e)
	case *ast.ArraySubscriptExpression:
		if op := r.resolveOperator(e); op.fn != nil {
			return resultInfo(r.resultType(op.fn))
		} else if op.dependent {
			return exprInfo{typ: Dependent{Name: "[]"}}
		}
		arr := r.exprType(e.Array)
		if elem, ok := pointee(decay(NonReference(arr.typ))); ok {
			return exprInfo{typ: elem, lvalue: true}
		}
		idx := r.exprType(e.Index)
		if elem, ok := pointee(decay(NonReference(idx.typ))); ok {
			return exprInfo{typ: elem, lvalue: true}
		}
		return invalidInfo(diag.InvalidType)
	case *ast.FieldReference:
		return r.fieldType(e)
	case *ast.CastExpression:
		return resultInfo(r.typeIdType(e.Type))
	case *ast.TypeConstruction:
		return exprInfo{typ: Unqualified(r.specType(e.Spec))}
	case *ast.NewExpression:
		t := r.typeIdType(e.Type)
		if a, ok := Canonical(t).(Array); ok {
			return exprInfo{typ: Pointer{Elem: a.Elem}}
		}
		return exprInfo{typ: Pointer{Elem: t}}
	case *ast.DeleteExpression:
		return exprInfo{typ: Basic{Kind: Void}}
	case *ast.TypeIdExpression:
		if e.Op == ast.TypeIdTypeid {
			return exprInfo{typ: r.typeInfoType(e), lvalue: true}
		}
		return exprInfo{typ: Basic{Kind: UnsignedLong}}
	case *ast.InitializerList:
		return exprInfo{typ: initListType{elems: r.argInfos(e.Elements)}}
	case *ast.ProblemExpression:
		return invalidInfo(e.Problem)
	}
	return invalidInfo(diag.InvalidType)
}

// resultInfo returns the value category of a call or cast yielding t: an
// lvalue reference gives an lvalue, other types an rvalue.
func resultInfo(t Type) exprInfo {
	if ref, ok := isReference(t); ok {
		return exprInfo{typ: ref.Elem, lvalue: !ref.RValue}
	}
	return exprInfo{typ: t}
}

func (r *Resolver) nameExprType(n ast.NameNode, b ast.Binding) exprInfo {
	switch b := b.(type) {
	case *Variable:
		t := r.variableType(b)
		if ref, ok := isReference(t); ok {
			return exprInfo{typ: ref.Elem, lvalue: true}
		}
		if b.kind == ast.BindingField && !b.Static {
			if this, ok := r.thisType(n); ok {
				if _, c, v := splitQualifiers(this); (c || v) && !b.Mutable {
					t = qualify(t, c, v)
				}
			}
		}
		return exprInfo{typ: t, lvalue: true}
	case *Enumerator:
		return exprInfo{typ: b.Enum}
	case *Function:
		return exprInfo{typ: b.typ, lvalue: true}
	case *FunctionTemplate:
		return exprInfo{typ: b.Pattern.typ, lvalue: true}
	case *OverloadSet:
		if len(b.Functions) > 0 {
			return r.nameExprType(n, b.Functions[0])
		}
	case *TemplateParameter:
		if b.NonType {
			return exprInfo{typ: b.ValueType}
		}
		return exprInfo{typ: b, typeName: true}
	case *Unknown:
		return exprInfo{typ: Dependent{Name: b.name}}
	case *Problem:
		return invalidInfo(b.kind)
	}
	if isTypeBinding(b) {
		return exprInfo{typ: r.bindingType(b), typeName: true}
	}
	return invalidInfo(diag.InvalidType)
}

func (r *Resolver) literalType(e *ast.LiteralExpression) exprInfo {
	switch e.Lit {
	case ast.LitInteger:
		v, _ := parseInteger(e.Value)
		return exprInfo{typ: Basic{Kind: integerLiteralKind(e.Value)}, null: v == 0}
	case ast.LitFloat:
		s := strings.ToLower(e.Value)
		switch {
		case strings.HasSuffix(s, "f") && !strings.HasPrefix(s, "0x"):
			return exprInfo{typ: Basic{Kind: Float}}
		case strings.HasSuffix(s, "l"):
			return exprInfo{typ: Basic{Kind: LongDouble}}
		}
		return exprInfo{typ: Basic{Kind: Double}}
	case ast.LitChar:
		switch {
		case strings.HasPrefix(e.Value, "L"):
			return exprInfo{typ: Basic{Kind: WChar}}
		case strings.HasPrefix(e.Value, "u"):
			return exprInfo{typ: Basic{Kind: Char16}}
		case strings.HasPrefix(e.Value, "U"):
			return exprInfo{typ: Basic{Kind: Char32}}
		}
		if r.cMode {
			return exprInfo{typ: Basic{Kind: Int}}
		}
		return exprInfo{typ: Basic{Kind: Char}}
	case ast.LitString:
		elem := Basic{Kind: Char}
		switch {
		case strings.HasPrefix(e.Value, "L"):
			elem = Basic{Kind: WChar}
		case strings.HasPrefix(e.Value, "u8"):
		case strings.HasPrefix(e.Value, "u"):
			elem = Basic{Kind: Char16}
		case strings.HasPrefix(e.Value, "U"):
			elem = Basic{Kind: Char32}
		}
		return exprInfo{typ: Array{Elem: Qualified{Elem: elem, Const: true}, Size: stringLength(e.Value) + 1}, lvalue: true}
	case ast.LitTrue, ast.LitFalse:
		return exprInfo{typ: Basic{Kind: Bool}}
	case ast.LitNullptr:
		return exprInfo{typ: Basic{Kind: NullPtr}, null: true}
	case ast.LitThis:
		if t, ok := r.thisType(e); ok {
			return exprInfo{typ: t}
		}
		return invalidInfo(diag.InvalidType)
	}
	return invalidInfo(diag.InvalidType)
}

func integerLiteralKind(s string) BasicKind {
	suffix := strings.ToLower(s[len(strings.TrimRight(s, "uUlL")):])
	unsigned := strings.Contains(suffix, "u")
	longs := strings.Count(suffix, "l")
	switch {
	case longs >= 2 && unsigned:
		return UnsignedLongLong
	case longs >= 2:
		return LongLong
	case longs == 1 && unsigned:
		return UnsignedLong
	case longs == 1:
		return Long
	case unsigned:
		return UnsignedInt
	}
	if v, ok := parseInteger(s); ok && v > 1<<31-1 {
		return Long
	}
	return Int
}

// stringLength counts the characters of a string literal, treating each
// escape sequence as one character.
func stringLength(s string) int {
	start := strings.IndexByte(s, '"')
	end := strings.LastIndexByte(s, '"')
	if start < 0 || end <= start {
		return 0
	}
	n := 0
	body := s[start+1 : end]
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' {
			i++
		}
		n++
	}
	return n
}

// thisType returns the type of this at n.
func (r *Resolver) thisType(n ast.Node) (Type, bool) {
	for cur := n; !ast.IsNil(cur); cur = cur.Parent() {
		switch c := cur.(type) {
		case *ast.FunctionDefinition:
			fn := r.functions[c]
			if fn == nil || fn.Class == nil || fn.Static {
				return nil, false
			}
			cls := Type(fn.Class)
			if fn.typ.Const || fn.typ.Volatile {
				cls = Qualified{Elem: cls, Const: fn.typ.Const, Volatile: fn.typ.Volatile}
			}
			return Pointer{Elem: cls}, true
		case *ast.CompositeTypeSpec:
			if cls, ok := r.classes[c]; ok {
				return Pointer{Elem: cls}, true
			}
			return nil, false
		}
	}
	return nil, false
}

// enclosingFunction returns the function whose body contains n.
func (r *Resolver) enclosingFunction(n ast.Node) *Function {
	for cur := n; !ast.IsNil(cur); cur = cur.Parent() {
		if def, ok := cur.(*ast.FunctionDefinition); ok {
			return r.functions[def]
		}
	}
	return nil
}

func (r *Resolver) unaryType(e *ast.UnaryExpression) exprInfo {
	if e.Op == ast.UnaryParen {
		return r.exprType(e.Operand)
	}
	if op := r.resolveOperator(e); op.fn != nil {
		return resultInfo(r.resultType(op.fn))
	} else if op.dependent {
		return exprInfo{typ: Dependent{Name: e.Op.String()}}
	}
	operand := r.exprType(e.Operand)
	t := operand.typ
	switch e.Op {
	case ast.UnaryPlus, ast.UnaryMinus, ast.UnaryBitNot:
		if isPointerLike(t) {
			return exprInfo{typ: decay(t)}
		}
		return exprInfo{typ: promoted(decay(t))}
	case ast.UnaryNot:
		if r.cMode {
			return exprInfo{typ: Basic{Kind: Int}}
		}
		return exprInfo{typ: Basic{Kind: Bool}}
	case ast.UnaryDeref:
		switch u := decay(t).(type) {
		case Pointer:
			return exprInfo{typ: u.Elem, lvalue: true}
		case Dependent:
			return exprInfo{typ: u}
		}
		if _, ok := Unqualified(t).(FunctionType); ok {
			return exprInfo{typ: t, lvalue: true}
		}
		return invalidInfo(diag.InvalidType)
	case ast.UnaryAddressOf:
		if mp, ok := r.memberPointerType(e.Operand); ok {
			return exprInfo{typ: mp}
		}
		return exprInfo{typ: Pointer{Elem: t}}
	case ast.UnaryPreIncr, ast.UnaryPreDecr:
		if r.cMode {
			return exprInfo{typ: Unqualified(t)}
		}
		return exprInfo{typ: t, lvalue: true}
	case ast.UnaryPostIncr, ast.UnaryPostDecr:
		return exprInfo{typ: Unqualified(t)}
	case ast.UnarySizeof, ast.UnaryAlignof:
		return exprInfo{typ: Basic{Kind: UnsignedLong}}
	case ast.UnaryThrow:
		return exprInfo{typ: Basic{Kind: Void}}
	}
	return invalidInfo(diag.InvalidType)
}

// memberPointerType returns the type of &C::m for a non-static member m.
func (r *Resolver) memberPointerType(e ast.Expression) (Type, bool) {
	id, ok := e.(*ast.IdExpression)
	if !ok {
		return nil, false
	}
	if _, qualified := id.Name.(*ast.QualifiedName); !qualified {
		return nil, false
	}
	switch b := r.resolve(id.Name).(type) {
	case *Variable:
		if b.Class != nil && !b.Static {
			return MemberPointer{Class: b.Class, Elem: r.variableType(b)}, true
		}
	case *Function:
		if b.isMember() {
			return MemberPointer{Class: b.Class, Elem: b.typ}, true
		}
	}
	return nil, false
}

func (r *Resolver) binaryType(e *ast.BinaryExpression) exprInfo {
	if op := r.resolveOperator(e); op.fn != nil {
		return resultInfo(r.resultType(op.fn))
	} else if op.dependent {
		return exprInfo{typ: Dependent{Name: e.Op.String()}}
	}
	left := r.exprType(e.Left)
	right := r.exprType(e.Right)
	boolType := Type(Basic{Kind: Bool})
	if r.cMode {
		boolType = Basic{Kind: Int}
	}
	switch {
	case e.Op == ast.BinaryComma:
		return right
	case e.Op.IsAssignment():
		if r.cMode {
			return exprInfo{typ: Unqualified(left.typ)}
		}
		return exprInfo{typ: left.typ, lvalue: true}
	}
	if left.dependent() || right.dependent() {
		return exprInfo{typ: Dependent{Name: e.Op.String()}}
	}
	switch e.Op {
	case ast.BinaryLt, ast.BinaryGt, ast.BinaryLe, ast.BinaryGe, ast.BinaryEq, ast.BinaryNe,
		ast.BinaryLogAnd, ast.BinaryLogOr:
		return exprInfo{typ: boolType}
	case ast.BinaryAdd, ast.BinarySub:
		lp, rp := decay(left.typ), decay(right.typ)
		_, lptr := lp.(Pointer)
		_, rptr := rp.(Pointer)
		switch {
		case lptr && rptr && e.Op == ast.BinarySub:
			return exprInfo{typ: Basic{Kind: Long}}
		case lptr:
			return exprInfo{typ: lp}
		case rptr:
			return exprInfo{typ: rp}
		}
		return exprInfo{typ: usualArithmetic(left.typ, right.typ)}
	case ast.BinaryShl, ast.BinaryShr:
		return exprInfo{typ: promoted(left.typ)}
	case ast.BinaryMul, ast.BinaryDiv, ast.BinaryMod, ast.BinaryBitAnd, ast.BinaryBitXor, ast.BinaryBitOr:
		return exprInfo{typ: usualArithmetic(left.typ, right.typ)}
	case ast.BinaryPtrMemDot, ast.BinaryPtrMemArrow:
		if mp, ok := Unqualified(right.typ).(MemberPointer); ok {
			if _, fn := Canonical(mp.Elem).(FunctionType); fn {
				return exprInfo{typ: mp.Elem}
			}
			return exprInfo{typ: mp.Elem, lvalue: e.Op == ast.BinaryPtrMemArrow || left.lvalue}
		}
	}
	return invalidInfo(diag.InvalidType)
}

func (r *Resolver) conditionalType(e *ast.ConditionalExpression) exprInfo {
	a, b := r.exprType(e.Then), r.exprType(e.Else)
	if e.Then == nil {
		// the GNU a ?: b form
		a = r.exprType(e.Cond)
	}
	switch {
	case a.dependent() || b.dependent():
		return exprInfo{typ: Dependent{Name: "?:"}}
	case SameType(a.typ, b.typ):
		return exprInfo{typ: a.typ, lvalue: a.lvalue && b.lvalue}
	case isVoid(a.typ) || isVoid(b.typ):
		return exprInfo{typ: Basic{Kind: Void}}
	case isArithmetic(a.typ) && isArithmetic(b.typ):
		return exprInfo{typ: usualArithmetic(a.typ, b.typ)}
	case b.null && isPointerLike(decay(a.typ)):
		return exprInfo{typ: decay(a.typ)}
	case a.null && isPointerLike(decay(b.typ)):
		return exprInfo{typ: decay(b.typ)}
	case SameType(Unqualified(a.typ), Unqualified(b.typ)):
		return exprInfo{typ: Unqualified(a.typ)}
	}
	if classOf(a.typ) != nil {
		return exprInfo{typ: Unqualified(a.typ)}
	}
	return exprInfo{typ: decay(a.typ)}
}

func (r *Resolver) callType(e *ast.FunctionCallExpression) exprInfo {
	var named ast.Binding
	switch callee := ast.StripParens(e.Callee).(type) {
	case *ast.IdExpression:
		named = r.resolve(callee.Name)
	case *ast.FieldReference:
		named = r.resolve(callee.Member)
		if _, ok := named.(*Unknown); ok && strings.HasPrefix(callee.Member.SimpleID(), "~") {
			return exprInfo{typ: Basic{Kind: Void}}
		}
	}
	switch b := named.(type) {
	case *Function:
		return resultInfo(r.resultType(b))
	case *Unknown:
		return exprInfo{typ: Dependent{Name: b.name}}
	case *Problem:
		return invalidInfo(b.kind)
	}
	if named != nil && isTypeBinding(named) {
		return exprInfo{typ: Unqualified(r.bindingType(named))}
	}

	callee := r.exprType(e.Callee)
	if callee.typeName {
		return exprInfo{typ: Unqualified(callee.typ)}
	}
	if op := r.resolveOperator(e); op.fn != nil {
		return resultInfo(r.resultType(op.fn))
	} else if op.dependent {
		return exprInfo{typ: Dependent{Name: "()"}}
	}
	switch u := decay(callee.typ).(type) {
	case Pointer:
		if ft, ok := Canonical(u.Elem).(FunctionType); ok {
			return resultInfo(ft.Result)
		}
	case Dependent:
		return exprInfo{typ: u}
	case InvalidType:
		return exprInfo{typ: u}
	}
	if ft, ok := Canonical(callee.typ).(FunctionType); ok {
		return resultInfo(ft.Result)
	}
	return invalidInfo(diag.InvalidType)
}

// resultType returns the result type of a function, deducing a placeholder
// result from the first return statement of its definition.
func (r *Resolver) resultType(fn *Function) Type {
	if !containsAuto(fn.typ.Result) {
		return fn.typ.Result
	}
	def := fn.Definition
	if def == nil && fn.Specialized != nil {
		def = fn.Specialized.Definition
	}
	if def == nil || def.Body == nil {
		return InvalidType{Problem: diag.DeductionFailure}
	}
	var value ast.Expression
	ast.Inspect(def.Body, func(n ast.Node) bool {
		if value != nil {
			return false
		}
		switch n := n.(type) {
		case *ast.CompositeTypeSpec:
			return false
		case *ast.ReturnStatement:
			if v, ok := n.Value.(ast.Expression); ok {
				value = v
			}
			return false
		}
		return true
	})
	if value == nil {
		return Basic{Kind: Void}
	}
	return r.deduceAutoType(fn.typ.Result, r.exprType(value))
}

// fieldType returns the type of a class member access.
func (r *Resolver) fieldType(e *ast.FieldReference) exprInfo {
	obj := r.objectType(e)
	b := r.resolve(e.Member)
	switch b := b.(type) {
	case *Variable:
		t := r.variableType(b)
		if ref, ok := isReference(t); ok {
			return exprInfo{typ: ref.Elem, lvalue: true}
		}
		if !b.Static && !b.Mutable {
			_, c, v := splitQualifiers(obj.typ)
			t = qualify(t, c, v)
		}
		return exprInfo{typ: t, lvalue: obj.lvalue || b.Static}
	case *Function:
		return exprInfo{typ: b.typ}
	case *Enumerator:
		return exprInfo{typ: b.Enum}
	case *OverloadSet, *FunctionTemplate:
		return r.nameExprType(e.Member, b)
	case *Unknown:
		return exprInfo{typ: Dependent{Name: b.name}}
	case *Problem:
		return invalidInfo(b.kind)
	}
	return invalidInfo(diag.InvalidType)
}

// objectType returns the type of the object a member access refers to.
// For the arrow form it follows overloaded operator-> to the final
// pointer.
func (r *Resolver) objectType(fr *ast.FieldReference) exprInfo {
	owner := r.exprType(fr.Owner)
	if !fr.Arrow {
		return owner
	}
	t := decay(NonReference(owner.typ))
	if classOf(t) != nil {
		chain, final := r.arrowChain(fr)
		if len(chain) == 0 && isInvalid(final) {
			return invalidInfo(diag.InvalidType)
		}
		t = decay(NonReference(final))
	}
	switch u := t.(type) {
	case Pointer:
		return exprInfo{typ: u.Elem, lvalue: true}
	case Dependent:
		return exprInfo{typ: u}
	case InvalidType:
		return exprInfo{typ: u}
	}
	if IsDependent(t) {
		return exprInfo{typ: t}
	}
	return invalidInfo(diag.InvalidType)
}

// typeInfoType returns the type of a typeid expression, const
// std::type_info when it is declared.
func (r *Resolver) typeInfoType(n ast.Node) Type {
	for _, b := range r.namespaceLookup(r.global, "std", maxOffset, nil) {
		ns, ok := b.(*Namespace)
		if !ok {
			continue
		}
		for _, ti := range r.qualifiedNamespaceLookup(ns.ScopeID, "type_info", maxOffset, nil) {
			if c, ok := ti.(*Class); ok {
				return Qualified{Elem: c, Const: true}
			}
		}
	}
	return InvalidType{Problem: diag.NameNotFound}
}
