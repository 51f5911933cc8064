package sema

import (
	"strconv"
	"strings"

	"cppsema/pkg/ast"
	"cppsema/pkg/diag"
)

// specType returns the type a declaration specifier denotes, with its cv
// qualifiers.
func (r *Resolver) specType(spec ast.DeclSpecifier) Type {
	if ast.IsNil(spec) {
		return InvalidType{Problem: diag.InvalidType}
	}
	flags := spec.Specifiers()
	var t Type
	switch s := spec.(type) {
	case *ast.SimpleDeclSpec:
		t = r.simpleType(s)
	case *ast.NamedTypeSpec:
		t = r.typeOfName(s.Name)
	case *ast.ElaboratedTypeSpec:
		t = r.typeOfName(s.Name)
	case *ast.CompositeTypeSpec:
		if c, ok := r.classes[s]; ok {
			t = c
		} else {
			t = InvalidType{Problem: diag.InvalidType}
		}
	case *ast.EnumSpec:
		if id, ok := r.scopes[s]; ok {
			if e, ok := r.arena.Get(id).Owner.(*Enum); ok {
				t = e
			}
		}
		if t == nil {
			t = InvalidType{Problem: diag.InvalidType}
		}
	default:
		t = InvalidType{Problem: diag.InvalidType}
	}
	return qualify(t, flags.Const, flags.Volatile)
}

func (r *Resolver) simpleType(s *ast.SimpleDeclSpec) Type {
	switch s.Type {
	case ast.TypeVoid:
		return Basic{Kind: Void}
	case ast.TypeBool:
		return Basic{Kind: Bool}
	case ast.TypeChar:
		switch {
		case s.Signed:
			return Basic{Kind: SignedChar}
		case s.Unsigned:
			return Basic{Kind: UnsignedChar}
		}
		return Basic{Kind: Char}
	case ast.TypeWChar:
		return Basic{Kind: WChar}
	case ast.TypeChar16:
		return Basic{Kind: Char16}
	case ast.TypeChar32:
		return Basic{Kind: Char32}
	case ast.TypeFloat:
		return Basic{Kind: Float}
	case ast.TypeDouble:
		if s.Long > 0 {
			return Basic{Kind: LongDouble}
		}
		return Basic{Kind: Double}
	case ast.TypeAuto:
		return autoType{}
	case ast.TypeDecltype:
		return r.decltype(s.Decltype)
	case ast.TypeUnspecified:
		if !s.Signed && !s.Unsigned && !s.Short && s.Long == 0 {
			// constructors, destructors and conversion functions
			return Basic{Kind: Void}
		}
	}
	switch {
	case s.Short:
		if s.Unsigned {
			return Basic{Kind: UnsignedShort}
		}
		return Basic{Kind: Short}
	case s.Long == 1:
		if s.Unsigned {
			return Basic{Kind: UnsignedLong}
		}
		return Basic{Kind: Long}
	case s.Long > 1:
		if s.Unsigned {
			return Basic{Kind: UnsignedLongLong}
		}
		return Basic{Kind: LongLong}
	case s.Unsigned:
		return Basic{Kind: UnsignedInt}
	}
	return Basic{Kind: Int}
}

// decltype returns the declared type of an unparenthesized name or member
// access, and the type of the expression otherwise, as a reference for
// lvalues.
func (r *Resolver) decltype(e ast.Expression) Type {
	if ast.IsNil(e) {
		return InvalidType{Problem: diag.InvalidType}
	}
	switch x := e.(type) {
	case *ast.IdExpression:
		if v, ok := r.resolve(x.Name).(*Variable); ok {
			return r.variableType(v)
		}
	case *ast.FieldReference:
		if v, ok := r.resolve(x.Member).(*Variable); ok {
			return r.variableType(v)
		}
	}
	info := r.exprType(e)
	if info.lvalue {
		return Reference{Elem: info.typ}
	}
	return info.typ
}

// typeOfName returns the type a name denotes in a type context.
func (r *Resolver) typeOfName(n ast.NameNode) Type {
	if ast.IsNil(n) {
		return InvalidType{Problem: diag.InvalidType}
	}
	b := r.resolve(n)
	switch b := b.(type) {
	case *Unknown:
		return Dependent{Name: ast.NameString(n)}
	case ast.ProblemBinding:
		return InvalidType{Problem: b.ProblemKind()}
	}
	if isTypeBinding(b) {
		return r.bindingType(b)
	}
	return InvalidType{Problem: diag.NotAType}
}

// typeIdType returns the type a type-id denotes.
func (r *Resolver) typeIdType(t *ast.TypeId) Type {
	if t == nil {
		return InvalidType{Problem: diag.InvalidType}
	}
	return r.declaratorType(r.specType(t.Spec), t.Declarator)
}

// declaratorType applies the modifiers of d to base, inside out: the
// pointer operators, then the function or array suffix, then the nested
// declarator.
func (r *Resolver) declaratorType(base Type, d *ast.Declarator) Type {
	if d == nil {
		return base
	}
	t := base
	for _, op := range d.PtrOps {
		switch op.Op {
		case ast.OpPointer:
			t = qualify(Pointer{Elem: t}, op.Const, op.Volatile)
		case ast.OpLValueRef:
			t = Reference{Elem: t}
		case ast.OpRValueRef:
			t = Reference{Elem: t, RValue: true}
		case ast.OpMemberPointer:
			t = qualify(MemberPointer{Class: r.typeOfName(op.Class), Elem: t}, op.Const, op.Volatile)
		}
	}
	if d.IsFunction {
		t = r.functionSuffix(t, d)
	}
	for i := len(d.Arrays) - 1; i >= 0; i-- {
		size := -1
		if e := d.Arrays[i].Size; e != nil {
			if v, ok := r.constValue(e); ok {
				size = int(v)
			}
		} else if i == 0 {
			size = initializerCount(d)
		}
		t = Array{Elem: t, Size: size}
	}
	if d.Nested != nil {
		return r.declaratorType(t, d.Nested)
	}
	return t
}

// initializerCount returns the number of elements of a braced initializer
// of d, or -1.
func initializerCount(d *ast.Declarator) int {
	for {
		p, ok := d.Parent().(*ast.Declarator)
		if !ok {
			break
		}
		d = p
	}
	var list *ast.InitializerList
	switch init := d.Init.(type) {
	case *ast.InitializerList:
		list = init
	case *ast.EqualsInitializer:
		list, _ = init.Value.(*ast.InitializerList)
	}
	if list == nil {
		return -1
	}
	return len(list.Elements)
}

func (r *Resolver) functionSuffix(result Type, d *ast.Declarator) Type {
	if d.Trailing != nil {
		if _, ok := result.(autoType); ok {
			result = r.typeIdType(d.Trailing)
		}
	}
	ft := FunctionType{Result: result, Varargs: d.Varargs, Const: d.Const, Volatile: d.Volatile, RefQual: d.RefQual}
	for i, pd := range d.Params {
		if i == 0 && len(d.Params) == 1 && isVoidParam(pd) {
			break
		}
		ft.Params = append(ft.Params, r.parameterType(pd))
	}
	return ft
}

// parameterType returns the adjusted type of a parameter: arrays and
// functions decay to pointers and top-level qualifiers are dropped.
func (r *Resolver) parameterType(pd *ast.ParameterDeclaration) Type {
	t := r.declaratorType(r.specType(pd.Spec), pd.Declarator)
	switch u := Canonical(t).(type) {
	case Array:
		return Pointer{Elem: u.Elem}
	case FunctionType:
		return Pointer{Elem: u}
	case Qualified:
		return u.Elem
	}
	return t
}

// functionType returns the type of a function declarator.
func (r *Resolver) functionType(base Type, d *ast.Declarator) FunctionType {
	if ft, ok := Canonical(r.declaratorType(base, d)).(FunctionType); ok {
		return ft
	}
	return FunctionType{Result: InvalidType{Problem: diag.InvalidType}}
}

// templateArgs evaluates the arguments of a template-id.
func (r *Resolver) templateArgs(t *ast.TemplateId) []TemplateArg {
	args := make([]TemplateArg, 0, len(t.Args))
	for _, a := range t.Args {
		if amb, ok := a.(*ast.AmbiguousTemplateArgument); ok && len(amb.Alternatives) > 0 {
			a = amb.Alternatives[0]
		}
		switch a := a.(type) {
		case *ast.TypeId:
			args = append(args, TemplateArg{Type: r.typeIdType(a)})
		case ast.Expression:
			if v, ok := r.constValue(a); ok {
				args = append(args, TemplateArg{Value: v, IsValue: true})
				continue
			}
			if id, ok := a.(*ast.IdExpression); ok {
				if tp, ok := r.resolve(id.Name).(*TemplateParameter); ok {
					args = append(args, TemplateArg{Type: tp})
					continue
				}
			}
			args = append(args, TemplateArg{Type: Dependent{Name: t.SimpleID()}})
		}
	}
	return args
}

// constValue evaluates an integral constant expression.
func (r *Resolver) constValue(e ast.Expression) (int64, bool) {
	return r.evalConst(e, 0)
}

func (r *Resolver) evalConst(e ast.Expression, depth int) (int64, bool) {
	if ast.IsNil(e) || depth > 64 {
		return 0, false
	}
	switch x := e.(type) {
	case *ast.LiteralExpression:
		switch x.Lit {
		case ast.LitInteger:
			return parseInteger(x.Value)
		case ast.LitChar:
			return parseChar(x.Value)
		case ast.LitTrue:
			return 1, true
		case ast.LitFalse, ast.LitNullptr:
			return 0, true
		}
	case *ast.IdExpression:
		switch b := r.resolve(x.Name).(type) {
		case *Enumerator:
			return b.Value, true
		case *Variable:
			_, c, _ := splitQualifiers(b.typ)
			if !c || b.Declarator == nil {
				return 0, false
			}
			if eq, ok := b.Declarator.Init.(*ast.EqualsInitializer); ok {
				if v, ok := eq.Value.(ast.Expression); ok {
					return r.evalConst(v, depth+1)
				}
			}
		}
	case *ast.UnaryExpression:
		v, ok := r.evalConst(x.Operand, depth+1)
		if !ok {
			if x.Op == ast.UnarySizeof {
				return r.sizeOfExpr(x.Operand)
			}
			return 0, false
		}
		switch x.Op {
		case ast.UnaryParen, ast.UnaryPlus:
			return v, true
		case ast.UnaryMinus:
			return -v, true
		case ast.UnaryBitNot:
			return ^v, true
		case ast.UnaryNot:
			return boolValue(v == 0), true
		case ast.UnarySizeof:
			return r.sizeOfExpr(x.Operand)
		}
	case *ast.BinaryExpression:
		right, _ := x.Right.(ast.Expression)
		a, ok1 := r.evalConst(x.Left, depth+1)
		b, ok2 := r.evalConst(right, depth+1)
		if !ok1 || !ok2 {
			return 0, false
		}
		return binaryConst(x.Op, a, b)
	case *ast.ConditionalExpression:
		c, ok := r.evalConst(x.Cond, depth+1)
		if !ok {
			return 0, false
		}
		if c != 0 {
			return r.evalConst(x.Then, depth+1)
		}
		return r.evalConst(x.Else, depth+1)
	case *ast.CastExpression:
		return r.evalConst(x.Operand, depth+1)
	case *ast.TypeIdExpression:
		if x.Op == ast.TypeIdSizeof && x.Type != nil {
			return sizeOf(r.typeIdType(x.Type))
		}
	}
	return 0, false
}

func (r *Resolver) sizeOfExpr(e ast.Expression) (int64, bool) {
	return sizeOf(r.exprType(e).typ)
}

func binaryConst(op ast.BinaryOp, a, b int64) (int64, bool) {
	switch op {
	case ast.BinaryMul:
		return a * b, true
	case ast.BinaryDiv:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case ast.BinaryMod:
		if b == 0 {
			return 0, false
		}
		return a % b, true
	case ast.BinaryAdd:
		return a + b, true
	case ast.BinarySub:
		return a - b, true
	case ast.BinaryShl:
		return a << uint(b), true
	case ast.BinaryShr:
		return a >> uint(b), true
	case ast.BinaryLt:
		return boolValue(a < b), true
	case ast.BinaryGt:
		return boolValue(a > b), true
	case ast.BinaryLe:
		return boolValue(a <= b), true
	case ast.BinaryGe:
		return boolValue(a >= b), true
	case ast.BinaryEq:
		return boolValue(a == b), true
	case ast.BinaryNe:
		return boolValue(a != b), true
	case ast.BinaryBitAnd:
		return a & b, true
	case ast.BinaryBitXor:
		return a ^ b, true
	case ast.BinaryBitOr:
		return a | b, true
	case ast.BinaryLogAnd:
		return boolValue(a != 0 && b != 0), true
	case ast.BinaryLogOr:
		return boolValue(a != 0 || b != 0), true
	case ast.BinaryComma:
		return b, true
	}
	return 0, false
}

func boolValue(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// parseInteger parses an integer literal with its suffixes and digit
// separators.
func parseInteger(s string) (int64, bool) {
	s = strings.ReplaceAll(s, "'", "")
	s = strings.TrimRight(s, "uUlL")
	if len(s) > 1 && s[0] == '0' && s[1] != 'x' && s[1] != 'X' && s[1] != 'b' && s[1] != 'B' {
		s = "0o" + s[1:]
	}
	if u, err := strconv.ParseUint(s, 0, 64); err == nil {
		return int64(u), true
	}
	return 0, false
}

func parseChar(s string) (int64, bool) {
	i := strings.IndexByte(s, '\'')
	if i < 0 {
		return 0, false
	}
	body := strings.TrimSuffix(s[i+1:], "'")
	if body == "" {
		return 0, false
	}
	if body[0] != '\\' {
		return int64([]rune(body)[0]), true
	}
	if len(body) < 2 {
		return 0, false
	}
	switch body[1] {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case 'a':
		return 7, true
	case 'b':
		return 8, true
	case 'f':
		return 12, true
	case 'v':
		return 11, true
	case 'x':
		v, err := strconv.ParseInt(body[2:], 16, 64)
		return v, err == nil
	case '0', '1', '2', '3', '4', '5', '6', '7':
		v, err := strconv.ParseInt(body[1:], 8, 64)
		return v, err == nil
	}
	return int64(body[1]), true
}

// sizeOf returns the size of a type on an LP64 target.
func sizeOf(t Type) (int64, bool) {
	switch u := Unqualified(t).(type) {
	case Basic:
		switch u.Kind {
		case Bool, Char, SignedChar, UnsignedChar:
			return 1, true
		case Short, UnsignedShort, Char16:
			return 2, true
		case Int, UnsignedInt, WChar, Char32, Float:
			return 4, true
		case Long, UnsignedLong, LongLong, UnsignedLongLong, Double, NullPtr:
			return 8, true
		case LongDouble:
			return 16, true
		}
	case Pointer, MemberPointer:
		return 8, true
	case Reference:
		return sizeOf(u.Elem)
	case Array:
		if u.Size < 0 {
			return 0, false
		}
		n, ok := sizeOf(u.Elem)
		return n * int64(u.Size), ok
	case *Enum:
		return sizeOf(u.Underlying)
	}
	return 0, false
}
