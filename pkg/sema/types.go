package sema

import (
	"fmt"
	"strconv"
	"strings"

	"cppsema/pkg/ast"
	"cppsema/pkg/diag"
)

// Type is the semantic type of a declaration or an expression. Types are
// immutable values; use SameType to compare them.
type Type interface {
	String() string
	isType()
}

// BasicKind enumerates the fundamental types.
type BasicKind int

const (
	Void BasicKind = iota
	Bool
	Char
	SignedChar
	UnsignedChar
	WChar
	Char16
	Char32
	Short
	UnsignedShort
	Int
	UnsignedInt
	Long
	UnsignedLong
	LongLong
	UnsignedLongLong
	Float
	Double
	LongDouble
	NullPtr
)

var basicNames = [...]string{
	Void:             "void",
	Bool:             "bool",
	Char:             "char",
	SignedChar:       "signed char",
	UnsignedChar:     "unsigned char",
	WChar:            "wchar_t",
	Char16:           "char16_t",
	Char32:           "char32_t",
	Short:            "short",
	UnsignedShort:    "unsigned short",
	Int:              "int",
	UnsignedInt:      "unsigned int",
	Long:             "long",
	UnsignedLong:     "unsigned long",
	LongLong:         "long long",
	UnsignedLongLong: "unsigned long long",
	Float:            "float",
	Double:           "double",
	LongDouble:       "long double",
	NullPtr:          "std::nullptr_t",
}

// Basic is a fundamental type.
type Basic struct {
	Kind BasicKind
}

// Qualified adds const and volatile to a type.
type Qualified struct {
	Elem     Type
	Const    bool
	Volatile bool
}

// Pointer is a pointer to Elem.
type Pointer struct {
	Elem Type
}

// Reference is an lvalue or rvalue reference to Elem.
type Reference struct {
	Elem   Type
	RValue bool
}

// Array is an array of Elem. Size is negative for an unknown bound.
type Array struct {
	Elem Type
	Size int
}

// FunctionType is the type of a function. The cv and ref qualifiers apply to
// the implicit object parameter of member functions.
type FunctionType struct {
	Result   Type
	Params   []Type
	Varargs  bool
	Const    bool
	Volatile bool
	RefQual  ast.RefQualifier
}

// MemberPointer is a pointer to a member of Class with type Elem.
type MemberPointer struct {
	Class Type
	Elem  Type
}

// Dependent is a type that depends on template parameters whose arguments
// are not known.
type Dependent struct {
	Name string
}

// InvalidType is the type of an erroneous declaration or expression.
type InvalidType struct {
	Problem diag.Kind
}

// autoType is the placeholder type of an auto declaration before deduction.
type autoType struct{}

// initListType is the type of a braced initializer list used as an
// argument.
type initListType struct {
	elems []exprInfo
}

func (Basic) isType()         {}
func (Qualified) isType()     {}
func (Pointer) isType()       {}
func (Reference) isType()     {}
func (Array) isType()         {}
func (FunctionType) isType()  {}
func (MemberPointer) isType() {}
func (Dependent) isType()     {}
func (InvalidType) isType()   {}
func (autoType) isType()      {}
func (initListType) isType()  {}

func (t Basic) String() string { return basicNames[t.Kind] }

func (t Qualified) String() string {
	var sb strings.Builder
	if t.Const {
		sb.WriteString("const ")
	}
	if t.Volatile {
		sb.WriteString("volatile ")
	}
	sb.WriteString(typeString(t.Elem))
	return sb.String()
}

func (t Pointer) String() string { return typeString(t.Elem) + "*" }

func (t Reference) String() string {
	if t.RValue {
		return typeString(t.Elem) + "&&"
	}
	return typeString(t.Elem) + "&"
}

func (t Array) String() string {
	if t.Size < 0 {
		return typeString(t.Elem) + "[]"
	}
	return typeString(t.Elem) + "[" + strconv.Itoa(t.Size) + "]"
}

func (t FunctionType) String() string {
	params := make([]string, len(t.Params), len(t.Params)+1)
	for i, p := range t.Params {
		params[i] = typeString(p)
	}
	if t.Varargs {
		params = append(params, "...")
	}
	s := typeString(t.Result) + "(" + strings.Join(params, ", ") + ")"
	if t.Const {
		s += " const"
	}
	if t.Volatile {
		s += " volatile"
	}
	switch t.RefQual {
	case ast.RefLValue:
		s += " &"
	case ast.RefRValue:
		s += " &&"
	}
	return s
}

func (t MemberPointer) String() string {
	return typeString(t.Elem) + " " + typeString(t.Class) + "::*"
}

func (t Dependent) String() string    { return "<dependent " + t.Name + ">" }
func (t InvalidType) String() string  { return "<invalid " + t.Problem.ID() + ">" }
func (autoType) String() string       { return "auto" }
func (t initListType) String() string { return "{...}" }

func typeString(t Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// TemplateArg is a type or a constant template argument.
type TemplateArg struct {
	Type    Type
	Value   int64
	IsValue bool
}

func (a TemplateArg) String() string {
	if a.IsValue {
		return strconv.FormatInt(a.Value, 10)
	}
	return typeString(a.Type)
}

func templateArgsString(args []TemplateArg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// Canonical strips typedefs and merges nested qualifiers. Qualifiers applied
// to a reference are dropped.
func Canonical(t Type) Type {
	switch t := t.(type) {
	case *Typedef:
		if t.Target == nil {
			return InvalidType{Problem: diag.InvalidType}
		}
		return Canonical(t.Target)
	case Qualified:
		inner := Canonical(t.Elem)
		c, v := t.Const, t.Volatile
		if q, ok := inner.(Qualified); ok {
			inner = q.Elem
			c = c || q.Const
			v = v || q.Volatile
		}
		switch inner.(type) {
		case Reference, InvalidType, FunctionType:
			return inner
		}
		if !c && !v {
			return inner
		}
		return Qualified{Elem: inner, Const: c, Volatile: v}
	case Pointer:
		return Pointer{Elem: Canonical(t.Elem)}
	case Reference:
		elem := Canonical(t.Elem)
		if r, ok := elem.(Reference); ok {
			// reference collapsing
			return Reference{Elem: r.Elem, RValue: t.RValue && r.RValue}
		}
		return Reference{Elem: elem, RValue: t.RValue}
	case Array:
		return Array{Elem: Canonical(t.Elem), Size: t.Size}
	case FunctionType:
		out := t
		out.Result = Canonical(t.Result)
		out.Params = make([]Type, len(t.Params))
		for i, p := range t.Params {
			out.Params[i] = Canonical(p)
		}
		return out
	case MemberPointer:
		return MemberPointer{Class: Canonical(t.Class), Elem: Canonical(t.Elem)}
	case nil:
		return InvalidType{Problem: diag.InvalidType}
	}
	return t
}

// SameType reports whether a and b denote the same type. Typedefs are
// transparent; cv-qualification and reference category are significant.
func SameType(a, b Type) bool {
	return sameCanonical(Canonical(a), Canonical(b))
}

func sameCanonical(a, b Type) bool {
	switch a := a.(type) {
	case Basic:
		bb, ok := b.(Basic)
		return ok && a.Kind == bb.Kind
	case Qualified:
		bq, ok := b.(Qualified)
		return ok && a.Const == bq.Const && a.Volatile == bq.Volatile && sameCanonical(a.Elem, bq.Elem)
	case Pointer:
		bp, ok := b.(Pointer)
		return ok && sameCanonical(a.Elem, bp.Elem)
	case Reference:
		br, ok := b.(Reference)
		return ok && a.RValue == br.RValue && sameCanonical(a.Elem, br.Elem)
	case Array:
		ba, ok := b.(Array)
		return ok && a.Size == ba.Size && sameCanonical(a.Elem, ba.Elem)
	case FunctionType:
		bf, ok := b.(FunctionType)
		if !ok || a.Varargs != bf.Varargs || a.Const != bf.Const || a.Volatile != bf.Volatile ||
			a.RefQual != bf.RefQual || len(a.Params) != len(bf.Params) {
			return false
		}
		for i := range a.Params {
			if !sameCanonical(a.Params[i], bf.Params[i]) {
				return false
			}
		}
		return sameCanonical(a.Result, bf.Result)
	case MemberPointer:
		bm, ok := b.(MemberPointer)
		return ok && sameCanonical(a.Class, bm.Class) && sameCanonical(a.Elem, bm.Elem)
	case Dependent:
		bd, ok := b.(Dependent)
		return ok && a.Name == bd.Name
	case InvalidType:
		_, ok := b.(InvalidType)
		return ok
	}
	// classes, enums and template parameters compare by identity
	return a == b
}

// sameParameterTypes compares the parameter lists of two functions, which
// decides between an overload and a redeclaration.
func sameParameterTypes(a, b FunctionType) bool {
	if len(a.Params) != len(b.Params) || a.Varargs != b.Varargs {
		return false
	}
	for i := range a.Params {
		if !SameType(a.Params[i], b.Params[i]) {
			return false
		}
	}
	return a.Const == b.Const && a.Volatile == b.Volatile && a.RefQual == b.RefQual
}

// splitQualifiers returns the canonical type without top-level qualifiers
// and the qualifiers it had.
func splitQualifiers(t Type) (Type, bool, bool) {
	t = Canonical(t)
	if q, ok := t.(Qualified); ok {
		return q.Elem, q.Const, q.Volatile
	}
	return t, false, false
}

// Unqualified returns the canonical type without top-level cv-qualifiers.
func Unqualified(t Type) Type {
	u, _, _ := splitQualifiers(t)
	return u
}

func qualify(t Type, c, v bool) Type {
	if !c && !v {
		return t
	}
	return Canonical(Qualified{Elem: t, Const: c, Volatile: v})
}

// NonReference returns the referred type of a reference type, or t.
func NonReference(t Type) Type {
	t = Canonical(t)
	if r, ok := t.(Reference); ok {
		return r.Elem
	}
	return t
}

func isReference(t Type) (Reference, bool) {
	r, ok := Canonical(t).(Reference)
	return r, ok
}

// classOf returns the class of a class type, looking through typedefs and
// qualifiers.
func classOf(t Type) *Class {
	c, _ := Unqualified(t).(*Class)
	return c
}

func enumOf(t Type) *Enum {
	e, _ := Unqualified(t).(*Enum)
	return e
}

func basicOf(t Type) (BasicKind, bool) {
	b, ok := Unqualified(t).(Basic)
	return b.Kind, ok
}

func isIntegralKind(k BasicKind) bool {
	return k >= Bool && k <= UnsignedLongLong
}

func isFloatingKind(k BasicKind) bool {
	return k >= Float && k <= LongDouble
}

func isArithmetic(t Type) bool {
	k, ok := basicOf(t)
	return ok && (isIntegralKind(k) || isFloatingKind(k))
}

func isIntegral(t Type) bool {
	k, ok := basicOf(t)
	return ok && isIntegralKind(k)
}

func isUnscopedEnum(t Type) bool {
	e := enumOf(t)
	return e != nil && !e.Scoped
}

func isVoid(t Type) bool {
	k, ok := basicOf(t)
	return ok && k == Void
}

func pointee(t Type) (Type, bool) {
	p, ok := Unqualified(t).(Pointer)
	if !ok {
		return nil, false
	}
	return p.Elem, true
}

func isPointerLike(t Type) bool {
	switch Unqualified(t).(type) {
	case Pointer, MemberPointer:
		return true
	}
	k, ok := basicOf(t)
	return ok && k == NullPtr
}

func isScalar(t Type) bool {
	return isArithmetic(t) || isPointerLike(t) || enumOf(t) != nil
}

// IsDependent reports whether t involves template parameters without
// arguments.
func IsDependent(t Type) bool {
	switch t := Canonical(t).(type) {
	case Dependent, *TemplateParameter, autoType:
		return true
	case Qualified:
		return IsDependent(t.Elem)
	case Pointer:
		return IsDependent(t.Elem)
	case Reference:
		return IsDependent(t.Elem)
	case Array:
		return IsDependent(t.Elem)
	case FunctionType:
		if IsDependent(t.Result) {
			return true
		}
		for _, p := range t.Params {
			if IsDependent(p) {
				return true
			}
		}
	case MemberPointer:
		return IsDependent(t.Class) || IsDependent(t.Elem)
	case *Class:
		return t.dependent()
	}
	return false
}

func isInvalid(t Type) bool {
	_, ok := Canonical(t).(InvalidType)
	return ok
}

// decay applies the array-to-pointer and function-to-pointer conversions
// and drops top-level qualifiers.
func decay(t Type) Type {
	switch u := Unqualified(t).(type) {
	case Array:
		return Pointer{Elem: u.Elem}
	case FunctionType:
		return Pointer{Elem: u}
	default:
		return u
	}
}

// integerRank orders the integer types for promotions and the usual
// arithmetic conversions.
func integerRank(k BasicKind) int {
	switch k {
	case Bool:
		return 0
	case Char, SignedChar, UnsignedChar:
		return 1
	case Short, UnsignedShort, Char16:
		return 2
	case Int, UnsignedInt, WChar, Char32:
		return 3
	case Long, UnsignedLong:
		return 4
	default:
		return 5
	}
}

func isUnsignedKind(k BasicKind) bool {
	switch k {
	case Bool, UnsignedChar, UnsignedShort, UnsignedInt, UnsignedLong, UnsignedLongLong, Char16, Char32:
		return true
	}
	return false
}

// promoted returns the type after integral or floating promotion.
func promoted(t Type) Type {
	if e := enumOf(t); e != nil && !e.Scoped {
		return Basic{Kind: Int}
	}
	k, ok := basicOf(t)
	if !ok {
		return Unqualified(t)
	}
	if isIntegralKind(k) && integerRank(k) < integerRank(Int) {
		return Basic{Kind: Int}
	}
	if k == Float {
		return Basic{Kind: Double}
	}
	return Basic{Kind: k}
}

// usualArithmetic returns the common type of two arithmetic operands.
func usualArithmetic(a, b Type) Type {
	pa, pb := promoted(a), promoted(b)
	ka, oka := basicOf(pa)
	kb, okb := basicOf(pb)
	if !oka || !okb {
		return pa
	}
	if isFloatingKind(ka) || isFloatingKind(kb) {
		if ka > kb {
			return Basic{Kind: ka}
		}
		return Basic{Kind: kb}
	}
	if integerRank(ka) != integerRank(kb) {
		if integerRank(ka) > integerRank(kb) {
			return Basic{Kind: ka}
		}
		return Basic{Kind: kb}
	}
	if isUnsignedKind(ka) {
		return Basic{Kind: ka}
	}
	return Basic{Kind: kb}
}

// typeKey renders a canonical type for use as a map key. Classes, enums and
// template parameters are keyed by identity.
func typeKey(t Type) string {
	var sb strings.Builder
	writeTypeKey(&sb, Canonical(t))
	return sb.String()
}

func writeTypeKey(sb *strings.Builder, t Type) {
	switch t := t.(type) {
	case *Class, *Enum, *TemplateParameter:
		fmt.Fprintf(sb, "%s@%p", t.String(), t)
	case Qualified:
		if t.Const {
			sb.WriteString("c ")
		}
		if t.Volatile {
			sb.WriteString("v ")
		}
		writeTypeKey(sb, t.Elem)
	case Pointer:
		writeTypeKey(sb, t.Elem)
		sb.WriteString("*")
	case Reference:
		writeTypeKey(sb, t.Elem)
		if t.RValue {
			sb.WriteString("&&")
		} else {
			sb.WriteString("&")
		}
	case Array:
		writeTypeKey(sb, t.Elem)
		fmt.Fprintf(sb, "[%d]", t.Size)
	case FunctionType:
		writeTypeKey(sb, t.Result)
		sb.WriteString("(")
		for i, p := range t.Params {
			if i > 0 {
				sb.WriteString(",")
			}
			writeTypeKey(sb, p)
		}
		sb.WriteString(")")
	case MemberPointer:
		writeTypeKey(sb, t.Elem)
		writeTypeKey(sb, t.Class)
		sb.WriteString("::*")
	default:
		sb.WriteString(typeString(t))
	}
}

func argsKey(args []TemplateArg) string {
	var sb strings.Builder
	for i, a := range args {
		if i > 0 {
			sb.WriteString(";")
		}
		if a.IsValue {
			fmt.Fprintf(&sb, "v%d", a.Value)
			continue
		}
		writeTypeKey(&sb, Canonical(a.Type))
	}
	return sb.String()
}
