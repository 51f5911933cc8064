package ast

import "cppsema/pkg/diag"

// IdExpression is a name used as an expression.
type IdExpression struct {
	node
	Name NameNode
}

func (*IdExpression) exprNode()          {}
func (e *IdExpression) Children() []Node { return appendNodes(nil, e.Name) }

// LiteralKind classifies a literal expression.
type LiteralKind int

const (
	LitInteger LiteralKind = iota
	LitFloat
	LitChar
	LitString
	LitTrue
	LitFalse
	LitNullptr
	LitThis
)

// LiteralExpression is a literal, this or nullptr.
type LiteralExpression struct {
	node
	Lit   LiteralKind
	Value string
}

func (*LiteralExpression) exprNode()        {}
func (*LiteralExpression) Children() []Node { return nil }

// UnaryOp is the operator of a unary expression.
type UnaryOp int

const (
	UnaryPlus UnaryOp = iota
	UnaryMinus
	UnaryNot
	UnaryBitNot
	UnaryDeref
	UnaryAddressOf
	UnaryPreIncr
	UnaryPreDecr
	UnaryPostIncr
	UnaryPostDecr
	UnarySizeof
	UnaryAlignof
	UnaryThrow
	// UnaryParen is a parenthesized primary expression.
	UnaryParen
)

var unaryOpNames = [...]string{
	UnaryPlus:      "+",
	UnaryMinus:     "-",
	UnaryNot:       "!",
	UnaryBitNot:    "~",
	UnaryDeref:     "*",
	UnaryAddressOf: "&",
	UnaryPreIncr:   "++",
	UnaryPreDecr:   "--",
	UnaryPostIncr:  "++",
	UnaryPostDecr:  "--",
	UnarySizeof:    "sizeof",
	UnaryAlignof:   "alignof",
	UnaryThrow:     "throw",
	UnaryParen:     "()",
}

func (op UnaryOp) String() string { return unaryOpNames[op] }

// Overloadable reports whether the operator may resolve to an operator
// function.
func (op UnaryOp) Overloadable() bool {
	switch op {
	case UnarySizeof, UnaryAlignof, UnaryThrow, UnaryParen:
		return false
	}
	return true
}

// UnaryExpression is a prefix or postfix operator applied to one operand.
type UnaryExpression struct {
	node
	Op       UnaryOp
	Operand  Expression
	OpOffset int

	implicit implicitNames
}

func (*UnaryExpression) exprNode()          {}
func (e *UnaryExpression) Children() []Node { return appendNodes(nil, e.Operand) }

func (e *UnaryExpression) ImplicitNames() []*ImplicitName {
	return ownerImplicitNames(e, &e.implicit)
}

// BinaryOp is the operator of a binary expression.
type BinaryOp int

const (
	BinaryMul BinaryOp = iota
	BinaryDiv
	BinaryMod
	BinaryAdd
	BinarySub
	BinaryShl
	BinaryShr
	BinaryLt
	BinaryGt
	BinaryLe
	BinaryGe
	BinaryEq
	BinaryNe
	BinaryBitAnd
	BinaryBitXor
	BinaryBitOr
	BinaryLogAnd
	BinaryLogOr
	BinaryAssign
	BinaryMulAssign
	BinaryDivAssign
	BinaryModAssign
	BinaryAddAssign
	BinarySubAssign
	BinaryShlAssign
	BinaryShrAssign
	BinaryAndAssign
	BinaryXorAssign
	BinaryOrAssign
	BinaryComma
	BinaryPtrMemDot
	BinaryPtrMemArrow
)

var binaryOpNames = [...]string{
	BinaryMul:         "*",
	BinaryDiv:         "/",
	BinaryMod:         "%",
	BinaryAdd:         "+",
	BinarySub:         "-",
	BinaryShl:         "<<",
	BinaryShr:         ">>",
	BinaryLt:          "<",
	BinaryGt:          ">",
	BinaryLe:          "<=",
	BinaryGe:          ">=",
	BinaryEq:          "==",
	BinaryNe:          "!=",
	BinaryBitAnd:      "&",
	BinaryBitXor:      "^",
	BinaryBitOr:       "|",
	BinaryLogAnd:      "&&",
	BinaryLogOr:       "||",
	BinaryAssign:      "=",
	BinaryMulAssign:   "*=",
	BinaryDivAssign:   "/=",
	BinaryModAssign:   "%=",
	BinaryAddAssign:   "+=",
	BinarySubAssign:   "-=",
	BinaryShlAssign:   "<<=",
	BinaryShrAssign:   ">>=",
	BinaryAndAssign:   "&=",
	BinaryXorAssign:   "^=",
	BinaryOrAssign:    "|=",
	BinaryComma:       ",",
	BinaryPtrMemDot:   ".*",
	BinaryPtrMemArrow: "->*",
}

func (op BinaryOp) String() string { return binaryOpNames[op] }

// IsAssignment reports whether op is = or a compound assignment.
func (op BinaryOp) IsAssignment() bool {
	return op >= BinaryAssign && op <= BinaryOrAssign
}

// BinaryExpression is a binary operator expression. Comma expressions
// nest to the left: a, b, c is ((a, b), c).
type BinaryExpression struct {
	node
	Op       BinaryOp
	Left     Expression
	Right    Node
	OpOffset int

	implicit implicitNames
}

func (*BinaryExpression) exprNode()          {}
func (e *BinaryExpression) Children() []Node { return appendNodes(nil, e.Left, e.Right) }

func (e *BinaryExpression) ImplicitNames() []*ImplicitName {
	return ownerImplicitNames(e, &e.implicit)
}

// ConditionalExpression is cond ? then : else.
type ConditionalExpression struct {
	node
	Cond Expression
	Then Expression
	Else Expression
}

func (*ConditionalExpression) exprNode() {}

func (e *ConditionalExpression) Children() []Node {
	return appendNodes(nil, e.Cond, e.Then, e.Else)
}

// FunctionCallExpression is callee(args). Args are Expressions or
// *InitializerList nodes.
type FunctionCallExpression struct {
	node
	Callee Expression
	Args   []Node
	LParen int
	RParen int

	implicit implicitNames
}

func (*FunctionCallExpression) exprNode() {}

func (e *FunctionCallExpression) Children() []Node {
	out := appendNodes(nil, e.Callee)
	return appendNodes(out, e.Args...)
}

func (e *FunctionCallExpression) ImplicitNames() []*ImplicitName {
	return ownerImplicitNames(e, &e.implicit)
}

// ArraySubscriptExpression is array[index].
type ArraySubscriptExpression struct {
	node
	Array    Expression
	Index    Node
	LBracket int
	RBracket int

	implicit implicitNames
}

func (*ArraySubscriptExpression) exprNode() {}

func (e *ArraySubscriptExpression) Children() []Node {
	return appendNodes(nil, e.Array, e.Index)
}

func (e *ArraySubscriptExpression) ImplicitNames() []*ImplicitName {
	return ownerImplicitNames(e, &e.implicit)
}

// FieldReference is owner.member or owner->member.
type FieldReference struct {
	node
	Owner    Expression
	Arrow    bool
	Template bool
	Member   NameNode

	implicit implicitNames
}

func (*FieldReference) exprNode() {}

func (e *FieldReference) Children() []Node {
	return appendNodes(nil, e.Owner, e.Member)
}

// ImplicitNames returns the overloaded operator-> calls of an arrow access.
func (e *FieldReference) ImplicitNames() []*ImplicitName {
	return ownerImplicitNames(e, &e.implicit)
}

// CastKind distinguishes the cast notations.
type CastKind int

const (
	CastCStyle CastKind = iota
	CastStatic
	CastDynamic
	CastConst
	CastReinterpret
)

func (k CastKind) String() string {
	switch k {
	case CastStatic:
		return "static_cast"
	case CastDynamic:
		return "dynamic_cast"
	case CastConst:
		return "const_cast"
	case CastReinterpret:
		return "reinterpret_cast"
	default:
		return "c-style"
	}
}

// CastExpression is (T)e or a named cast.
type CastExpression struct {
	node
	Cast    CastKind
	Type    *TypeId
	Operand Expression
}

func (*CastExpression) exprNode() {}

func (e *CastExpression) Children() []Node {
	return appendNodes(nil, e.Type, e.Operand)
}

// TypeConstruction is a functional cast written with a simple type
// specifier, e.g. int(x) or T{a, b}.
type TypeConstruction struct {
	node
	Spec DeclSpecifier
	Init Initializer

	implicit implicitNames
}

func (*TypeConstruction) exprNode()          {}
func (e *TypeConstruction) Children() []Node { return appendNodes(nil, e.Spec, e.Init) }

func (e *TypeConstruction) ImplicitNames() []*ImplicitName {
	return ownerImplicitNames(e, &e.implicit)
}

// NewExpression is ::new (placement) T(init) or new T[n].
type NewExpression struct {
	node
	Global    bool
	Placement []Expression
	Type      *TypeId
	Init      Initializer

	implicit implicitNames
}

func (*NewExpression) exprNode() {}

func (e *NewExpression) Children() []Node {
	var out []Node
	for _, p := range e.Placement {
		out = appendNodes(out, p)
	}
	return appendNodes(out, e.Type, e.Init)
}

// IsArrayAllocation reports whether the allocated type is an array.
func (e *NewExpression) IsArrayAllocation() bool {
	return e.Type != nil && e.Type.Declarator != nil && len(e.Type.Declarator.Arrays) > 0
}

// ImplicitNames returns the allocation function call, if user defined.
func (e *NewExpression) ImplicitNames() []*ImplicitName {
	return ownerImplicitNames(e, &e.implicit)
}

// DeleteExpression is ::delete p or delete[] p.
type DeleteExpression struct {
	node
	Global  bool
	Array   bool
	Operand Expression

	implicit implicitNames
}

func (*DeleteExpression) exprNode()          {}
func (e *DeleteExpression) Children() []Node { return appendNodes(nil, e.Operand) }

// ImplicitNames returns the destructor call followed by the deallocation
// function call.
func (e *DeleteExpression) ImplicitNames() []*ImplicitName {
	return ownerImplicitNames(e, &e.implicit)
}

// TypeIdOp is the operator of a type-id expression.
type TypeIdOp int

const (
	TypeIdSizeof TypeIdOp = iota
	TypeIdAlignof
	TypeIdTypeid
)

// TypeIdExpression is sizeof(T), alignof(T) or typeid(T). For typeid(e)
// Type is nil and Operand holds e.
type TypeIdExpression struct {
	node
	Op      TypeIdOp
	Type    *TypeId
	Operand Expression
}

func (*TypeIdExpression) exprNode()          {}
func (e *TypeIdExpression) Children() []Node { return appendNodes(nil, e.Type, e.Operand) }

// ProblemExpression covers an expression the parser could not match.
type ProblemExpression struct {
	node
	Problem diag.Kind
}

func (*ProblemExpression) exprNode()        {}
func (*ProblemExpression) Children() []Node { return nil }

// IsParenthesized reports whether e is a parenthesized expression.
func IsParenthesized(e Expression) bool {
	u, ok := e.(*UnaryExpression)
	return ok && u.Op == UnaryParen
}

// StripParens removes enclosing parentheses.
func StripParens(e Expression) Expression {
	for {
		u, ok := e.(*UnaryExpression)
		if !ok || u.Op != UnaryParen {
			return e
		}
		e = u.Operand
	}
}
