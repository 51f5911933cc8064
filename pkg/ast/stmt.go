package ast

import "cppsema/pkg/diag"

// CompoundStatement is a braced block. Destructor names for the locals of
// the block are reported at its closing brace.
type CompoundStatement struct {
	node
	Stmts []Statement

	dtors implicitNames
}

func (*CompoundStatement) stmtNode() {}

func (s *CompoundStatement) Children() []Node {
	var out []Node
	for _, c := range s.Stmts {
		out = appendNodes(out, c)
	}
	return out
}

func (s *CompoundStatement) replaceChild(old, repl Node) bool {
	return replaceInStmts(s.Stmts, old, repl)
}

// ImplicitDestructorNames returns the destructor calls at the closing brace,
// last constructed first.
func (s *CompoundStatement) ImplicitDestructorNames() []*ImplicitName {
	return ownerDestructorNames(s, &s.dtors)
}

// DeclarationStatement wraps a block scope declaration.
type DeclarationStatement struct {
	node
	Decl Declaration
}

func (*DeclarationStatement) stmtNode()          {}
func (s *DeclarationStatement) Children() []Node { return appendNodes(nil, s.Decl) }

// ExpressionStatement is "expr;". Temporaries of the full expression are
// destroyed at its end.
type ExpressionStatement struct {
	node
	Expr Expression

	dtors implicitNames
}

func (*ExpressionStatement) stmtNode()          {}
func (s *ExpressionStatement) Children() []Node { return appendNodes(nil, s.Expr) }

func (s *ExpressionStatement) ImplicitDestructorNames() []*ImplicitName {
	return ownerDestructorNames(s, &s.dtors)
}

// IfStatement is if (init; cond) then else. Cond is an Expression or a
// *SimpleDeclaration declaring a condition variable.
type IfStatement struct {
	node
	Constexpr bool
	Init      Statement
	Cond      Node
	Then      Statement
	Else      Statement

	dtors implicitNames
}

func (*IfStatement) stmtNode() {}

func (s *IfStatement) Children() []Node {
	return appendNodes(nil, s.Init, s.Cond, s.Then, s.Else)
}

func (s *IfStatement) replaceChild(old, repl Node) bool {
	return replaceStmt(&s.Init, old, repl) || replaceStmt(&s.Then, old, repl) || replaceStmt(&s.Else, old, repl)
}

func (s *IfStatement) ImplicitDestructorNames() []*ImplicitName {
	return ownerDestructorNames(s, &s.dtors)
}

// WhileStatement is while (cond) body.
type WhileStatement struct {
	node
	Cond Node
	Body Statement

	dtors implicitNames
}

func (*WhileStatement) stmtNode()          {}
func (s *WhileStatement) Children() []Node { return appendNodes(nil, s.Cond, s.Body) }

func (s *WhileStatement) replaceChild(old, repl Node) bool {
	return replaceStmt(&s.Body, old, repl)
}

func (s *WhileStatement) ImplicitDestructorNames() []*ImplicitName {
	return ownerDestructorNames(s, &s.dtors)
}

// DoStatement is do body while (cond);.
type DoStatement struct {
	node
	Body Statement
	Cond Expression
}

func (*DoStatement) stmtNode()          {}
func (s *DoStatement) Children() []Node { return appendNodes(nil, s.Body, s.Cond) }

func (s *DoStatement) replaceChild(old, repl Node) bool {
	return replaceStmt(&s.Body, old, repl)
}

// ForStatement is for (init; cond; iter) body.
type ForStatement struct {
	node
	Init Statement
	Cond Node
	Iter Expression
	Body Statement

	dtors implicitNames
}

func (*ForStatement) stmtNode() {}

func (s *ForStatement) Children() []Node {
	return appendNodes(nil, s.Init, s.Cond, s.Iter, s.Body)
}

func (s *ForStatement) replaceChild(old, repl Node) bool {
	return replaceStmt(&s.Init, old, repl) || replaceStmt(&s.Body, old, repl)
}

func (s *ForStatement) ImplicitDestructorNames() []*ImplicitName {
	return ownerDestructorNames(s, &s.dtors)
}

// RangeForStatement is for (decl : range) body.
type RangeForStatement struct {
	node
	Decl      *SimpleDeclaration
	RangeExpr Node
	Body      Statement
}

func (*RangeForStatement) stmtNode() {}

func (s *RangeForStatement) Children() []Node {
	return appendNodes(nil, s.Decl, s.RangeExpr, s.Body)
}

func (s *RangeForStatement) replaceChild(old, repl Node) bool {
	if s.Decl != nil && Node(s.Decl) == old {
		d, ok := repl.(*SimpleDeclaration)
		if !ok {
			return false
		}
		s.Decl = d
		return true
	}
	return replaceNode(&s.RangeExpr, old, repl) || replaceStmt(&s.Body, old, repl)
}

// SwitchStatement is switch (init; cond) body.
type SwitchStatement struct {
	node
	Init Statement
	Cond Node
	Body Statement

	dtors implicitNames
}

func (*SwitchStatement) stmtNode() {}

func (s *SwitchStatement) Children() []Node {
	return appendNodes(nil, s.Init, s.Cond, s.Body)
}

func (s *SwitchStatement) replaceChild(old, repl Node) bool {
	return replaceStmt(&s.Init, old, repl) || replaceStmt(&s.Body, old, repl)
}

func (s *SwitchStatement) ImplicitDestructorNames() []*ImplicitName {
	return ownerDestructorNames(s, &s.dtors)
}

// CaseStatement is a case label.
type CaseStatement struct {
	node
	Value Expression
}

func (*CaseStatement) stmtNode()          {}
func (s *CaseStatement) Children() []Node { return appendNodes(nil, s.Value) }

// DefaultStatement is the default label.
type DefaultStatement struct{ node }

func (*DefaultStatement) stmtNode()        {}
func (*DefaultStatement) Children() []Node { return nil }

// BreakStatement is break;.
type BreakStatement struct{ node }

func (*BreakStatement) stmtNode()        {}
func (*BreakStatement) Children() []Node { return nil }

// ContinueStatement is continue;.
type ContinueStatement struct{ node }

func (*ContinueStatement) stmtNode()        {}
func (*ContinueStatement) Children() []Node { return nil }

// ReturnStatement is return value;. Value is an Expression, an
// *InitializerList or nil.
type ReturnStatement struct {
	node
	Value Node

	dtors implicitNames
}

func (*ReturnStatement) stmtNode()          {}
func (s *ReturnStatement) Children() []Node { return appendNodes(nil, s.Value) }

func (s *ReturnStatement) ImplicitDestructorNames() []*ImplicitName {
	return ownerDestructorNames(s, &s.dtors)
}

// GotoStatement is goto label;.
type GotoStatement struct {
	node
	Label *Name
}

func (*GotoStatement) stmtNode()          {}
func (s *GotoStatement) Children() []Node { return appendNodes(nil, s.Label) }

// LabelStatement is label: stmt.
type LabelStatement struct {
	node
	Label *Name
	Stmt  Statement
}

func (*LabelStatement) stmtNode()          {}
func (s *LabelStatement) Children() []Node { return appendNodes(nil, s.Label, s.Stmt) }

func (s *LabelStatement) replaceChild(old, repl Node) bool {
	return replaceStmt(&s.Stmt, old, repl)
}

// NullStatement is a lone semicolon.
type NullStatement struct{ node }

func (*NullStatement) stmtNode()        {}
func (*NullStatement) Children() []Node { return nil }

// TryBlockStatement is try { } catch (...) { }.
type TryBlockStatement struct {
	node
	Body     *CompoundStatement
	Handlers []*CatchHandler
}

func (*TryBlockStatement) stmtNode() {}

func (s *TryBlockStatement) Children() []Node {
	out := appendNodes(nil, s.Body)
	for _, h := range s.Handlers {
		out = appendNodes(out, h)
	}
	return out
}

// CatchHandler is one catch clause. Decl is nil for catch (...).
type CatchHandler struct {
	node
	Decl     *SimpleDeclaration
	CatchAll bool
	Body     *CompoundStatement
}

func (h *CatchHandler) Children() []Node { return appendNodes(nil, h.Decl, h.Body) }

// ProblemStatement covers a statement the parser could not match.
type ProblemStatement struct {
	node
	Problem diag.Kind
}

func (*ProblemStatement) stmtNode()        {}
func (*ProblemStatement) Children() []Node { return nil }

// AmbiguousStatement holds the declaration and the expression reading of a
// statement such as "T(x);" or "a * b;". The semantic pass replaces it by
// the alternative that lookup supports.
type AmbiguousStatement struct {
	node
	Alternatives []Statement
}

func (*AmbiguousStatement) stmtNode() {}

func (s *AmbiguousStatement) Children() []Node {
	var out []Node
	for _, a := range s.Alternatives {
		out = appendNodes(out, a)
	}
	return out
}
