package ast

// StorageClass is the storage class specifier of a declaration.
type StorageClass int

const (
	StorageNone StorageClass = iota
	StorageStatic
	StorageExtern
	StorageRegister
	StorageThreadLocal
)

// SpecFlags holds the specifiers shared by all declaration specifier forms.
type SpecFlags struct {
	Storage   StorageClass
	Const     bool
	Volatile  bool
	Inline    bool
	Virtual   bool
	Explicit  bool
	Friend    bool
	Constexpr bool
	Mutable   bool
	Typedef   bool
}

// BasicType is the keyword type of a simple declaration specifier.
type BasicType int

const (
	TypeUnspecified BasicType = iota
	TypeVoid
	TypeBool
	TypeChar
	TypeWChar
	TypeChar16
	TypeChar32
	TypeInt
	TypeFloat
	TypeDouble
	TypeAuto
	TypeDecltype
)

// SimpleDeclSpec is a declaration specifier made of keywords only, e.g.
// "static const unsigned long".
type SimpleDeclSpec struct {
	node
	Spec     SpecFlags
	Type     BasicType
	Signed   bool
	Unsigned bool
	Short    bool
	// Long counts the long keywords.
	Long int
	// Decltype is the operand of decltype(...).
	Decltype Expression
}

func (*SimpleDeclSpec) declSpecNode()            {}
func (s *SimpleDeclSpec) Specifiers() *SpecFlags { return &s.Spec }
func (s *SimpleDeclSpec) Children() []Node       { return appendNodes(nil, s.Decltype) }

// NamedTypeSpec names a type, e.g. "const std::string".
type NamedTypeSpec struct {
	node
	Spec     SpecFlags
	Typename bool
	Name     NameNode
}

func (*NamedTypeSpec) declSpecNode()            {}
func (s *NamedTypeSpec) Specifiers() *SpecFlags { return &s.Spec }
func (s *NamedTypeSpec) Children() []Node       { return appendNodes(nil, s.Name) }

// ClassKey distinguishes class, struct, union and enum.
type ClassKey int

const (
	KeyClass ClassKey = iota
	KeyStruct
	KeyUnion
	KeyEnum
)

func (k ClassKey) String() string {
	switch k {
	case KeyStruct:
		return "struct"
	case KeyUnion:
		return "union"
	case KeyEnum:
		return "enum"
	default:
		return "class"
	}
}

// ElaboratedTypeSpec is a class-key followed by a name without body, e.g.
// "struct S" in a forward declaration.
type ElaboratedTypeSpec struct {
	node
	Spec SpecFlags
	Key  ClassKey
	Name NameNode
}

func (*ElaboratedTypeSpec) declSpecNode()            {}
func (s *ElaboratedTypeSpec) Specifiers() *SpecFlags { return &s.Spec }
func (s *ElaboratedTypeSpec) Children() []Node       { return appendNodes(nil, s.Name) }

// CompositeTypeSpec is a class, struct or union definition.
type CompositeTypeSpec struct {
	node
	Spec    SpecFlags
	Key     ClassKey
	Name    NameNode
	Final   bool
	Bases   []*BaseSpecifier
	Members []Declaration
}

func (*CompositeTypeSpec) declSpecNode()            {}
func (s *CompositeTypeSpec) Specifiers() *SpecFlags { return &s.Spec }

func (s *CompositeTypeSpec) Children() []Node {
	out := appendNodes(nil, s.Name)
	for _, b := range s.Bases {
		out = appendNodes(out, b)
	}
	for _, m := range s.Members {
		out = appendNodes(out, m)
	}
	return out
}

// BaseSpecifier is one entry of a base clause.
type BaseSpecifier struct {
	node
	Access  AccessLevel
	Virtual bool
	Name    NameNode
}

func (b *BaseSpecifier) Children() []Node { return appendNodes(nil, b.Name) }

// EnumSpec is an enumeration definition or opaque declaration.
type EnumSpec struct {
	node
	Spec        SpecFlags
	Scoped      bool
	Name        NameNode
	Underlying  DeclSpecifier
	Opaque      bool
	Enumerators []*Enumerator
}

func (*EnumSpec) declSpecNode()            {}
func (s *EnumSpec) Specifiers() *SpecFlags { return &s.Spec }

func (s *EnumSpec) Children() []Node {
	out := appendNodes(nil, s.Name, s.Underlying)
	for _, e := range s.Enumerators {
		out = appendNodes(out, e)
	}
	return out
}

// Enumerator is a single enumeration constant.
type Enumerator struct {
	node
	Name  *Name
	Value Expression
}

func (e *Enumerator) Children() []Node { return appendNodes(nil, e.Name, e.Value) }
