package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cppsema/pkg/ast"
)

type fakeBinding struct {
	name string
	kind ast.BindingKind
}

func (f *fakeBinding) Name() string                 { return f.name }
func (f *fakeBinding) BindingKind() ast.BindingKind { return f.kind }
func (f *fakeBinding) Owner() ast.Binding           { return nil }

func TestArenaLinksParents(t *testing.T) {
	a := NewArena()
	global := a.New(KindGlobal, None, nil, nil)
	ns := a.New(KindNamespace, global, nil, &fakeBinding{name: "n", kind: ast.BindingNamespace})
	block := a.New(KindBlock, ns, nil, nil)

	assert.Equal(t, 3, a.Len())
	assert.Equal(t, ns, a.Parent(block))
	assert.Equal(t, []ID{block, ns, global}, a.Chain(block))
	assert.Equal(t, ns, a.Enclosing(block, KindNamespace, KindClass))
	assert.True(t, a.IsWithin(block, global))
	assert.False(t, a.IsWithin(global, block))
	assert.Equal(t, []ID{ns}, a.Get(global).Children)
	assert.Nil(t, a.Get(None))
	assert.Nil(t, a.Get(42))
}

func TestDeclareKeepsOrderAndRelations(t *testing.T) {
	a := NewArena()
	s := a.Get(a.New(KindGlobal, None, nil, nil))

	f1 := &fakeBinding{name: "f", kind: ast.BindingFunction}
	f2 := &fakeBinding{name: "f", kind: ast.BindingFunction}
	x := &fakeBinding{name: "x", kind: ast.BindingVariable}

	unrelated := func(Entry) Relation { return Unrelated }
	out := s.Declare("f", Entry{Binding: f1, Offset: 10}, unrelated)
	require.Equal(t, Unrelated, out.Relation)
	s.Declare("x", Entry{Binding: x, Offset: 20}, unrelated)
	s.Declare("f", Entry{Binding: f2, Offset: 30}, unrelated)

	assert.Equal(t, []string{"f", "x"}, s.Names())
	assert.Len(t, s.Lookup("f"), 2)
	assert.Equal(t, 3, s.Len())

	redecl := s.Declare("x", Entry{Binding: x, Offset: 40}, func(e Entry) Relation {
		if e.Binding == x {
			return Redeclaration
		}
		return Unrelated
	})
	assert.Equal(t, Redeclaration, redecl.Relation)
	assert.Same(t, x, redecl.Existing.Binding)
	assert.Len(t, s.Lookup("x"), 1)

	visible := s.LookupBefore("f", 15)
	require.Len(t, visible, 1)
	assert.Same(t, f1, visible[0].Binding)
}

func TestUsingDirectivesAreDeduplicated(t *testing.T) {
	a := NewArena()
	g := a.New(KindGlobal, None, nil, nil)
	n := a.New(KindNamespace, g, nil, nil)
	s := a.Get(g)
	s.AddUsing(n, 5)
	s.AddUsing(n, 9)
	assert.Equal(t, []Using{{Target: n, Offset: 5}}, s.Usings)
}
