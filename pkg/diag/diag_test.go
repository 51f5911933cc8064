package diag

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindIDsAreUniqueAndReversible(t *testing.T) {
	seen := map[string]Kind{}
	for k, info := range kinds {
		other, dup := seen[info.id]
		require.False(t, dup, "%s used by %d and %d", info.id, k, other)
		seen[info.id] = k

		back, ok := KindByID(info.id)
		require.True(t, ok)
		assert.Equal(t, k, back)
	}

	_, ok := KindByID("sema.no-such-kind")
	assert.False(t, ok)
	assert.Equal(t, "none", KindNone.ID())
	assert.Equal(t, SeverityInfo, KindNone.Severity())
}

func TestKindClassification(t *testing.T) {
	assert.Equal(t, "sema.name-not-found", NameNotFound.ID())
	assert.Equal(t, CategorySemantic, NameNotFound.Category())
	assert.Equal(t, SeverityError, NameNotFound.Severity())

	assert.Equal(t, CategoryPreprocessor, UndefinedMacroInCondition.Category())
	assert.Equal(t, SeverityWarning, UndefinedMacroInCondition.Severity())
	assert.Equal(t, "preprocessor", UndefinedMacroInCondition.Category().String())
	assert.Equal(t, "warning", UndefinedMacroInCondition.Severity().String())
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Kind: NameNotFound, Offset: 4, Length: 7, Arg: "missing"}
	assert.Equal(t, "sema.name-not-found at 4+7: missing", d.String())
	assert.Equal(t, 11, d.End())

	d.Arg = ""
	assert.Equal(t, "sema.name-not-found at 4+7", d.String())
}

func TestSinkKeepsIdenticalDiagnosticsOnce(t *testing.T) {
	s := NewSink()
	s.Report(NameNotFound, 10, 1, "x")
	s.Report(UndefinedMacroInCondition, 2, 3, "FOO")
	s.Report(NameNotFound, 10, 1, "x")
	s.Report(NameNotFound, 20, 1, "x")

	require.Equal(t, 3, s.Len())
	all := s.All()
	assert.Equal(t, 10, all[0].Offset)
	assert.Equal(t, 2, all[1].Offset)

	sorted := s.Sorted()
	assert.Equal(t, []int{2, 10, 20}, []int{sorted[0].Offset, sorted[1].Offset, sorted[2].Offset})

	assert.Len(t, s.ByCategory(CategorySemantic), 2)
	assert.Len(t, s.ByCategory(CategoryPreprocessor), 1)
	assert.Empty(t, s.ByCategory(CategoryLexical))
}

func TestSinkHasErrors(t *testing.T) {
	s := NewSink()
	assert.False(t, s.HasErrors())

	s.Report(UndefinedMacroInCondition, 0, 3, "FOO")
	assert.False(t, s.HasErrors())

	s.Report(NameNotFound, 5, 1, "y")
	assert.True(t, s.HasErrors())
}

func TestSinkConcurrentReports(t *testing.T) {
	s := NewSink()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Report(NameNotFound, i*100+j, 1, "")
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 800, s.Len())
}
