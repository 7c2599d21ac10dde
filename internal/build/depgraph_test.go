package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidatedFollowsTransitiveDependents(t *testing.T) {
	g := &DepGraph{
		dependents: map[string][]string{
			"leaf.md": {"mid.md"},
			"mid.md":  {"top.md"},
		},
		assetDependents: map[string][]string{
			"img/a.png": {"gallery.md"},
		},
	}

	got := g.Invalidated([]string{"leaf.md"}, nil)
	assert.Equal(t, []string{"leaf.md", "mid.md", "top.md"}, got)

	got = g.Invalidated(nil, []string{"img/a.png"})
	assert.Equal(t, []string{"gallery.md"}, got)
}

func TestInvalidatedToleratesCycles(t *testing.T) {
	g := &DepGraph{
		dependents: map[string][]string{
			"a.md": {"b.md"},
			"b.md": {"a.md"},
		},
	}
	got := g.Invalidated([]string{"a.md"}, nil)
	assert.Equal(t, []string{"a.md", "b.md"}, got)
}

func TestInvalidatedEmptyChange(t *testing.T) {
	g := &DepGraph{dependents: map[string][]string{"a.md": {"b.md"}}}
	require.Empty(t, g.Invalidated(nil, nil))
}

func TestChangeSetCoalesces(t *testing.T) {
	cs := NewChangeSet()
	cs.Add("b.md")
	cs.Add("a.md")
	cs.Add("b.md")
	assert.Equal(t, 2, cs.Len())
	assert.Equal(t, []string{"a.md", "b.md"}, cs.Paths())

	other := NewChangeSet()
	other.Add("c.md")
	cs.Merge(other)
	assert.Equal(t, []string{"a.md", "b.md", "c.md"}, cs.Paths())
	assert.Equal(t, 1, other.Len())
}
