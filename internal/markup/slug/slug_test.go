package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yuin/goldmark/ast"
)

func TestSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello", "hello"},
		{"Hello World", "hello-world"},
		{"Notes", "notes"},
		{"Café au lait", "cafe-au-lait"},
		{"  spaced   out  ", "spaced-out"},
		{"C++ & Go!", "c-go"},
		{"Über-Änderung", "uber-anderung"},
		{"100% done", "100-done"},
		{"---", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slug(tc.in), "input %q", tc.in)
	}
}

func TestIDsDeduplicate(t *testing.T) {
	ids := NewIDs()
	assert.Equal(t, "notes", string(ids.Generate([]byte("Notes"), ast.KindHeading)))
	assert.Equal(t, "notes-1", string(ids.Generate([]byte("Notes"), ast.KindHeading)))
	assert.Equal(t, "notes-2", string(ids.Generate([]byte("Notes"), ast.KindHeading)))
}

func TestIDsEmptyFallback(t *testing.T) {
	ids := NewIDs()
	assert.Equal(t, "heading", string(ids.Generate([]byte("!!!"), ast.KindHeading)))
	assert.Equal(t, "heading-1", string(ids.Generate([]byte("???"), ast.KindHeading)))
}

func TestIDsPutReserves(t *testing.T) {
	ids := NewIDs()
	ids.Put([]byte("section"))
	assert.Equal(t, "section-1", string(ids.Generate([]byte("Section"), ast.KindHeading)))
}
