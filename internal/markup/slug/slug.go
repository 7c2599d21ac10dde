// Package slug derives stable anchor identifiers from heading text.
package slug

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes accented characters and removes the combining marks,
// so "Café" slugs to "cafe".
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug converts heading text to an anchor identifier: lowercase ASCII
// letters, digits, and single dashes.
func Slug(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var sb strings.Builder
	lastDash := true // suppress leading dashes
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(sb.String(), "-")
}

// IDs implements goldmark's parser.IDs with first-occurrence slugging and
// counter-suffixed de-duplication: "notes", "notes-1", "notes-2".
type IDs struct {
	used map[string]bool
}

// NewIDs returns a fresh identifier allocator for one document.
func NewIDs() parser.IDs {
	return &IDs{used: map[string]bool{}}
}

// Generate allocates an identifier for the given heading text.
func (ids *IDs) Generate(value []byte, kind ast.NodeKind) []byte {
	base := Slug(string(value))
	if base == "" {
		if kind == ast.KindHeading {
			base = "heading"
		} else {
			base = "id"
		}
	}
	if !ids.used[base] {
		ids.used[base] = true
		return []byte(base)
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !ids.used[candidate] {
			ids.used[candidate] = true
			return []byte(candidate)
		}
	}
}

// Put reserves an explicitly assigned identifier.
func (ids *IDs) Put(value []byte) {
	ids.used[string(value)] = true
}
