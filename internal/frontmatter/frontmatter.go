// Package frontmatter splits YAML front matter from document bodies and
// parses it into the typed fields the collector reads.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// front matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml front matter start delimiter found but closing delimiter is missing")

// Split separates YAML front matter (`---` delimited) from the Markdown body.
//
// If the document does not start with a front matter delimiter, had is false
// and body is the full input.
func Split(content []byte) (fm, body []byte, had bool, err error) {
	nl := newlineOf(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}
	rest := content[len(open):]

	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}
	if i := bytes.Index(rest, []byte(nl+"---"+nl)); i >= 0 {
		return rest[:i+len(nl)], rest[i+2*len(nl)+3:], true, nil
	}
	// A bare trailing "---" without a final newline still closes the block.
	if bytes.HasSuffix(rest, []byte(nl+"---")) {
		return rest[:len(rest)-3], nil, true, nil
	}
	return nil, nil, false, ErrMissingClosingDelimiter
}

// Parse parses raw YAML front matter (without --- delimiters) into a map.
func Parse(fm []byte) (map[string]any, error) {
	if len(fm) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(fm, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// newlineOf inspects the first line ending so CRLF documents split cleanly.
func newlineOf(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
