package markup

import "bytes"

// splitTrailingFence scans the source for a fenced code block that is never
// terminated. The fence and everything after it degrade to literal text
// instead of swallowing the rest of the document into a code block.
//
// It returns the prefix to parse normally and the unterminated tail, or
// (source, nil) when every fence is properly closed.
func splitTrailingFence(source []byte) (head, tail []byte) {
	var (
		inFence    bool
		fenceChar  byte
		fenceLen   int
		fenceStart int
	)

	offset := 0
	for offset <= len(source) {
		end := bytes.IndexByte(source[offset:], '\n')
		var line []byte
		next := len(source) + 1
		if end >= 0 {
			line = source[offset : offset+end]
			next = offset + end + 1
		} else {
			line = source[offset:]
		}

		if !inFence {
			if char, length, ok := fenceMarker(line); ok {
				inFence = true
				fenceChar = char
				fenceLen = length
				fenceStart = offset
			}
		} else if char, length, ok := fenceMarker(line); ok && char == fenceChar && length >= fenceLen && isFenceClose(line) {
			inFence = false
		}

		if end < 0 {
			break
		}
		offset = next
	}

	if inFence {
		return source[:fenceStart], source[fenceStart:]
	}
	return source, nil
}

// fenceMarker reports whether the line opens (or could close) a code fence:
// at most three leading spaces followed by three or more backticks or tildes.
func fenceMarker(line []byte) (char byte, length int, ok bool) {
	indent := 0
	for indent < len(line) && line[indent] == ' ' {
		indent++
	}
	if indent > 3 || indent >= len(line) {
		return 0, 0, false
	}
	c := line[indent]
	if c != '`' && c != '~' {
		return 0, 0, false
	}
	n := 0
	for indent+n < len(line) && line[indent+n] == c {
		n++
	}
	if n < 3 {
		return 0, 0, false
	}
	if c == '`' && bytes.IndexByte(line[indent+n:], '`') >= 0 {
		// Backtick info strings cannot contain backticks.
		return 0, 0, false
	}
	return c, n, true
}

// isFenceClose reports whether the line contains nothing but the fence run
// and trailing whitespace, as required for a closing fence.
func isFenceClose(line []byte) bool {
	trimmed := bytes.TrimRight(bytes.TrimLeft(line, " "), " \t\r")
	for _, c := range trimmed {
		if c != trimmed[0] {
			return false
		}
	}
	return len(trimmed) > 0
}
