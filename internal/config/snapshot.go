package config

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Snapshot computes a stable hash of build-affecting configuration fields.
// It is intentionally narrower than full serialization so that changes to
// runtime-only fields (serve address, metrics toggles) do not invalidate
// previously built artifacts. Slice fields are order-insensitive.
func (c *Config) Snapshot() string {
	if c == nil {
		return ""
	}
	h := sha256.New()
	w := func(parts ...string) {
		h.Write([]byte(strings.Join(parts, "=")))
		h.Write([]byte{0})
	}

	w("site.title", c.Title)
	w("site.base_url", c.BaseURL)
	w("site.theme", c.Theme)
	w("site.pretty_urls", strconv.FormatBool(c.PrettyURLs))
	w("links.policy", string(c.LinkPolicy))
	w("links.broken_text", c.BrokenLinkText)
	w("git.metadata", strconv.FormatBool(c.GitMetadata))

	if len(c.Extensions) > 0 {
		exts := append([]string{}, c.Extensions...)
		sort.Strings(exts)
		w("markup.extensions", strings.Join(exts, ","))
	}

	return hex.EncodeToString(h.Sum(nil))
}
