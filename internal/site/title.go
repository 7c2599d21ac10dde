package site

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und, cases.NoLower)

// titleFromName derives a display title from a file or directory name:
// the extension is dropped, dashes and underscores become spaces, and an
// all-lowercase result is title-cased. Mixed-case names are kept verbatim
// since the author already chose a casing.
func titleFromName(name string) string {
	stem := strings.TrimSuffix(path.Base(name), path.Ext(name))
	stem = strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	stem = strings.Join(strings.Fields(stem), " ")
	if stem == "" {
		return ""
	}
	if stem == strings.ToLower(stem) {
		return titleCaser.String(stem)
	}
	return stem
}
