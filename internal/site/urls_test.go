package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputPath(t *testing.T) {
	cases := []struct {
		source  string
		isIndex bool
		pretty  bool
		want    string
	}{
		{"index.md", true, true, "index.html"},
		{"guide/index.md", true, true, "guide/index.html"},
		{"guide/README.md", true, true, "guide/index.html"},
		{"guide/setup.md", false, true, "guide/setup/index.html"},
		{"guide/setup.md", false, false, "guide/setup.html"},
		{"Guide/Setup.md", false, false, "Guide/setup.html"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, outputPath(tc.source, tc.isIndex, tc.pretty), "source %q", tc.source)
	}
}

func TestPageURL(t *testing.T) {
	assert.Equal(t, "/", pageURL("index.html", true))
	assert.Equal(t, "/guide/", pageURL("guide/index.html", true))
	assert.Equal(t, "/guide/setup/", pageURL("guide/setup/index.html", true))
	assert.Equal(t, "/guide/setup.html", pageURL("guide/setup.html", false))
}

func TestRelativeURL(t *testing.T) {
	cases := []struct {
		target string
		page   string
		want   string
	}{
		{"/guide/setup/", "/", "guide/setup/"},
		{"/", "/guide/setup/", "../../"},
		{"/guide/other/", "/guide/setup/", "../other/"},
		{"/guide/setup/", "/guide/setup/", "./"},
		{"/a/b.html", "/a/c.html", "b.html"},
		{"/x/y.html", "/a/c.html", "../x/y.html"},
		{"/assets/logo.abc123.png", "/guide/setup/", "../../assets/logo.abc123.png"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, relativeURL(tc.target, tc.page), "target %q from %q", tc.target, tc.page)
	}
}

func TestAssetOutputPath(t *testing.T) {
	assert.Equal(t, "img/logo.deadbeefdead.png", assetOutputPath("img/logo.png", "deadbeefdead0000"))
	assert.Equal(t, "style.abc.css", assetOutputPath("style.css", "abc"))
}

func TestTitleFromName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"getting-started.md", "Getting Started"},
		{"api_reference.md", "Api Reference"},
		{"FAQ.md", "FAQ"},
		{"MixedCase.md", "MixedCase"},
		{"guide", "Guide"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, titleFromName(tc.in), "input %q", tc.in)
	}
}
