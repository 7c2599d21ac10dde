package site

import (
	"path"
	"strings"
)

// outputPath maps a source-relative document path to its artifact path.
// Pretty URLs place every page in its own directory so links need no
// extension; otherwise the page becomes a sibling .html file.
func outputPath(sourcePath string, isIndex, prettyURLs bool) string {
	dir := path.Dir(sourcePath)
	if dir == "." {
		dir = ""
	}
	stem := strings.TrimSuffix(path.Base(sourcePath), path.Ext(sourcePath))

	if isIndex {
		return path.Join(dir, "index.html")
	}
	if prettyURLs {
		return path.Join(dir, strings.ToLower(stem), "index.html")
	}
	return path.Join(dir, strings.ToLower(stem)+".html")
}

// pageURL maps an artifact path to the root-relative URL it is served at.
func pageURL(artifactPath string, prettyURLs bool) string {
	if prettyURLs || path.Base(artifactPath) == "index.html" {
		dir := path.Dir(artifactPath)
		if dir == "." {
			return "/"
		}
		return "/" + dir + "/"
	}
	return "/" + artifactPath
}

// assetOutputPath embeds the content fingerprint in the file name so a
// changed asset gets a new URL and stale caches never serve old bytes.
func assetOutputPath(sourcePath, fingerprint string) string {
	ext := path.Ext(sourcePath)
	base := strings.TrimSuffix(sourcePath, ext)
	short := fingerprint
	if len(short) > 12 {
		short = short[:12]
	}
	if short == "" {
		return sourcePath
	}
	return base + "." + short + ext
}

// RelativeURL rewrites a root-relative target URL as a path relative to the
// page it appears on. Exposed for templates that emit nav and pager links.
func RelativeURL(target, pageURL string) string {
	return relativeURL(target, pageURL)
}

// relativeURL rewrites a root-relative target URL as a path relative to the
// page it appears on, so the output works from any mount point. Relative
// resolution in the browser happens against the page's directory, which for
// directory-style URLs is the URL itself.
func relativeURL(target, pageURL string) string {
	if target == pageURL {
		return "./"
	}

	pageDir := pageURL[:strings.LastIndex(pageURL, "/")+1]
	pDirs := urlSegments(pageDir)

	tDirs := urlSegments(target)
	tFile := ""
	if !strings.HasSuffix(target, "/") && len(tDirs) > 0 {
		tFile = tDirs[len(tDirs)-1]
		tDirs = tDirs[:len(tDirs)-1]
	}

	common := 0
	for common < len(tDirs) && common < len(pDirs) && tDirs[common] == pDirs[common] {
		common++
	}

	var sb strings.Builder
	for i := common; i < len(pDirs); i++ {
		sb.WriteString("../")
	}
	for _, seg := range tDirs[common:] {
		sb.WriteString(seg)
		sb.WriteString("/")
	}
	sb.WriteString(tFile)

	if sb.Len() == 0 {
		return "./"
	}
	return sb.String()
}

func urlSegments(u string) []string {
	u = strings.Trim(u, "/")
	if u == "" {
		return nil
	}
	return strings.Split(u, "/")
}
