package importer

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var styleExts = []string{".scss", ".sass", ".css"}

// candidates lists the files a Sass import of p may refer to, in lookup
// order: partial before plain for each extension, then index files.
func candidates(p string) []string {
	dir, base := filepath.Split(p)
	switch filepath.Ext(p) {
	case ".scss", ".sass", ".css":
		return []string{p, filepath.Join(dir, "_"+base)}
	}

	out := make([]string, 0, 4*len(styleExts))
	for _, ext := range styleExts {
		out = append(out,
			filepath.Join(dir, "_"+base+ext),
			filepath.Join(dir, base+ext),
		)
	}
	for _, ext := range styleExts {
		out = append(out,
			filepath.Join(p, "_index"+ext),
			filepath.Join(p, "index"+ext),
		)
	}
	return out
}

// moduleRequests lists the requests to try against a module resolver for
// a bare or "~" specifier: the request itself, then its partial forms.
func moduleRequests(request string) []string {
	out := []string{request}
	for _, c := range candidates(request) {
		c = filepath.ToSlash(c)
		if c != request {
			out = append(out, c)
		}
	}
	return out
}

// findFile returns the first existing regular file among the candidates
// of p.
func findFile(p string) (string, bool) {
	for _, c := range candidates(p) {
		if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
			return c, true
		}
	}
	return "", false
}

// FilePath converts a file: URL to a local path, decoding percent
// escapes. ok is false for other schemes and malformed URLs.
func FilePath(raw string) (string, bool) {
	if !strings.HasPrefix(raw, "file:") {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}

// FileURL converts an absolute path to a percent-encoded file: URL.
func FileURL(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}
