package engine

import (
	"path/filepath"
	"sync"
)

// prevPaths maps the specifiers LibSass hands back as prev to the files
// they resolved to. LibSass reports the importing stylesheet by the
// specifier that loaded it, and visits imports depth first, so the most
// recent resolution of a specifier names the file being parsed.
type prevPaths struct {
	mu   sync.Mutex
	last map[string]string
}

func newPrevPaths() *prevPaths {
	return &prevPaths{last: make(map[string]string)}
}

// lookup returns the absolute path for prev, or prev unchanged when it is
// already absolute or was never resolved.
func (p *prevPaths) lookup(prev string) string {
	if prev == "" || filepath.IsAbs(prev) {
		return prev
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if file, ok := p.last[prev]; ok {
		return file
	}
	return prev
}

// record notes that url resolved to file.
func (p *prevPaths) record(url, file string) {
	if file == "" || !filepath.IsAbs(file) {
		return
	}
	p.mu.Lock()
	p.last[url] = file
	p.mu.Unlock()
}
