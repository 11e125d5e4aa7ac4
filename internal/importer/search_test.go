package importer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidates_Extensionless(t *testing.T) {
	got := candidates(filepath.FromSlash("/x/inc"))
	want := []string{
		"/x/_inc.scss", "/x/inc.scss",
		"/x/_inc.sass", "/x/inc.sass",
		"/x/_inc.css", "/x/inc.css",
		"/x/inc/_index.scss", "/x/inc/index.scss",
		"/x/inc/_index.sass", "/x/inc/index.sass",
		"/x/inc/_index.css", "/x/inc/index.css",
	}
	for i := range want {
		want[i] = filepath.FromSlash(want[i])
	}
	assert.Equal(t, want, got)
}

func TestCandidates_WithExtension(t *testing.T) {
	got := candidates(filepath.FromSlash("/x/inc.sass"))
	assert.Equal(t, []string{filepath.FromSlash("/x/inc.sass"), filepath.FromSlash("/x/_inc.sass")}, got)
}

func TestModuleRequests(t *testing.T) {
	got := moduleRequests("pkg/theme")
	assert.Equal(t, "pkg/theme", got[0])
	assert.Contains(t, got, "pkg/_theme.scss")
	assert.Contains(t, got, "pkg/theme/_index.scss")
}

func TestFileURLRoundTrip(t *testing.T) {
	p := filepath.FromSlash("/srv/app/_x.scss")
	got, ok := FilePath(FileURL(p))
	assert.True(t, ok)
	assert.Equal(t, p, got)

	_, ok = FilePath("theme")
	assert.False(t, ok)
}

func TestFileURL_PercentEncodes(t *testing.T) {
	p := filepath.FromSlash("/srv/my styles/caf\u00e9/_x.scss")

	u := FileURL(p)
	assert.Equal(t, "file:///srv/my%20styles/caf%C3%A9/_x.scss", u)

	got, ok := FilePath(u)
	assert.True(t, ok)
	assert.Equal(t, p, got)
}

func TestFilePath_OtherSchemes(t *testing.T) {
	_, ok := FilePath("sassloader-import:1")
	assert.False(t, ok)
	_, ok = FilePath("https://example.com/a.scss")
	assert.False(t, ok)
}

func TestNormalizePath_ComposesUnicode(t *testing.T) {
	decomposed := "/x/cafe\u0301.scss"
	composed := "/x/caf\u00e9.scss"
	assert.Equal(t, NormalizePath(composed), NormalizePath(decomposed))
}

func TestDependencies_ReportsOnce(t *testing.T) {
	var got []string
	d := NewDependencies(trackerFunc(func(p string) { got = append(got, p) }))

	_, first := d.Add("/x/a.scss")
	_, again := d.Add("/x/../x/a.scss")

	assert.True(t, first)
	assert.False(t, again)
	assert.Equal(t, []string{filepath.Clean("/x/a.scss")}, got)
}

type trackerFunc func(string)

func (f trackerFunc) AddDependency(p string) { f(p) }
