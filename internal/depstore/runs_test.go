package depstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sassloader/internal/diag"
	"github.com/roach88/sassloader/internal/outcome"
)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "deps.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func successRun(resource string, deps ...string) Run {
	return NewRun(resource, "dart-sass", "1.77.0", outcome.Outcome{
		CSS:           "a {\n  color: red;\n}\n",
		IncludedFiles: append([]string{resource}, deps...),
	})
}

func TestRecordRun_AssignsIDAndSeq(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.RecordRun(ctx, successRun("/p/main.scss"))
	require.NoError(t, err)
	second, err := s.RecordRun(ctx, successRun("/p/other.scss"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)

	parsed, err := uuid.Parse(first.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRecordRun_SeqResumesAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deps.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	_, err = s1.RecordRun(ctx, successRun("/p/main.scss"))
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	r, err := s2.RecordRun(ctx, successRun("/p/main.scss"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), r.Seq)
}

func TestLatestRun(t *testing.T) {
	s := openTestStore(t, WithIDGenerator(NewFixedGenerator("run-1", "run-2")))
	ctx := context.Background()

	_, err := s.RecordRun(ctx, successRun("/p/main.scss", "/p/_a.scss"))
	require.NoError(t, err)
	_, err = s.RecordRun(ctx, successRun("/p/main.scss", "/p/_b.scss", "/p/_a.scss"))
	require.NoError(t, err)

	got, err := s.LatestRun(ctx, "/p/main.scss")
	require.NoError(t, err)
	assert.Equal(t, "run-2", got.ID)
	assert.Equal(t, int64(2), got.Seq)
	assert.True(t, got.OK)
	assert.Equal(t, "dart-sass", got.Engine)
	assert.Equal(t, "1.77.0", got.EngineVersion)
	assert.Len(t, got.CSSHash, 64)
	assert.Equal(t, []string{"/p/main.scss", "/p/_b.scss", "/p/_a.scss"}, got.Dependencies)
}

func TestLatestRun_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LatestRun(context.Background(), "/p/missing.scss")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDependencies_EmptyNotNil(t *testing.T) {
	s := openTestStore(t)

	deps, err := s.Dependencies(context.Background(), "no-such-run")
	require.NoError(t, err)
	assert.NotNil(t, deps)
	assert.Empty(t, deps)
}

func TestDependents_LatestRunOnly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.RecordRun(ctx, successRun("/p/main.scss", "/p/_shared.scss"))
	require.NoError(t, err)
	_, err = s.RecordRun(ctx, successRun("/p/admin.scss", "/p/_shared.scss"))
	require.NoError(t, err)

	deps, err := s.Dependents(ctx, "/p/_shared.scss")
	require.NoError(t, err)
	assert.Equal(t, []string{"/p/admin.scss", "/p/main.scss"}, deps)

	// main.scss stops importing the partial.
	_, err = s.RecordRun(ctx, successRun("/p/main.scss"))
	require.NoError(t, err)

	deps, err = s.Dependents(ctx, "/p/_shared.scss")
	require.NoError(t, err)
	assert.Equal(t, []string{"/p/admin.scss"}, deps)
}

func TestNewRun_Failure(t *testing.T) {
	out := outcome.Failure(diag.Compile("Undefined variable.").At("/p/_vars.scss", 3, 10))

	r := NewRun("/p/main.scss", "libsass", "3.6.6", out)

	assert.False(t, r.OK)
	assert.Equal(t, string(diag.KindCompile), r.ErrorKind)
	assert.Equal(t, "Undefined variable.", r.ErrorMessage)
	assert.Empty(t, r.CSSHash)
	assert.Equal(t, []string{"/p/main.scss", "/p/_vars.scss"}, r.Dependencies)

	s := openTestStore(t)
	_, err := s.RecordRun(context.Background(), r)
	require.NoError(t, err)

	deps, err := s.Dependents(context.Background(), "/p/_vars.scss")
	require.NoError(t, err)
	assert.Equal(t, []string{"/p/main.scss"}, deps)
}

func TestFixedGenerator_PanicsWhenExhausted(t *testing.T) {
	g := NewFixedGenerator("only")
	assert.Equal(t, "only", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}
