package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sassloader/internal/host"
)

func TestRecorder_KeepsFirstCompletionOnly(t *testing.T) {
	r := NewRecorder("/src/main.scss")
	done := r.Async()

	done(nil, &host.Result{CSS: "a{}"})
	done(errors.New("late"), nil)

	res, err := r.Wait(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "a{}", res.CSS)
	assert.Equal(t, 2, r.Completions())
}

func TestRecorder_ResolveFromModules(t *testing.T) {
	r := NewRecorder("/src/main.scss")
	r.Modules["pkg/theme"] = "/node_modules/pkg/_theme.scss"

	got, err := r.Resolve(context.Background(), "/src", "pkg/theme")
	require.NoError(t, err)
	assert.Equal(t, "/node_modules/pkg/_theme.scss", got)

	_, err = r.Resolve(context.Background(), "/src", "missing")
	assert.Error(t, err)
	assert.Equal(t, []string{"pkg/theme", "missing"}, r.Resolves())
}

func TestRecorder_WaitTimesOut(t *testing.T) {
	r := NewRecorder("/src/main.scss")
	_, err := r.Wait(10 * time.Millisecond)
	assert.Error(t, err)
}
