package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sassloader/internal/diag"
)

// stubEngine is a minimal Engine reporting a fixed info line.
type stubEngine struct{ info string }

func (s stubEngine) Info() string { return s.info }

func (s stubEngine) Render(_ context.Context, _ *Request, done Completion) {
	done(&Result{CSS: s.info}, nil)
}

func TestParseInfo(t *testing.T) {
	tests := []struct {
		info          string
		name, version string
	}{
		{"dart-sass\t1.77.8\t(Sass Compiler)\t[Dart]", "dart-sass", "1.77.8"},
		{"node-sass\t9.0.0\t(Wrapper)\t[JavaScript]\nlibsass  \t3.5.5\t(Sass Compiler)\t[C/C++]", "node-sass", "9.0.0"},
		{"LibSass 3.6.6", "libsass", "3.6.6"},
		{"custom", "custom", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.info, func(t *testing.T) {
			name, version := ParseInfo(tt.info)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.version, version)
		})
	}
}

func TestWrap_CapabilitiesFromName(t *testing.T) {
	h, err := Wrap(stubEngine{info: "dart-sass\t1.77.8"})
	require.NoError(t, err)
	assert.Equal(t, NameDartSass, h.Name)
	assert.Equal(t, "1.77.8", h.Version)
	assert.True(t, h.Caps.CooperativeScheduling)
	assert.False(t, h.Caps.SyncImporterReturn)

	h, err = Wrap(stubEngine{info: "node-sass\t9.0.0"})
	require.NoError(t, err)
	assert.False(t, h.Caps.CooperativeScheduling)
	assert.True(t, h.Caps.SyncImporterReturn)

	h, err = Wrap(stubEngine{info: "homegrown\t0.1"})
	require.NoError(t, err)
	assert.Equal(t, Capabilities{}, h.Caps, "unknown engines have no capabilities")
}

func TestWrap_Rejects(t *testing.T) {
	_, err := Wrap(nil)
	assert.True(t, diag.IsConfiguration(err))

	_, err = Wrap(stubEngine{info: "   "})
	assert.True(t, diag.IsConfiguration(err))
}

func TestCapabilities_Flags(t *testing.T) {
	assert.Equal(t, []string{"cooperative-scheduling", "content-importers"}, CapabilitiesOf("Dart-Sass").Flags())
	assert.Empty(t, CapabilitiesOf("nope").Flags())
	assert.Equal(t, []string{NameDartSass, NameLibSass, NameNodeSass}, Known())
}

func TestSelector_ExplicitEngineWins(t *testing.T) {
	called := false
	s := NewSelector(WithDiscoverers(Discoverer{
		Name: "never",
		Discover: func() (Engine, error) {
			called = true
			return stubEngine{info: "never\t1"}, nil
		},
	}))

	h, err := s.Select(stubEngine{info: "libsass\t3.6.6"}, "never")
	require.NoError(t, err)
	assert.Equal(t, NameLibSass, h.Name)
	assert.False(t, called, "discovery must not run when an engine is supplied")
}

func TestSelector_PreferenceOrder(t *testing.T) {
	var order []string
	discover := func(name string, ok bool) Discoverer {
		return Discoverer{
			Name: name,
			Rank: map[string]int{"modern": 1, "legacy": 2}[name],
			Discover: func() (Engine, error) {
				order = append(order, name)
				if !ok {
					return nil, ErrNotFound
				}
				return stubEngine{info: name + "\t1"}, nil
			},
		}
	}

	s := NewSelector(WithDiscoverers(discover("legacy", true), discover("modern", true)))
	h, err := s.Select(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "modern", h.Name)
	assert.Equal(t, []string{"modern"}, order)

	order = nil
	s = NewSelector(WithDiscoverers(discover("legacy", true), discover("modern", false)))
	h, err = s.Select(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "legacy", h.Name)
	assert.Equal(t, []string{"modern", "legacy"}, order)
}

func TestSelector_NoEngineIsConfigurationError(t *testing.T) {
	s := NewSelector(WithDiscoverers(Discoverer{
		Name:     "modern",
		Discover: func() (Engine, error) { return nil, ErrNotFound },
	}))
	_, err := s.Select(nil, "")
	require.Error(t, err)
	assert.True(t, diag.IsConfiguration(err))
	assert.Contains(t, err.Error(), "modern")

	_, err = NewSelector(WithDiscoverers()).Select(nil, "")
	assert.True(t, diag.IsConfiguration(err))
}

func TestSelector_ByName(t *testing.T) {
	s := NewSelector(WithDiscoverers(
		Discoverer{Name: "modern", Rank: 1, Discover: func() (Engine, error) { return stubEngine{info: "modern\t1"}, nil }},
		Discoverer{Name: "legacy", Aliases: []string{"old"}, Rank: 2, Discover: func() (Engine, error) { return stubEngine{info: "legacy\t2"}, nil }},
		Discoverer{Name: "broken", Rank: 3, Discover: func() (Engine, error) { return nil, errors.New("boom") }},
	))

	h, err := s.Select(nil, "OLD")
	require.NoError(t, err)
	assert.Equal(t, "legacy", h.Name)

	_, err = s.Select(nil, "broken")
	assert.True(t, diag.IsConfiguration(err))
	assert.Contains(t, err.Error(), "boom")

	_, err = s.Select(nil, "mystery")
	assert.True(t, diag.IsConfiguration(err))
}

func TestSelector_Available(t *testing.T) {
	s := NewSelector(WithDiscoverers(
		Discoverer{Name: "b", Rank: 2, Discover: func() (Engine, error) { return stubEngine{info: "b\t2"}, nil }},
		Discoverer{Name: "x", Rank: 3, Discover: func() (Engine, error) { return nil, ErrNotFound }},
		Discoverer{Name: "a", Rank: 1, Discover: func() (Engine, error) { return stubEngine{info: "a\t1"}, nil }},
	))

	var names []string
	for _, h := range s.Available() {
		names = append(names, h.String())
	}
	assert.Equal(t, []string{"a\t1", "b\t2"}, names)
}

func TestRegistered_ContainsDartSass(t *testing.T) {
	var names []string
	for _, d := range Registered() {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, NameDartSass)
	assert.Equal(t, NameDartSass, names[0], "modern engine ranks first")
}
