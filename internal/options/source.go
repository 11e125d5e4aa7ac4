package options

import (
	"fmt"

	"github.com/roach88/sassloader/internal/diag"
	"github.com/roach88/sassloader/internal/host"
)

// Source is where the base option set comes from: a literal bag, a generic
// mapping, or a provider called with the loader context.
type Source interface {
	resolve(lctx host.LoaderContext) (*SassOptions, error)
}

type literalSource struct {
	opts SassOptions
}

// Literal uses opts as the base option set.
func Literal(opts SassOptions) Source {
	return literalSource{opts: opts}
}

func (s literalSource) resolve(host.LoaderContext) (*SassOptions, error) {
	return s.opts.Clone(), nil
}

type mapSource struct {
	m map[string]any
}

// Map uses a generic mapping (typically decoded from a config file) as the
// base option set. Values of the wrong type fail with a ConfigurationError.
func Map(m map[string]any) Source {
	return mapSource{m: m}
}

func (s mapSource) resolve(host.LoaderContext) (*SassOptions, error) {
	opts, err := FromMap(s.m)
	if err != nil {
		return nil, err
	}
	return &opts, nil
}

type providerSource struct {
	fn func(host.LoaderContext) *SassOptions
}

// Provider calls fn with the loader context to obtain the base option set.
// A nil return is treated as an empty bag.
func Provider(fn func(host.LoaderContext) *SassOptions) Source {
	return providerSource{fn: fn}
}

func (s providerSource) resolve(lctx host.LoaderContext) (opts *SassOptions, err error) {
	if s.fn == nil {
		return nil, diag.Configuration("sassOptions provider is nil")
	}
	defer func() {
		if r := recover(); r != nil {
			opts = nil
			err = diag.Internal("sassOptions provider panicked", fmt.Errorf("%v", r))
		}
	}()
	got := s.fn(lctx)
	if got == nil {
		return &SassOptions{}, nil
	}
	return got.Clone(), nil
}
