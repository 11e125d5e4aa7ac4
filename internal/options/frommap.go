package options

import (
	"fmt"
	"math"
	"sort"

	"github.com/roach88/sassloader/internal/diag"
	"github.com/roach88/sassloader/internal/fiber"
)

// FromMap converts a generic option mapping into SassOptions.
//
// Recognized keys use the engine option names (includePaths, indentWidth,
// indentType, linefeed, outputStyle, precision, sourceMap,
// sourceMapContents, fiber, importer, functions). Keys derived from the
// resource (file, indentedSyntax) are ignored. Anything else lands in Extra.
func FromMap(m map[string]any) (SassOptions, error) {
	var o SassOptions

	// Sorted so the first reported error is deterministic.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := m[key]
		if val == nil {
			continue
		}
		var err error
		switch key {
		case "includePaths":
			o.IncludePaths, err = asStrings(key, val)
		case "indentWidth":
			o.IndentWidth, err = asInt(key, val)
		case "indentType":
			o.IndentType, err = asString(key, val)
		case "linefeed":
			o.Linefeed, err = asString(key, val)
		case "outputStyle":
			o.OutputStyle, err = asString(key, val)
		case "precision":
			o.Precision, err = asInt(key, val)
		case "sourceMap":
			var b bool
			b, err = asBool(key, val)
			o.SourceMap = &b
		case "sourceMapContents":
			o.SourceMapContents, err = asBool(key, val)
		case "fiber":
			o.Fiber, err = asFiber(val)
		case "importer":
			o.Importers, err = asImporters(val)
		case "functions":
			o.Functions, err = asFunctions(val)
		case "file", "indentedSyntax":
			// Derived from the resource path.
		default:
			if o.Extra == nil {
				o.Extra = make(map[string]any)
			}
			o.Extra[key] = val
		}
		if err != nil {
			return SassOptions{}, err
		}
	}

	return o, nil
}

func typeError(key string, want string, got any) error {
	return diag.Configuration("sassOptions.%s: expected %s, got %T", key, want, got)
}

func asString(key string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", typeError(key, "string", v)
	}
	return s, nil
}

func asBool(key string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, typeError(key, "bool", v)
	}
	return b, nil
}

func asInt(key string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n == math.Trunc(n) {
			return int(n), nil
		}
	}
	return 0, typeError(key, "integer", v)
}

func asStrings(key string, v any) ([]string, error) {
	switch list := v.(type) {
	case string:
		return []string{list}, nil
	case []string:
		return append([]string(nil), list...), nil
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, typeError(fmt.Sprintf("%s[%d]", key, i), "string", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, typeError(key, "list of strings", v)
}

func asFiber(v any) (FiberSetting, error) {
	switch f := v.(type) {
	case bool:
		if !f {
			return FiberDisabled(), nil
		}
		// true asks for the detected handle, which is the unset behavior.
		return FiberSetting{}, nil
	case FiberSetting:
		return f, nil
	case fiber.Fiber:
		return FiberHandle(f), nil
	}
	return FiberSetting{}, typeError("fiber", "bool or fiber handle", v)
}

func asImporters(v any) ([]Importer, error) {
	switch imp := v.(type) {
	case Importer:
		return []Importer{imp}, nil
	case []Importer:
		return append([]Importer(nil), imp...), nil
	case []any:
		out := make([]Importer, 0, len(imp))
		for i, item := range imp {
			one, ok := item.(Importer)
			if !ok {
				return nil, typeError(fmt.Sprintf("importer[%d]", i), "Importer", item)
			}
			out = append(out, one)
		}
		return out, nil
	}
	return nil, typeError("importer", "Importer or list of Importers", v)
}

func asFunctions(v any) (map[string]Function, error) {
	switch fns := v.(type) {
	case map[string]Function:
		out := make(map[string]Function, len(fns))
		for k, f := range fns {
			out[k] = f
		}
		return out, nil
	case map[string]func(...string) (string, error):
		out := make(map[string]Function, len(fns))
		for k, f := range fns {
			out[k] = f
		}
		return out, nil
	case map[string]any:
		out := make(map[string]Function, len(fns))
		for k, item := range fns {
			switch f := item.(type) {
			case Function:
				out[k] = f
			case func(...string) (string, error):
				out[k] = f
			default:
				return nil, typeError("functions."+k, "Function", item)
			}
		}
		return out, nil
	}
	return nil, typeError("functions", "map of Functions", v)
}
