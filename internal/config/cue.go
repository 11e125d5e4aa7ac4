package config

import (
	_ "embed"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource []byte

// ParseCUE decodes a CUE configuration after unifying it with #Config.
func ParseCUE(path string, src []byte) (*File, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return nil, &Error{Code: ErrCodeSchema, Message: "embedded schema: " + err.Error(), Err: err}
	}

	v := ctx.CompileBytes(src, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, cueError(ErrCodeParse, path, err)
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(ErrCodeSchema, path, err)
	}

	var f File
	if err := unified.Decode(&f); err != nil {
		return nil, cueError(ErrCodeSchema, path, err)
	}
	if err := f.validate(path); err != nil {
		return nil, err
	}
	return &f, nil
}

// cueError converts the first CUE error into an Error carrying its
// position.
func cueError(code, path string, err error) *Error {
	e := &Error{Code: code, Message: err.Error(), File: path, Err: err}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return e
	}
	first := errs[0]
	e.Message = first.Error()
	if pos := first.Position(); pos.IsValid() {
		e.Line = pos.Line()
		e.Column = pos.Column()
		if pos.Filename() != "" {
			e.File = pos.Filename()
		}
	}
	return e
}
