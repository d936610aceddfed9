package config

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// ValidationError is one schema violation with the offending field
// path.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks raw manifest YAML against the embedded CUE schema.
// Returns nil when the manifest is valid.
func Validate(data []byte) []ValidationError {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return []ValidationError{{Field: "", Message: fmt.Sprintf("decode manifest: %v", err)}}
	}
	if raw == nil {
		return []ValidationError{{Field: "", Message: "empty manifest"}}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		// The schema is embedded; a compile failure is a build defect.
		return []ValidationError{{Field: "schema", Message: err.Error()}}
	}

	unified := schema.Unify(ctx.Encode(raw))
	err := unified.Validate(cue.Final(), cue.Concrete(true))
	if err == nil {
		return nil
	}

	var errs []ValidationError
	for _, e := range cueerrors.Errors(err) {
		errs = append(errs, ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: e.Error(),
		})
	}
	return errs
}
