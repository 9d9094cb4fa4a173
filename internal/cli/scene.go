package cli

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/halverson/orrery/internal/ir"
)

//go:embed schema.cue
var sceneSchema string

// SchemaError is one schema violation found in a scene document.
type SchemaError struct {
	Path    string `json:"path,omitempty"` // dotted path into the document
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

func (e SchemaError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// validateSceneSchema checks raw scene JSON against the embedded CUE
// schema. A nil return with no errors means the document conforms.
func validateSceneSchema(filename string, data []byte) ([]SchemaError, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(sceneSchema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling scene schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Scene"))
	if !def.Exists() {
		return nil, fmt.Errorf("scene schema has no #Scene definition")
	}

	expr, err := cuejson.Extract(filename, data)
	if err != nil {
		return []SchemaError{{Message: fmt.Sprintf("invalid JSON: %v", err)}}, nil
	}
	doc := ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return []SchemaError{{Message: err.Error()}}, nil
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		var found []SchemaError
		for _, e := range cueerrors.Errors(err) {
			se := SchemaError{
				Path:    strings.Join(e.Path(), "."),
				Message: e.Error(),
			}
			if positions := cueerrors.Positions(e); len(positions) > 0 && positions[0].IsValid() {
				se.Line = positions[0].Line()
			}
			found = append(found, se)
		}
		return found, nil
	}
	return nil, nil
}

// loadSceneFile reads, schema-checks, and decodes a scene document.
// Schema and semantic violations come back in the SchemaError slice;
// the error return is reserved for I/O and internal failures.
func loadSceneFile(path string) (*ir.Scene, []SchemaError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	schemaErrs, err := validateSceneSchema(path, data)
	if err != nil {
		return nil, nil, err
	}
	if len(schemaErrs) > 0 {
		return nil, schemaErrs, nil
	}

	scn, err := ir.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, []SchemaError{{Message: err.Error()}}, nil
	}
	if err := scn.Validate(); err != nil {
		return nil, []SchemaError{{Message: err.Error()}}, nil
	}
	return scn, nil, nil
}
