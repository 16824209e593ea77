// Package schema validates authored artifacts (rule sets, corpora)
// against their JSON schemas before any structural checks run.
package schema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Validator compiles and caches JSON schemas.
type Validator struct {
	cache sync.Map // schema source -> *gojsonschema.Schema
}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateDocument checks a decoded document (typically the result of a
// YAML unmarshal into any) against the given schema source.
func (v *Validator) ValidateDocument(schemaSource string, doc any) error {
	compiled, err := v.compile(schemaSource)
	if err != nil {
		return fmt.Errorf("invalid schema definition: %w", err)
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("document not representable as JSON: %w", err)
	}

	result, err := compiled.Validate(gojsonschema.NewBytesLoader(docJSON))
	if err != nil {
		return fmt.Errorf("validation execution failed: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("schema validation failed:\n- %s", dumpErrors(errs))
}

func (v *Validator) compile(source string) (*gojsonschema.Schema, error) {
	if val, ok := v.cache.Load(source); ok {
		return val.(*gojsonschema.Schema), nil
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		return nil, err
	}
	v.cache.Store(source, compiled)
	return compiled, nil
}

func dumpErrors(errs []string) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return errs[0]
	}
	// return first 3 errors to avoid massive output
	truncated := ""
	if len(errs) > 3 {
		truncated = fmt.Sprintf("... and %d more", len(errs)-3)
		errs = errs[:3]
	}

	result := ""
	for i, e := range errs {
		if i > 0 {
			result += "\n- "
		}
		result += e
	}
	return result + truncated
}
