package schema

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "required": ["name"],
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "count": {"type": "integer"}
  }
}`

func TestValidateDocument(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateDocument(testSchema, map[string]any{"name": "ok", "count": 3}))

	err := v.ValidateDocument(testSchema, map[string]any{"count": 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")

	err = v.ValidateDocument(testSchema, map[string]any{"name": "ok", "extra": true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
}

func TestValidateDocumentBadSchema(t *testing.T) {
	v := NewValidator()
	err := v.ValidateDocument(`{"type": ["not a type"]}`, map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schema definition")
}

func TestValidateDocumentCachesCompiledSchemas(t *testing.T) {
	v := NewValidator()
	require.NoError(t, v.ValidateDocument(testSchema, map[string]any{"name": "a"}))

	_, ok := v.cache.Load(testSchema)
	assert.True(t, ok)
}

func TestValidateDocumentUnmarshalableDoc(t *testing.T) {
	v := NewValidator()
	err := v.ValidateDocument(testSchema, map[string]any{"name": func() {}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not representable as JSON")
}

func TestDumpErrorsTruncates(t *testing.T) {
	errs := make([]string, 6)
	for i := range errs {
		errs[i] = fmt.Sprintf("error %d", i)
	}
	out := dumpErrors(errs)
	assert.Contains(t, out, "error 0")
	assert.Contains(t, out, "error 2")
	assert.NotContains(t, out, "error 3")
	assert.Contains(t, out, "and 3 more")
}
