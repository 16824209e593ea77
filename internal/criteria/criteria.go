// Package criteria defines the typed classification of a storage request.
// Every field holds a value from a closed vocabulary; a missing or
// unrecognized value is a producer error, surfaced as SchemaError.
package criteria

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// StorageIntent is the kind of store the request is aimed at.
type StorageIntent string

const (
	IntentMemory   StorageIntent = "memory"
	IntentDatabase StorageIntent = "database"
	IntentVector   StorageIntent = "vector"
	IntentFile     StorageIntent = "file"
)

// AccessPattern is how the data will be read or written.
type AccessPattern string

const (
	AccessCRUD   AccessPattern = "crud"
	AccessQuery  AccessPattern = "query"
	AccessSearch AccessPattern = "search"
	AccessFilter AccessPattern = "filter"
)

// DataType is the shape of the payload.
type DataType string

const (
	DataStructured DataType = "structured"
	DataNumeric    DataType = "numeric"
	DataText       DataType = "text"
	DataBinary     DataType = "binary"
)

// SearchIntensity is how search-heavy the workload is expected to be.
type SearchIntensity string

const (
	SearchNone SearchIntensity = "none"
	SearchLow  SearchIntensity = "low"
	SearchHigh SearchIntensity = "high"
)

// Field names, as they appear in rule conditions and corpus files.
const (
	FieldStorageIntent   = "storage_intent"
	FieldAccessPattern   = "access_pattern"
	FieldAnalyticIntent  = "analytic_intent"
	FieldDataType        = "data_type"
	FieldSearchIntensity = "search_intensity"
)

// Vocabulary maps each field to its allowed literal values.
// analytic_intent is a boolean; it stringifies to "true"/"false" so
// rule conditions can name it like any other field.
var Vocabulary = map[string][]string{
	FieldStorageIntent:   {"memory", "database", "vector", "file"},
	FieldAccessPattern:   {"crud", "query", "search", "filter"},
	FieldAnalyticIntent:  {"true", "false"},
	FieldDataType:        {"structured", "numeric", "text", "binary"},
	FieldSearchIntensity: {"none", "low", "high"},
}

// fieldOrder is the canonical iteration order for deterministic output.
var fieldOrder = []string{
	FieldStorageIntent,
	FieldAccessPattern,
	FieldAnalyticIntent,
	FieldDataType,
	FieldSearchIntensity,
}

// Fields returns the field names in canonical order.
func Fields() []string {
	out := make([]string, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

// ValueAllowed reports whether value is a declared literal for field.
func ValueAllowed(field, value string) bool {
	for _, v := range Vocabulary[field] {
		if v == value {
			return true
		}
	}
	return false
}

// Criteria is the classification of one storage request.
type Criteria struct {
	StorageIntent   StorageIntent   `json:"storage_intent" yaml:"storage_intent"`
	AccessPattern   AccessPattern   `json:"access_pattern" yaml:"access_pattern"`
	AnalyticIntent  bool            `json:"analytic_intent" yaml:"analytic_intent"`
	DataType        DataType        `json:"data_type" yaml:"data_type"`
	SearchIntensity SearchIntensity `json:"search_intensity" yaml:"search_intensity"`
}

// SchemaError reports a criteria field holding an undeclared value.
type SchemaError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *SchemaError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("criteria: unknown field %q", e.Field)
	}
	return fmt.Sprintf("criteria: field %q has undeclared value %q (must be one of: %s)",
		e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// FieldValue returns the string form of the named field.
func (c Criteria) FieldValue(field string) (string, bool) {
	switch field {
	case FieldStorageIntent:
		return string(c.StorageIntent), true
	case FieldAccessPattern:
		return string(c.AccessPattern), true
	case FieldAnalyticIntent:
		return strconv.FormatBool(c.AnalyticIntent), true
	case FieldDataType:
		return string(c.DataType), true
	case FieldSearchIntensity:
		return string(c.SearchIntensity), true
	}
	return "", false
}

// Validate checks every field against the vocabulary.
// It returns *SchemaError on the first undeclared value.
func (c Criteria) Validate() error {
	for _, field := range fieldOrder {
		value, _ := c.FieldValue(field)
		if !ValueAllowed(field, value) {
			allowed := make([]string, len(Vocabulary[field]))
			copy(allowed, Vocabulary[field])
			return &SchemaError{Field: field, Value: value, Allowed: allowed}
		}
	}
	return nil
}

// FromMap builds Criteria from field->value strings, validating as it goes.
// Unknown fields and undeclared values both produce *SchemaError.
func FromMap(values map[string]string) (Criteria, error) {
	var c Criteria
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, field := range keys {
		value := values[field]
		allowed, known := Vocabulary[field]
		if !known {
			return Criteria{}, &SchemaError{Field: field, Value: value}
		}
		if !ValueAllowed(field, value) {
			return Criteria{}, &SchemaError{Field: field, Value: value, Allowed: allowed}
		}
		switch field {
		case FieldStorageIntent:
			c.StorageIntent = StorageIntent(value)
		case FieldAccessPattern:
			c.AccessPattern = AccessPattern(value)
		case FieldAnalyticIntent:
			c.AnalyticIntent = value == "true"
		case FieldDataType:
			c.DataType = DataType(value)
		case FieldSearchIntensity:
			c.SearchIntensity = SearchIntensity(value)
		}
	}
	if err := c.Validate(); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

// String renders the criteria as field=value pairs in canonical order.
func (c Criteria) String() string {
	parts := make([]string, 0, len(fieldOrder))
	for _, field := range fieldOrder {
		value, _ := c.FieldValue(field)
		parts = append(parts, field+"="+value)
	}
	return strings.Join(parts, " ")
}
