package contract

import "sort"

// Type is a semantic type tag carried by operation descriptors. Each tag owns
// the JSON Schema fragment its wire value must satisfy.
type Type struct {
	name   string
	schema map[string]any
}

// Name returns the tag's display name.
func (t Type) Name() string { return t.name }

// Schema returns the JSON Schema fragment for the tag.
func (t Type) Schema() map[string]any { return t.schema }

func (t Type) String() string { return t.name }

// Primitive tags.
var (
	Text      = Type{name: "text", schema: map[string]any{"type": "string"}}
	Bool      = Type{name: "bool", schema: map[string]any{"type": "boolean"}}
	Float64   = Type{name: "float64", schema: map[string]any{"type": "number"}}
	Nat       = Type{name: "nat", schema: map[string]any{"type": "integer", "minimum": 0}}
	Principal = Type{name: "principal", schema: map[string]any{"type": "string", "minLength": 1}}
	// Blob is an opaque byte sequence, base64 on the wire. Null encodes an empty blob.
	Blob = Type{name: "blob", schema: map[string]any{"type": []any{"string", "null"}}}
)

// Vec returns the tag for an ordered sequence of elem. Null encodes an empty sequence.
func Vec(elem Type) Type {
	return Type{
		name: "vec " + elem.name,
		schema: map[string]any{
			"type":  []any{"array", "null"},
			"items": elem.schema,
		},
	}
}

// Alias renames a tag without changing its shape.
func Alias(name string, t Type) Type {
	return Type{name: name, schema: t.schema}
}

// Fields maps record field names to their tags.
type Fields map[string]Type

// Record returns the tag for a fixed-shape record. Every field is required and
// unknown fields are rejected.
func Record(name string, fields Fields) Type {
	names := make([]string, 0, len(fields))
	props := make(map[string]any, len(fields))
	for field, t := range fields {
		names = append(names, field)
		props[field] = t.schema
	}
	sort.Strings(names)
	required := make([]any, len(names))
	for i, n := range names {
		required[i] = n
	}
	return Type{
		name: name,
		schema: map[string]any{
			"type":                 "object",
			"properties":           props,
			"required":             required,
			"additionalProperties": false,
		},
	}
}
