package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Mode tells whether an operation mutates remote state.
type Mode string

const (
	// ModeQuery operations are side-effect free and safe to cache or de-duplicate.
	ModeQuery Mode = "query"
	// ModeCall operations mutate remote state once per invocation.
	ModeCall Mode = "call"
)

// Descriptor declares one remote operation.
type Descriptor struct {
	Name    string
	Args    []Type
	Returns []Type
	Mode    Mode
}

// Func builds a descriptor.
func Func(name string, args, returns []Type, mode Mode) Descriptor {
	return Descriptor{Name: name, Args: args, Returns: returns, Mode: mode}
}

// Types is shorthand for an ordered list of tags.
func Types(ts ...Type) []Type { return ts }

func (d Descriptor) clone() Descriptor {
	d.Args = slices.Clone(d.Args)
	d.Returns = slices.Clone(d.Returns)
	return d
}

// argsSchema builds the positional tuple schema for the descriptor's arguments.
func (d Descriptor) argsSchema() map[string]any {
	schema := map[string]any{
		"$schema":  draft2020,
		"type":     "array",
		"items":    false,
		"minItems": len(d.Args),
	}
	// prefixItems must not be empty, so zero-argument operations rely on
	// items=false alone.
	if len(d.Args) > 0 {
		items := make([]any, len(d.Args))
		for i, t := range d.Args {
			items[i] = t.schema
		}
		schema["prefixItems"] = items
	}
	return schema
}

// resultSchema builds the schema for the single return value, or nil when the
// operation returns nothing.
func (d Descriptor) resultSchema() map[string]any {
	if len(d.Returns) == 0 {
		return nil
	}
	schema := make(map[string]any, len(d.Returns[0].schema)+1)
	for k, v := range d.Returns[0].schema {
		schema[k] = v
	}
	schema["$schema"] = draft2020
	return schema
}

const draft2020 = "https://json-schema.org/draft/2020-12/schema"

type operation struct {
	desc   Descriptor
	args   *jsonschema.Schema
	result *jsonschema.Schema
}

// Service is an immutable set of operation descriptors.
type Service struct {
	name string
	ops  map[string]*operation
}

// NewService declares a service. Operation names must be unique.
func NewService(name string, descs ...Descriptor) (*Service, error) {
	s := &Service{name: name, ops: make(map[string]*operation, len(descs))}
	for _, d := range descs {
		if d.Name == "" {
			return nil, fmt.Errorf("service %s: operation without name", name)
		}
		if _, ok := s.ops[d.Name]; ok {
			return nil, fmt.Errorf("service %s: duplicate operation %s", name, d.Name)
		}
		if d.Mode != ModeQuery && d.Mode != ModeCall {
			return nil, fmt.Errorf("service %s: operation %s has invalid mode %q", name, d.Name, d.Mode)
		}
		args, err := compileSchema(d.argsSchema())
		if err != nil {
			return nil, fmt.Errorf("service %s: operation %s: %w", name, d.Name, err)
		}
		op := &operation{desc: d.clone(), args: args}
		if rs := d.resultSchema(); rs != nil {
			if op.result, err = compileSchema(rs); err != nil {
				return nil, fmt.Errorf("service %s: operation %s: result: %w", name, d.Name, err)
			}
		}
		s.ops[d.Name] = op
	}
	return s, nil
}

// MustService is like NewService but panics on an invalid declaration.
func MustService(name string, descs ...Descriptor) *Service {
	s, err := NewService(name, descs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the service name used as the wire method prefix.
func (s *Service) Name() string { return s.name }

// Lookup returns the descriptor for an operation.
func (s *Service) Lookup(name string) (Descriptor, bool) {
	op, ok := s.ops[name]
	if !ok {
		return Descriptor{}, false
	}
	return op.desc.clone(), true
}

// Operations returns all descriptors sorted by name.
func (s *Service) Operations() []Descriptor {
	names := make([]string, 0, len(s.ops))
	for name := range s.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Descriptor, len(names))
	for i, name := range names {
		out[i] = s.ops[name].desc.clone()
	}
	return out
}

// EncodeArgs encodes args as a positional JSON array and checks it against the
// operation's declared shape.
func (s *Service) EncodeArgs(name string, args ...any) (json.RawMessage, error) {
	op, ok := s.ops[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownOperation, s.name, name)
	}
	if args == nil {
		args = []any{}
	}
	params, err := json.Marshal(args)
	if err != nil {
		return nil, &SchemaError{Operation: name, Reason: fmt.Sprintf("encode arguments: %v", err)}
	}
	if err := op.check(params); err != nil {
		return nil, err
	}
	return params, nil
}

// CheckParams checks already-encoded positional params against the operation's
// declared shape. Empty params are treated as an empty tuple.
func (s *Service) CheckParams(name string, params json.RawMessage) error {
	op, ok := s.ops[name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownOperation, s.name, name)
	}
	if len(bytes.TrimSpace(params)) == 0 {
		params = json.RawMessage("[]")
	}
	return op.check(params)
}

func (op *operation) check(params json.RawMessage) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(params))
	if err != nil {
		return &SchemaError{Operation: op.desc.Name, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if err := op.args.Validate(doc); err != nil {
		return &SchemaError{Operation: op.desc.Name, Reason: err.Error()}
	}
	return nil
}

// CheckResult checks a raw result against the operation's declared return
// shape. Operations without a return value accept only null or an empty body.
func (s *Service) CheckResult(name string, result json.RawMessage) error {
	op, ok := s.ops[name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownOperation, s.name, name)
	}
	return op.checkResult(result)
}

var errResultShape = errors.New("result does not match declared shape")

func (op *operation) checkResult(result json.RawMessage) error {
	trimmed := bytes.TrimSpace(result)
	if op.result == nil {
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			return nil
		}
		return fmt.Errorf("%w: unexpected value for operation without result", errResultShape)
	}
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty result", errResultShape)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(trimmed))
	if err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", errResultShape, err)
	}
	if err := op.result.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", errResultShape, err)
	}
	return nil
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema JSON: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	sch, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return sch, nil
}
