package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	// compiled caches schemas by their raw text. A nil entry marks a schema
	// that does not describe an object and is not checked.
	compiled sync.Map

	printer = message.NewPrinter(language.English)
)

// Validate checks args against a raw object schema. Required fields must be
// present and non-null, values must match their declared type, enum and
// range, and keys not declared under properties are rejected. Null values
// count as absent. An empty schema accepts anything. Failures wrap
// ErrInvalidArguments.
func Validate(raw json.RawMessage, args map[string]any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	sch, err := compile(raw)
	if err != nil {
		return &ValidationError{Message: err.Error(), Err: ErrInvalidArguments}
	}
	if sch == nil {
		return nil
	}

	inst, err := instance(args)
	if err != nil {
		return &ValidationError{Message: err.Error(), Err: ErrInvalidArguments}
	}
	if err := sch.Validate(inst); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return convert(verr)
		}
		return &ValidationError{Message: err.Error(), Err: ErrInvalidArguments}
	}
	return nil
}

func compile(raw json.RawMessage) (*jsonschema.Schema, error) {
	key := string(raw)
	if v, ok := compiled.Load(key); ok {
		return v.(*jsonschema.Schema), nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, errors.New("schema: parameters must be a JSON object")
	}
	var sch *jsonschema.Schema
	if t, _ := obj["type"].(string); t == "" || t == "object" {
		closeObjects(obj)
		c := jsonschema.NewCompiler()
		if err := c.AddResource("args.json", obj); err != nil {
			return nil, err
		}
		if sch, err = c.Compile("args.json"); err != nil {
			return nil, err
		}
	}
	compiled.Store(key, sch)
	return sch, nil
}

// closeObjects rejects undeclared keys on every object that declares
// properties, unless the schema says otherwise.
func closeObjects(v any) {
	obj, ok := v.(map[string]any)
	if !ok {
		return
	}
	if props, ok := obj["properties"].(map[string]any); ok && len(props) > 0 {
		if _, set := obj["additionalProperties"]; !set {
			obj["additionalProperties"] = false
		}
		for _, p := range props {
			closeObjects(p)
		}
	}
	closeObjects(obj["items"])
}

// instance converts args to the library's JSON value form, with nulls
// inside objects removed.
func instance(args map[string]any) (any, error) {
	if args == nil {
		args = map[string]any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	dropNulls(v)
	return v, nil
}

func dropNulls(v any) {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			if e == nil {
				delete(x, k)
				continue
			}
			dropNulls(e)
		}
	case []any:
		for _, e := range x {
			dropNulls(e)
		}
	}
}

// convert reports the first leaf failure, naming the offending field.
func convert(e *jsonschema.ValidationError) *ValidationError {
	leaf := e
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	loc := slices.Clone(leaf.InstanceLocation)
	msg := leaf.ErrorKind.LocalizedString(printer)
	switch k := leaf.ErrorKind.(type) {
	case *kind.Required:
		loc = append(loc, k.Missing[0])
		msg = "missing required field"
	case *kind.AdditionalProperties:
		loc = append(loc, k.Properties[0])
		msg = "unknown field"
	}
	return &ValidationError{Field: fieldPath(loc), Message: msg, Err: ErrInvalidArguments}
}

// fieldPath renders ["opts", "tags", "1"] as opts.tags[1].
func fieldPath(loc []string) string {
	var sb strings.Builder
	for _, p := range loc {
		if _, err := strconv.Atoi(p); err == nil && sb.Len() > 0 {
			sb.WriteString("[" + p + "]")
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(p)
	}
	return sb.String()
}
