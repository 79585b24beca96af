package schema

import (
	"encoding/json"
	"reflect"
	"strings"
)

// For derives an object schema from a struct type. Property names come from
// json tags; the desc, enum (comma separated) and required:"true" tags add
// constraints. Non-struct types yield an empty object schema.
func For[T any]() json.RawMessage {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return mustBuild(&Node{Type: "object", Properties: map[string]*Node{}})
	}
	return mustBuild(structNode(t))
}

func structNode(t reflect.Type) *Node {
	n := &Node{Type: "object", Properties: map[string]*Node{}}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}

		prop := typeNode(f.Type)
		prop.Description = f.Tag.Get("desc")
		if enum := f.Tag.Get("enum"); enum != "" {
			for _, v := range strings.Split(enum, ",") {
				prop.Enum = append(prop.Enum, strings.TrimSpace(v))
			}
		}
		n.Properties[name] = prop
		if f.Tag.Get("required") == "true" {
			n.Required = append(n.Required, name)
		}
	}
	return n
}

func typeNode(t reflect.Type) *Node {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return &Node{Type: "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Node{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &Node{Type: "number"}
	case reflect.Bool:
		return &Node{Type: "boolean"}
	case reflect.Slice, reflect.Array:
		return &Node{Type: "array", Items: typeNode(t.Elem())}
	case reflect.Struct:
		return structNode(t)
	case reflect.Map:
		return &Node{Type: "object"}
	default:
		return &Node{Type: "string"}
	}
}
