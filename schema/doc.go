// Package schema builds and enforces the JSON Schema subset used for tool
// parameters.
//
// Schemas are built with fluent constructors:
//
//	params := schema.Object().
//		Field("path", schema.String().Desc("File path").Required()).
//		Field("mode", schema.String().Enum("append", "overwrite")).
//		MustBuild()
//
// or derived from a struct with tags:
//
//	type args struct {
//		Path string `json:"path" desc:"File path" required:"true"`
//	}
//	params := schema.For[args]()
//
// Validate checks a model-supplied argument map against a schema before a
// tool runs, returning a *ValidationError that wraps ErrInvalidArguments.
package schema
