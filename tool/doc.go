// Package tool defines the tool contract the agent exposes to models and the
// registry that executes calls against it.
//
// A Tool pairs a name, description and JSON-Schema parameter object with a
// Handler. Tools are most easily built with Func, which derives the schema
// from a struct with json, desc, enum and required tags:
//
//	type weatherArgs struct {
//	    Location string `json:"location" desc:"City name" required:"true"`
//	    Unit     string `json:"unit" enum:"celsius,fahrenheit"`
//	}
//
//	reg := tool.NewRegistry().Add(
//	    tool.Func("get_weather", "Get current weather",
//	        func(ctx context.Context, a weatherArgs) (any, error) {
//	            return "sunny in " + a.Location, nil
//	        }),
//	)
//
// Registry.Execute validates arguments against the schema, runs the handler
// under a timeout and converts every failure into a typed error on the
// Result, so a misbehaving tool can never take the agent loop down.
//
// The package also ships the builtin tool set: file access, shell execution,
// webpage reading and web search.
package tool
