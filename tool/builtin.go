package tool

// Builtins returns the tools every agent carries regardless of configuration.
// web_search is not included since it needs a provider key.
func Builtins(fileOpts []FileOption, httpOpts ...HTTPOption) []*Tool {
	tools := FileTools(fileOpts...)
	tools = append(tools, RunCommand(fileOpts...), ReadWebpage(httpOpts...))
	return tools
}
