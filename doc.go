// Package pyclaw defines the shared content model of the assistant: parts
// and contents exchanged with model backends, tool declarations, the
// streaming Provider contract, and categorized backend errors.
//
// # Content
//
// Conversation content uses the function-calling shape most backends accept:
// a [Content] has a role ("user" or "model") and ordered [Part] values, each
// carrying text, a [FunctionCall], a [FunctionResponse] or inline image data.
//
//	parts := []pyclaw.Part{
//	    pyclaw.TextPart("let me look"),
//	    pyclaw.CallPart("read_file", "call-1", map[string]any{"path": "notes.md"}),
//	}
//
// # Providers
//
// A [Provider] streams [Chunk] values. Each chunk either carries model
// content or a terminal error string. Backends live under provider/.
//
// # Errors
//
// Backend failures are wrapped in [Error] with an [ErrorKind] so retry logic
// can tell rate limits from bad credentials:
//
//	if pyclaw.IsTransient(err) {
//	    // retry later
//	}
package pyclaw
