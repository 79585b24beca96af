// Package agent runs the assistant's multi-round tool-calling loop.
//
// Each turn adds the user's message to the session, then alternates between
// streaming a model response and executing the tool calls it requests until
// the model answers without calls or the round limit is reached. Everything
// a turn does is reported on a lazy event stream, which runs the turn as it
// is ranged over:
//
//	a := agent.New(cfg, provider, registry,
//	    agent.WithIdentity(store),
//	    agent.WithSkills(skills),
//	)
//	for e := range a.Chat(ctx, "what's in my home directory?") {
//	    switch e.Type {
//	    case event.Text:
//	        fmt.Print(e.Text)
//	    case event.ToolCall:
//	        fmt.Printf("⚡ %s\n", e.Name)
//	    case event.Error:
//	        fmt.Println("error:", e.Message)
//	    }
//	}
//
// # Safety
//
// Tools flagged with tool.RequiresConfirmation emit a confirm event and wait
// on the ConfirmFunc before running; without one they are denied. The gate is
// off entirely when safety.confirm_destructive is false. Shell commands that
// contain a safety.blocked_patterns entry are rejected before the gate, and
// commands starting with a SafeCommands entry skip it.
//
// Gateways that confirm asynchronously, such as a chat bot with inline
// buttons, can use an ApprovalBroker as the ConfirmFunc.
//
// # Cancellation
//
// Cancel stops the current turn at the next round boundary with a
// "⛔ stopped." text event followed by done. A Cancel between Chat and the
// first receive stops the turn before the model is called. A tool already
// running is not interrupted.
package agent
