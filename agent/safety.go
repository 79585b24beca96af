package agent

import (
	"fmt"
	"strings"
)

// SafeCommands are read-only commands that run without confirmation. A
// command matches when it equals an entry or starts with the entry and a
// space.
var SafeCommands = []string{
	"ls", "cat", "grep", "find", "pwd", "echo", "print", "printf",
	"whoami", "date", "uptime", "df", "du", "free", "top", "ps",
	"head", "tail", "wc", "sort", "uniq", "awk", "sed",
	"git status", "git log", "git diff", "git show",
	"stat", "file", "readlink", "whereis", "which",
}

// IsSafeCommand reports whether cmd matches a SafeCommands entry.
func IsSafeCommand(cmd string) bool {
	cmd = strings.TrimSpace(cmd)
	for _, safe := range SafeCommands {
		if cmd == safe || strings.HasPrefix(cmd, safe+" ") {
			return true
		}
	}
	return false
}

// BlockedPattern returns the first pattern contained in cmd, or "".
func BlockedPattern(cmd string, patterns []string) string {
	cmd = strings.TrimSpace(cmd)
	for _, p := range patterns {
		if p != "" && strings.Contains(cmd, p) {
			return p
		}
	}
	return ""
}

func commandArg(args map[string]any) string {
	switch v := args["command"].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
