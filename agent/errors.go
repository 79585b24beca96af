package agent

import (
	"errors"
	"fmt"
)

// ErrDenied is reported on the tool_result event and replayed to the model
// when a gated call is not approved.
var ErrDenied = errors.New("User denied")

// BlockedError rejects a shell command containing a blocked pattern.
type BlockedError struct {
	Pattern string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("Blocked: command contains '%s'", e.Pattern)
}
