package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/9v2/pyclaw"
	"github.com/google/uuid"
)

// DefaultApprovalTimeout is how long a broker waits before denying.
const DefaultApprovalTimeout = 5 * time.Minute

// ApprovalBroker turns asynchronous user decisions into a ConfirmFunc. The
// gateway is told about each pending call through the submit callback and
// later reports the user's answer with Approve or Reject.
//
// Usage:
//
//	broker := agent.NewApprovalBroker(agent.WithOnSubmit(
//	    func(ctx context.Context, call pyclaw.FunctionCall) error {
//	        return sendApproveDenyButtons(call.ID, call.Name, call.Args)
//	    },
//	))
//	a.SetConfirmCallback(broker.Confirm)
//
//	// in the button handler
//	broker.Approve(callID)
type ApprovalBroker struct {
	mu       sync.Mutex
	pending  map[string]chan bool
	timeout  time.Duration
	onSubmit func(ctx context.Context, call pyclaw.FunctionCall) error
}

// ApprovalBrokerOption configures an ApprovalBroker.
type ApprovalBrokerOption func(*ApprovalBroker)

// WithApprovalTimeout sets how long to wait for a decision.
func WithApprovalTimeout(d time.Duration) ApprovalBrokerOption {
	return func(b *ApprovalBroker) {
		b.timeout = d
	}
}

// WithOnSubmit sets the callback that presents a pending call to the user.
// When it fails the call is denied.
func WithOnSubmit(fn func(ctx context.Context, call pyclaw.FunctionCall) error) ApprovalBrokerOption {
	return func(b *ApprovalBroker) {
		b.onSubmit = fn
	}
}

// NewApprovalBroker creates a broker.
func NewApprovalBroker(opts ...ApprovalBrokerOption) *ApprovalBroker {
	b := &ApprovalBroker{
		pending: make(map[string]chan bool),
		timeout: DefaultApprovalTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Confirm registers call as pending and blocks until a decision arrives,
// the timeout passes or ctx is done. Only an explicit approval returns true.
// Calls without an id are given one before submission.
func (b *ApprovalBroker) Confirm(ctx context.Context, call pyclaw.FunctionCall) bool {
	if call.ID == "" {
		call.ID = uuid.NewString()
	}
	ch := make(chan bool, 1)

	b.mu.Lock()
	b.pending[call.ID] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, call.ID)
		b.mu.Unlock()
	}()

	if b.onSubmit != nil {
		if err := b.onSubmit(ctx, call); err != nil {
			return false
		}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	select {
	case approved := <-ch:
		return approved
	case <-timeoutCtx.Done():
		return false
	}
}

// Decide routes a decision to the pending call with the given id.
func (b *ApprovalBroker) Decide(callID string, approved bool) error {
	b.mu.Lock()
	ch, ok := b.pending[callID]
	b.mu.Unlock()

	if !ok {
		return fmt.Errorf("no pending approval for tool call %q", callID)
	}

	// The first decision wins.
	select {
	case ch <- approved:
	default:
	}
	return nil
}

// Approve approves a pending call.
func (b *ApprovalBroker) Approve(callID string) error {
	return b.Decide(callID, true)
}

// Reject denies a pending call.
func (b *ApprovalBroker) Reject(callID string) error {
	return b.Decide(callID, false)
}

// RejectAll denies every pending call and returns how many were waiting.
func (b *ApprovalBroker) RejectAll() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.pending {
		select {
		case ch <- false:
		default:
		}
	}
	return len(b.pending)
}

// PendingCount returns the number of calls awaiting a decision.
func (b *ApprovalBroker) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// HasPending reports whether any call awaits a decision.
func (b *ApprovalBroker) HasPending() bool {
	return b.PendingCount() > 0
}
