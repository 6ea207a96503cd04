package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ConfirmState is a step of the confirmation flow for destructive actions.
type ConfirmState string

const (
	ConfirmIdle      ConfirmState = "idle"
	ConfirmRequested ConfirmState = "requested"
	ConfirmConfirmed ConfirmState = "confirmed"
	ConfirmExecuting ConfirmState = "executing"
	ConfirmDone      ConfirmState = "done"
	ConfirmFailed    ConfirmState = "failed"
)

// ErrInvalidTransition is returned for a step that is not allowed from the
// current state.
var ErrInvalidTransition = errors.New("listing: invalid confirmation transition")

// ConfirmAction is the irreversible operation guarded by a Confirmation.
type ConfirmAction func(ctx context.Context) error

// TransitionFunc observes every state change.
type TransitionFunc func(from, to ConfirmState)

// Confirmation requires an explicit confirm step before running its action:
// requested, confirmed, executing, then done or failed.
type Confirmation struct {
	mu           sync.Mutex
	prompt       string
	action       ConfirmAction
	state        ConfirmState
	err          error
	onTransition TransitionFunc
}

// NewConfirmation guards action behind prompt.
func NewConfirmation(prompt string, action ConfirmAction) *Confirmation {
	return &Confirmation{prompt: prompt, action: action, state: ConfirmIdle}
}

// OnTransition registers an observer.
func (c *Confirmation) OnTransition(fn TransitionFunc) {
	c.mu.Lock()
	c.onTransition = fn
	c.mu.Unlock()
}

// Prompt is the question shown to the operator.
func (c *Confirmation) Prompt() string {
	return c.prompt
}

// State returns the current step.
func (c *Confirmation) State() ConfirmState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the action error after a failed run.
func (c *Confirmation) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Request asks for confirmation. Allowed from idle, done and failed.
func (c *Confirmation) Request() error {
	return c.transition(ConfirmRequested, ConfirmIdle, ConfirmDone, ConfirmFailed)
}

// Confirm accepts a pending request.
func (c *Confirmation) Confirm() error {
	return c.transition(ConfirmConfirmed, ConfirmRequested)
}

// Decline drops a pending or confirmed request without running the action.
func (c *Confirmation) Decline() error {
	return c.transition(ConfirmIdle, ConfirmRequested, ConfirmConfirmed)
}

// Execute runs the action once confirmed.
func (c *Confirmation) Execute(ctx context.Context) error {
	if err := c.transition(ConfirmExecuting, ConfirmConfirmed); err != nil {
		return err
	}
	var err error
	if c.action == nil {
		err = errors.New("listing: confirmation has no action")
	} else {
		err = c.run(ctx)
	}

	c.mu.Lock()
	from := c.state
	c.err = err
	if err != nil {
		c.state = ConfirmFailed
	} else {
		c.state = ConfirmDone
	}
	to := c.state
	observer := c.onTransition
	c.mu.Unlock()
	if observer != nil {
		observer(from, to)
	}
	return err
}

// Reset returns a finished confirmation to idle.
func (c *Confirmation) Reset() error {
	return c.transition(ConfirmIdle, ConfirmDone, ConfirmFailed, ConfirmIdle)
}

func (c *Confirmation) run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listing: confirmed action panicked: %v", r)
		}
	}()
	return c.action(ctx)
}

func (c *Confirmation) transition(to ConfirmState, allowed ...ConfirmState) error {
	c.mu.Lock()
	from := c.state
	ok := false
	for _, state := range allowed {
		if from == state {
			ok = true
			break
		}
	}
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
	}
	c.state = to
	if to == ConfirmRequested || to == ConfirmIdle {
		c.err = nil
	}
	observer := c.onTransition
	c.mu.Unlock()
	if observer != nil {
		observer(from, to)
	}
	return nil
}
