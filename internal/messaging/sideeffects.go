package messaging

import (
	"context"
	"fmt"
)

// SideEffectOutcome is the result of a step whose failure must not fail the
// send. Err is logged and otherwise discarded.
type SideEffectOutcome struct {
	Attempted bool
	Err       error
}

// Delivered reports whether the step ran without error.
func (o SideEffectOutcome) Delivered() bool {
	return o.Attempted && o.Err == nil
}

// SideEffects collects the outcomes of the steps after persistence.
type SideEffects struct {
	Broadcast SideEffectOutcome
	Notify    SideEffectOutcome
}

// isolate runs fn so that neither its error nor a panic escapes.
func isolate(ctx context.Context, fn func(context.Context) error) (out SideEffectOutcome) {
	out.Attempted = true
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("panic: %v", r)
		}
	}()
	out.Err = fn(ctx)
	return out
}
