package runtime

import (
	"context"
	"time"
)

// beginInvocation reserves a queue slot and, when serialization is on, the
// single in-flight slot. Returns a release func to be deferred. Transport-level
// acceptance stays concurrent; only the handler call is gated here.
func (rt *Runtime) beginInvocation(ctx context.Context, name string) (func(), error) {
	select {
	case rt.queueCh <- struct{}{}:
		// reserved queue slot
	case <-ctx.Done():
		return func() {}, ctx.Err()
	default:
		return func() {}, tooBusyError{command: name}
	}

	if !rt.serialize {
		return func() { <-rt.queueCh }, nil
	}

	acquired := false
	defer func() {
		if !acquired {
			<-rt.queueCh
		}
	}()
	select {
	case rt.invokeCh <- struct{}{}:
		acquired = true
		return func() { <-rt.invokeCh; <-rt.queueCh }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-time.After(rt.maxWait):
		return func() {}, tooBusyError{command: name}
	}
}
