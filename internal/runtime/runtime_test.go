package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"modelkit/internal/coerce"
	"modelkit/internal/command"
)

type stubHandle struct{ label string }

func echoSetup(handle any) SetupFunc {
	return func(ctx context.Context, opts Options) (any, error) { return handle, nil }
}

// newReadyRuntime builds a runtime with the given specs registered and a stub
// handle set up.
func newReadyRuntime(t *testing.T, cfg Config, specs ...command.Spec) *Runtime {
	t.Helper()
	reg := command.NewRegistry()
	for _, s := range specs {
		if err := reg.Register(s); err != nil {
			t.Fatalf("register %s: %v", s.Name, err)
		}
	}
	rt := New(reg, cfg)
	if err := rt.Setup(context.Background(), echoSetup(&stubHandle{label: "tabby, tabby cat"}), Options{"checkpoint": "stub.ckpt"}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return rt
}

func labelSpec(calls *atomic.Int64) command.Spec {
	return command.Spec{
		Name:    "classify",
		Inputs:  map[string]coerce.Field{"text": coerce.Text()},
		Outputs: map[string]coerce.Field{"label": coerce.Text()},
		Handler: func(ctx context.Context, handle any, in command.Values) (command.Values, error) {
			if calls != nil {
				calls.Add(1)
			}
			h := handle.(*stubHandle)
			return command.Values{"label": h.label}, nil
		},
	}
}

func TestSetupProducesSharedHandle(t *testing.T) {
	rt := newReadyRuntime(t, Config{}, labelSpec(nil))
	if !rt.Ready() {
		t.Fatal("runtime should be ready after setup")
	}
	out, err := rt.Invoke(context.Background(), "classify", map[string]any{"text": "x"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out["label"] != "tabby, tabby cat" {
		t.Fatalf("unexpected output: %v", out)
	}
	st := rt.Status()
	if st.State != "ready" || st.Checkpoint != "stub.ckpt" || st.InvocationsTotal != 1 {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestSetupFailureIsFatal(t *testing.T) {
	reg := command.NewRegistry()
	rt := New(reg, Config{})
	err := rt.Setup(context.Background(), func(ctx context.Context, opts Options) (any, error) {
		return nil, errors.New("weights missing")
	}, nil)
	if !IsSetup(err) {
		t.Fatalf("expected setup error, got %v", err)
	}
	if rt.Ready() {
		t.Fatal("runtime must not be ready after failed setup")
	}
	if _, err := rt.Invoke(context.Background(), "classify", nil); err == nil {
		t.Fatal("invoke should fail after failed setup")
	}
	if st := rt.Status(); st.State != "error" || st.Error == "" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestSetupRunsOnce(t *testing.T) {
	rt := newReadyRuntime(t, Config{}, labelSpec(nil))
	if err := rt.Setup(context.Background(), echoSetup(nil), nil); !IsSetup(err) {
		t.Fatalf("expected setup error on second run, got %v", err)
	}
}

func TestInvokeUnknownCommand(t *testing.T) {
	rt := newReadyRuntime(t, Config{}, labelSpec(nil))
	_, err := rt.Invoke(context.Background(), "nope", map[string]any{})
	if !command.IsUnknownCommand(err) {
		t.Fatalf("expected unknown command, got %v", err)
	}
}

func TestInvokeBeforeSetup(t *testing.T) {
	reg := command.NewRegistry()
	if err := reg.Register(labelSpec(nil)); err != nil {
		t.Fatalf("register: %v", err)
	}
	rt := New(reg, Config{})
	_, err := rt.Invoke(context.Background(), "classify", map[string]any{"text": "x"})
	if !IsNotReady(err) {
		t.Fatalf("expected not ready, got %v", err)
	}
}

func TestMissingInputSkipsHandler(t *testing.T) {
	var calls atomic.Int64
	rt := newReadyRuntime(t, Config{}, labelSpec(&calls))
	_, err := rt.Invoke(context.Background(), "classify", map[string]any{})
	if !coerce.IsInvalidInput(err) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("handler ran %d times on decode failure", calls.Load())
	}
}

func TestStrictKeysRejectsUndeclared(t *testing.T) {
	rt := newReadyRuntime(t, Config{StrictKeys: true}, labelSpec(nil))
	_, err := rt.Invoke(context.Background(), "classify", map[string]any{"text": "x", "extra": 1.0})
	if !coerce.IsInvalidInput(err) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestLenientKeysIgnoresUndeclared(t *testing.T) {
	rt := newReadyRuntime(t, Config{}, labelSpec(nil))
	if _, err := rt.Invoke(context.Background(), "classify", map[string]any{"text": "x", "extra": 1.0}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
}

func TestHandlerErrorIsClassified(t *testing.T) {
	spec := labelSpec(nil)
	spec.Handler = func(ctx context.Context, handle any, in command.Values) (command.Values, error) {
		return nil, errors.New("inference backend exploded")
	}
	rt := newReadyRuntime(t, Config{}, spec)
	_, err := rt.Invoke(context.Background(), "classify", map[string]any{"text": "x"})
	if !IsHandlerRuntime(err) {
		t.Fatalf("expected handler runtime error, got %v", err)
	}
	if st := rt.Status(); st.FailuresTotal != 1 {
		t.Fatalf("failures=%d", st.FailuresTotal)
	}
}

func TestHandlerPanicDoesNotKillRuntime(t *testing.T) {
	boom := true
	spec := labelSpec(nil)
	spec.Handler = func(ctx context.Context, handle any, in command.Values) (command.Values, error) {
		if boom {
			panic("model blew up")
		}
		return command.Values{"label": "ok"}, nil
	}
	rt := newReadyRuntime(t, Config{}, spec)
	_, err := rt.Invoke(context.Background(), "classify", map[string]any{"text": "x"})
	if !IsHandlerRuntime(err) {
		t.Fatalf("expected handler runtime error, got %v", err)
	}
	boom = false
	if _, err := rt.Invoke(context.Background(), "classify", map[string]any{"text": "x"}); err != nil {
		t.Fatalf("runtime unusable after panic: %v", err)
	}
}

func TestMissingDeclaredOutput(t *testing.T) {
	spec := labelSpec(nil)
	spec.Handler = func(ctx context.Context, handle any, in command.Values) (command.Values, error) {
		return command.Values{}, nil
	}
	rt := newReadyRuntime(t, Config{}, spec)
	_, err := rt.Invoke(context.Background(), "classify", map[string]any{"text": "x"})
	if !coerce.IsSerialization(err) {
		t.Fatalf("expected serialization error, got %v", err)
	}
}

func TestUndeclaredOutputIsModelBug(t *testing.T) {
	spec := labelSpec(nil)
	spec.Handler = func(ctx context.Context, handle any, in command.Values) (command.Values, error) {
		return command.Values{"label": "ok", "debug": "leak"}, nil
	}
	rt := newReadyRuntime(t, Config{}, spec)
	_, err := rt.Invoke(context.Background(), "classify", map[string]any{"text": "x"})
	if !coerce.IsSerialization(err) {
		t.Fatalf("expected serialization error, got %v", err)
	}
}

func TestSerializeGatesConcurrentInvocations(t *testing.T) {
	var inHandler atomic.Int64
	var overlap atomic.Bool
	spec := labelSpec(nil)
	spec.Handler = func(ctx context.Context, handle any, in command.Values) (command.Values, error) {
		if inHandler.Add(1) > 1 {
			overlap.Store(true)
		}
		time.Sleep(10 * time.Millisecond)
		inHandler.Add(-1)
		return command.Values{"label": "ok"}, nil
	}
	rt := newReadyRuntime(t, Config{Serialize: true, MaxQueueDepth: 8}, spec)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := rt.Invoke(context.Background(), "classify", map[string]any{"text": "x"}); err != nil {
				t.Errorf("invoke: %v", err)
			}
		}()
	}
	wg.Wait()
	if overlap.Load() {
		t.Fatal("handler invocations overlapped despite serialize")
	}
}

func TestQueueOverflowReturnsTooBusy(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{}, 1)
	spec := labelSpec(nil)
	spec.Handler = func(ctx context.Context, handle any, in command.Values) (command.Values, error) {
		started <- struct{}{}
		<-block
		return command.Values{"label": "ok"}, nil
	}
	rt := newReadyRuntime(t, Config{Serialize: true, MaxQueueDepth: 1}, spec)

	done := make(chan error, 1)
	go func() {
		_, err := rt.Invoke(context.Background(), "classify", map[string]any{"text": "x"})
		done <- err
	}()
	<-started

	_, err := rt.Invoke(context.Background(), "classify", map[string]any{"text": "x"})
	if !IsTooBusy(err) {
		t.Fatalf("expected too busy, got %v", err)
	}
	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first invoke: %v", err)
	}
}

func TestInvokeDecodeOrderIsDeterministic(t *testing.T) {
	spec := command.Spec{
		Name: "multi",
		Inputs: map[string]coerce.Field{
			"alpha": coerce.Number(),
			"beta":  coerce.Number(),
		},
		Outputs: map[string]coerce.Field{"sum": coerce.Number()},
		Handler: func(ctx context.Context, handle any, in command.Values) (command.Values, error) {
			return command.Values{"sum": in["alpha"].(float64) + in["beta"].(float64)}, nil
		},
	}
	rt := newReadyRuntime(t, Config{}, spec)
	// both fields invalid: the reported field must always be the first in order
	for i := 0; i < 5; i++ {
		_, err := rt.Invoke(context.Background(), "multi", map[string]any{"alpha": "x", "beta": "y"})
		if err == nil || fmt.Sprintf("%v", err) != `field "alpha": expected number, got string` {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}
