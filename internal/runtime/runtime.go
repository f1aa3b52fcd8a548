// Package runtime coordinates the one-time model setup and per-request
// command invocation. It owns the opaque model handle produced by setup and
// passes it, read-only, into every handler call. Files by concern:
//
//   - runtime.go: Runtime type, construction, setup barrier, invocation pipeline.
//   - admission.go: bounded queue and optional single-slot invocation gate.
//   - errors.go: error kinds and predicates (IsTooBusy, IsSetup, ...).
//   - status.go: status snapshot for the HTTP layer.
package runtime

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"modelkit/internal/coerce"
	"modelkit/internal/command"
	"modelkit/pkg/types"
)

// Options is the declared configuration mapping handed to setup
// (e.g. {"checkpoint": "/path/to/weights"}).
type Options map[string]string

// SetupFunc runs exactly once before the server starts and produces the
// shared opaque model handle.
type SetupFunc func(ctx context.Context, opts Options) (any, error)

// State represents lifecycle state of the runtime.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultMaxQueueDepth = 32
	defaultMaxWait       = 30 * time.Second
)

// Config holds runtime tunables.
type Config struct {
	MaxQueueDepth int
	MaxWait       time.Duration
	// Serialize forces handler invocations through a single slot for model
	// backends that are not safe for concurrent use.
	Serialize bool
	// StrictKeys rejects request envelopes carrying undeclared fields.
	StrictKeys bool
}

// Runtime glues the frozen command registry to the model handle.
type Runtime struct {
	reg *command.Registry
	log zerolog.Logger

	mu        sync.RWMutex
	state     State
	handle    any
	setupDone bool
	setupDur  time.Duration
	setupErr  string

	checkpoint string
	deploy     *types.DeploySummary
	startTime  time.Time

	serialize  bool
	strictKeys bool
	maxWait    time.Duration
	queueCh    chan struct{}
	invokeCh   chan struct{}

	invocations atomic.Uint64
	failures    atomic.Uint64
	inflight    atomic.Int64
}

// New constructs a Runtime in the loading state. The registry may still be
// mutating; Setup freezes it.
func New(reg *command.Registry, cfg Config) *Runtime {
	depth := cfg.MaxQueueDepth
	if depth <= 0 {
		depth = defaultMaxQueueDepth
	}
	wait := cfg.MaxWait
	if wait <= 0 {
		wait = defaultMaxWait
	}
	return &Runtime{
		reg:        reg,
		log:        zerolog.Nop(),
		state:      StateLoading,
		serialize:  cfg.Serialize,
		strictKeys: cfg.StrictKeys,
		maxWait:    wait,
		queueCh:    make(chan struct{}, depth),
		invokeCh:   make(chan struct{}, 1),
		startTime:  time.Now(),
	}
}

// SetLogger installs a structured logger. Nop by default.
func (rt *Runtime) SetLogger(l zerolog.Logger) { rt.log = l }

// Setup freezes the registry and runs fn exactly once. A second call, or a
// setup failure, returns a fatal setup error; the caller must not start
// accepting connections after a failure.
func (rt *Runtime) Setup(ctx context.Context, fn SetupFunc, opts Options) error {
	rt.mu.Lock()
	if rt.setupDone {
		rt.mu.Unlock()
		return setupError{err: fmt.Errorf("setup already ran")}
	}
	rt.setupDone = true
	rt.mu.Unlock()

	rt.reg.Freeze()
	start := time.Now()
	handle, err := fn(ctx, opts)
	if err != nil {
		rt.mu.Lock()
		rt.state = StateError
		rt.setupErr = err.Error()
		rt.mu.Unlock()
		return setupError{err: err}
	}
	rt.mu.Lock()
	rt.handle = handle
	rt.checkpoint = opts["checkpoint"]
	rt.setupDur = time.Since(start)
	rt.state = StateReady
	rt.mu.Unlock()
	rt.log.Info().Dur("setup", rt.setupDur).Int("commands", rt.reg.Len()).Msg("model setup complete")
	return nil
}

// Ready reports whether setup completed successfully.
func (rt *Runtime) Ready() bool {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.state == StateReady
}

// Invoke runs one command against the shared model handle:
// resolve, decode inputs, invoke handler, encode outputs.
// Wire maps in and out; all failures come back as classified errors.
func (rt *Runtime) Invoke(ctx context.Context, name string, wire map[string]any) (map[string]any, error) {
	spec, err := rt.reg.Resolve(name)
	if err != nil {
		return nil, err
	}
	rt.mu.RLock()
	ready := rt.state == StateReady
	handle := rt.handle
	rt.mu.RUnlock()
	if !ready {
		return nil, notReadyError{}
	}

	if rt.strictKeys {
		for k := range wire {
			if _, declared := spec.Inputs[k]; !declared {
				return nil, coerce.ErrInvalidInput(k, "undeclared field")
			}
		}
	}

	in := make(command.Values, len(spec.Inputs))
	for _, fname := range sortedFields(spec.Inputs) {
		domain, err := coerce.Decode(fname, spec.Inputs[fname], wire[fname])
		if err != nil {
			return nil, err
		}
		in[fname] = domain
	}

	release, err := rt.beginInvocation(ctx, name)
	if err != nil {
		return nil, err
	}
	defer release()

	rt.invocations.Add(1)
	rt.inflight.Add(1)
	out, err := rt.runHandler(ctx, spec, handle, in)
	rt.inflight.Add(-1)
	if err != nil {
		rt.failures.Add(1)
		return nil, err
	}

	resp := make(map[string]any, len(spec.Outputs))
	for _, fname := range sortedFields(spec.Outputs) {
		domain, ok := out[fname]
		if !ok {
			rt.failures.Add(1)
			return nil, coerce.ErrSerialization(fname, "handler did not produce declared output")
		}
		enc, err := coerce.Encode(fname, spec.Outputs[fname], domain)
		if err != nil {
			rt.failures.Add(1)
			rt.log.Error().Err(err).Str("command", name).Msg("output not representable; model bug")
			return nil, err
		}
		resp[fname] = enc
	}
	for k := range out {
		if _, declared := spec.Outputs[k]; !declared {
			rt.failures.Add(1)
			return nil, coerce.ErrSerialization(k, "handler produced undeclared output")
		}
	}
	return resp, nil
}

// runHandler invokes the handler with panic containment. A panic is a model
// bug, not a reason to kill the process.
func (rt *Runtime) runHandler(ctx context.Context, spec command.Spec, handle any, in command.Values) (out command.Values, err error) {
	defer func() {
		if r := recover(); r != nil {
			rt.log.Error().Interface("panic", r).Str("command", spec.Name).Msg("handler panicked")
			out, err = nil, handlerError{command: spec.Name, err: fmt.Errorf("handler panic: %v", r)}
		}
	}()
	out, err = spec.Handler(ctx, handle, in)
	if err != nil {
		if coerce.IsInvalidInput(err) || coerce.IsSerialization(err) {
			return nil, err
		}
		return nil, handlerError{command: spec.Name, err: err}
	}
	return out, nil
}

func sortedFields(schema map[string]coerce.Field) []string {
	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
