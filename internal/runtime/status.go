package runtime

import (
	"time"

	"modelkit/pkg/types"
)

// SetDeployInfo attaches the parsed deploy manifest summary echoed by /status.
func (rt *Runtime) SetDeployInfo(d *types.DeploySummary) {
	rt.mu.Lock()
	rt.deploy = d
	rt.mu.Unlock()
}

// Status returns a read-only snapshot for GET /status.
func (rt *Runtime) Status() types.StatusResponse {
	rt.mu.RLock()
	state := rt.state
	checkpoint := rt.checkpoint
	setupDur := rt.setupDur
	setupErr := rt.setupErr
	deployInfo := rt.deploy
	rt.mu.RUnlock()
	return types.StatusResponse{
		State:            string(state),
		Checkpoint:       checkpoint,
		SetupMillis:      setupDur.Milliseconds(),
		Commands:         rt.reg.Len(),
		InvocationsTotal: rt.invocations.Load(),
		FailuresTotal:    rt.failures.Load(),
		Inflight:         int(rt.inflight.Load()),
		QueueLen:         len(rt.queueCh),
		MaxQueueDepth:    cap(rt.queueCh),
		Serialized:       rt.serialize,
		UptimeSeconds:    int64(time.Since(rt.startTime).Seconds()),
		ServerTimeUnix:   time.Now().Unix(),
		Deploy:           deployInfo,
		Error:            setupErr,
	}
}

// Manifest lists the registered commands.
func (rt *Runtime) Manifest() []types.CommandManifest { return rt.reg.Manifest() }
